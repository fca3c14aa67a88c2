package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventra/internal/domain"
)

type reviewService struct {
	store          domain.Store
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewReviewService(store domain.Store, logger *slog.Logger, timeout time.Duration) domain.ReviewService {
	return &reviewService{
		store:          store,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// CreateReview records the paying client's rating of a completed event and
// folds it into the host's running average in the same transaction.
func (s *reviewService) CreateReview(ctx context.Context, actor domain.Actor, transactionID string, rating int, comment string) (*domain.Review, *domain.Host, error) {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return nil, nil, fmt.Errorf("%w: rating must be between %d and %d", domain.ErrInvalidInput, domain.MinRating, domain.MaxRating)
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, nil, fmt.Errorf("%w: transaction id is required", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	repos := s.store.Repos()
	client, err := activeClient(ctx, repos.Clients, actor)
	if err != nil {
		return nil, nil, err
	}
	pay, err := repos.Payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("payment %s: %w", transactionID, domain.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("load payment: %w", err)
	}
	if pay.ClientID != client.ID {
		return nil, nil, domain.ErrForbidden
	}
	if pay.Status != domain.PaymentPaid {
		return nil, nil, fmt.Errorf("%w: payment is %s", domain.ErrReviewNotAllowed, pay.Status)
	}
	ev, err := getEvent(ctx, repos.Events, pay.EventID)
	if err != nil {
		return nil, nil, err
	}
	if ev.Status != domain.EventCompleted {
		return nil, nil, fmt.Errorf("%w: event is %s", domain.ErrReviewNotAllowed, ev.Status)
	}

	review := &domain.Review{
		EventID:   ev.ID,
		ClientID:  client.ID,
		HostID:    ev.HostID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: s.now(),
	}
	var host *domain.Host
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		exists, err := tx.Reviews.ExistsForEventAndClient(ctx, ev.ID, client.ID)
		if err != nil {
			return fmt.Errorf("check review: %w", err)
		}
		if exists {
			return domain.ErrAlreadyReviewed
		}
		host, err = tx.Hosts.GetByIDForUpdate(ctx, ev.HostID)
		if err != nil {
			return fmt.Errorf("lock host: %w", err)
		}
		if err := tx.Reviews.Create(ctx, review); err != nil {
			if errors.Is(err, domain.ErrAlreadyReviewed) {
				return err
			}
			return fmt.Errorf("create review: %w", err)
		}
		host.Rating, host.RatingCount = domain.NextRating(host.Rating, host.RatingCount, rating)
		return tx.Hosts.UpdateRating(ctx, host.ID, host.Rating, host.RatingCount)
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.InfoContext(ctx, "review created", "event_id", ev.ID, "host_id", host.ID, "rating", rating)
	return review, host, nil
}
