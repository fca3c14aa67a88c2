package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventra/internal/domain"
)

type moderationService struct {
	store          domain.Store
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventModerationService(store domain.Store, logger *slog.Logger, timeout time.Duration) domain.EventModerationService {
	return &moderationService{
		store:          store,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// Approve opens a PENDING event. An event approved with no seats goes straight to FULL.
func (s *moderationService) Approve(ctx context.Context, eventID string) (*domain.Event, error) {
	return s.transition(ctx, eventID, func(ctx context.Context, _ domain.Repositories, ev *domain.Event) error {
		if err := ev.TransitionTo(domain.EventOpen); err != nil {
			return err
		}
		if ev.Capacity == 0 {
			return ev.TransitionTo(domain.EventFull)
		}
		return nil
	})
}

func (s *moderationService) Reject(ctx context.Context, eventID string) (*domain.Event, error) {
	return s.transition(ctx, eventID, func(ctx context.Context, _ domain.Repositories, ev *domain.Event) error {
		return ev.TransitionTo(domain.EventRejected)
	})
}

// Cancel withdraws a PENDING event on behalf of its owning host.
func (s *moderationService) Cancel(ctx context.Context, actor domain.Actor, eventID string) (*domain.Event, error) {
	if actor.Role != domain.RoleHost {
		return nil, domain.ErrForbidden
	}
	return s.transition(ctx, eventID, func(ctx context.Context, tx domain.Repositories, ev *domain.Event) error {
		if err := requireOwner(ctx, tx.Hosts, actor, ev); err != nil {
			return err
		}
		return ev.TransitionTo(domain.EventCancelled)
	})
}

func (s *moderationService) transition(ctx context.Context, eventID string, apply func(context.Context, domain.Repositories, *domain.Event) error) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var ev *domain.Event
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		ev, err = tx.Events.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
			}
			return fmt.Errorf("lock event: %w", err)
		}
		from := ev.Status
		if err := apply(ctx, tx, ev); err != nil {
			return err
		}
		ev.UpdatedAt = s.now()
		if err := tx.Events.UpdateInventory(ctx, ev); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		s.logger.InfoContext(ctx, "event status changed", "event_id", ev.ID, "from", from, "to", ev.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}
