package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventra/internal/domain"
)

const gatewayProductName = "Eventra"

type bookingService struct {
	store          domain.Store
	gateway        domain.PaymentGateway
	ids            domain.TransactionIDGenerator
	notifier       domain.Notifier
	metrics        domain.Metrics
	logger         *slog.Logger
	contextTimeout time.Duration
	gatewayTimeout time.Duration
	now            func() time.Time
}

// BookingDeps are the collaborators of the booking service. Notifier and
// Metrics are optional.
type BookingDeps struct {
	Store          domain.Store
	Gateway        domain.PaymentGateway
	IDs            domain.TransactionIDGenerator
	Notifier       domain.Notifier
	Metrics        domain.Metrics
	Logger         *slog.Logger
	Timeout        time.Duration
	GatewayTimeout time.Duration
}

func NewBookingService(deps BookingDeps) domain.BookingService {
	return &bookingService{
		store:          deps.Store,
		gateway:        deps.Gateway,
		ids:            deps.IDs,
		notifier:       orNopNotifier(deps.Notifier),
		metrics:        orNopMetrics(deps.Metrics),
		logger:         deps.Logger,
		contextTimeout: deps.Timeout,
		gatewayTimeout: deps.GatewayTimeout,
		now:            time.Now,
	}
}

// Join reserves a seat for the client, records the pending participant and
// payment, and opens a gateway session. A gateway failure rolls the whole
// reservation back.
func (s *bookingService) Join(ctx context.Context, actor domain.Actor, eventID string) (*domain.JoinResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	res, err := s.join(ctx, actor, eventID)
	s.metrics.ObserveJoin(resultLabel(err))
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "event joined",
		"event_id", eventID,
		"client_id", res.Participant.ClientID,
		"transaction_id", res.Payment.TransactionID,
		"capacity", res.UpdatedEvent.Capacity,
	)
	s.notifier.Joined(ctx, res)
	return res, nil
}

func (s *bookingService) join(ctx context.Context, actor domain.Actor, eventID string) (*domain.JoinResult, error) {
	repos := s.store.Repos()
	now := s.now()

	client, err := activeClient(ctx, repos.Clients, actor)
	if err != nil {
		return nil, err
	}
	ev, err := getEvent(ctx, repos.Events, eventID)
	if err != nil {
		return nil, err
	}
	switch ev.Status {
	case domain.EventOpen:
	case domain.EventFull:
		return nil, domain.ErrNoSeats
	default:
		return nil, fmt.Errorf("%w: status %s", domain.ErrEventNotOpen, ev.Status)
	}
	if !ev.Date.After(now) {
		return nil, domain.ErrEventDatePassed
	}
	if _, err := repos.Participants.GetActiveByEventAndClient(ctx, eventID, client.ID); err == nil {
		return nil, domain.ErrAlreadyJoined
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check participant: %w", err)
	}

	transactionID := s.ids.Next()
	var res *domain.JoinResult
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		updated, err := reserveSeat(ctx, tx.Events, eventID, now)
		if err != nil {
			return err
		}
		part, err := createPending(ctx, tx.Participants, eventID, client.ID, transactionID, now)
		if err != nil {
			return err
		}
		pay := &domain.Payment{
			TransactionID: transactionID,
			EventID:       updated.ID,
			ClientID:      client.ID,
			HostID:        updated.HostID,
			ParticipantID: &part.ID,
			Amount:        updated.JoiningFee,
			Status:        domain.PaymentPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Payments.Create(ctx, pay); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		session, err := s.initGateway(ctx, client, updated, pay)
		if err != nil {
			return err
		}
		res = &domain.JoinResult{
			PaymentURL:   session.RedirectURL,
			Participant:  part,
			Payment:      pay,
			UpdatedEvent: updated,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// initGateway opens the checkout session while the reservation transaction
// is still open, so a failure here rolls the seat back.
func (s *bookingService) initGateway(ctx context.Context, client *domain.Client, ev *domain.Event, pay *domain.Payment) (*domain.GatewaySession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	start := time.Now()
	session, err := s.gateway.InitSession(ctx, domain.GatewaySessionRequest{
		TransactionID: pay.TransactionID,
		Amount:        pay.Amount,
		ProductName:   gatewayProductName,
		CustomerName:  client.Name,
		CustomerEmail: client.Email,
		CustomerPhone: client.Phone,
	})
	s.metrics.ObserveGateway("init", time.Since(start), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "gateway session init failed",
			"event_id", ev.ID,
			"transaction_id", pay.TransactionID,
			"err", err,
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if session == nil || session.RedirectURL == "" {
		return nil, fmt.Errorf("%w: empty redirect url", domain.ErrGatewayUnavailable)
	}
	return session, nil
}

// Leave marks the client's active participant LEFT and releases its seat.
// The payment is left for the gateway callback or the expiry sweep to close.
func (s *bookingService) Leave(ctx context.Context, actor domain.Actor, eventID string) (*domain.LeaveResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	res, err := s.leave(ctx, actor, eventID)
	s.metrics.ObserveLeave(resultLabel(err))
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "event left",
		"event_id", eventID,
		"participant_id", res.Participant.ID,
		"capacity", res.UpdatedEvent.Capacity,
	)
	s.notifier.Left(ctx, res)
	return res, nil
}

func (s *bookingService) leave(ctx context.Context, actor domain.Actor, eventID string) (*domain.LeaveResult, error) {
	repos := s.store.Repos()
	now := s.now()

	client, err := activeClient(ctx, repos.Clients, actor)
	if err != nil {
		return nil, err
	}
	ev, err := getEvent(ctx, repos.Events, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.Date.After(now) {
		return nil, domain.ErrEventDatePassed
	}

	var res *domain.LeaveResult
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		// Resolve the active row under lock; a callback may have replaced it
		// with a newer one since the client last looked.
		part, err := tx.Participants.GetActiveByEventAndClientForUpdate(ctx, eventID, client.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotJoined
			}
			return fmt.Errorf("lock participant: %w", err)
		}
		changed, err := markParticipantLeft(ctx, tx.Participants, part, now)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrNotJoined
		}
		updated, _, err := releaseSeat(ctx, tx.Events, eventID, now)
		if err != nil {
			return err
		}
		res = &domain.LeaveResult{Participant: part, UpdatedEvent: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CompleteEvent moves a started OPEN or FULL event to COMPLETED. Hosts must
// own the event; ownership is checked against the host profile, not the role.
func (s *bookingService) CompleteEvent(ctx context.Context, actor domain.Actor, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleHost {
		return nil, domain.ErrForbidden
	}

	now := s.now()
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
		if actor.Role == domain.RoleHost {
			if err := requireOwner(ctx, tx.Hosts, actor, ev); err != nil {
				return err
			}
		}
		if err := ev.Complete(now); err != nil {
			return err
		}
		ev.UpdatedAt = now
		return tx.Events.UpdateStatus(ctx, ev.ID, ev.Status)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "event completed", "event_id", ev.ID, "actor", actor.UserID, "role", actor.Role)
	s.notifier.Completed(ctx, ev)
	return ev, nil
}

func (s *bookingService) ListParticipants(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.EventParticipant, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	repos := s.store.Repos()
	if _, err := getEvent(ctx, repos.Events, eventID); err != nil {
		return nil, 0, err
	}
	list, total, err := repos.Participants.ListActiveByEventID(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list participants: %w", err)
	}
	if list == nil {
		list = []*domain.EventParticipant{}
	}
	return list, total, nil
}

// activeClient loads the caller's client profile and checks it may book.
func activeClient(ctx context.Context, clients domain.ClientRepository, actor domain.Actor) (*domain.Client, error) {
	if actor.Role != domain.RoleClient {
		return nil, domain.ErrForbidden
	}
	client, err := clients.GetByEmail(ctx, actor.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("client: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load client: %w", err)
	}
	if !client.CanBook() {
		return nil, domain.ErrAccountInactive
	}
	return client, nil
}

func getEvent(ctx context.Context, events domain.EventRepository, eventID string) (*domain.Event, error) {
	ev, err := events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	return ev, nil
}

// requireOwner checks that the host behind actor owns ev.
func requireOwner(ctx context.Context, hosts domain.HostRepository, actor domain.Actor, ev *domain.Event) error {
	host, err := hosts.GetByEmail(ctx, actor.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrForbidden
		}
		return fmt.Errorf("load host: %w", err)
	}
	if host.ID != ev.HostID {
		return domain.ErrForbidden
	}
	return nil
}
