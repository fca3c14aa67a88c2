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

type paymentReconciler struct {
	store          domain.Store
	gateway        domain.PaymentGateway
	cache          domain.ReplayCache
	notifier       domain.Notifier
	metrics        domain.Metrics
	logger         *slog.Logger
	contextTimeout time.Duration
	gatewayTimeout time.Duration
	now            func() time.Time
}

// ReconcilerDeps are the collaborators of the payment reconciler. Cache,
// Notifier and Metrics are optional.
type ReconcilerDeps struct {
	Store          domain.Store
	Gateway        domain.PaymentGateway
	Cache          domain.ReplayCache
	Notifier       domain.Notifier
	Metrics        domain.Metrics
	Logger         *slog.Logger
	Timeout        time.Duration
	GatewayTimeout time.Duration
}

func NewPaymentReconciler(deps ReconcilerDeps) domain.PaymentReconciler {
	return &paymentReconciler{
		store:          deps.Store,
		gateway:        deps.Gateway,
		cache:          deps.Cache,
		notifier:       orNopNotifier(deps.Notifier),
		metrics:        orNopMetrics(deps.Metrics),
		logger:         deps.Logger,
		contextTimeout: deps.Timeout,
		gatewayTimeout: deps.GatewayTimeout,
		now:            time.Now,
	}
}

// Reconcile applies one gateway callback. Callbacks against a payment that is
// already in the matching terminal state return the current state with
// Replayed set and run no side effects.
func (s *paymentReconciler) Reconcile(ctx context.Context, transactionID string, outcome domain.CallbackOutcome) (*domain.ReconcileResult, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", domain.ErrInvalidInput)
	}
	if !outcome.Valid() {
		return nil, fmt.Errorf("%w: unknown callback outcome %q", domain.ErrInvalidInput, outcome)
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if res := s.cachedReplay(ctx, transactionID, outcome); res != nil {
		s.logResult(ctx, res, "cache")
		s.metrics.ObserveReconcile(outcome, "replayed")
		return res, nil
	}

	now := s.now()
	var res *domain.ReconcileResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		pay, err := repos.Payments.GetByTransactionIDForUpdate(ctx, transactionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("payment %s: %w", transactionID, domain.ErrNotFound)
			}
			return fmt.Errorf("lock payment: %w", err)
		}

		next, action := domain.DecidePayment(pay.Status, outcome)
		switch action {
		case domain.ActionReject:
			return fmt.Errorf("%w: %s callback on %s payment %s", domain.ErrInvalidTransition, outcome, pay.Status, transactionID)
		case domain.ActionReplay:
			res, err = s.currentState(ctx, repos, pay, outcome)
			return err
		}

		if next == domain.PaymentPaid {
			res, err = s.applyPaid(ctx, repos, pay, now)
		} else {
			res, err = s.applyCancelled(ctx, repos, pay, now)
		}
		if err != nil {
			return err
		}
		res.Outcome = outcome
		return nil
	})
	if err != nil {
		s.metrics.ObserveReconcile(outcome, resultLabel(err))
		s.logger.WarnContext(ctx, "reconcile failed",
			"transaction_id", transactionID,
			"outcome", outcome,
			"err", err,
		)
		return nil, err
	}

	s.remember(ctx, res)
	s.logResult(ctx, res, "store")
	if res.Replayed {
		s.metrics.ObserveReconcile(outcome, "replayed")
		return res, nil
	}
	s.metrics.ObserveReconcile(outcome, "applied")
	s.notifier.Reconciled(ctx, res)
	return res, nil
}

// applyPaid confirms the participant, marks the payment PAID and splits the
// income. The seat stays reserved.
func (s *paymentReconciler) applyPaid(ctx context.Context, repos domain.Repositories, pay *domain.Payment, now time.Time) (*domain.ReconcileResult, error) {
	part, err := lockPaymentParticipant(ctx, repos.Participants, pay)
	if err != nil {
		return nil, fmt.Errorf("lock participant: %w", err)
	}
	if err := confirmParticipant(ctx, repos.Participants, part, now); err != nil {
		return nil, err
	}

	pay.Status = domain.PaymentPaid
	pay.UpdatedAt = now
	if err := repos.Payments.UpdateStatus(ctx, pay.ID, pay.Status); err != nil {
		return nil, fmt.Errorf("mark payment paid: %w", err)
	}
	if err := distributeIncome(ctx, repos, pay); err != nil {
		return nil, err
	}

	ev, err := repos.Events.GetByID(ctx, pay.EventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	return &domain.ReconcileResult{
		TransactionID: pay.TransactionID,
		Payment:       pay,
		Participant:   part,
		Event:         ev,
	}, nil
}

// applyCancelled marks the payment CANCELLED and, if the participant was
// still active, marks it LEFT and releases its seat.
func (s *paymentReconciler) applyCancelled(ctx context.Context, repos domain.Repositories, pay *domain.Payment, now time.Time) (*domain.ReconcileResult, error) {
	part, err := lockPaymentParticipant(ctx, repos.Participants, pay)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lock participant: %w", err)
	}

	left := false
	if part != nil {
		if left, err = markParticipantLeft(ctx, repos.Participants, part, now); err != nil {
			return nil, err
		}
	}

	pay.Status = domain.PaymentCancelled
	pay.UpdatedAt = now
	if err := repos.Payments.UpdateStatus(ctx, pay.ID, pay.Status); err != nil {
		return nil, fmt.Errorf("mark payment cancelled: %w", err)
	}

	var ev *domain.Event
	if left {
		ev, _, err = releaseSeat(ctx, repos.Events, pay.EventID, now)
	} else {
		ev, err = repos.Events.GetByID(ctx, pay.EventID)
	}
	if err != nil {
		return nil, err
	}
	return &domain.ReconcileResult{
		TransactionID: pay.TransactionID,
		Payment:       pay,
		Participant:   part,
		Event:         ev,
	}, nil
}

func (s *paymentReconciler) currentState(ctx context.Context, repos domain.Repositories, pay *domain.Payment, outcome domain.CallbackOutcome) (*domain.ReconcileResult, error) {
	res := &domain.ReconcileResult{
		TransactionID: pay.TransactionID,
		Outcome:       outcome,
		Replayed:      true,
		Payment:       pay,
	}
	part, err := repos.Participants.GetByTransactionID(ctx, pay.TransactionID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load participant: %w", err)
	}
	res.Participant = part
	ev, err := repos.Events.GetByID(ctx, pay.EventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	res.Event = ev
	return res, nil
}

// cachedReplay returns a cached result only when the cached payment status
// makes this callback a replay. Anything else falls through to the store.
func (s *paymentReconciler) cachedReplay(ctx context.Context, transactionID string, outcome domain.CallbackOutcome) *domain.ReconcileResult {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.Get(ctx, transactionID)
	if err != nil {
		s.logger.WarnContext(ctx, "replay cache get failed", "transaction_id", transactionID, "err", err)
		return nil
	}
	if cached == nil || cached.Payment == nil {
		return nil
	}
	if _, action := domain.DecidePayment(cached.Payment.Status, outcome); action != domain.ActionReplay {
		return nil
	}
	res := *cached
	res.Outcome = outcome
	res.Replayed = true
	return &res
}

func (s *paymentReconciler) remember(ctx context.Context, res *domain.ReconcileResult) {
	if s.cache == nil || res.Payment == nil || !res.Payment.Status.IsTerminal() {
		return
	}
	if err := s.cache.Put(ctx, res); err != nil {
		s.logger.WarnContext(ctx, "replay cache put failed", "transaction_id", res.TransactionID, "err", err)
	}
}

func (s *paymentReconciler) logResult(ctx context.Context, res *domain.ReconcileResult, source string) {
	s.logger.InfoContext(ctx, "payment reconciled",
		"transaction_id", res.TransactionID,
		"outcome", res.Outcome,
		"replayed", res.Replayed,
		"payment_status", res.Payment.Status,
		"source", source,
	)
}

// ValidateNotification asks the gateway to validate an IPN. No state changes.
func (s *paymentReconciler) ValidateNotification(ctx context.Context, valID, transactionID string) (*domain.GatewayValidation, error) {
	valID = strings.TrimSpace(valID)
	if valID == "" {
		return nil, fmt.Errorf("%w: val_id is required", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	start := time.Now()
	v, err := s.gateway.Validate(ctx, valID)
	s.metrics.ObserveGateway("validate", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if transactionID != "" && v.TransactionID != "" && v.TransactionID != transactionID {
		v.Valid = false
	}
	s.logger.InfoContext(ctx, "payment notification validated",
		"transaction_id", transactionID,
		"valid", v.Valid,
		"status", v.Status,
	)
	return v, nil
}
