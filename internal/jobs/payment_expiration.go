package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"eventra/internal/domain"
)

const (
	DefaultExpiryInterval = 30 * time.Second
	DefaultPaymentExpiry  = 30 * time.Minute
	expiryBatchSize       = 100
)

// ExpiredPaymentLister finds PENDING payments created before a cutoff.
type ExpiredPaymentLister interface {
	ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]string, error)
}

// PaymentExpirationJob cancels payments whose gateway session was abandoned,
// releasing the seat held by the pending participant.
type PaymentExpirationJob struct {
	payments   ExpiredPaymentLister
	reconciler domain.PaymentReconciler
	logger     *slog.Logger
	interval   time.Duration
	expiry     time.Duration
	now        func() time.Time

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewPaymentExpirationJob(payments ExpiredPaymentLister, reconciler domain.PaymentReconciler, logger *slog.Logger, interval, expiry time.Duration) *PaymentExpirationJob {
	if interval <= 0 {
		interval = DefaultExpiryInterval
	}
	if expiry <= 0 {
		expiry = DefaultPaymentExpiry
	}
	return &PaymentExpirationJob{
		payments:   payments,
		reconciler: reconciler,
		logger:     logger,
		interval:   interval,
		expiry:     expiry,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval until Stop or
// ctx is done. Sweeps never overlap.
func (j *PaymentExpirationJob) Start(ctx context.Context) {
	j.logger.Info("starting payment expiration job", "check_interval", j.interval, "expiry", j.expiry)
	j.ticker = time.NewTicker(j.interval)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.Sweep(ctx)
		for {
			select {
			case <-j.ticker.C:
				j.Sweep(ctx)
			case <-ctx.Done():
				return
			case <-j.done:
				return
			}
		}
	}()
}

// Stop halts the ticker and waits for an in-flight sweep to finish.
func (j *PaymentExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
	j.wg.Wait()
	j.logger.Info("payment expiration job stopped")
}

// Sweep expires one batch of stale pending payments and returns how many
// were cancelled.
func (j *PaymentExpirationJob) Sweep(ctx context.Context) int {
	cutoff := j.now().Add(-j.expiry)
	txnIDs, err := j.payments.ListExpiredPending(ctx, cutoff, expiryBatchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "list expired payments", "err", err)
		return 0
	}
	if len(txnIDs) == 0 {
		j.logger.DebugContext(ctx, "no expired payments")
		return 0
	}
	j.logger.InfoContext(ctx, "expiring pending payments", "count", len(txnIDs))

	expired := 0
	for _, txnID := range txnIDs {
		if ctx.Err() != nil {
			break
		}
		res, err := j.reconciler.Reconcile(ctx, txnID, domain.OutcomeExpired)
		switch {
		case err == nil:
			if !res.Replayed {
				expired++
				j.logger.InfoContext(ctx, "payment expired", "transaction_id", txnID)
			}
		case errors.Is(err, domain.ErrInvalidTransition):
			// Paid between the listing and the lock.
			j.logger.DebugContext(ctx, "payment settled before expiry", "transaction_id", txnID)
		default:
			j.logger.ErrorContext(ctx, "expire payment", "transaction_id", txnID, "err", err)
		}
	}
	return expired
}
