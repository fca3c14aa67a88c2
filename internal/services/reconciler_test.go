package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"eventra/internal/domain"
)

// joinOne joins a fresh client to a fresh capacity-1 event and returns the transaction id.
func joinOne(t *testing.T, f *fixture, fee string) (eventID, transactionID string, actor domain.Actor) {
	t.Helper()
	eventID = f.addEvent(1, domain.EventOpen, future, fee)
	actor = f.addClient(fmt.Sprintf("client-%s@example.com", eventID), domain.UserActive, false)
	res, err := f.booking.Join(context.Background(), actor, eventID)
	require.NoError(t, err)
	return eventID, res.Payment.TransactionID, actor
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPaymentReconciler_SuccessConfirmsAndSplitsIncome(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	eventID, txn, _ := joinOne(t, f, "500.00")

	res, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeSuccess)
	require.NoError(t, err)
	require.False(t, res.Replayed)
	require.Equal(t, domain.PaymentPaid, res.Payment.Status)
	require.Equal(t, domain.ParticipantConfirmed, res.Participant.Status)
	require.Equal(t, 0, res.Event.Capacity)
	require.Equal(t, domain.EventFull, res.Event.Status)

	require.Equal(t, domain.PaymentPaid, f.store.payment(txn).Status)
	require.Equal(t, domain.ParticipantConfirmed, f.store.participant(res.Participant.ID).Status)
	require.True(t, f.store.host(testHostID).Income.Equal(dec("450")))
	require.True(t, f.store.admin(testAdminID).Income.Equal(dec("50")))
	ev := f.store.event(eventID)
	require.Equal(t, 0, ev.Capacity)
	require.Equal(t, domain.EventFull, ev.Status)
	require.Len(t, f.notifier.reconciled, 1)
}

func TestPaymentReconciler_SuccessIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.reconciler.cache = nil
	_, txn, _ := joinOne(t, f, "100")

	_, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeSuccess)
	require.NoError(t, err)
	again, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeSuccess)
	require.NoError(t, err)

	require.True(t, again.Replayed)
	require.Equal(t, domain.PaymentPaid, again.Payment.Status)
	require.Equal(t, domain.ParticipantConfirmed, again.Participant.Status)
	require.True(t, f.store.host(testHostID).Income.Equal(dec("90")))
	require.True(t, f.store.admin(testAdminID).Income.Equal(dec("10")))
	require.Len(t, f.notifier.reconciled, 1)
}

func TestPaymentReconciler_FailReleasesSeat(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	eventID, txn, _ := joinOne(t, f, "100")

	res, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeFail)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentCancelled, res.Payment.Status)
	require.Equal(t, domain.ParticipantLeft, res.Participant.Status)

	ev := f.store.event(eventID)
	require.Equal(t, 1, ev.Capacity)
	require.Equal(t, domain.EventOpen, ev.Status)
	require.True(t, f.store.host(testHostID).Income.IsZero())
}

func TestPaymentReconciler_FailureIsIdempotent(t *testing.T) {
	ctx := context.Background()

	for _, useCache := range []bool{true, false} {
		t.Run(fmt.Sprintf("cache=%v", useCache), func(t *testing.T) {
			f := newFixture()
			if !useCache {
				f.reconciler.cache = nil
			}
			eventID, txn, _ := joinOne(t, f, "100")

			_, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeFail)
			require.NoError(t, err)
			res, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeCancel)
			require.NoError(t, err)
			require.True(t, res.Replayed)
			res, err = f.reconciler.Reconcile(ctx, txn, domain.OutcomeCancel)
			require.NoError(t, err)
			require.True(t, res.Replayed)

			ev := f.store.event(eventID)
			require.Equal(t, 1, ev.Capacity)
			require.Equal(t, domain.EventOpen, ev.Status)
			require.Len(t, f.notifier.reconciled, 1)
		})
	}
}

func TestPaymentReconciler_NoDowngradeOfPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	eventID, txn, _ := joinOne(t, f, "100")

	paid, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeSuccess)
	require.NoError(t, err)

	for _, outcome := range []domain.CallbackOutcome{domain.OutcomeFail, domain.OutcomeCancel, domain.OutcomeExpired} {
		_, err := f.reconciler.Reconcile(ctx, txn, outcome)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	}

	require.Equal(t, domain.PaymentPaid, f.store.payment(txn).Status)
	require.Equal(t, domain.ParticipantConfirmed, f.store.participant(paid.Participant.ID).Status)
	ev := f.store.event(eventID)
	require.Equal(t, 0, ev.Capacity)
	require.Equal(t, domain.EventFull, ev.Status)
	require.True(t, f.store.host(testHostID).Income.Equal(dec("90")))
}

func TestPaymentReconciler_SuccessAfterCancelRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, txn, _ := joinOne(t, f, "100")

	_, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeCancel)
	require.NoError(t, err)
	_, err = f.reconciler.Reconcile(ctx, txn, domain.OutcomeSuccess)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.Equal(t, domain.PaymentCancelled, f.store.payment(txn).Status)
	require.True(t, f.store.host(testHostID).Income.IsZero())
}

func TestPaymentReconciler_LateSuccessAfterLeave(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	eventID, txn, actor := joinOne(t, f, "100")

	left, err := f.booking.Leave(ctx, actor, eventID)
	require.NoError(t, err)
	require.Equal(t, 1, left.UpdatedEvent.Capacity)

	_, err = f.reconciler.Reconcile(ctx, txn, domain.OutcomeSuccess)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.Equal(t, domain.PaymentPending, f.store.payment(txn).Status)
	require.Equal(t, domain.ParticipantLeft, f.store.participant(left.Participant.ID).Status)
	require.True(t, f.store.host(testHostID).Income.IsZero())
	require.True(t, f.store.admin(testAdminID).Income.IsZero())
	ev := f.store.event(eventID)
	require.Equal(t, 1, ev.Capacity)
	require.Equal(t, domain.EventOpen, ev.Status)

	// The abandoned payment is closed later without a second seat release.
	res, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeExpired)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentCancelled, res.Payment.Status)
	require.Equal(t, 1, f.store.event(eventID).Capacity)
}

func TestPaymentReconciler_RollsBackWhenIncomeFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	eventID, txn, _ := joinOne(t, f, "100")
	f.store.failOn("Admins.First", errors.New("db down"))

	_, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeSuccess)
	require.Error(t, err)

	require.Equal(t, domain.PaymentPending, f.store.payment(txn).Status)
	part, err := f.store.view(true).Participants.GetByTransactionID(ctx, txn)
	require.NoError(t, err)
	require.Equal(t, domain.ParticipantPending, part.Status)
	require.True(t, f.store.host(testHostID).Income.IsZero())
	require.Equal(t, 0, f.store.event(eventID).Capacity)
	require.Empty(t, f.notifier.reconciled)
}

func TestPaymentReconciler_InputErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	tests := []struct {
		name    string
		txn     string
		outcome domain.CallbackOutcome
		wantErr error
	}{
		{name: "empty transaction id", txn: "  ", outcome: domain.OutcomeSuccess, wantErr: domain.ErrInvalidInput},
		{name: "unknown outcome", txn: "tran_1", outcome: "refund", wantErr: domain.ErrInvalidInput},
		{name: "unknown transaction", txn: "tran_missing", outcome: domain.OutcomeSuccess, wantErr: domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reconciler.Reconcile(ctx, tt.txn, tt.outcome)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPaymentReconciler_CacheShortCircuitsReplay(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, txn, _ := joinOne(t, f, "100")

	_, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeSuccess)
	require.NoError(t, err)
	commits := f.store.commits

	res, err := f.reconciler.Reconcile(ctx, txn, domain.OutcomeSuccess)
	require.NoError(t, err)
	require.True(t, res.Replayed)
	require.Equal(t, domain.PaymentPaid, res.Payment.Status)
	require.Equal(t, commits, f.store.commits)

	// A cached PAID result never answers a fail callback; the store rejects it.
	_, err = f.reconciler.Reconcile(ctx, txn, domain.OutcomeFail)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestPaymentReconciler_ValidateNotification(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		f := newFixture()
		_, txn, _ := joinOne(t, f, "100")
		f.gateway.validation = &domain.GatewayValidation{Valid: true, Status: "VALID", TransactionID: txn}

		v, err := f.reconciler.ValidateNotification(ctx, "val-1", txn)
		require.NoError(t, err)
		require.True(t, v.Valid)
		require.Equal(t, domain.PaymentPending, f.store.payment(txn).Status)
	})

	t.Run("transaction mismatch", func(t *testing.T) {
		f := newFixture()
		f.gateway.validation = &domain.GatewayValidation{Valid: true, Status: "VALID", TransactionID: "tran_other"}
		v, err := f.reconciler.ValidateNotification(ctx, "val-1", "tran_mine")
		require.NoError(t, err)
		require.False(t, v.Valid)
	})

	t.Run("missing val_id", func(t *testing.T) {
		f := newFixture()
		_, err := f.reconciler.ValidateNotification(ctx, "", "tran_1")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		require.Zero(t, f.gateway.validations)
	})

	t.Run("gateway down", func(t *testing.T) {
		f := newFixture()
		f.gateway.validateErr = errors.New("timeout")
		_, err := f.reconciler.ValidateNotification(ctx, "val-1", "tran_1")
		require.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	})
}

// TestBookingCore_RandomSequences drives random join/leave/callback sequences
// and checks seat and participant consistency after every step.
func TestBookingCore_RandomSequences(t *testing.T) {
	ctx := context.Background()
	outcomes := []domain.CallbackOutcome{domain.OutcomeSuccess, domain.OutcomeFail, domain.OutcomeCancel}

	for seed := int64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			f := newFixture()
			f.reconciler.cache = nil
			const capacity = 3
			eventID := f.addEvent(capacity, domain.EventOpen, future, "25.50")

			actors := make([]domain.Actor, 6)
			clientIDs := make([]string, len(actors))
			for i := range actors {
				actors[i] = f.addClient(fmt.Sprintf("c%d@example.com", i), domain.UserActive, false)
				c, err := f.store.Repos().Clients.GetByEmail(ctx, actors[i].Email)
				require.NoError(t, err)
				clientIDs[i] = c.ID
			}
			var txns []string
			paid := map[string]bool{}

			for step := 0; step < 60; step++ {
				i := rng.Intn(len(actors))
				switch rng.Intn(3) {
				case 0:
					if res, err := f.booking.Join(ctx, actors[i], eventID); err == nil {
						txns = append(txns, res.Payment.TransactionID)
					}
				case 1:
					_, _ = f.booking.Leave(ctx, actors[i], eventID)
				case 2:
					if len(txns) == 0 {
						continue
					}
					txn := txns[rng.Intn(len(txns))]
					outcome := outcomes[rng.Intn(len(outcomes))]
					res, err := f.reconciler.Reconcile(ctx, txn, outcome)
					if err == nil && res.Payment.Status == domain.PaymentPaid {
						paid[txn] = true
					}
				}

				ev := f.store.event(eventID)
				require.GreaterOrEqual(t, ev.Capacity, 0)
				require.Equal(t, ev.Status == domain.EventFull, ev.Capacity == 0)

				held := 0
				for _, id := range clientIDs {
					n := f.store.activeParticipants(eventID, id)
					require.LessOrEqual(t, n, 1)
					held += n
				}
				require.Equal(t, capacity-held, ev.Capacity)
			}

			wantHost := dec("25.50").Mul(dec("0.9")).Round(2).Mul(decimal.NewFromInt(int64(len(paid))))
			require.True(t, f.store.host(testHostID).Income.Equal(wantHost))
		})
	}
}
