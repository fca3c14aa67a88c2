package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"eventra/internal/domain"
)

var paymentCols = []string{"id", "transaction_id", "event_id", "client_id", "host_id", "participant_id", "amount", "payment_status", "created_at", "updated_at"}

func TestPaymentRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	pid := "p-1"
	mock.ExpectQuery(`INSERT INTO payments`).
		WithArgs("tran_1", "ev-1", "cl-1", "host-1", "p-1", sqlmock.AnyArg(), domain.PaymentPending, ts, ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("pay-1"))

	pay := &domain.Payment{
		TransactionID: "tran_1",
		EventID:       "ev-1",
		ClientID:      "cl-1",
		HostID:        "host-1",
		ParticipantID: &pid,
		Amount:        decimal.RequireFromString("50.00"),
		Status:        domain.PaymentPending,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	require.NoError(t, NewPaymentRepository(db).Create(context.Background(), pay))
	require.Equal(t, "pay-1", pay.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_GetByTransactionIDForUpdate(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		rows            *sqlmock.Rows
		wantParticipant *string
		errIs           error
	}{
		{
			name:            "with participant",
			rows:            sqlmock.NewRows(paymentCols).AddRow("pay-1", "tran_1", "ev-1", "cl-1", "host-1", "p-1", "50.00", "PENDING", ts, ts),
			wantParticipant: strPtr("p-1"),
		},
		{
			name: "null participant",
			rows: sqlmock.NewRows(paymentCols).AddRow("pay-1", "tran_1", "ev-1", "cl-1", "host-1", nil, "50.00", "PAID", ts, ts),
		},
		{
			name:  "not found",
			rows:  sqlmock.NewRows(paymentCols),
			errIs: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(`FROM payments WHERE transaction_id = \$1 FOR UPDATE`).
				WithArgs("tran_1").
				WillReturnRows(tt.rows)

			got, err := NewPaymentRepository(db).GetByTransactionIDForUpdate(ctx, "tran_1")
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantParticipant, got.ParticipantID)
			require.True(t, got.Amount.Equal(decimal.RequireFromString("50")))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepository_ListExpiredPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE payment_status = 'PENDING' AND created_at < \$1`).
		WithArgs(cutoff, 50).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow("tran_1").AddRow("tran_2"))

	ids, err := NewPaymentRepository(db).ListExpiredPending(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Equal(t, []string{"tran_1", "tran_2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE payments`).
		WithArgs(domain.PaymentPaid, "pay-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPaymentRepository(db).UpdateStatus(context.Background(), "pay-1", domain.PaymentPaid)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func strPtr(s string) *string { return &s }
