package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventra/internal/domain"
)

const paymentColumns = `id, transaction_id, event_id, client_id, host_id, participant_id, amount, payment_status, created_at, updated_at`

type paymentRepository struct {
	DB DBTX
}

func NewPaymentRepository(db DBTX) domain.PaymentRepository {
	return &paymentRepository{
		DB: db,
	}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (transaction_id, event_id, client_id, host_id, participant_id, amount, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		p.TransactionID, p.EventID, p.ClientID, p.HostID, p.ParticipantID, p.Amount, p.Status, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1`
	return r.get(ctx, query, transactionID)
}

func (r *paymentRepository) GetByTransactionIDForUpdate(ctx context.Context, transactionID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1 FOR UPDATE`
	return r.get(ctx, query, transactionID)
}

func (r *paymentRepository) get(ctx context.Context, query, transactionID string) (*domain.Payment, error) {
	p := &domain.Payment{}
	var participantID sql.NullString
	err := r.DB.QueryRowContext(ctx, query, transactionID).
		Scan(&p.ID, &p.TransactionID, &p.EventID, &p.ClientID, &p.HostID, &participantID, &p.Amount, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if participantID.Valid {
		p.ParticipantID = &participantID.String
	}
	return p, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	query := `
		UPDATE payments
		SET payment_status = $1, updated_at = NOW()
		WHERE id = $2
	`
	res, err := r.DB.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *paymentRepository) ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]string, error) {
	query := `
		SELECT transaction_id
		FROM payments
		WHERE payment_status = 'PENDING' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, query, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
