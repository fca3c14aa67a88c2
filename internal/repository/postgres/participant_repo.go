package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventra/internal/domain"
)

const (
	activeParticipantIndex = "event_participants_active_uniq"
	participantColumns     = `id, event_id, client_id, transaction_id, participant_status, created_at, updated_at`
)

type participantRepository struct {
	DB DBTX
}

func NewParticipantRepository(db DBTX) domain.ParticipantRepository {
	return &participantRepository{
		DB: db,
	}
}

func (r *participantRepository) Create(ctx context.Context, p *domain.EventParticipant) error {
	query := `
		INSERT INTO event_participants (event_id, client_id, transaction_id, participant_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, p.EventID, p.ClientID, p.TransactionID, p.Status, p.CreatedAt, p.UpdatedAt).
		Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err, activeParticipantIndex) {
			return domain.ErrAlreadyJoined
		}
		return err
	}
	return nil
}

func (r *participantRepository) GetActiveByEventAndClient(ctx context.Context, eventID, clientID string) (*domain.EventParticipant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM event_participants
		WHERE event_id = $1 AND client_id = $2 AND participant_status <> 'LEFT'
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, eventID, clientID))
}

// GetActiveByEventAndClientForUpdate re-checks the LEFT filter after the lock
// is granted, so a row left by a concurrent transaction is never returned.
func (r *participantRepository) GetActiveByEventAndClientForUpdate(ctx context.Context, eventID, clientID string) (*domain.EventParticipant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM event_participants
		WHERE event_id = $1 AND client_id = $2 AND participant_status <> 'LEFT'
		FOR UPDATE
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, eventID, clientID))
}

func (r *participantRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *participantRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants WHERE transaction_id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, transactionID))
}

func (r *participantRepository) scanOne(row *sql.Row) (*domain.EventParticipant, error) {
	p := &domain.EventParticipant{}
	err := row.Scan(&p.ID, &p.EventID, &p.ClientID, &p.TransactionID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) UpdateStatus(ctx context.Context, id string, status domain.ParticipantStatus) error {
	query := `
		UPDATE event_participants
		SET participant_status = $1, updated_at = NOW()
		WHERE id = $2
	`
	res, err := r.DB.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *participantRepository) ListActiveByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.EventParticipant, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM event_participants
		WHERE event_id = $1 AND participant_status <> 'LEFT'
	`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + participantColumns + `
		FROM event_participants
		WHERE event_id = $1 AND participant_status <> 'LEFT'
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]*domain.EventParticipant, 0)
	for rows.Next() {
		p := &domain.EventParticipant{}
		if err := rows.Scan(&p.ID, &p.EventID, &p.ClientID, &p.TransactionID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
