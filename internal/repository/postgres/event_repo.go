package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventra/internal/domain"
)

const eventColumns = `id, host_id, title, capacity, status, event_date, joining_fee, created_at, updated_at`

type eventRepository struct {
	DB DBTX
}

func NewEventRepository(db DBTX) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (host_id, title, capacity, status, event_date, joining_fee, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, e.HostID, e.Title, e.Capacity, e.Status, e.Date, e.JoiningFee, e.CreatedAt, e.UpdatedAt).
		Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *eventRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *eventRepository) get(ctx context.Context, query, id string) (*domain.Event, error) {
	e := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&e.ID, &e.HostID, &e.Title, &e.Capacity, &e.Status, &e.Date, &e.JoiningFee, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) UpdateInventory(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET capacity = $1, status = $2, updated_at = $3
		WHERE id = $4
	`
	res, err := r.DB.ExecContext(ctx, query, e.Capacity, e.Status, e.UpdatedAt, e.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) error {
	query := `
		UPDATE events
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	res, err := r.DB.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}
