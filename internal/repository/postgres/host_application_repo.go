package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventra/internal/domain"
)

const pendingApplicationIndex = "host_applications_pending_uniq"

type hostApplicationRepository struct {
	DB DBTX
}

func NewHostApplicationRepository(db DBTX) domain.HostApplicationRepository {
	return &hostApplicationRepository{DB: db}
}

func (r *hostApplicationRepository) Create(ctx context.Context, a *domain.HostApplication) error {
	query := `
		INSERT INTO host_applications (user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, a.UserID, a.Status, a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
	if err != nil {
		if isUniqueViolation(err, pendingApplicationIndex) {
			return domain.ErrAlreadyApplied
		}
		return err
	}
	return nil
}

func (r *hostApplicationRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.HostApplication, error) {
	query := `
		SELECT id, user_id, status, created_at, updated_at
		FROM host_applications
		WHERE id = $1
		FOR UPDATE
	`
	a := &domain.HostApplication{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.UserID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *hostApplicationRepository) UpdateStatus(ctx context.Context, id string, status domain.HostApplicationStatus) error {
	query := `
		UPDATE host_applications
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	res, err := r.DB.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}
