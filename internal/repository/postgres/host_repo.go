package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"eventra/internal/domain"
)

const hostColumns = `id, user_id, name, email, income, rating, rating_count`

type hostRepository struct {
	DB DBTX
}

func NewHostRepository(db DBTX) domain.HostRepository {
	return &hostRepository{DB: db}
}

func (r *hostRepository) Create(ctx context.Context, h *domain.Host) error {
	query := `
		INSERT INTO hosts (user_id, name, email, income, rating, rating_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, h.UserID, h.Name, h.Email, h.Income, h.Rating, h.RatingCount).Scan(&h.ID)
}

func (r *hostRepository) GetByEmail(ctx context.Context, email string) (*domain.Host, error) {
	return r.get(ctx, `SELECT `+hostColumns+` FROM hosts WHERE email = $1`, email)
}

func (r *hostRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Host, error) {
	return r.get(ctx, `SELECT `+hostColumns+` FROM hosts WHERE id = $1 FOR UPDATE`, id)
}

func (r *hostRepository) get(ctx context.Context, query, arg string) (*domain.Host, error) {
	h := &domain.Host{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&h.ID, &h.UserID, &h.Name, &h.Email, &h.Income, &h.Rating, &h.RatingCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// AddIncome increments in SQL so concurrent credits never overwrite each other.
func (r *hostRepository) AddIncome(ctx context.Context, id string, amount decimal.Decimal) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE hosts SET income = income + $1 WHERE id = $2`, amount, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *hostRepository) UpdateRating(ctx context.Context, id string, rating decimal.Decimal, count int) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE hosts SET rating = $1, rating_count = $2 WHERE id = $3`, rating, count, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

type adminRepository struct {
	DB DBTX
}

func NewAdminRepository(db DBTX) domain.AdminRepository {
	return &adminRepository{DB: db}
}

func (r *adminRepository) Create(ctx context.Context, a *domain.Admin) error {
	query := `
		INSERT INTO admins (user_id, name, email, income)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, a.UserID, a.Name, a.Email, a.Income).Scan(&a.ID)
}

func (r *adminRepository) First(ctx context.Context) (*domain.Admin, error) {
	query := `
		SELECT id, user_id, name, email, income
		FROM admins
		ORDER BY created_at, id
		LIMIT 1
	`
	a := &domain.Admin{}
	err := r.DB.QueryRowContext(ctx, query).Scan(&a.ID, &a.UserID, &a.Name, &a.Email, &a.Income)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *adminRepository) AddIncome(ctx context.Context, id string, amount decimal.Decimal) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE admins SET income = income + $1 WHERE id = $2`, amount, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}
