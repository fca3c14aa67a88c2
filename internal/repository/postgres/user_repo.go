package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventra/internal/domain"
)

const usersEmailConstraint = "users_email_key"

type userRepository struct {
	DB DBTX
}

func NewUserRepository(db DBTX) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (email, password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, u.Email, u.PasswordHash, u.Role, u.Status, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if isUniqueViolation(err, usersEmailConstraint) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, role, status, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.get(ctx, query, email)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, role, status, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.get(ctx, query, id)
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, role, status, created_at, updated_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	return r.get(ctx, query, id)
}

func (r *userRepository) get(ctx context.Context, query, arg string) (*domain.User, error) {
	u := &domain.User{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) ExistsWithRole(ctx context.Context, role domain.Role) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, role).Scan(&exists)
	return exists, err
}

func (r *userRepository) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

type clientRepository struct {
	DB DBTX
}

func NewClientRepository(db DBTX) domain.ClientRepository {
	return &clientRepository{DB: db}
}

const clientSelect = `
	SELECT c.id, c.user_id, c.name, c.email, c.phone, c.is_deleted, u.status
	FROM clients c
	JOIN users u ON u.id = c.user_id
`

func (r *clientRepository) Create(ctx context.Context, c *domain.Client) error {
	query := `
		INSERT INTO clients (user_id, name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, c.UserID, c.Name, c.Email, c.Phone).Scan(&c.ID)
	if isUniqueViolation(err, "clients_email_key") {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *clientRepository) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	return r.get(ctx, clientSelect+` WHERE c.email = $1`, email)
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return r.get(ctx, clientSelect+` WHERE c.id = $1`, id)
}

func (r *clientRepository) get(ctx context.Context, query, arg string) (*domain.Client, error) {
	c := &domain.Client{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.IsDeleted, &c.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *clientRepository) MarkDeleted(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE clients SET is_deleted = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}
