package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"eventra/internal/domain"
)

const minPasswordLen = 8

type authService struct {
	store          domain.Store
	hasher         domain.PasswordHasher
	issuer         domain.TokenIssuer
	tokenExpiry    time.Duration
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewAuthService creates an AuthService backed by the store, password hasher and token issuer.
func NewAuthService(store domain.Store, hasher domain.PasswordHasher, issuer domain.TokenIssuer, tokenExpiry time.Duration, logger *slog.Logger, timeout time.Duration) domain.AuthService {
	return &authService{
		store:          store,
		hasher:         hasher,
		issuer:         issuer,
		tokenExpiry:    tokenExpiry,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.store.Repos().Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if user.Status != domain.UserActive {
		return "", nil, domain.ErrAccountInactive
	}
	token, err := s.issuer.Issue(user.ID, user.Email, user.Role, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *authService) SeedAdmin(ctx context.Context, email, password string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	exists, err := s.store.Repos().Users.ExistsWithRole(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return nil
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || len(password) < minPasswordLen {
		s.logger.WarnContext(ctx, "admin seed skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	now := time.Now()
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		user := &domain.User{
			Email:        email,
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
			Status:       domain.UserActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		return tx.Admins.Create(ctx, &domain.Admin{
			UserID: user.ID,
			Name:   "Admin",
			Email:  email,
			Income: decimal.Zero,
		})
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "admin seeded", "email", email)
	return nil
}
