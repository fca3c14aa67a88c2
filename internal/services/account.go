package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventra/internal/domain"
)

type accountService struct {
	store          domain.Store
	hasher         domain.PasswordHasher
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewAccountService(store domain.Store, hasher domain.PasswordHasher, logger *slog.Logger, timeout time.Duration) domain.AccountService {
	return &accountService{
		store:          store,
		hasher:         hasher,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// RegisterClient creates an ACTIVE client account and its profile in one transaction.
func (s *accountService) RegisterClient(ctx context.Context, in domain.ClientRegistration) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Email == "" || in.Name == "":
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidInput)
	case len(in.Password) < minPasswordLen:
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	if _, err := s.store.Repos().Users.GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var client *domain.Client
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		user := &domain.User{
			Email:        in.Email,
			PasswordHash: hash,
			Role:         domain.RoleClient,
			Status:       domain.UserActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Users.Create(ctx, user); err != nil {
			if errors.Is(err, domain.ErrEmailTaken) {
				return err
			}
			return fmt.Errorf("create user: %w", err)
		}
		client = &domain.Client{
			UserID: user.ID,
			Name:   in.Name,
			Email:  in.Email,
			Phone:  strings.TrimSpace(in.Phone),
			Status: domain.UserActive,
		}
		if err := tx.Clients.Create(ctx, client); err != nil {
			if errors.Is(err, domain.ErrEmailTaken) {
				return err
			}
			return fmt.Errorf("create client: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "client registered", "client_id", client.ID, "user_id", client.UserID)
	return client, nil
}

// ApplyForHost files a PENDING host application for the calling client.
func (s *accountService) ApplyForHost(ctx context.Context, actor domain.Actor) (*domain.HostApplication, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	client, err := activeClient(ctx, s.store.Repos().Clients, actor)
	if err != nil {
		return nil, err
	}
	now := s.now()
	app := &domain.HostApplication{
		UserID:    client.UserID,
		Status:    domain.ApplicationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Repos().Applications.Create(ctx, app); err != nil {
		if errors.Is(err, domain.ErrAlreadyApplied) {
			return nil, err
		}
		return nil, fmt.Errorf("create host application: %w", err)
	}
	s.logger.InfoContext(ctx, "host application filed", "application_id", app.ID, "user_id", app.UserID)
	return app, nil
}
