package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"eventra/internal/domain"
)

type adminService struct {
	store          domain.Store
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewAdminService(store domain.Store, logger *slog.Logger, timeout time.Duration) domain.AdminService {
	return &adminService{
		store:          store,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// ApproveHostApplication promotes the applicant to HOST. The client profile is
// soft-deleted and a host profile with zero income and rating takes its place.
func (s *adminService) ApproveHostApplication(ctx context.Context, id string) (*domain.Host, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var host *domain.Host
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		app, err := lockApplication(ctx, tx.Applications, id)
		if err != nil {
			return err
		}
		if err := app.Decide(domain.ApplicationApproved); err != nil {
			return err
		}
		user, err := tx.Users.GetByIDForUpdate(ctx, app.UserID)
		if err != nil {
			return fmt.Errorf("load applicant: %w", err)
		}
		client, err := tx.Clients.GetByEmail(ctx, user.Email)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("client profile for %s: %w", user.Email, domain.ErrNotFound)
			}
			return fmt.Errorf("load client: %w", err)
		}

		if err := tx.Applications.UpdateStatus(ctx, app.ID, app.Status); err != nil {
			return fmt.Errorf("update host application: %w", err)
		}
		if err := tx.Users.UpdateRole(ctx, user.ID, domain.RoleHost); err != nil {
			return fmt.Errorf("promote user: %w", err)
		}
		if err := tx.Users.UpdateStatus(ctx, user.ID, domain.UserActive); err != nil {
			return fmt.Errorf("activate user: %w", err)
		}
		if err := tx.Clients.MarkDeleted(ctx, client.ID); err != nil {
			return fmt.Errorf("retire client profile: %w", err)
		}
		host = &domain.Host{
			UserID: user.ID,
			Name:   client.Name,
			Email:  client.Email,
			Income: decimal.Zero,
			Rating: decimal.Zero,
		}
		if err := tx.Hosts.Create(ctx, host); err != nil {
			return fmt.Errorf("create host: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "host application approved", "application_id", id, "host_id", host.ID, "user_id", host.UserID)
	return host, nil
}

// RejectHostApplication closes a PENDING application. The account keeps its client role.
func (s *adminService) RejectHostApplication(ctx context.Context, id string) (*domain.HostApplication, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var app *domain.HostApplication
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		app, err = lockApplication(ctx, tx.Applications, id)
		if err != nil {
			return err
		}
		if err := app.Decide(domain.ApplicationRejected); err != nil {
			return err
		}
		app.UpdatedAt = s.now()
		return tx.Applications.UpdateStatus(ctx, app.ID, app.Status)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "host application rejected", "application_id", id, "user_id", app.UserID)
	return app, nil
}

// SuspendUser blocks sign-in and, for clients, joining and leaving events.
func (s *adminService) SuspendUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.setStatus(ctx, userID, domain.UserSuspended)
}

func (s *adminService) UnsuspendUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.setStatus(ctx, userID, domain.UserActive)
}

func (s *adminService) setStatus(ctx context.Context, userID string, status domain.UserStatus) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var user *domain.User
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		user, err = tx.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
			}
			return fmt.Errorf("load user: %w", err)
		}
		// Admins cannot lock each other out.
		if user.Role == domain.RoleAdmin {
			return domain.ErrForbidden
		}
		if user.Status == status {
			return nil
		}
		user.Status = status
		user.UpdatedAt = s.now()
		return tx.Users.UpdateStatus(ctx, user.ID, status)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user status changed", "user_id", user.ID, "status", user.Status)
	return user, nil
}

func lockApplication(ctx context.Context, apps domain.HostApplicationRepository, id string) (*domain.HostApplication, error) {
	app, err := apps.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("host application %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("lock host application: %w", err)
	}
	return app, nil
}
