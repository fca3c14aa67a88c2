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

type hostService struct {
	store          domain.Store
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewHostService(store domain.Store, logger *slog.Logger, timeout time.Duration) domain.HostService {
	return &hostService{
		store:          store,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// CreateEvent lists a new PENDING event under the caller's host profile.
// It stays closed to joins until an admin approves it.
func (s *hostService) CreateEvent(ctx context.Context, actor domain.Actor, draft domain.EventDraft) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actor.Role != domain.RoleHost {
		return nil, domain.ErrForbidden
	}
	host, err := s.store.Repos().Hosts.GetByEmail(ctx, actor.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("load host: %w", err)
	}

	draft.Title = strings.TrimSpace(draft.Title)
	ev, err := domain.NewPendingEvent(host.ID, draft, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Repos().Events.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.InfoContext(ctx, "event created",
		"event_id", ev.ID,
		"host_id", host.ID,
		"capacity", ev.Capacity,
		"joining_fee", ev.JoiningFee.StringFixed(2),
	)
	return ev, nil
}
