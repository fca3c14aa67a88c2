package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventra/internal/domain"
)

// reserveSeat locks the event row, takes one seat and persists capacity and
// status together. It must run inside a transaction.
func reserveSeat(ctx context.Context, events domain.EventRepository, eventID string, now time.Time) (*domain.Event, error) {
	ev, err := events.GetByIDForUpdate(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}
	if err := ev.ReserveSeat(); err != nil {
		return nil, err
	}
	ev.UpdatedAt = now
	if err := events.UpdateInventory(ctx, ev); err != nil {
		return nil, fmt.Errorf("update inventory: %w", err)
	}
	return ev, nil
}

// releaseSeat locks the event row and gives one seat back. Events outside
// OPEN/FULL are returned unchanged with released=false.
func releaseSeat(ctx context.Context, events domain.EventRepository, eventID string, now time.Time) (ev *domain.Event, released bool, err error) {
	ev, err = events.GetByIDForUpdate(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
		}
		return nil, false, fmt.Errorf("lock event: %w", err)
	}
	if !ev.ReleaseSeat() {
		return ev, false, nil
	}
	ev.UpdatedAt = now
	if err := events.UpdateInventory(ctx, ev); err != nil {
		return nil, false, fmt.Errorf("update inventory: %w", err)
	}
	return ev, true, nil
}
