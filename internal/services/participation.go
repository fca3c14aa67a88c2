package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventra/internal/domain"
)

// createPending inserts a PENDING participant unless the client already has
// an active one for the event.
func createPending(ctx context.Context, participants domain.ParticipantRepository, eventID, clientID, transactionID string, now time.Time) (*domain.EventParticipant, error) {
	_, err := participants.GetActiveByEventAndClient(ctx, eventID, clientID)
	switch {
	case err == nil:
		return nil, domain.ErrAlreadyJoined
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("check participant: %w", err)
	}
	p := domain.NewPendingParticipant(eventID, clientID, transactionID, now)
	if err := participants.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrAlreadyJoined) {
			return nil, err
		}
		return nil, fmt.Errorf("create participant: %w", err)
	}
	return p, nil
}

// lockPaymentParticipant locks the participant a payment funds. Payments
// without a participant reference fall back to the transaction id.
func lockPaymentParticipant(ctx context.Context, participants domain.ParticipantRepository, pay *domain.Payment) (*domain.EventParticipant, error) {
	id := ""
	if pay.ParticipantID != nil {
		id = *pay.ParticipantID
	} else {
		p, err := participants.GetByTransactionID(ctx, pay.TransactionID)
		if err != nil {
			return nil, err
		}
		id = p.ID
	}
	return participants.GetByIDForUpdate(ctx, id)
}

// confirmParticipant moves the participant to CONFIRMED. Already CONFIRMED is a no-op.
func confirmParticipant(ctx context.Context, participants domain.ParticipantRepository, p *domain.EventParticipant, now time.Time) error {
	changed, err := p.Confirm()
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	p.UpdatedAt = now
	if err := participants.UpdateStatus(ctx, p.ID, p.Status); err != nil {
		return fmt.Errorf("confirm participant: %w", err)
	}
	return nil
}

// markParticipantLeft moves the participant to LEFT and reports whether it changed.
func markParticipantLeft(ctx context.Context, participants domain.ParticipantRepository, p *domain.EventParticipant, now time.Time) (bool, error) {
	if !p.MarkLeft() {
		return false, nil
	}
	p.UpdatedAt = now
	if err := participants.UpdateStatus(ctx, p.ID, p.Status); err != nil {
		return false, fmt.Errorf("mark participant left: %w", err)
	}
	return true, nil
}
