package domain

import (
	"context"
	"fmt"
	"time"
)

// ParticipantStatus is the lifecycle state of one client's attempt to attend one event.
type ParticipantStatus string

const (
	ParticipantPending   ParticipantStatus = "PENDING"
	ParticipantConfirmed ParticipantStatus = "CONFIRMED"
	ParticipantLeft      ParticipantStatus = "LEFT"
)

// IsActive reports whether the participant still counts against the one-active-join rule.
func (s ParticipantStatus) IsActive() bool {
	return s != ParticipantLeft
}

// EventParticipant records a client's join of an event. Rows are never
// deleted; LEFT is terminal and a later re-join creates a new row.
// swagger:model EventParticipant
type EventParticipant struct {
	ID            string            `json:"id"`
	EventID       string            `json:"event_id"`
	ClientID      string            `json:"client_id"`
	TransactionID string            `json:"transaction_id"`
	Status        ParticipantStatus `json:"participant_status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewPendingParticipant returns a PENDING participant. ID is set by the repository on create.
func NewPendingParticipant(eventID, clientID, transactionID string, now time.Time) *EventParticipant {
	return &EventParticipant{
		EventID:       eventID,
		ClientID:      clientID,
		TransactionID: transactionID,
		Status:        ParticipantPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Confirm moves PENDING to CONFIRMED. It returns changed=false for an
// already CONFIRMED participant and ErrInvalidTransition for a LEFT one.
func (p *EventParticipant) Confirm() (changed bool, err error) {
	switch p.Status {
	case ParticipantPending:
		p.Status = ParticipantConfirmed
		return true, nil
	case ParticipantConfirmed:
		return false, nil
	default:
		return false, fmt.Errorf("%w: participant %s is %s", ErrInvalidTransition, p.ID, p.Status)
	}
}

// MarkLeft moves any active state to LEFT. It returns false if already LEFT.
func (p *EventParticipant) MarkLeft() bool {
	if p.Status == ParticipantLeft {
		return false
	}
	p.Status = ParticipantLeft
	return true
}

// ParticipantRepository defines storage operations for event participants.
type ParticipantRepository interface {
	// Create fails with ErrAlreadyJoined if an active row exists for the (event, client) pair.
	Create(ctx context.Context, p *EventParticipant) error
	GetActiveByEventAndClient(ctx context.Context, eventID, clientID string) (*EventParticipant, error)
	// GetActiveByEventAndClientForUpdate locks the active row for the pair until the transaction ends.
	GetActiveByEventAndClientForUpdate(ctx context.Context, eventID, clientID string) (*EventParticipant, error)
	GetByIDForUpdate(ctx context.Context, id string) (*EventParticipant, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*EventParticipant, error)
	UpdateStatus(ctx context.Context, id string, status ParticipantStatus) error
	ListActiveByEventID(ctx context.Context, eventID string, params PaginationParams) ([]*EventParticipant, int, error)
}
