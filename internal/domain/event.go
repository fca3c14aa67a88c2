package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EventStatus is the availability state of an event.
type EventStatus string

const (
	EventPending   EventStatus = "PENDING"
	EventOpen      EventStatus = "OPEN"
	EventFull      EventStatus = "FULL"
	EventCompleted EventStatus = "COMPLETED"
	EventCancelled EventStatus = "CANCELLED"
	EventRejected  EventStatus = "REJECTED"
)

// eventTransitions is the single authority on which status changes are legal.
var eventTransitions = map[EventStatus][]EventStatus{
	EventPending: {EventOpen, EventRejected, EventCancelled},
	EventOpen:    {EventFull, EventCompleted},
	EventFull:    {EventOpen, EventCompleted},
}

// CanTransitionTo reports whether s may move to next.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status freezes capacity and status.
func (s EventStatus) IsTerminal() bool {
	return s == EventCompleted || s == EventCancelled || s == EventRejected
}

// HasSeatAccounting reports whether seats can be reserved or released.
func (s EventStatus) HasSeatAccounting() bool {
	return s == EventOpen || s == EventFull
}

// Event is a hosted, capacity-limited, fee-bearing activity.
// Capacity counts the remaining open seats.
// swagger:model Event
type Event struct {
	ID         string          `json:"id"`
	HostID     string          `json:"host_id"`
	Title      string          `json:"title"`
	Capacity   int             `json:"capacity"`
	Status     EventStatus     `json:"status"`
	Date       time.Time       `json:"date"`
	JoiningFee decimal.Decimal `json:"joining_fee"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ReserveSeat takes one seat. The event flips to FULL when the last seat goes.
func (e *Event) ReserveSeat() error {
	switch e.Status {
	case EventOpen:
	case EventFull:
		return ErrNoSeats
	default:
		return fmt.Errorf("%w: status %s", ErrEventNotOpen, e.Status)
	}
	if e.Capacity < 1 {
		return ErrNoSeats
	}
	if e.Capacity == 1 {
		e.Status = EventFull
	}
	e.Capacity--
	return nil
}

// ReleaseSeat gives one seat back and reopens a FULL event. It returns false
// without changing anything when the event is outside the OPEN/FULL regime.
func (e *Event) ReleaseSeat() bool {
	if !e.Status.HasSeatAccounting() {
		return false
	}
	if e.Status == EventFull {
		e.Status = EventOpen
	}
	e.Capacity++
	return true
}

// TransitionTo moves the event to next if the transition table allows it.
func (e *Event) TransitionTo(next EventStatus) error {
	if !e.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: event %s -> %s", ErrInvalidTransition, e.Status, next)
	}
	e.Status = next
	return nil
}

// Complete marks a started OPEN or FULL event as COMPLETED.
func (e *Event) Complete(now time.Time) error {
	if !e.Status.HasSeatAccounting() {
		return fmt.Errorf("%w: only OPEN or FULL events can be completed, got %s", ErrInvalidTransition, e.Status)
	}
	if now.Before(e.Date) {
		return ErrEventNotStarted
	}
	return e.TransitionTo(EventCompleted)
}

// EventDraft is what a host submits to list a new event.
type EventDraft struct {
	Title      string
	Capacity   int
	Date       time.Time
	JoiningFee decimal.Decimal
}

// NewPendingEvent validates d and returns a PENDING event owned by hostID.
func NewPendingEvent(hostID string, d EventDraft, now time.Time) (*Event, error) {
	switch {
	case d.Title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case d.Capacity < 0:
		return nil, fmt.Errorf("%w: capacity must not be negative", ErrInvalidInput)
	case d.JoiningFee.IsNegative():
		return nil, fmt.Errorf("%w: joining fee must not be negative", ErrInvalidInput)
	case !d.Date.After(now):
		return nil, fmt.Errorf("%w: event date must be in the future", ErrInvalidInput)
	}
	return &Event{
		HostID:     hostID,
		Title:      d.Title,
		Capacity:   d.Capacity,
		Status:     EventPending,
		Date:       d.Date,
		JoiningFee: d.JoiningFee.Round(2),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// HostService covers operations a host performs on their own events.
type HostService interface {
	CreateEvent(ctx context.Context, actor Actor, draft EventDraft) (*Event, error)
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetByIDForUpdate reads the latest row and locks it until the enclosing transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*Event, error)
	// UpdateInventory persists capacity and status together.
	UpdateInventory(ctx context.Context, event *Event) error
	UpdateStatus(ctx context.Context, id string, status EventStatus) error
}
