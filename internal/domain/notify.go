package domain

import (
	"context"
	"time"
)

// Subjects published after a booking transaction commits.
const (
	SubjectParticipantJoined = "participant.joined"
	SubjectParticipantLeft   = "participant.left"
	SubjectPaymentPaid       = "payment.paid"
	SubjectPaymentCancelled  = "payment.cancelled"
	SubjectEventCompleted    = "event.completed"
)

// BookingEvent is the payload of every booking subject.
type BookingEvent struct {
	EventID       string    `json:"event_id"`
	ClientID      string    `json:"client_id,omitempty"`
	ParticipantID string    `json:"participant_id,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Status        string    `json:"status"`
	Capacity      int       `json:"capacity"`
	Amount        string    `json:"amount,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Notifier dispatches side effects after a transaction has committed.
// Implementations must not block the caller and must not return errors.
type Notifier interface {
	Joined(ctx context.Context, res *JoinResult)
	Left(ctx context.Context, res *LeaveResult)
	Reconciled(ctx context.Context, res *ReconcileResult)
	Completed(ctx context.Context, ev *Event)
}

// Metrics records booking outcomes.
type Metrics interface {
	ObserveJoin(result string)
	ObserveLeave(result string)
	ObserveReconcile(outcome CallbackOutcome, result string)
	ObserveGateway(op string, d time.Duration, err error)
}
