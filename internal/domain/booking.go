package domain

import "context"

// JoinResult is returned by a successful join.
type JoinResult struct {
	PaymentURL   string            `json:"paymentUrl"`
	Participant  *EventParticipant `json:"participant"`
	Payment      *Payment          `json:"payment"`
	UpdatedEvent *Event            `json:"updatedEvent"`
}

// LeaveResult is returned by a successful leave.
type LeaveResult struct {
	Participant  *EventParticipant `json:"participant"`
	UpdatedEvent *Event            `json:"updatedEvent"`
}

// ReconcileResult is the state after a callback was applied or replayed.
type ReconcileResult struct {
	TransactionID string            `json:"transaction_id"`
	Outcome       CallbackOutcome   `json:"outcome"`
	Replayed      bool              `json:"replayed"`
	Payment       *Payment          `json:"payment"`
	Participant   *EventParticipant `json:"participant,omitempty"`
	Event         *Event            `json:"event,omitempty"`
}

// BookingService is the join/leave/complete entry point.
type BookingService interface {
	Join(ctx context.Context, actor Actor, eventID string) (*JoinResult, error)
	Leave(ctx context.Context, actor Actor, eventID string) (*LeaveResult, error)
	CompleteEvent(ctx context.Context, actor Actor, eventID string) (*Event, error)
	ListParticipants(ctx context.Context, eventID string, params PaginationParams) ([]*EventParticipant, int, error)
}

// PaymentReconciler applies gateway callbacks to payment, participant and event state.
type PaymentReconciler interface {
	Reconcile(ctx context.Context, transactionID string, outcome CallbackOutcome) (*ReconcileResult, error)
	// ValidateNotification checks an IPN with the gateway. It never mutates state.
	ValidateNotification(ctx context.Context, valID, transactionID string) (*GatewayValidation, error)
}

// EventModerationService moves events through the pre-open part of their lifecycle.
type EventModerationService interface {
	Approve(ctx context.Context, eventID string) (*Event, error)
	Reject(ctx context.Context, eventID string) (*Event, error)
	Cancel(ctx context.Context, actor Actor, eventID string) (*Event, error)
}

// ReplayCache remembers terminal reconciliation results by transaction id.
// A miss is reported as (nil, nil).
type ReplayCache interface {
	Get(ctx context.Context, transactionID string) (*ReconcileResult, error)
	Put(ctx context.Context, result *ReconcileResult) error
}
