package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of a Payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// IsTerminal reports whether no callback may move the payment any further.
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentPending
}

// CallbackOutcome is the kind of gateway callback being reconciled.
type CallbackOutcome string

const (
	OutcomeSuccess CallbackOutcome = "success"
	OutcomeFail    CallbackOutcome = "fail"
	OutcomeCancel  CallbackOutcome = "cancel"
	// OutcomeExpired is raised by the expiry sweep, never by the gateway.
	OutcomeExpired CallbackOutcome = "expired"
)

// Valid reports whether o is a known outcome.
func (o CallbackOutcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFail, OutcomeCancel, OutcomeExpired:
		return true
	}
	return false
}

// ParseCallbackOutcome parses a callback kind received on the wire.
func ParseCallbackOutcome(s string) (CallbackOutcome, error) {
	o := CallbackOutcome(s)
	if !o.Valid() {
		return "", fmt.Errorf("%w: unknown callback outcome %q", ErrInvalidInput, s)
	}
	return o, nil
}

// ReconcileAction tells the reconciler what to do with a callback.
type ReconcileAction int

const (
	ActionApply ReconcileAction = iota
	ActionReplay
	ActionReject
)

func (a ReconcileAction) String() string {
	switch a {
	case ActionApply:
		return "apply"
	case ActionReplay:
		return "replay"
	default:
		return "reject"
	}
}

// DecidePayment is the payment transition table. It returns the status the
// payment should move to and whether the callback is a fresh transition, an
// idempotent replay, or an invalid transition.
func DecidePayment(current PaymentStatus, outcome CallbackOutcome) (PaymentStatus, ReconcileAction) {
	if outcome == OutcomeSuccess {
		switch current {
		case PaymentPending:
			return PaymentPaid, ActionApply
		case PaymentPaid:
			return PaymentPaid, ActionReplay
		default:
			return current, ActionReject
		}
	}
	switch current {
	case PaymentPending:
		return PaymentCancelled, ActionApply
	case PaymentCancelled, PaymentRefunded:
		return current, ActionReplay
	default:
		return current, ActionReject
	}
}

// Payment is the money record tied to one join attempt.
// swagger:model Payment
type Payment struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	EventID       string          `json:"event_id"`
	ClientID      string          `json:"client_id"`
	HostID        string          `json:"host_id"`
	ParticipantID *string         `json:"participant_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PaymentRepository defines storage operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	GetByTransactionIDForUpdate(ctx context.Context, transactionID string) (*Payment, error)
	UpdateStatus(ctx context.Context, id string, status PaymentStatus) error
	// ListExpiredPending returns transaction ids of PENDING payments created before the cutoff.
	ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]string, error)
}

// GatewaySessionRequest carries what the gateway needs to open a checkout session.
type GatewaySessionRequest struct {
	TransactionID string
	Amount        decimal.Decimal
	ProductName   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// GatewaySession is the result of a successful session initiation.
type GatewaySession struct {
	RedirectURL string
	SessionKey  string
}

// GatewayValidation is the gateway's verdict on a server-to-server notification.
type GatewayValidation struct {
	Valid         bool   `json:"valid"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
}

// PaymentGateway is the external payment provider.
type PaymentGateway interface {
	InitSession(ctx context.Context, req GatewaySessionRequest) (*GatewaySession, error)
	Validate(ctx context.Context, valID string) (*GatewayValidation, error)
}

// TransactionIDGenerator produces opaque, time-seeded transaction ids.
type TransactionIDGenerator interface {
	Next() string
}
