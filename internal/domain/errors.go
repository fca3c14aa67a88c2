package domain

import "errors"

// Sentinel errors shared across services and adapters. Wrap them with
// fmt.Errorf("...: %w", err) and classify with errors.Is or KindOf.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")

	ErrNoSeats          = errors.New("no seats available")
	ErrEventNotOpen     = errors.New("event is not open")
	ErrEventDatePassed  = errors.New("event date has passed")
	ErrEventNotStarted  = errors.New("event date/time has not occurred yet")
	ErrAlreadyJoined    = errors.New("already joined this event")
	ErrNotJoined        = errors.New("not joined or already left")
	ErrAccountInactive  = errors.New("account is not active")
	ErrAlreadyReviewed  = errors.New("already reviewed this event")
	ErrReviewNotAllowed = errors.New("review not allowed")
	ErrAlreadyApplied   = errors.New("host application already pending")

	ErrInvalidTransition = errors.New("invalid state transition")

	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// ErrorKind is the taxonomy class of an error returned by a core operation.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindForbidden
	KindInvalidTransition
	KindUpstream
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindUpstream:
		return "upstream"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

var conflictErrors = []error{
	ErrNoSeats,
	ErrEventNotOpen,
	ErrEventDatePassed,
	ErrEventNotStarted,
	ErrAlreadyJoined,
	ErrNotJoined,
	ErrAccountInactive,
	ErrAlreadyReviewed,
	ErrReviewNotAllowed,
	ErrEmailTaken,
	ErrAlreadyApplied,
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrGatewayUnavailable):
		return KindUpstream
	}
	for _, c := range conflictErrors {
		if errors.Is(err, c) {
			return KindConflict
		}
	}
	return KindInternal
}
