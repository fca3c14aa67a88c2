package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a client's rating of a completed event they paid for.
// swagger:model Review
type Review struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	ClientID  string    `json:"client_id"`
	HostID    string    `json:"host_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// NextRating folds one new rating into a running average, rounded to 2 places.
func NextRating(current decimal.Decimal, count, rating int) (decimal.Decimal, int) {
	total := current.Mul(decimal.NewFromInt(int64(count))).Add(decimal.NewFromInt(int64(rating)))
	next := count + 1
	return total.Div(decimal.NewFromInt(int64(next))).Round(2), next
}

// ReviewRepository defines storage operations for reviews.
type ReviewRepository interface {
	// Create fails with ErrAlreadyReviewed on a second review of the same event by the same client.
	Create(ctx context.Context, review *Review) error
	ExistsForEventAndClient(ctx context.Context, eventID, clientID string) (bool, error)
}

// ReviewService defines review operations.
type ReviewService interface {
	CreateReview(ctx context.Context, actor Actor, transactionID string, rating int, comment string) (*Review, *Host, error)
}
