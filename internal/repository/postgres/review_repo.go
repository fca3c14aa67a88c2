package postgres

import (
	"context"

	"eventra/internal/domain"
)

const reviewUniqueConstraint = "reviews_event_client_uniq"

type reviewRepository struct {
	DB DBTX
}

func NewReviewRepository(db DBTX) domain.ReviewRepository {
	return &reviewRepository{DB: db}
}

func (r *reviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `
		INSERT INTO reviews (event_id, client_id, host_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, rv.EventID, rv.ClientID, rv.HostID, rv.Rating, rv.Comment, rv.CreatedAt).Scan(&rv.ID)
	if err != nil {
		if isUniqueViolation(err, reviewUniqueConstraint) {
			return domain.ErrAlreadyReviewed
		}
		return err
	}
	return nil
}

func (r *reviewRepository) ExistsForEventAndClient(ctx context.Context, eventID, clientID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE event_id = $1 AND client_id = $2)`
	err := r.DB.QueryRowContext(ctx, query, eventID, clientID).Scan(&exists)
	return exists, err
}
