package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventra/internal/delivery/http/helpers"
	"eventra/internal/domain"
)

// CreateReviewRequest is the request body for POST /reviews/{transactionId}.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// CreateReviewResponse is the data payload of a created review.
type CreateReviewResponse struct {
	Review *domain.Review `json:"review"`
	Host   *domain.Host   `json:"host"`
}

type ReviewController struct {
	Logger  *slog.Logger
	Service domain.ReviewService
}

func NewReviewController(logger *slog.Logger, svc domain.ReviewService) *ReviewController {
	return &ReviewController{Logger: logger, Service: svc}
}

// CreateReview godoc
// @Summary Review a completed event
// @Description The paying client rates the host of a completed event, once per event. The host rating is recomputed in the same transaction.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param transactionId path string true "Transaction ID of the paid booking"
// @Param body body CreateReviewRequest true "Rating 1-5 and optional comment"
// @Success 201 {object} helpers.APIResponse "data contains review and host"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or conflict"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /reviews/{transactionId} [post]
func (c *ReviewController) CreateReview(w http.ResponseWriter, r *http.Request) {
	actor, txnID, ok := actorAndID(w, r, "transactionId")
	if !ok {
		return
	}
	var req CreateReviewRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	review, host, err := c.Service.CreateReview(r.Context(), actor, txnID, req.Rating, strings.TrimSpace(req.Comment))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, CreateReviewResponse{Review: review, Host: host})
}
