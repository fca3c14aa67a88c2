package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"eventra/internal/delivery/http/helpers"
	"eventra/internal/delivery/http/middleware"
	"eventra/internal/domain"
)

// CreateEventRequest is the request body for POST /host/create-event.
type CreateEventRequest struct {
	Title      string          `json:"title" validate:"required,max=200"`
	Capacity   *int            `json:"capacity" validate:"required,gte=0"`
	Date       time.Time       `json:"date"`
	JoiningFee decimal.Decimal `json:"joining_fee" validate:"gte=0"`
}

func (r CreateEventRequest) Validate() []string {
	if r.Date.IsZero() {
		return []string{"date is required"}
	}
	return nil
}

type HostController struct {
	Logger  *slog.Logger
	Service domain.HostService
}

func NewHostController(logger *slog.Logger, svc domain.HostService) *HostController {
	return &HostController{Logger: logger, Service: svc}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Lists a new event under the caller's host profile. It starts PENDING and opens for joins once an admin approves it.
// @Tags host
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event details; date is RFC 3339"
// @Success 201 {object} helpers.APIResponse "data contains the event (status PENDING)"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /host/create-event [post]
func (c *HostController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	ev, err := c.Service.CreateEvent(r.Context(), actor, domain.EventDraft{
		Title:      req.Title,
		Capacity:   *req.Capacity,
		Date:       req.Date,
		JoiningFee: req.JoiningFee,
	})
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, ev)
}
