package controllers

import (
	"log/slog"
	"net/http"

	"eventra/internal/delivery/http/helpers"
	"eventra/internal/delivery/http/middleware"
	"eventra/internal/domain"
)

// JoinSuccessResponse is the success envelope for POST /events/join/{id}.
type JoinSuccessResponse struct {
	Data  *domain.JoinResult `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ParticipantsPage is the data payload for GET /events/{id}/participants.
type ParticipantsPage struct {
	Participants []*domain.EventParticipant `json:"participants"`
	Pagination   helpers.PaginationMeta     `json:"pagination"`
}

type BookingController struct {
	Logger  *slog.Logger
	Service domain.BookingService
}

func NewBookingController(logger *slog.Logger, svc domain.BookingService) *BookingController {
	return &BookingController{
		Logger:  logger,
		Service: svc,
	}
}

// Join godoc
// @Summary Join an event
// @Description Reserves a seat, creates a pending participation and payment, and opens a gateway checkout session. The client is redirected to paymentUrl to pay.
// @Tags booking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} controllers.JoinSuccessResponse "data contains paymentUrl, participant, payment and updatedEvent"
// @Failure 400 {object} helpers.APIResponse "error.code: conflict (no seats, already joined, event not open or date passed)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 502 {object} helpers.APIResponse "error.code: upstream_error"
// @Router /events/join/{id} [post]
func (c *BookingController) Join(w http.ResponseWriter, r *http.Request) {
	actor, eventID, ok := actorAndID(w, r, "id")
	if !ok {
		return
	}
	res, err := c.Service.Join(r.Context(), actor, eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// Leave godoc
// @Summary Leave an event
// @Description Marks the caller's participation LEFT and releases the seat.
// @Tags booking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains participant and updatedEvent"
// @Failure 400 {object} helpers.APIResponse "error.code: conflict (not joined)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/leave/{id} [post]
func (c *BookingController) Leave(w http.ResponseWriter, r *http.Request) {
	actor, eventID, ok := actorAndID(w, r, "id")
	if !ok {
		return
	}
	res, err := c.Service.Leave(r.Context(), actor, eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// CompleteEvent godoc
// @Summary Mark an event completed
// @Description The owning host (or an admin) closes an OPEN or FULL event once its date has arrived. Completed events accept no further joins.
// @Tags host
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 400 {object} helpers.APIResponse "error.code: conflict (event not started)"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Router /host/event-complete/{id} [patch]
func (c *BookingController) CompleteEvent(w http.ResponseWriter, r *http.Request) {
	actor, eventID, ok := actorAndID(w, r, "id")
	if !ok {
		return
	}
	ev, err := c.Service.CompleteEvent(r.Context(), actor, eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ev)
}

// ListParticipants godoc
// @Summary List event participants
// @Description Active (non-LEFT) participants of an event, oldest first.
// @Tags booking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains participants and pagination"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id}/participants [get]
func (c *BookingController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	_, eventID, ok := actorAndID(w, r, "id")
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	list, total, err := c.Service.ListParticipants(r.Context(), eventID, params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ParticipantsPage{
		Participants: list,
		Pagination:   helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// actorAndID reads the authenticated actor and a required path value. It writes
// the error response itself and returns ok=false when either is missing.
func actorAndID(w http.ResponseWriter, r *http.Request, name string) (domain.Actor, string, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return domain.Actor{}, "", false
	}
	id := r.PathValue(name)
	if id == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return domain.Actor{}, "", false
	}
	return actor, id, true
}
