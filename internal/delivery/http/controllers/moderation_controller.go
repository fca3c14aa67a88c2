package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"eventra/internal/delivery/http/helpers"
	"eventra/internal/domain"
)

type ModerationController struct {
	Logger  *slog.Logger
	Service domain.EventModerationService
}

func NewModerationController(logger *slog.Logger, svc domain.EventModerationService) *ModerationController {
	return &ModerationController{
		Logger:  logger,
		Service: svc,
	}
}

// Approve godoc
// @Summary Approve a pending event
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event (status OPEN)"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Router /admin/events/{id}/approve [patch]
func (c *ModerationController) Approve(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, func(ctx context.Context, _ domain.Actor, id string) (*domain.Event, error) {
		return c.Service.Approve(ctx, id)
	})
}

// Reject godoc
// @Summary Reject a pending event
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event (status REJECTED)"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Router /admin/events/{id}/reject [patch]
func (c *ModerationController) Reject(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, func(ctx context.Context, _ domain.Actor, id string) (*domain.Event, error) {
		return c.Service.Reject(ctx, id)
	})
}

// Cancel godoc
// @Summary Cancel a pending event
// @Description Only the owning host can cancel, and only before approval.
// @Tags host
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event (status CANCELLED)"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Router /host/event/{id}/cancel [patch]
func (c *ModerationController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, c.Service.Cancel)
}

func (c *ModerationController) run(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.Actor, string) (*domain.Event, error)) {
	actor, id, ok := actorAndID(w, r, "id")
	if !ok {
		return
	}
	ev, err := op(r.Context(), actor, id)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ev)
}
