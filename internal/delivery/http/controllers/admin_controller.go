package controllers

import (
	"log/slog"
	"net/http"

	"eventra/internal/delivery/http/helpers"
	"eventra/internal/domain"
)

type AdminController struct {
	Logger  *slog.Logger
	Service domain.AdminService
}

func NewAdminController(logger *slog.Logger, svc domain.AdminService) *AdminController {
	return &AdminController{Logger: logger, Service: svc}
}

// ApproveHostApplication godoc
// @Summary Approve a host application
// @Description Promotes the applicant to HOST and creates their host profile.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Host application ID"
// @Success 200 {object} helpers.APIResponse "data contains the new host"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition (already decided)"
// @Router /admin/host-applications/{id}/approve [patch]
func (c *AdminController) ApproveHostApplication(w http.ResponseWriter, r *http.Request) {
	_, id, ok := actorAndID(w, r, "id")
	if !ok {
		return
	}
	host, err := c.Service.ApproveHostApplication(r.Context(), id)
	c.write(w, r, host, err)
}

// RejectHostApplication godoc
// @Summary Reject a host application
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Host application ID"
// @Success 200 {object} helpers.APIResponse "data contains the application (status REJECTED)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition (already decided)"
// @Router /admin/host-applications/{id}/reject [patch]
func (c *AdminController) RejectHostApplication(w http.ResponseWriter, r *http.Request) {
	_, id, ok := actorAndID(w, r, "id")
	if !ok {
		return
	}
	app, err := c.Service.RejectHostApplication(r.Context(), id)
	c.write(w, r, app, err)
}

// SuspendUser godoc
// @Summary Suspend a user
// @Description A suspended user cannot log in, and a suspended client cannot join or leave events.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} helpers.APIResponse "data contains the user (status SUSPENDED)"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (target is an admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/users/{id}/suspend [patch]
func (c *AdminController) SuspendUser(w http.ResponseWriter, r *http.Request) {
	_, id, ok := actorAndID(w, r, "id")
	if !ok {
		return
	}
	user, err := c.Service.SuspendUser(r.Context(), id)
	c.write(w, r, user, err)
}

// UnsuspendUser godoc
// @Summary Reactivate a suspended user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} helpers.APIResponse "data contains the user (status ACTIVE)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/users/{id}/unsuspend [patch]
func (c *AdminController) UnsuspendUser(w http.ResponseWriter, r *http.Request) {
	_, id, ok := actorAndID(w, r, "id")
	if !ok {
		return
	}
	user, err := c.Service.UnsuspendUser(r.Context(), id)
	c.write(w, r, user, err)
}

func (c *AdminController) write(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, data)
}
