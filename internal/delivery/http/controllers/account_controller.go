package controllers

import (
	"log/slog"
	"net/http"

	"eventra/internal/delivery/http/helpers"
	"eventra/internal/delivery/http/middleware"
	"eventra/internal/domain"
)

// RegisterClientRequest is the request body for POST /user/create-client.
type RegisterClientRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

type AccountController struct {
	Logger  *slog.Logger
	Service domain.AccountService
}

func NewAccountController(logger *slog.Logger, svc domain.AccountService) *AccountController {
	return &AccountController{Logger: logger, Service: svc}
}

// RegisterClient godoc
// @Summary Register a client account
// @Tags user
// @Accept json
// @Produce json
// @Param body body RegisterClientRequest true "Client profile and password"
// @Success 201 {object} helpers.APIResponse "data contains the client"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or conflict (email taken)"
// @Router /user/create-client [post]
func (c *AccountController) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var req RegisterClientRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	client, err := c.Service.RegisterClient(r.Context(), domain.ClientRegistration{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, client)
}

// ApplyForHost godoc
// @Summary Apply to become a host
// @Description Files a PENDING host application for the calling client. An admin approves or rejects it.
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 201 {object} helpers.APIResponse "data contains the application"
// @Failure 400 {object} helpers.APIResponse "error.code: conflict (already applied or account inactive)"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /user/host-application [post]
func (c *AccountController) ApplyForHost(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	app, err := c.Service.ApplyForHost(r.Context(), actor)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, app)
}
