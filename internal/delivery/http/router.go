package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventra/internal/delivery/http/controllers"
	"eventra/internal/delivery/http/middleware"
	"eventra/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Auth       *controllers.AuthController
	Booking    *controllers.BookingController
	Payment    *controllers.PaymentController
	Moderation *controllers.ModerationController
	Review     *controllers.ReviewController
	Account    *controllers.AccountController
	Host       *controllers.HostController
	Admin      *controllers.AdminController
	Health     *controllers.HealthController
}

// RouterConfig carries what NewRouter needs beyond the controllers.
// Metrics may be nil.
type RouterConfig struct {
	Verifier       domain.TokenVerifier
	Logger         *slog.Logger
	AllowedOrigins []string
	Metrics        http.Handler
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authed := func(roles ...domain.Role) func(http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireAuth(cfg.Verifier, cfg.Logger, roles...)
	}
	client := authed(domain.RoleClient)
	host := authed(domain.RoleHost)
	admin := authed(domain.RoleAdmin)
	anyone := authed()

	// Auth and accounts
	mux.HandleFunc("POST /auth/login", c.Auth.Login)
	mux.HandleFunc("POST /user/create-client", c.Account.RegisterClient)
	mux.HandleFunc("POST /user/host-application", client(c.Account.ApplyForHost))

	// Hosting
	mux.HandleFunc("POST /host/create-event", host(c.Host.CreateEvent))

	// Booking
	mux.HandleFunc("POST /events/join/{id}", client(c.Booking.Join))
	mux.HandleFunc("POST /events/leave/{id}", client(c.Booking.Leave))
	mux.HandleFunc("GET /events/{id}/participants", anyone(c.Booking.ListParticipants))
	mux.HandleFunc("PATCH /host/event-complete/{id}", authed(domain.RoleHost, domain.RoleAdmin)(c.Booking.CompleteEvent))

	// Moderation
	mux.HandleFunc("PATCH /host/event/{id}/cancel", host(c.Moderation.Cancel))
	mux.HandleFunc("PATCH /admin/events/{id}/approve", admin(c.Moderation.Approve))
	mux.HandleFunc("PATCH /admin/events/{id}/reject", admin(c.Moderation.Reject))

	// Administration
	mux.HandleFunc("PATCH /admin/host-applications/{id}/approve", admin(c.Admin.ApproveHostApplication))
	mux.HandleFunc("PATCH /admin/host-applications/{id}/reject", admin(c.Admin.RejectHostApplication))
	mux.HandleFunc("PATCH /admin/users/{id}/suspend", admin(c.Admin.SuspendUser))
	mux.HandleFunc("PATCH /admin/users/{id}/unsuspend", admin(c.Admin.UnsuspendUser))

	// Reviews
	mux.HandleFunc("POST /reviews/{transactionId}", client(c.Review.CreateReview))

	// Gateway callbacks. The gateway posts; browsers may follow with GET.
	for _, m := range []string{http.MethodPost, http.MethodGet} {
		mux.HandleFunc(m+" /payment/success", c.Payment.Success)
		mux.HandleFunc(m+" /payment/fail", c.Payment.Fail)
		mux.HandleFunc(m+" /payment/cancel", c.Payment.Cancel)
	}
	mux.HandleFunc("POST /payment/ipn", c.Payment.IPN)

	// Ops
	mux.HandleFunc("GET /health", c.Health.Health)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.LoggingMiddleware(cfg.Logger, middleware.CORS(cfg.AllowedOrigins, mux))
}
