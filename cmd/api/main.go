// @title Eventra API
// @version 1.0
// @description Event marketplace booking and payment reconciliation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventra/config"
	_ "eventra/docs"
	"eventra/internal/adapters/auth"
	"eventra/internal/adapters/cache"
	"eventra/internal/adapters/email"
	"eventra/internal/adapters/gateway"
	"eventra/internal/adapters/ids"
	"eventra/internal/adapters/messaging"
	"eventra/internal/adapters/metrics"
	httpapi "eventra/internal/delivery/http"
	"eventra/internal/delivery/http/controllers"
	"eventra/internal/domain"
	"eventra/internal/jobs"
	"eventra/internal/repository/postgres"
	"eventra/internal/services"
)

const (
	shutdownTimeout     = 30 * time.Second
	notificationTimeout = 10 * time.Second
	bcryptCost          = 12
	natsClientName      = "eventra-api"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl, postgres.DefaultPoolConfig(), cfg.DBTimeout)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db, logger); err != nil {
		return err
	}
	store := postgres.NewStore(db, logger)

	// Optional adapters stay nil interfaces when disabled.
	var publisher domain.EventPublisher
	if cfg.NATSUrl != "" {
		nc, err := messaging.Connect(messaging.Config{URL: cfg.NATSUrl, Name: natsClientName}, logger)
		if err != nil {
			return err
		}
		defer nc.Close()
		publisher = nc
	}

	var replay domain.ReplayCache
	if cfg.RedisURL != "" {
		rc, err := cache.Open(ctx, cache.Config{URL: cfg.RedisURL, TTL: cfg.ReplayCacheTTL})
		if err != nil {
			return err
		}
		defer rc.Close()
		replay = rc
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretKey,
		},
	}, logger)
	if err != nil {
		return err
	}
	emails := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	var (
		metricsSink    domain.Metrics
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		prom := metrics.New()
		metricsSink, metricsHandler = prom, prom.Handler()
	}

	txnIDs, err := ids.NewTransactionIDs(cfg.SnowflakeNode)
	if err != nil {
		return err
	}
	paymentGateway := gateway.NewSSLCommerz(gateway.SSLCommerzConfig{
		StoreID:       cfg.SSLStoreID,
		StorePass:     cfg.SSLStorePass,
		PaymentAPI:    cfg.SSLPaymentAPI,
		ValidationAPI: cfg.SSLValidationAPI,
		Currency:      cfg.PaymentCurrency,
		BackendURL:    cfg.BackendURL,
	}, &http.Client{Timeout: cfg.GatewayTimeout})

	jwt := auth.NewJWT(cfg.JWTSecret)
	dispatcher := services.NewDispatcher(publisher, emails, store.Repos().Clients, cfg.PaymentCurrency, logger, notificationTimeout)
	defer dispatcher.Wait()

	bookingSvc := services.NewBookingService(services.BookingDeps{
		Store:          store,
		Gateway:        paymentGateway,
		IDs:            txnIDs,
		Notifier:       dispatcher,
		Metrics:        metricsSink,
		Logger:         logger,
		Timeout:        cfg.RequestTimeout,
		GatewayTimeout: cfg.GatewayTimeout,
	})
	reconciler := services.NewPaymentReconciler(services.ReconcilerDeps{
		Store:          store,
		Gateway:        paymentGateway,
		Cache:          replay,
		Notifier:       dispatcher,
		Metrics:        metricsSink,
		Logger:         logger,
		Timeout:        cfg.RequestTimeout,
		GatewayTimeout: cfg.GatewayTimeout,
	})
	hasher := auth.NewBcryptHasher(bcryptCost)
	authSvc := services.NewAuthService(store, hasher, jwt, cfg.TokenExpiry, logger, cfg.DBTimeout)
	if cfg.AdminEmail != "" {
		if err := authSvc.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	router := httpapi.NewRouter(httpapi.Controllers{
		Auth:       controllers.NewAuthController(logger, authSvc),
		Booking:    controllers.NewBookingController(logger, bookingSvc),
		Payment:    controllers.NewPaymentController(logger, reconciler, cfg.FrontendURL, cfg.RequireValID),
		Moderation: controllers.NewModerationController(logger, services.NewEventModerationService(store, logger, cfg.RequestTimeout)),
		Review:     controllers.NewReviewController(logger, services.NewReviewService(store, logger, cfg.RequestTimeout)),
		Account:    controllers.NewAccountController(logger, services.NewAccountService(store, hasher, logger, cfg.RequestTimeout)),
		Host:       controllers.NewHostController(logger, services.NewHostService(store, logger, cfg.RequestTimeout)),
		Admin:      controllers.NewAdminController(logger, services.NewAdminService(store, logger, cfg.RequestTimeout)),
		Health:     controllers.NewHealthController(logger, db, cfg.DBTimeout),
	}, httpapi.RouterConfig{
		Verifier:       jwt,
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        metricsHandler,
	})

	expiry := jobs.NewPaymentExpirationJob(store.Repos().Payments, reconciler, logger, cfg.ExpirySweepInterval, cfg.PaymentExpiry)
	expiry.Start(ctx)
	defer expiry.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}
	return nil
}
