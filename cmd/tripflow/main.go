package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tripflow/tripflow/internal/app"
	"github.com/tripflow/tripflow/internal/approvals"
	"github.com/tripflow/tripflow/internal/auth"
	"github.com/tripflow/tripflow/internal/bookings"
	"github.com/tripflow/tripflow/internal/dashboard"
	"github.com/tripflow/tripflow/internal/observability"
	"github.com/tripflow/tripflow/internal/platform/cache"
	"github.com/tripflow/tripflow/internal/platform/db"
	"github.com/tripflow/tripflow/internal/pricing"
	"github.com/tripflow/tripflow/internal/quotations"
	"github.com/tripflow/tripflow/internal/rates"
	"github.com/tripflow/tripflow/internal/rbac"
	"github.com/tripflow/tripflow/internal/requests"
	"github.com/tripflow/tripflow/internal/shared"
	"github.com/tripflow/tripflow/internal/users"
	"github.com/tripflow/tripflow/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens := shared.NewTokenStore(redisClient, "tripflow:token", cfg.TokenTTL)
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()
	guard := rbac.Middleware{Logger: logger}

	calc := pricing.NewCalculator(pricing.Config{
		TaxRate:           cfg.TaxRate,
		StandardMargin:    cfg.StandardMargin,
		ApprovalThreshold: cfg.ApprovalThreshold,
		MinimumMargin:     cfg.MinimumMargin,
	})

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewQuotationNotifier(pool, jobClient, logger)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger, logger)
	usersHandler := users.NewHandler(logger, usersService)

	authHandler := auth.NewHandler(logger, usersService, tokens)

	requestsRepo := requests.NewRepository(pool)
	requestsService := requests.NewService(requestsRepo, auditLogger, logger)
	requestsHandler := requests.NewHandler(logger, requestsService)

	approvalsRepo := approvals.NewRepository(pool)
	quotationsRepo := quotations.NewRepository(pool)

	// Approvals and quotations reference each other: the send gate asks
	// approvals, approval intake asks quotations for the live discount.
	// The approvals repository already answers the gate queries, so
	// quotations binds to it directly and the cycle never materialises.
	quotationsService := quotations.NewService(quotationsRepo, requestsService, approvalsRepo, calc, auditLogger, notifier, logger)
	approvalsService := approvals.NewService(approvalsRepo, quotationsService, cfg.ApprovalThreshold, auditLogger, notifier, logger)

	quotationsHandler := quotations.NewHandler(logger, quotationsService, metrics)
	approvalsHandler := approvals.NewHandler(logger, approvalsService, metrics)

	bookingsRepo := bookings.NewRepository(pool)
	bookingsService := bookings.NewService(bookingsRepo, quotationsService, usersService, auditLogger, logger)
	bookingsHandler := bookings.NewHandler(logger, bookingsService, metrics)

	var rateSource rates.Source = rates.NewHeuristicSource()
	if cfg.RateFeedURL != "" {
		rateSource = rates.NewMarketSource(cfg.RateFeedURL, cfg.RateFeedTimeout)
	}
	ratesService := rates.NewService(rateSource, rates.NewHeuristicSource(), redisClient, cfg.RateCacheTTL, logger)
	ratesHandler := rates.NewHandler(logger, ratesService)

	dashboardService := dashboard.NewService(pool)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Tokens:            tokens,
		AuthHandler:       authHandler,
		RequestsHandler:   requestsHandler,
		QuotationsHandler: quotationsHandler,
		ApprovalsHandler:  approvalsHandler,
		BookingsHandler:   bookingsHandler,
		RatesHandler:      ratesHandler,
		UsersHandler:      usersHandler,
		DashboardHandler:  dashboardHandler,
		JobHandler:        jobHandler,
		RBACMiddleware:    guard,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppRequestTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
