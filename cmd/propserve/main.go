// PropServe SLA Service
//
// Standalone binary for production deployments. Tracks SLA deadlines for
// property maintenance requests, scans for warnings and violations, and
// dispatches notifications across in-app, email, SMS and WhatsApp channels.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.propserve.dev/internal/api"
	"go.propserve.dev/internal/common/health"
	"go.propserve.dev/internal/common/leader"
	"go.propserve.dev/internal/common/lifecycle"
	commonmongo "go.propserve.dev/internal/common/mongo"
	"go.propserve.dev/internal/notification"
	"go.propserve.dev/internal/request"
	"go.propserve.dev/internal/scanner"
	"go.propserve.dev/internal/scheduler"
	"go.propserve.dev/internal/sla"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Configure logging
	setupLogging()

	slog.Info("Starting PropServe SLA Service",
		"version", version,
		"build_time", buildTime)

	ctx := context.Background()

	// ========================================
	// 1. INFRASTRUCTURE INITIALIZATION
	// ========================================
	app, cleanup, err := lifecycle.Initialize(ctx, lifecycle.AppOptions{
		NeedsMongoDB: true,
		NeedsRedis:   true,
	})
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Ensure indexes, including the unique (dedupeKey, channel) index the
	// dispatcher's idempotency depends on
	if err := commonmongo.NewIndexInitializer(app.Mongo).Initialize(ctx); err != nil {
		slog.Error("Failed to initialize indexes", "error", err)
		os.Exit(1)
	}

	// ========================================
	// 2. COMPONENT WIRING
	// ========================================
	cfg := app.Config

	// Repositories
	requestRepo := request.NewRepository(app.DB)
	notificationRepo := notification.NewRepository(app.DB)

	// SLA deadline calculator
	calculator := sla.NewCalculator(sla.NewDefaultTable())

	// Notification channels; in-app is mandatory, the rest are optional
	senders := []notification.Sender{
		notification.NewInAppSender(notificationRepo),
		notification.NewEmailSender(&notification.EmailConfig{
			SMTPHost:    cfg.SMTP.Host,
			SMTPPort:    cfg.SMTP.Port,
			Username:    cfg.SMTP.Username,
			Password:    cfg.SMTP.Password,
			FromAddress: cfg.SMTP.FromAddress,
			Enabled:     cfg.SMTP.Enabled,
		}),
	}

	gatewayCfg := &notification.GatewayConfig{
		BaseURL:       cfg.Gateway.BaseURL,
		APIKey:        cfg.Gateway.APIKey,
		SenderID:      cfg.Gateway.SenderID,
		Enabled:       cfg.Gateway.Enabled,
		RatePerMinute: cfg.Gateway.RatePerMinute,
	}
	senders = append(senders,
		notification.NewGatewaySender(notification.ChannelSMS, gatewayCfg),
		notification.NewGatewaySender(notification.ChannelWhatsApp, gatewayCfg),
	)

	dispatcher := notification.NewDispatcher(notificationRepo, senders...)

	// Violation scanner
	scannerCfg := scanner.DefaultConfig()
	scannerCfg.Concurrency = cfg.Scheduler.Concurrency
	scan := scanner.New(requestRepo, notificationRepo, dispatcher, scannerCfg)

	// Scan scheduler, with Redis leader election in multi-instance setups
	var elector leader.Elector
	if cfg.Scheduler.LeaderElection {
		electorCfg := leader.DefaultRedisElectorConfig("propserve:scan-scheduler:leader")
		if cfg.Scheduler.InstanceID != "" {
			electorCfg.InstanceID = cfg.Scheduler.InstanceID
		}
		electorCfg.TTL = cfg.Scheduler.TTL
		electorCfg.RefreshInterval = cfg.Scheduler.RefreshInterval
		elector = leader.NewRedisElector(app.Redis, electorCfg)
	} else {
		elector = leader.NewStaticElector()
	}

	scanScheduler := scheduler.New(scan, elector, &scheduler.Config{
		Interval: cfg.Scheduler.Interval,
	})

	// Health checker
	healthChecker := health.NewChecker()
	healthChecker.AddReadinessCheck(health.MongoDBCheck(func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return app.Mongo.Ping(pingCtx)
	}))
	if app.Redis != nil {
		healthChecker.AddReadinessCheck(health.RedisCheck(func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return app.Redis.Ping(pingCtx).Err()
		}))
	}
	healthChecker.AddLivenessCheck(health.SchedulerCheck(
		scanScheduler.IsRunning,
		scanScheduler.IsLeader,
	))

	// HTTP Router
	httpRouter := setupHTTPRouter(app, healthChecker, requestRepo, notificationRepo, calculator, dispatcher, scan)

	// HTTP Server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      httpRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ========================================
	// 3. SERVICE STARTUP
	// ========================================
	httpService := lifecycle.NewHTTPService("sla-api", httpServer)
	schedulerService := lifecycle.NewServiceFunc("scan-scheduler",
		func(ctx context.Context) error {
			scanScheduler.Start()
			<-ctx.Done()
			return nil
		},
		func(ctx context.Context) error {
			scanScheduler.Stop()
			return nil
		},
	)

	slog.Info("PropServe SLA Service ready",
		"port", cfg.HTTP.Port,
		"scanInterval", cfg.Scheduler.Interval,
		"leaderElection", cfg.Scheduler.LeaderElection)

	// ========================================
	// 4. RUN UNTIL SHUTDOWN
	// ========================================
	if err := lifecycle.Run(ctx, schedulerService, httpService); err != nil {
		slog.Error("Service error", "error", err)
		os.Exit(1)
	}

	slog.Info("PropServe SLA Service stopped")
}

// setupLogging configures the slog default logger.
func setupLogging() {
	logLevel := slog.LevelInfo
	if os.Getenv("PROPSERVE_DEV") == "true" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// setupHTTPRouter creates the HTTP router with all routes and middleware.
func setupHTTPRouter(
	app *lifecycle.App,
	healthChecker *health.Checker,
	requestRepo request.Repository,
	notificationRepo notification.Repository,
	calculator *sla.Calculator,
	dispatcher *notification.Dispatcher,
	scan *scanner.Scanner,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.Config.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/q/health", healthChecker.HandleHealth)
	r.Get("/q/health/live", healthChecker.HandleLive)
	r.Get("/q/health/ready", healthChecker.HandleReady)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/q/metrics", promhttp.Handler())

	// API routes
	requestHandler := api.NewRequestHandler(requestRepo, calculator, dispatcher)
	notificationHandler := api.NewNotificationHandler(notificationRepo)
	scanHandler := api.NewScanHandler(scan)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/requests", requestHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
		r.Post("/scan", scanHandler.Trigger)
	})

	return r
}
