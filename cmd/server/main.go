package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/payflow-reconciler/internal/app"
	"github.com/kevin07696/payflow-reconciler/internal/config"
	cronHandler "github.com/kevin07696/payflow-reconciler/internal/handlers/cron"
	"github.com/kevin07696/payflow-reconciler/internal/services/ports"
	"github.com/kevin07696/payflow-reconciler/pkg/middleware"
	"github.com/kevin07696/payflow-reconciler/pkg/observability"
	"github.com/kevin07696/payflow-reconciler/pkg/resilience"
	"github.com/kevin07696/payflow-reconciler/pkg/security"
	"github.com/kevin07696/payflow-reconciler/pkg/shutdown"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := security.BuildZapLogger(cfg.Logger.Level, cfg.Logger.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting payflow reconciler",
		zap.String("gateway_url", cfg.Gateway.URL),
		zap.Bool("test_mode", cfg.Gateway.IsTest),
		zap.String("secret_manager", cfg.Secrets.Backend),
		zap.Int("workers", cfg.Reconciler.Workers),
	)

	ctx := context.Background()
	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", zap.Error(err))
	}

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	components.DB.StartPoolMonitoring(monitorCtx, 30*time.Second)

	timeouts := resilience.DefaultTimeoutConfig()
	timeouts.CronJob = cfg.Cron.Timeout
	timeouts.GatewayAttempt = cfg.Gateway.AttemptTimeout

	tracker := shutdown.NewInFlightTracker("import", logger)
	rateLimiter := middleware.NewRateLimiter(cfg.Cron.RequestsPerSecond, cfg.Cron.Burst, logger)
	if cfg.Cron.Secret == "" {
		logger.Warn("CRON_SECRET is not set; cron endpoints will reject every request")
	}

	importHandler := cronHandler.NewImportHandler(components.Reconciler, logger, cfg.Cron.Secret, timeouts)
	headers := middleware.NewSecurityHeaders(cfg.Logger.Development)
	mux := http.NewServeMux()
	importHandler.Register(mux, func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimiter.HTTPHandlerFunc(tracker.Middleware(h))
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           recoveryMiddleware(logger, loggingMiddleware(logger, headers.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		// an import run can hold the connection for the whole cron timeout
		WriteTimeout: cfg.Cron.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	healthChecker := observability.NewHealthChecker(components.HealthChecks())
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)
	logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	var worker *shutdown.PeriodicWorker
	if cfg.Reconciler.Interval > 0 {
		worker = shutdown.NewPeriodicWorker("recurring-import", cfg.Reconciler.Interval, logger)
		worker.Start(ctx, scheduledImport(components.Reconciler, tracker, timeouts, logger))
	}

	go func() {
		logger.Info("HTTP cron server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// stopped in reverse order
	manager := shutdown.NewManager(logger, shutdownTimeout)
	manager.RegisterNoErr("database", components.Close)
	manager.RegisterNoErr("pool-monitor", stopMonitor)
	manager.RegisterNoErr("rate-limiter", rateLimiter.Shutdown)
	manager.RegisterHTTPServer("metrics-server", metricsServer)
	if worker != nil {
		manager.Register("recurring-import", worker.Shutdown)
	}
	manager.Register("in-flight-imports", tracker.Shutdown)
	manager.RegisterHTTPServer("http-server", httpServer)

	if failures := manager.WaitForShutdown(ctx); len(failures) > 0 {
		os.Exit(1)
	}
}

// scheduledImport runs one import over every profile, skipping the tick
// when shutdown has begun.
func scheduledImport(
	reconciler ports.ReconciliationService,
	tracker *shutdown.InFlightTracker,
	timeouts *resilience.TimeoutConfig,
	logger *zap.Logger,
) func(context.Context) {
	return func(ctx context.Context) {
		ran := tracker.Run(func() {
			runCtx, cancel := timeouts.CronContext(ctx)
			defer cancel()

			summary, err := reconciler.ImportLatestRecurPayments(runCtx, nil, "")
			if err != nil {
				logger.Error("Scheduled import failed", zap.Error(err))
				return
			}
			logger.Info("Scheduled import completed",
				zap.Int("profiles", len(summary.Outcomes)),
				zap.Int("created", summary.CreatedCount()),
				zap.Bool("clean", summary.Clean()),
				zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
			)
		})
		if !ran {
			logger.Info("Skipping scheduled import during shutdown")
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		}
		if rec.status >= http.StatusInternalServerError {
			logger.Error("HTTP request failed", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	})
}

func recoveryMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("Panic recovered in HTTP handler",
					zap.String("path", r.URL.Path),
					zap.Any("panic", p),
					zap.Stack("stack"),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
