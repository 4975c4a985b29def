package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"calcsession/internal/calculator"
	"calcsession/internal/engine"
	"calcsession/internal/observability"
	"calcsession/internal/server"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Config
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	// Logger
	if err := observability.InitLogger(cfg.Environment); err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Tracing, metrics, log export
	telemetryShutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		observability.Logger.Fatal("initialising telemetry", zap.Error(err))
	}
	defer telemetryShutdown(context.Background())

	// Sessions
	eval := engine.NewEvaluator(cfg.EngineContext())
	store := calculator.NewStore(eval, calculator.StoreOptions{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		Radians:     !cfg.Degrees,
	})
	go store.Run(ctx, sweepInterval(cfg.SessionTTL))

	// Router
	router := server.NewRouter(calculator.NewHandler(store))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.Addr),
			zap.Uint32("precision", cfg.Precision),
			zap.Bool("otlp", cfg.OTLPEnabled),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(ctx, srv, cfg.ShutdownTimeout)
}

// sweepInterval checks for idle sessions a few times per TTL.
func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, time.Second)
}

func waitForShutdown(ctx context.Context, srv *http.Server, timeout time.Duration) {

	<-ctx.Done()

	observability.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		observability.Logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
