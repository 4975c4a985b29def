package main

import (
	"context"
	"errors"

	"calcsession/internal/calculator"
	"calcsession/internal/config"
	"calcsession/internal/observability"
)

type shutdownFunc func(context.Context) error

// initTelemetry starts the OTLP trace, metric and log pipelines when enabled
// and registers the calculator instruments either way. Without OTLP the
// global providers stay no-op and only /metrics is served.
func initTelemetry(ctx context.Context, cfg config.Config) (shutdownFunc, error) {
	var shutdowns []shutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.OTLPEnabled {
		for _, start := range []func(context.Context) (func(context.Context) error, error){
			observability.InitTracing,
			observability.InitMetrics,
			observability.InitLogging,
		} {
			stop, err := start(ctx)
			if err != nil {
				return nil, errors.Join(err, shutdown(ctx))
			}
			shutdowns = append(shutdowns, stop)
		}
	}

	if err := calculator.InitMetrics(); err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}

	return shutdown, nil
}
