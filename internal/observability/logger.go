package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"calcsession/internal/config"
)

// Logger is the process-wide logger. It discards everything until InitLogger
// runs, so packages and tests can log unconditionally.
var Logger = zap.NewNop()

// InitLogger installs a JSON production logger in production and a
// human-readable development logger everywhere else.
func InitLogger(env config.Environment) error {
	var (
		l   *zap.Logger
		err error
	)
	if env.IsProduction() {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}

	Logger = l.With(zap.String("environment", env.String()))
	return nil
}

func SyncLogger() {
	_ = Logger.Sync()
}

// LoggerWithTrace returns a child logger carrying trace_id and span_id from
// the active span in ctx.
//
// ctx is also attached as zap.Any("context", ctx): the otelzap bridge picks up
// any field holding a context.Context and emits the OTLP record with it, so
// the exported log carries native trace and span ids. The string fields keep
// stdout logs greppable.
func LoggerWithTrace(ctx context.Context) *zap.Logger {
	span := trace.SpanContextFromContext(ctx)

	if !span.IsValid() {
		return Logger
	}

	return Logger.With(
		zap.Any("context", ctx),
		zap.String("trace_id", span.TraceID().String()),
		zap.String("span_id", span.SpanID().String()),
	)
}
