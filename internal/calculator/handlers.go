package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/apd/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"calcsession/internal/engine"
	"calcsession/internal/handlers"
	"calcsession/internal/observability"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// Handler serves the calculator endpoints over a session Store.
type Handler struct {
	store *Store
}

// NewHandler returns a Handler backed by store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// ---------------------------------------------------------------------------
// Handlers: one-shot binary operations
// ---------------------------------------------------------------------------

// Add handles POST /calculator/add
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	h.handleBinaryOp(w, r, "add", engine.Add)
}

// Subtract handles POST /calculator/subtract
func (h *Handler) Subtract(w http.ResponseWriter, r *http.Request) {
	h.handleBinaryOp(w, r, "subtract", engine.Sub)
}

// Multiply handles POST /calculator/multiply
func (h *Handler) Multiply(w http.ResponseWriter, r *http.Request) {
	h.handleBinaryOp(w, r, "multiply", engine.Mul)
}

// Divide handles POST /calculator/divide
func (h *Handler) Divide(w http.ResponseWriter, r *http.Request) {
	h.handleBinaryOp(w, r, "divide", engine.Div)
}

// handleBinaryOp evaluates a op b through the session evaluator, so one-shot
// results match what a keypad session would compute.
func (h *Handler) handleBinaryOp(w http.ResponseWriter, r *http.Request, opName string, op engine.Operator) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, fmt.Sprintf("calculator.%s", opName),
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req CalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	a, errA := engine.ParseDecimal(req.A)
	b, errB := engine.ParseDecimal(req.B)
	if err := errors.Join(errA, errB); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid numeric input", err, http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(
		attribute.String("calculator.operand.a", req.A),
		attribute.String("calculator.operand.b", req.B),
	)

	start := time.Now()
	result, err := h.store.Evaluator().Apply(a, op, b)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, rejectMessage(err), err, http.StatusBadRequest, w)
		return
	}

	literal := engine.Literal(result)
	attrs := metric.WithAttributes(attribute.String("operation", opName))
	opsCounter.Add(ctx, 1, attrs)
	opsHistogram.Record(ctx, elapsed, attrs)
	recordResult(ctx, result, attrs)

	span.AddEvent("computation.complete", trace.WithAttributes(
		attribute.String("result", literal),
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetAttributes(attribute.String("calculator.result", literal))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator operation completed",
		zap.String("operation", opName),
		zap.String("a", req.A),
		zap.String("b", req.B),
		zap.String("result", literal),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, CalcResponse{
		Operation: opName,
		A:         req.A,
		B:         req.B,
		Result:    literal,
		Display:   engine.FormatDisplay(result),
	})
}

// ---------------------------------------------------------------------------
// Handler: chained operations with a child span per step
// ---------------------------------------------------------------------------

// chainOps maps chain step names onto operators. Symbols are accepted too.
var chainOps = map[string]engine.Operator{
	"add":      engine.Add,
	"subtract": engine.Sub,
	"multiply": engine.Mul,
	"divide":   engine.Div,
}

func parseChainOp(name string) (engine.Operator, error) {
	if op, ok := chainOps[name]; ok {
		return op, nil
	}
	return engine.ParseOperator(name)
}

// Chain handles POST /calculator/chain. It folds a sequence of operations into
// a running total, creating a child span for every step.
func (h *Handler) Chain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.chain",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req ChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "chain", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	if len(req.Steps) == 0 {
		observability.RecordError(ctx, span, logger, errorCounter, "chain", "no steps provided", fmt.Errorf("steps array is empty"), http.StatusBadRequest, w)
		return
	}

	running, err := engine.ParseDecimal(req.Initial)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "chain", "invalid initial value", err, http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(
		attribute.String("chain.initial", req.Initial),
		attribute.Int("chain.steps_count", len(req.Steps)),
	)

	logger.Info("starting chained calculation",
		zap.String("initial", req.Initial),
		zap.Int("steps", len(req.Steps)),
		zap.String("request_id", requestID),
	)

	eval := h.store.Evaluator()
	results := make([]ChainResult, 0, len(req.Steps))

	for i, step := range req.Steps {
		_, stepSpan := tracer.Start(ctx, fmt.Sprintf("calculator.chain.step.%d.%s", i, step.Op),
			trace.WithAttributes(
				attribute.Int("chain.step.index", i),
				attribute.String("chain.step.operation", step.Op),
				attribute.String("chain.step.input", engine.Literal(running)),
				attribute.String("chain.step.value", step.Value),
			),
		)

		stepStart := time.Now()
		prev := running

		var next *apd.Decimal
		op, err := parseChainOp(step.Op)
		if err == nil {
			var value *apd.Decimal
			if value, err = engine.ParseDecimal(step.Value); err == nil {
				next, err = eval.Apply(running, op, value)
			}
		}

		stepElapsed := float64(time.Since(stepStart).Microseconds()) / 1000.0

		if err != nil {
			err = fmt.Errorf("step %d: %w", i, err)

			stepSpan.RecordError(err)
			stepSpan.SetStatus(codes.Error, err.Error())
			stepSpan.End()

			span.SetAttributes(attribute.Int("chain.failed_step", i))
			observability.RecordError(ctx, span, logger, errorCounter, step.Op, fmt.Sprintf("%s at step %d", rejectMessage(err), i), err, http.StatusBadRequest, w)
			return
		}
		running = next

		attrs := metric.WithAttributes(attribute.String("operation", step.Op))
		opsCounter.Add(ctx, 1, attrs)
		opsHistogram.Record(ctx, stepElapsed, attrs)

		literal := engine.Literal(running)
		stepSpan.AddEvent("step.complete", trace.WithAttributes(
			attribute.String("input", engine.Literal(prev)),
			attribute.String("result", literal),
		))
		stepSpan.SetAttributes(attribute.String("chain.step.result", literal))
		stepSpan.SetStatus(codes.Ok, "")
		stepSpan.End()

		logger.Debug("chain step completed",
			zap.Int("step", i),
			zap.String("operation", step.Op),
			zap.String("value", step.Value),
			zap.String("result", literal),
			zap.Float64("duration_ms", stepElapsed),
		)

		results = append(results, ChainResult{
			Op:     step.Op,
			Value:  step.Value,
			Result: literal,
		})
	}

	recordResult(ctx, running, metric.WithAttributes(attribute.String("operation", "chain")))

	final := engine.Literal(running)
	span.AddEvent("chain.complete", trace.WithAttributes(
		attribute.String("final_result", final),
		attribute.Int("total_steps", len(req.Steps)),
	))
	span.SetAttributes(attribute.String("chain.result", final))
	span.SetStatus(codes.Ok, "")

	logger.Info("chained calculation completed",
		zap.String("initial", req.Initial),
		zap.String("result", final),
		zap.Int("steps", len(req.Steps)),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, ChainResponse{
		Initial: req.Initial,
		Steps:   results,
		Result:  final,
		Display: engine.FormatDisplay(running),
	})
}

// rejectMessage is the client-facing text for an evaluation error.
func rejectMessage(err error) string {
	switch {
	case errors.Is(err, engine.ErrDivisionByZero):
		return "division by zero"
	case errors.Is(err, engine.ErrEvaluation):
		return "evaluation failed"
	default:
		return "invalid input"
	}
}
