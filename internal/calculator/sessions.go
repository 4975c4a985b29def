package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"calcsession/internal/engine"
	"calcsession/internal/handlers"
	"calcsession/internal/observability"
)

// maxKeysPerRequest bounds a single keys request.
const maxKeysPerRequest = 256

// CreateSession handles POST /calculator/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "calculator.session.create")
	defer span.End()

	id, snap, err := h.store.Create(ctx)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "create", "session limit reached", err, http.StatusServiceUnavailable, w)
		return
	}

	span.SetAttributes(attribute.String("calculator.session", id))
	span.SetStatus(codes.Ok, "")

	logger.Info("session created",
		zap.String("session", id),
		zap.String("angle_mode", snap.AngleMode),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusCreated, newSessionResponse(id, snap))
}

// GetSession handles GET /calculator/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snap, err := h.store.Snapshot(id)
	if err != nil {
		handlers.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	handlers.WriteJSON(w, http.StatusOK, newSessionResponse(id, snap))
}

// DeleteSession handles DELETE /calculator/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if !h.store.Delete(ctx, id) {
		handlers.WriteError(w, http.StatusNotFound, ErrSessionNotFound.Error())
		return
	}

	observability.LoggerWithTrace(ctx).Info("session deleted",
		zap.String("session", id),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)
	w.WriteHeader(http.StatusNoContent)
}

// PressKeys handles POST /calculator/sessions/{id}/keys. It applies every key
// in order and returns the resulting display.
func (h *Handler) PressKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "calculator.session.keys",
		trace.WithAttributes(
			attribute.String("calculator.session", id),
			attribute.String("request.id", observability.RequestIDFromContext(ctx)),
		),
	)
	defer span.End()

	var req KeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "invalid request body", err, http.StatusBadRequest, w)
		return
	}
	if len(req.Keys) > maxKeysPerRequest {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "too many keys", errors.New("keys request exceeds limit"), http.StatusBadRequest, w)
		return
	}

	keys, err := ParseKeys(req.Keys)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "unknown key", err, http.StatusBadRequest, w)
		return
	}

	snap, err := h.press(ctx, id, keys)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		observability.RecordError(ctx, span, logger, errorCounter, "keys", err.Error(), err, status, w)
		return
	}

	span.SetAttributes(attribute.Int("calculator.keys", len(keys)))
	span.SetStatus(codes.Ok, "")

	handlers.WriteJSON(w, http.StatusOK, newSessionResponse(id, snap))
}

// press applies keys to session id, one child span per key. A key that sends
// the session into Error mode is logged and counted; it is not a request
// failure.
func (h *Handler) press(ctx context.Context, id string, keys []Key) (engine.Snapshot, error) {
	logger := observability.LoggerWithTrace(ctx)

	return h.store.Do(id, func(s *engine.Session) error {
		for i, k := range keys {
			_, keySpan := tracer.Start(ctx, "calculator.key."+k.Name,
				trace.WithAttributes(
					attribute.Int("calculator.key.index", i),
					attribute.String("calculator.key", k.Name),
				),
			)

			wasError := s.Mode() == engine.Error
			start := time.Now()
			err := k.Apply(s)
			elapsed := float64(time.Since(start).Microseconds()) / 1000.0

			if err != nil {
				keySpan.RecordError(err)
				keySpan.SetStatus(codes.Error, err.Error())
				keySpan.End()
				return err
			}

			attrs := metric.WithAttributes(attribute.String("operation", k.Name))
			opsCounter.Add(ctx, 1, attrs)
			opsHistogram.Record(ctx, elapsed, attrs)

			switch {
			case s.Mode() == engine.Error && !wasError:
				errorCounter.Add(ctx, 1, metric.WithAttributes(
					attribute.String("operation", k.Name),
					attribute.String("status", s.Tag()),
				))
				keySpan.RecordError(s.Cause())
				keySpan.SetStatus(codes.Error, s.Tag())
				logger.Warn("session entered error state",
					zap.String("session", id),
					zap.String("key", k.Name),
					zap.String("status", s.Tag()),
					zap.Error(s.Cause()),
				)
			case s.Mode() == engine.Result:
				recordResult(ctx, s.CurrentValue(), attrs)
				keySpan.SetStatus(codes.Ok, "")
			default:
				keySpan.SetStatus(codes.Ok, "")
			}
			keySpan.End()
		}

		logger.Debug("keys applied",
			zap.String("session", id),
			zap.Int("keys", len(keys)),
			zap.String("mode", s.Mode().String()),
		)
		return nil
	})
}
