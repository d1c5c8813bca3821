package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type logInfoKey struct{}

// logInfo is filled in by inner handlers so the outer log line can report
// who made the request.
type logInfo struct {
	requestID string
	userID    int64
}

// GetRequestID returns the id assigned by RequestLogger.
func GetRequestID(ctx context.Context) string {
	if info, ok := ctx.Value(logInfoKey{}).(*logInfo); ok {
		return info.requestID
	}
	return ""
}

func setLoggedUser(ctx context.Context, userID int64) {
	if info, ok := ctx.Value(logInfoKey{}).(*logInfo); ok {
		info.userID = userID
	}
}

// RequestLogger logs one line per request with its route pattern, status,
// user and duration. An incoming X-Request-ID is kept, otherwise one is
// generated; either way it is echoed on the response.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		info := &logInfo{requestID: requestID}
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), logInfoKey{}, info)))

		attrs := []any{
			"method", r.Method,
			"route", routePattern(r),
			"status", rec.status,
			"user_id", info.userID,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		}
		switch {
		case rec.status >= http.StatusInternalServerError:
			slog.Error("HTTP error", attrs...)
		case rec.status >= http.StatusBadRequest:
			slog.Warn("HTTP error", attrs...)
		default:
			slog.Info("HTTP ok", attrs...)
		}
	})
}

// routePattern is the matched chi pattern, falling back to the raw path for
// requests no route matched.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
