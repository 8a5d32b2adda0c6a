package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crosscrm/crm/internal/metrics"
)

type contextKey int

const (
	correlationIDKey contextKey = iota
	actorKey
)

// ActorHeader names the acting user on mutating requests.
const ActorHeader = "X-User-Id"

// CorrelationID returns the correlation ID from the request context.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ActorID returns the acting user set by Actor, or nil when the request did
// not name one.
func ActorID(ctx context.Context) *int64 {
	if id, ok := ctx.Value(actorKey).(int64); ok {
		return &id
	}
	return nil
}

// WithActor returns a context carrying the acting user.
func WithActor(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, actorKey, id)
}

// Recovery returns middleware that recovers from panics and returns a 500
// error envelope.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					zerolog.Ctx(r.Context()).Error().
						Interface("panic", rec).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("panic recovered")
					WriteError(w, http.StatusInternalServerError,
						NewInternalError("Internal Server Error", CorrelationID(r.Context())))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID returns middleware that generates a UUID v4 correlation ID, stores
// it in the request context, and adds it to the response headers.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			ctx := context.WithValue(r.Context(), correlationIDKey, id)
			w.Header().Set("X-Correlation-Id", id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// public reports paths served without authentication.
func public(path string) bool {
	return path == "/health" || path == "/metrics"
}

// Auth returns middleware that validates the Bearer token if authToken is
// non-empty. If authToken is empty, all requests pass through.
func Auth(authToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authToken == "" || public(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token != authToken {
				WriteError(w, http.StatusUnauthorized, NewValidationError(
					"Authentication credentials not found. Send Authorization: Bearer <token>.",
					CorrelationID(r.Context()), nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Actor returns middleware that reads the acting user from the X-User-Id
// header. A malformed header is rejected; a missing one leaves the actor
// unset.
func Actor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := r.Header.Get(ActorHeader)
			if v == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				WriteError(w, http.StatusBadRequest, NewValidationError(
					"Invalid "+ActorHeader+" header", CorrelationID(r.Context()),
					[]ErrorDetail{{Message: "must be a positive integer", Code: "INVALID_INTEGER", In: ActorHeader}}))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), id)))
		})
	}
}

// JSONContentType returns middleware that sets the Content-Type header to
// application/json on all API responses.
func JSONContentType() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/metrics" {
				w.Header().Set("Content-Type", "application/json")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

// WriteHeader captures the status code and delegates to the wrapped writer.
func (sw *statusWriter) WriteHeader(code int) {
	sw.code = code
	sw.ResponseWriter.WriteHeader(code)
}

// Logging returns middleware that attaches a request-scoped logger carrying
// the correlation ID to the context, logs each request and records it in m.
// m may be nil.
func Logging(log zerolog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := log.With().Str("correlation_id", CorrelationID(r.Context())).Logger()
			r = r.WithContext(l.WithContext(r.Context()))

			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			m.ObserveRequest(r.Method, sw.code, elapsed)
			l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.code).
				Dur("duration", elapsed).
				Msg("request")
		})
	}
}

// Chain applies middleware in order so that the first middleware is the
// outermost handler.
func Chain(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
