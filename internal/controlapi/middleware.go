package controlapi

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/packline/packline/internal/observability"
)

// RequestLogger creates a middleware that logs the start and end of each request.
// It integrates with slog to provide structured logs including RequestID, Method, Path, Status, and Duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Get RequestID set by Chi's RequestID middleware
		reqID := middleware.GetReqID(r.Context())

		// Wrap the ResponseWriter to capture the status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		// Process the request
		next.ServeHTTP(ww, r)

		// Calculate duration
		duration := time.Since(start)

		// Log the completed request
		// We use Info level for success, Warn for 4xx, Error for 5xx
		level := slog.LevelInfo
		status := ww.Status()

		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		slog.Log(r.Context(), level, "HTTP request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", duration.String(),
			"request_id", reqID,
			"remote_ip", r.RemoteAddr,
		)
	})
}

// MetricsCollector records Prometheus metrics for each request.
// It labels by the Chi route pattern (e.g., /api/v1/rules/{id}) rather than
// the raw URL path, so rule ids do not explode metric cardinality.
func MetricsCollector(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// The route pattern is only known after routing has happened.
		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = "unmatched"
		}

		observability.ControlPlaneReqDuration.
			WithLabelValues(r.Method, path).
			Observe(time.Since(start).Seconds())
		observability.ControlPlaneReqTotal.
			WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).
			Inc()
	})
}

// authenticateAPIKey validates the X-API-Key header against the configured
// SHA-256 hash. The comparison is constant-time over the hex digests, so the
// stored hash never needs to be reversible and timing attacks gain nothing.
func (a *API) authenticateAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipAuth {
			next.ServeHTTP(w, r)
			return
		}

		key := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if key == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, ErrorResponse{
				Code:    "ERR_UNAUTHORIZED",
				Message: "Missing X-API-Key header",
			})
			return
		}

		sum := sha256.Sum256([]byte(key))
		digest := hex.EncodeToString(sum[:])

		if subtle.ConstantTimeCompare([]byte(digest), []byte(strings.ToLower(a.apiKeyHash))) != 1 {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, ErrorResponse{
				Code:    "ERR_UNAUTHORIZED",
				Message: "Invalid API key",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
