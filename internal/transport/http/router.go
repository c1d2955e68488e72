// Package httptransport assembles the HTTP surface: shared middleware,
// module route registration, and the operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"atiende/internal/platform/metrics"
	"atiende/pkg/platform/httputil"
	"atiende/pkg/platform/middleware/metadata"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthProbe checks one dependency. Probes run on every /health call.
type HealthProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Config carries the transport-level knobs.
type Config struct {
	// MaxPayloadBytes caps every request body. Oversized bodies surface
	// as payload_too_large when the handler reads past the limit.
	MaxPayloadBytes int64

	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Probes  []HealthProbe
}

// NewRouter builds the full router: recovery, request identity, client
// metadata capture, body caps, and latency observation wrap every module
// route. /health and /metrics sit outside the body cap.
func NewRouter(cfg Config, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(recovery(cfg.Logger))
	r.Use(metadata.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requestLatency(cfg.Metrics))

	r.Get("/health", healthHandler(cfg.Probes))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.MaxPayloadBytes > 0 {
			r.Use(maxBytes(cfg.MaxPayloadBytes))
		}
		for _, h := range handlers {
			h.Register(r)
		}
	})

	return r
}

func maxBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						"panic", rec,
						"path", r.URL.Path,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"storage_error"}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func requestLatency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.ObserveRequestLatency(r.Method+" "+route, time.Since(start))
		})
	}
}

func healthHandler(probes []HealthProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(probes))
		for _, probe := range probes {
			if err := probe.Check(ctx); err != nil {
				checks[probe.Name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[probe.Name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(checks) > 0 {
			body["checks"] = checks
		}
		httputil.WriteJSON(w, status, body)
	}
}
