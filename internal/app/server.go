// # internal/app/server.go
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// Health reports the state of the facts source and the latest run.
// "degraded" still answers requests; it flags a run that would fail.
func (a *App) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	path := strings.TrimSpace(a.Config.FactsPath)
	switch {
	case path == "" || path == "-":
		status.Components["facts"] = "stdin"
	default:
		if _, err := os.Stat(path); err != nil {
			status.Status = "degraded"
			status.Components["facts"] = fmt.Sprintf("unreadable: %v", err)
		} else {
			status.Components["facts"] = "ok"
		}
	}

	if last := a.LastRun(); last != nil {
		if last.OK {
			status.Components["last_run"] = fmt.Sprintf("ok (%d files, %d variable groups)",
				len(last.Files), len(last.Variables))
		} else {
			status.Status = "degraded"
			status.Components["last_run"] = "failed: " + last.Error
		}
	} else {
		status.Components["last_run"] = "none"
	}

	if a.watching.Load() {
		status.Components["watcher"] = "active"
	}

	return status
}

// ObservabilityServer exposes Prometheus metrics and the health check
// over HTTP while the analyzer runs in watch mode.
type ObservabilityServer struct {
	addr   string
	app    *App
	server *http.Server
}

func NewObservabilityServer(addr string, app *App) *ObservabilityServer {
	return &ObservabilityServer{addr: addr, app: app}
}

func (s *ObservabilityServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.app.Health(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
