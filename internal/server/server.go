package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"threatwatch/internal/config"
	"threatwatch/internal/metrics"
	"threatwatch/internal/monitor"
	"threatwatch/internal/threat"
)

const serviceVersion = "1.0.0"

// Scanner is the detector surface the server consumes.
type Scanner interface {
	Snapshot(ctx context.Context) (*monitor.Snapshot, error)
	Health(ctx context.Context) monitor.Health
}

// Server exposes the threat dashboard HTTP contract.
type Server struct {
	scanner Scanner
	cfg     *config.Server
	router  *mux.Router
}

func New(scanner Scanner, cfg *config.Server) *Server {
	s := &Server{scanner: scanner, cfg: cfg, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/threats", s.handleThreats).Methods(http.MethodGet)
	s.router.HandleFunc("/api/dashboard/summary", s.handleSummary).Methods(http.MethodGet)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) StartMetrics(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "err", err)
		}
	}()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, "/", http.StatusOK, map[string]string{
		"message": "threatwatch API",
		"version": serviceVersion,
		"status":  "active",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.scanner.Health(r.Context())
	code := http.StatusOK
	if h.Status == "error" {
		code = http.StatusInternalServerError
	}
	s.writeJSON(w, "/health", code, h)
}

func (s *Server) handleThreats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.scanner.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, "/api/threats", err)
		return
	}
	threats := snap.Threats
	if threats == nil {
		threats = []threat.Threat{}
	}
	s.writeJSON(w, "/api/threats", http.StatusOK, map[string]any{
		"threats":     threats,
		"totalCount":  len(threats),
		"lastUpdated": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.scanner.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, "/api/dashboard/summary", err)
		return
	}

	var critical uint64
	for _, t := range snap.Threats {
		if t.Severity.Normalized() == threat.SeverityCritical {
			critical++
		}
	}
	summary := threat.NewSummary(
		uint64(len(snap.Threats)),
		critical,
		snap.NetworkThreats,
		snap.ProcessCount,
	)
	s.writeJSON(w, "/api/dashboard/summary", http.StatusOK, struct {
		*threat.Summary
		LastUpdated string `json:"lastUpdated"`
	}{summary, time.Now().Format(time.RFC3339)})
}

func (s *Server) writeJSON(w http.ResponseWriter, endpoint string, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "endpoint", endpoint, "err", err)
	}
	metrics.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

func (s *Server) writeError(w http.ResponseWriter, endpoint string, err error) {
	slog.Error("handler failed", "endpoint", endpoint, "err", err)
	s.writeJSON(w, endpoint, http.StatusInternalServerError, map[string]string{
		"detail": err.Error(),
	})
}
