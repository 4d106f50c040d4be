package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lanremote/lanremote-go/pkg/host"
	"github.com/lanremote/lanremote-go/pkg/version"
)

// statusServer exposes health, status and Prometheus metrics over HTTP.
type statusServer struct {
	svc     *host.Service
	version string
	started time.Time
	server  *http.Server
}

func newStatusServer(svc *host.Service, build string) *statusServer {
	s := &statusServer{
		svc:     svc,
		version: build,
		started: time.Now(),
	}
	s.server = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *statusServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	return r
}

// handleHealth returns 200 while the listeners are up.
func (s *statusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Running() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "stopped"})
		return
	}
	build := s.version
	if build == "" {
		build = "dev"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"version":  build,
		"protocol": version.Current,
	})
}

type statusResponse struct {
	Running        bool   `json:"running"`
	CommandAddr    string `json:"command_addr,omitempty"`
	DiscoveryAddr  string `json:"discovery_addr,omitempty"`
	KeyFingerprint string `json:"key_fingerprint"`
	Uptime         string `json:"uptime"`
}

func (s *statusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Running:        s.svc.Running(),
		KeyFingerprint: s.svc.KeyFingerprint(),
		Uptime:         time.Since(s.started).Truncate(time.Second).String(),
	}
	if a := s.svc.CommandAddr(); a != nil {
		resp.CommandAddr = a.String()
	}
	if a := s.svc.DiscoveryAddr(); a != nil {
		resp.DiscoveryAddr = a.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Serve accepts HTTP connections on ln until Shutdown.
func (s *statusServer) Serve(ln net.Listener) error {
	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server.
func (s *statusServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
