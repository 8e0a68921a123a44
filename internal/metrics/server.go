// Package metrics exposes Prometheus metrics plus the bot's keep-alive and
// admin HTTP surface: the root page that uptime monitors poll, /healthz,
// /signals, and TOTP-guarded /pause and /resume.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/pquerna/otp/totp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rpdbot/internal/model"
)

// SignalLister serves recent journal rows for the /signals endpoint.
type SignalLister interface {
	Recent(limit int) ([]model.Signal, error)
}

// PauseController toggles the poller from the admin endpoints.
type PauseController interface {
	Pause()
	Resume()
}

// Server runs the HTTP server for keep-alive, metrics, health and admin.
type Server struct {
	health     *HealthStatus
	addr       string
	srv        *http.Server
	totpSecret string
	signals    SignalLister
	poller     PauseController
}

// NewServer creates the status server. signals and poller may be nil, in
// which case /signals and the admin endpoints report unavailable. An empty
// totpSecret disables /pause and /resume entirely.
func NewServer(addr string, health *HealthStatus, signals SignalLister, poller PauseController, totpSecret string) *Server {
	s := &Server{
		health:     health,
		addr:       addr,
		totpSecret: totpSecret,
		signals:    signals,
		poller:     poller,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)
	mux.HandleFunc("/signals", s.handleSignals)
	mux.HandleFunc("/pause", s.requireTOTP(s.handlePause))
	mux.HandleFunc("/resume", s.requireTOTP(s.handleResume))

	s.srv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// handleRoot is the keep-alive page external uptime monitors poll.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("RPD Alert Bot is alive and running.\n"))
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if s.signals == nil {
		http.Error(w, "signal journal not configured", http.StatusServiceUnavailable)
		return
	}
	recent, err := s.signals.Recent(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Signals []model.Signal `json:"signals"`
	}{Signals: recent})
}

// requireTOTP wraps mutating admin handlers with a one-time-code check.
// Clients pass the current code as ?code= or X-Admin-Code.
func (s *Server) requireTOTP(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.totpSecret == "" {
			http.Error(w, "admin endpoints disabled (no ADMIN_TOTP_SECRET)", http.StatusForbidden)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			code = r.Header.Get("X-Admin-Code")
		}
		if !totp.Validate(code, s.totpSecret) {
			http.Error(w, "invalid or missing TOTP code", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if s.poller == nil {
		http.Error(w, "poller not attached", http.StatusServiceUnavailable)
		return
	}
	s.poller.Pause()
	s.health.SetPaused(true)
	log.Printf("[admin] polling paused via %s", r.RemoteAddr)
	w.Write([]byte("paused\n"))
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if s.poller == nil {
		http.Error(w, "poller not attached", http.StatusServiceUnavailable)
		return
	}
	s.poller.Resume()
	s.health.SetPaused(false)
	log.Printf("[admin] polling resumed via %s", r.RemoteAddr)
	w.Write([]byte("resumed\n"))
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[status] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[status] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the status server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
