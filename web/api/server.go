// Package api serves the browser interface: run history, the captcha
// image, starting runs, and a live event stream over SSE and WebSocket.
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/mfo-tools/mfo-claim/internal/captcha"
	"github.com/mfo-tools/mfo-claim/internal/domain"
	"github.com/mfo-tools/mfo-claim/internal/runner"
)

// Store interface for run history lookups
type Store interface {
	GetRun(id string) (*domain.Run, error)
	ListRuns(limit int) ([]*domain.Run, error)
	ListEvents(runID string) ([]domain.Event, error)
}

// Server is the HTTP API server
type Server struct {
	store    Store
	runner   *runner.Runner
	gate     *captcha.Gate
	accounts func() []domain.Account
	addr     string
	mux      *http.ServeMux
	sseHub   *SSEHub

	mu        sync.RWMutex
	lastStage domain.Stage
}

// NewServer creates a new API server. The accounts func is called per
// request so a live-reloaded listing is picked up.
func NewServer(store Store, r *runner.Runner, gate *captcha.Gate, accounts func() []domain.Account, addr string) *Server {
	s := &Server{
		store:     store,
		runner:    r,
		gate:      gate,
		accounts:  accounts,
		addr:      addr,
		mux:       http.NewServeMux(),
		sseHub:    NewSSEHub(),
		lastStage: domain.StageIdle,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/status", s.statusHandler())
	s.mux.HandleFunc("/api/accounts", s.listAccountsHandler())
	s.mux.HandleFunc("/api/runs", s.runsHandler())
	s.mux.HandleFunc("/api/runs/", s.getRunHandler())
	s.mux.HandleFunc("/api/captcha", s.captchaImageHandler())
	s.mux.HandleFunc("/api/captcha/refresh", s.captchaRefreshHandler())
	s.mux.HandleFunc("/api/events", s.sseHandler())
	s.mux.HandleFunc("/ws", s.wsHandler())
}

// Start starts the HTTP server and the event pump
func (s *Server) Start() error {
	go s.sseHub.Run()
	go s.pumpEvents()
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the route table, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

// pumpEvents forwards runner progress to every connected client
func (s *Server) pumpEvents() {
	for event := range s.runner.Events() {
		s.mu.Lock()
		s.lastStage = event.Stage
		s.mu.Unlock()
		s.Broadcast(SSEEvent{Type: "run_event", Data: event})
	}
}

// Broadcast sends an event to all SSE and WebSocket clients
func (s *Server) Broadcast(event SSEEvent) {
	s.sseHub.Broadcast(event)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
