// Package status exposes the current simulation run's progress over
// HTTP, for a long-running benchmark sweep to be watched from outside
// the CLI's own stdout.
package status

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
)

// Progress is a snapshot of the currently running (or most recently
// finished) kernel simulation.
type Progress struct {
	Benchmark string  `json:"benchmark"`
	Kernel    string  `json:"kernel"`
	Phase     string  `json:"phase"`
	Case      int     `json:"case"`
	NumCases  int     `json:"num_cases"`
	Done      bool    `json:"done"`
	MissRate  float64 `json:"miss_rate,omitempty"`
}

// Server publishes Progress snapshots set by the simulation driver and
// serves them as JSON over HTTP.
type Server struct {
	mu       sync.RWMutex
	current  Progress
	listener net.Listener
}

// New returns a Server with no progress recorded yet.
func New() *Server {
	return &Server{}
}

// Update replaces the published progress snapshot. Safe to call from the
// goroutine driving the simulation while the server handles requests
// concurrently.
func (s *Server) Update(p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p
}

func (s *Server) snapshot() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshot())
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ListenAndServe binds addr (e.g. ":8080") and serves until the listener
// is closed or an unrecoverable error occurs.
func (s *Server) ListenAndServe(addr string) error {
	r := mux.NewRouter()
	r.HandleFunc("/api/status", s.handleStatus)
	r.HandleFunc("/healthz", s.handleHealthz)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener

	return http.Serve(listener, r)
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// Addr returns the address the server is listening on. Only valid after
// ListenAndServe has bound the listener.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
