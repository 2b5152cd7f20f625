// Package server provides the HTTP server for the Repwatch rep counting system.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/repwatch/internal/capture"
	"github.com/ayusman/repwatch/internal/counter"
	"github.com/ayusman/repwatch/internal/server/api"
	"github.com/ayusman/repwatch/internal/store"
)

// Controller is the counting surface the server exposes over HTTP. The
// application implements it; tests substitute a stub.
type Controller interface {
	Snapshot() counter.Output
	ResetCounter()
	TestInfo() counter.TestInfo
	ApplyProfile(p *store.Profile) error
}

// Config holds the server configuration.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Camera     capture.Camera
	Controller Controller
}

// Server represents the HTTP server for the Repwatch application.
type Server struct {
	config Config
	mux    *http.ServeMux
	live   *LiveHandler
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		live:   NewLiveHandler(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register counter endpoints if a Controller is configured
	if s.config.Controller != nil {
		s.mux.HandleFunc("/api/counter", s.handleCounter)
		s.mux.HandleFunc("/api/counter/reset", s.handleCounterReset)
		s.mux.HandleFunc("/api/counter/config", s.handleCounterConfig)
	}

	// Register profile API handler if Store is configured
	if s.config.Store != nil {
		profileHandler := api.NewProfileHandler(s.config.Store)

		// Use a wrapper to route activation requests: /api/profiles/{id}/activate
		profileRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/activate") {
				s.handleProfileActivate(w, r)
				return
			}
			profileHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/profiles", profileRouter)
		s.mux.Handle("/api/profiles/", profileRouter)
	}

	// Register camera stream endpoint if Camera is configured
	if s.config.Camera != nil {
		streamHandler := NewStreamHandler(s.config.Camera)
		s.mux.Handle("/api/stream", streamHandler)
	}

	// Live count feed over WebSocket
	s.mux.Handle("/api/live", s.live)

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Publish pushes a per-frame counter output to all live feed clients.
func (s *Server) Publish(out counter.Output) {
	s.live.Publish(out)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	writeJSON(w, http.StatusOK, response)
}

// handleCounter handles GET /api/counter and returns the current count,
// state, in-position flag, smoothed angle and last rep quality.
func (s *Server) handleCounter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, s.config.Controller.Snapshot())
}

// handleCounterReset handles POST /api/counter/reset.
func (s *Server) handleCounterReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.config.Controller.ResetCounter()
	writeJSON(w, http.StatusOK, s.config.Controller.Snapshot())
}

// handleCounterConfig handles GET /api/counter/config and returns the
// effective thresholds and timing parameters.
func (s *Server) handleCounterConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, s.config.Controller.TestInfo())
}

// handleProfileActivate handles POST /api/profiles/{id}/activate: it loads
// the profile and applies its thresholds to the running counter.
func (s *Server) handleProfileActivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.config.Controller == nil {
		http.Error(w, "Counter not available", http.StatusServiceUnavailable)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/profiles/")
	id = strings.TrimSuffix(id, "/activate")
	id = strings.Trim(id, "/")
	if id == "" {
		http.Error(w, "Profile ID is required", http.StatusBadRequest)
		return
	}

	p, err := s.config.Store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	if err := s.config.Controller.ApplyProfile(p); err != nil {
		http.Error(w, "Profile rejected: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activated": p.ID,
		"name":      p.Name,
		"config":    s.config.Controller.TestInfo(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
