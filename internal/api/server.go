// Package api provides the HTTP API of the scenario editor.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token when an admin key is configured.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/talgya/hexwar/internal/actuator"
	"github.com/talgya/hexwar/internal/editor"
	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/world"
)

// Server serves one editing session over HTTP.
type Server struct {
	Session  *editor.Session
	DB       *persistence.DB // nil disables save and load
	Layout   world.Layout
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST open.
	SaveRate int    // Saves per client per minute.

	// mu serialises every access to the session; the engine is single-threaded.
	mu       sync.Mutex
	scenario string
	manager  *actuator.Manager
	hub      *hub
	limiter  *RateLimiter
	http     *http.Server
	logger   *slog.Logger
}

// DefaultLayout is the screen geometry pointers are interpreted in.
var DefaultLayout = world.Layout{Size: 32}

// NewServer prepares a server for s. Zero fields of the returned value may be
// set before Handler or Start is called.
func NewServer(s *editor.Session, db *persistence.DB, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		Session:  s,
		DB:       db,
		Layout:   DefaultLayout,
		SaveRate: 6,
		manager:  actuator.NewManager(logger),
		logger:   logger,
	}
	srv.hub = newHub(logger)
	s.Subscribe(srv.hub.broadcast)
	return srv
}

// Scenario returns the name the session was last saved or loaded as.
func (s *Server) Scenario() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenario
}

// SetScenario names the current session.
func (s *Server) SetScenario(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenario = name
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	if s.limiter == nil {
		s.limiter = NewRateLimiter(s.SaveRate, time.Minute)
	}

	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	get := func(path string, h http.HandlerFunc) {
		r.HandleFunc("/api/v1"+path, h).Methods(http.MethodGet)
	}
	post := func(path string, h http.HandlerFunc) {
		r.HandleFunc("/api/v1"+path, s.adminOnly(h)).Methods(http.MethodPost)
	}

	// Public endpoints (GET, read-only).
	get("/status", s.handleStatus)
	get("/map", s.handleMap)
	get("/catalog", s.handleCatalog)
	get("/targets", s.handleTargets)
	get("/wings", s.handleWings)
	get("/events", s.handleEvents)
	get("/scenarios", s.handleScenarios)
	get("/unit/{id}", s.handleUnit)
	get("/unit/{id}/menu", s.handleMenu)
	get("/unit/{id}/feedback", s.handleMoveFeedback)
	get("/unit/{id}/rotation", s.handleRotationFeedback)
	get("/stream", s.handleStream)

	// Editing endpoints (POST, admin).
	post("/wings", s.handleAddWing)
	post("/wing/{name}/delete", s.handleRemoveWing)
	post("/wing/{name}/leader", s.handleSetLeader)
	post("/wing/{name}/dismiss", s.handleDismissLeader)
	post("/wing/{name}/order", s.handleOrder)
	post("/wing/{name}/played", s.handleWingPlayed)
	post("/units", s.handleCreateUnit)
	post("/unit/{id}/move", s.handleMove)
	post("/unit/{id}/rotate", s.handleRotate)
	post("/unit/{id}/status", s.handleStatusAction)
	post("/unit/{id}/steps", s.handleSteps)
	post("/unit/{id}/delete", s.handleDelete)
	post("/map/hex", s.handleSetTerrain)
	post("/map/edge", s.handleSetEdge)
	post("/undo", s.handleUndo)
	post("/redo", s.handleRedo)
	post("/cancel", s.handleCancel)
	post("/save", s.limiter.Limit(s.handleSave))
	post("/load", s.handleLoad)

	return corsMiddleware(r)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.http = &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	s.logger.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "db", s.DB != nil)

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the listener and closes every event stream.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set HEXWAR_CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("HEXWAR_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth when an admin key
// is configured.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey != "" && !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// clientIP returns the caller's address, preferring the first
// X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(data)
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
