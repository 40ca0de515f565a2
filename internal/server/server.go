// Package server provides the HTTP preview server: live annotated MJPEG,
// per-frame annotations over WebSocket, and the session's sightings.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ayusman/drishti/internal/app"
	"github.com/ayusman/drishti/internal/gallery"
	"github.com/ayusman/drishti/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Status reports pipeline progress for /api/health.
type Status interface {
	State() app.State
	Processed() uint64
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Hub       *Hub
	Pipeline  Status
	Gallery   *gallery.Gallery
	Threshold float64
	Store     *store.Store
	SessionID string
}

// Server represents the HTTP preview server.
type Server struct {
	config Config
	router *chi.Mux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/gallery", s.handleGallery)

	// Live preview endpoints need the frame hub
	if s.config.Hub != nil {
		r.Method(http.MethodGet, "/api/stream", NewStreamHandler(s.config.Hub))
		r.Method(http.MethodGet, "/api/annotations", NewAnnotationsHandler(s.config.Hub))
	}

	// Sightings need the journal
	if s.config.Store != nil && s.config.SessionID != "" {
		r.Get("/api/sightings", s.handleSightings)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Pipeline != nil {
		response["state"] = s.config.Pipeline.State().String()
		response["frames"] = s.config.Pipeline.Processed()
	}
	if s.config.Hub != nil {
		response["viewers"] = s.config.Hub.Subscribers()
	}

	respondJSON(w, http.StatusOK, response)
}

// handleGallery handles GET requests to /api/gallery.
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	labels := s.config.Gallery.Labels()
	if labels == nil {
		labels = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"labels":    labels,
		"size":      s.config.Gallery.Len(),
		"dim":       s.config.Gallery.Dim(),
		"threshold": s.config.Threshold,
	})
}

// handleSightings handles GET requests to /api/sightings.
func (s *Server) handleSightings(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	session, err := s.config.Store.Sessions().GetByID(s.config.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	summary, err := s.config.Store.Sightings().Summary(session.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to summarize sightings")
		return
	}
	recent, err := s.config.Store.Sightings().Recent(session.ID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list sightings")
		return
	}

	if summary == nil {
		summary = []store.LabelSummary{}
	}
	if recent == nil {
		recent = []store.Sighting{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"summary": summary,
		"recent":  recent,
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     s,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
		// Streaming handlers end when ctx does
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting preview server on %s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down preview server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
