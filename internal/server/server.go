// Package server exposes the scaffolding engine over HTTP: scaffold calls,
// type and schema introspection, the version registry, call history, and a
// WebSocket event stream.
package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/MikeyVK/stencil/internal/artifact"
	"github.com/MikeyVK/stencil/internal/manager"
	"github.com/MikeyVK/stencil/internal/render"
	"github.com/MikeyVK/stencil/internal/store"
	"github.com/MikeyVK/stencil/internal/version"
)

// Server serves the scaffolding API.
type Server struct {
	mgr       *manager.Manager
	types     *artifact.Registry
	templates *render.Store
	versions  *version.Registry
	history   store.Store
	mux       *http.ServeMux
	wsHub     *WSHub
	log       *zap.Logger
}

// New creates a server over an assembled manager and its collaborators.
// Versions and history may be nil; their endpoints then return 404.
func New(mgr *manager.Manager, types *artifact.Registry, templates *render.Store, versions *version.Registry, history store.Store, log *zap.Logger) *Server {
	s := &Server{
		mgr:       mgr,
		types:     types,
		templates: templates,
		versions:  versions,
		history:   history,
		mux:       http.NewServeMux(),
		wsHub:     NewWSHub(mgr.Events, log),
		log:       log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/scaffold", s.handleScaffold)
	s.mux.HandleFunc("/api/types", s.handleTypes)
	s.mux.HandleFunc("/api/types/", s.handleTypeDetail)
	s.mux.HandleFunc("/api/registry/current", s.handleRegistryCurrent)
	s.mux.HandleFunc("/api/registry/hashes/", s.handleRegistryHash)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc("/api/health", s.handleHealth)

	s.mux.HandleFunc("/ws/events", s.wsHub.HandleWebSocket)
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.log.Info("server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, corsMiddleware(s.mux))
}

// Handler returns the full route tree with middleware, for tests.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.mux)
}

// corsMiddleware adds CORS headers for development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
