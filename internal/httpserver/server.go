package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-media-cache/internal/cache/service"
	"go-media-cache/internal/config"
)

const maxRequestBody = 10 << 20

// Server represents the HTTP cache server
type Server struct {
	cacheService *service.CacheService
	cfg          config.ServerConfig
	adminSecret  string
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a new cache HTTP server.
// An empty adminSecret leaves the cache mutation endpoints open.
func NewServer(cacheService *service.CacheService, cfg config.ServerConfig, adminSecret string, logger *zap.Logger) *Server {
	s := &Server{
		cacheService: cacheService,
		cfg:          cfg,
		adminSecret:  adminSecret,
		logger:       logger,
	}

	s.server = &http.Server{
		Handler:      s.createRouter(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves on the configured TCP address and/or Unix socket and blocks until
// the server stops. A clean shutdown returns nil.
func (s *Server) Start() error {
	var listeners []net.Listener

	if s.cfg.Address != "" {
		listener, err := net.Listen("tcp", s.cfg.Address)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err)
		}
		s.logger.Info("Starting media cache HTTP server", zap.String("address", s.cfg.Address))
		listeners = append(listeners, listener)
	}

	if s.cfg.SocketPath != "" {
		listener, err := s.listenUnixSocket(s.cfg.SocketPath)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return err
		}
		s.logger.Info("Starting media cache HTTP server on Unix socket", zap.String("socket_path", s.cfg.SocketPath))
		listeners = append(listeners, listener)
	}

	if len(listeners) == 0 {
		return errors.New("no listener configured")
	}

	errCh := make(chan error, len(listeners))
	for _, l := range listeners {
		go func(l net.Listener) {
			errCh <- s.server.Serve(l)
		}(l)
	}

	err := <-errCh
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) listenUnixSocket(socketPath string) (net.Listener, error) {
	// Remove existing socket file
	if err := os.RemoveAll(socketPath); err != nil {
		s.logger.Warn("Failed to remove existing socket file", zap.String("path", socketPath), zap.Error(err))
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", socketPath, err)
	}

	// Set socket permissions (readable/writable by owner and group)
	if err := os.Chmod(socketPath, 0660); err != nil {
		s.logger.Warn("Failed to set socket permissions", zap.String("path", socketPath), zap.Error(err))
	}
	return listener, nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping media cache HTTP server")
	return s.server.Shutdown(ctx)
}

// createRouter creates and configures the HTTP router
func (s *Server) createRouter() *mux.Router {
	router := mux.NewRouter()

	// Cache endpoints
	router.HandleFunc("/cache/get", s.handleGet).Methods("POST")
	router.HandleFunc("/cache/info", s.handleCacheInfo).Methods("POST")
	router.Handle("/cache/set", s.requireAdmin(http.HandlerFunc(s.handleSet))).Methods("POST")
	router.Handle("/cache/delete", s.requireAdmin(http.HandlerFunc(s.handleDelete))).Methods("POST")

	// Health check
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.HandleFunc("/providers", s.handleProviders).Methods("GET")
	router.HandleFunc("/{namespace}/{provider}/{operation}", s.handleMedia).Methods("GET")

	return router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

// parseRequest parses JSON request body
func (s *Server) parseRequest(r *http.Request, v interface{}) error {
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return err
	}

	return json.Unmarshal(body, v)
}

// writeResponse writes JSON response
func (s *Server) writeResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeErrorResponse writes error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"success": false,
		"error":   message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to write error response", zap.Error(err))
	}
}
