package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"scholarship/internal/ledger"
)

// Server represents the HTTP API server
// Provides endpoints for Prometheus metrics, health checks, contract queries and signed invocations
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	client     *ledger.Client
	validate   *validator.Validate
	port       int
}

// NewServer creates a new API server instance
// The client is made available to all handlers for contract access
func NewServer(port int, client *ledger.Client) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:      mux,
		client:   client,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		port:     port,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Register all HTTP routes
	s.registerRoutes()

	return s
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return requestID(s.mux)
}

// registerRoutes sets up all HTTP routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.handleMetrics())

	// Contract queries
	s.mux.HandleFunc("GET /contract", s.handleContract)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("GET /stats/total-disbursed", s.handleTotalDisbursed)
	s.mux.HandleFunc("GET /students/{address}", s.handleStudentProfile)
	s.mux.HandleFunc("GET /students/{address}/amount", s.handleStudentAmount)
	s.mux.HandleFunc("GET /students/{address}/scholarship-count", s.handleStudentScholarshipCount)
	s.mux.HandleFunc("GET /scholarships/recent", s.handleRecentScholarships)
	s.mux.HandleFunc("GET /scholarships/{id}", s.handleScholarshipRecord)
	s.mux.HandleFunc("GET /last-activity", s.handleLastActivity)

	// Signed invocations
	s.mux.HandleFunc("POST /invoke", s.handleInvoke)
}

// Start starts the HTTP server in a goroutine
// Returns immediately after starting the server
func (s *Server) Start() error {
	go func() {
		slog.Info("API server starting",
			"port", s.port,
			"contract_id", s.client.Host().ContractID(),
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()

	// Give the server a moment to start
	time.Sleep(100 * time.Millisecond)

	return nil
}

// Shutdown gracefully shuts down the HTTP server
// Waits for active connections to close or context to timeout
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("API server shutting down...")
	return s.httpServer.Shutdown(ctx)
}
