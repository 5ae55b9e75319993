// Package server provides the HTTP REST API for the candidate search service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cv-search/internal/artifacts"
	"github.com/jonathan/cv-search/internal/config"
	"github.com/jonathan/cv-search/internal/db"
	"github.com/jonathan/cv-search/internal/llm"
	"github.com/jonathan/cv-search/internal/search"
	"github.com/jonathan/cv-search/internal/types"
)

// SearchService is the search entry point the handlers call.
type SearchService interface {
	SearchSeat(ctx context.Context, crit types.Criteria, rawText string, topK int) (*types.ProjectResult, error)
	SearchProject(ctx context.Context, criteria []types.Criteria, rawText string, topK int) (*types.ProjectResult, error)
}

// RunStore is the audit-row access the handlers need.
type RunStore interface {
	GetSearchRun(ctx context.Context, runID string) (*types.SearchRun, error)
	ListSearchRuns(ctx context.Context, filters db.RunFilters) ([]types.SearchRun, error)
	UpdateSearchRunFeedback(ctx context.Context, runID, sentiment, comment string) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	database   *db.DB
	llmClient  llm.Client
	searcher   SearchService
	runs       RunStore
	validate   *validator.Validate
}

// New wires the full service: database, LLM client, artifact writer, search
// pipeline and HTTP routes.
func New(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	writer := artifacts.NewWriter(cfg.RunsDir)
	service := search.NewService(database, cfg, client, database, writer)

	s := newServer(service, database)
	s.database = database
	s.llmClient = client
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(s.routes())),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for multi-seat searches
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// newServer builds a server around the given collaborators. Tests use this
// directly with fakes.
func newServer(searcher SearchService, runs RunStore) *Server {
	return &Server{
		searcher: searcher,
		runs:     runs,
		validate: validator.New(),
	}
}

// routes builds the request mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /search/seat", s.handleSearchSeat)
	mux.HandleFunc("POST /search/project", s.handleSearchProject)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("POST /runs/{id}/feedback", s.handleRunFeedback)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.llmClient != nil {
		if err := s.llmClient.Close(); err != nil {
			log.Printf("Error closing LLM client: %v", err)
		}
	}
	if s.database != nil {
		s.database.Close()
	}
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
