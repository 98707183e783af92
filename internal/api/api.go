// Package api provides the HTTP surface of planpipe.
//
// It exposes RESTful endpoints for requesting plan generation, reading plans
// and their workouts, recording workout tracking, and managing user profiles.
// Generation runs asynchronously on a worker pool; the request endpoint
// returns 202 with the in-progress plan.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/emmihealth/planpipe/internal/generation"
	"github.com/emmihealth/planpipe/internal/store"
)

// Server defaults.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultGenerationTimeout bounds a single background generation run.
	DefaultGenerationTimeout = 10 * time.Minute
)

// Opts holds server configuration.
type Opts struct {
	Addr              string
	GenerationTimeout time.Duration
}

// Option configures the server.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithGenerationTimeout overrides the per-run generation timeout.
func WithGenerationTimeout(d time.Duration) Option {
	return func(o *Opts) { o.GenerationTimeout = d }
}

// Server wires the HTTP handlers to the store and the generation pipeline.
type Server struct {
	store     store.Store
	generator *generation.Generator
	pool      *generation.WorkerPool

	addr              string
	generationTimeout time.Duration
	httpServer        *http.Server
}

// NewServer creates a Server. The pool is owned by the caller.
func NewServer(st store.Store, gen *generation.Generator, pool *generation.WorkerPool, options ...Option) *Server {
	opts := Opts{
		Addr:              DefaultAddr,
		GenerationTimeout: DefaultGenerationTimeout,
	}
	for _, opt := range options {
		opt(&opts)
	}
	slog.Debug("Server.NewServer: creating server", "addr", opts.Addr, "generation_timeout", opts.GenerationTimeout)
	return &Server{
		store:             st,
		generator:         gen,
		pool:              pool,
		addr:              opts.Addr,
		generationTimeout: opts.GenerationTimeout,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("PUT /users/{userID}/profile", s.saveProfileHandler)
	mux.HandleFunc("GET /users/{userID}/profile", s.getProfileHandler)
	mux.HandleFunc("GET /users/{userID}/plans", s.listPlansHandler)
	mux.HandleFunc("POST /plans", s.requestPlanHandler)
	mux.HandleFunc("GET /plans/{planID}", s.getPlanHandler)
	mux.HandleFunc("GET /plans/{planID}/workouts", s.listWorkoutsHandler)
	mux.HandleFunc("GET /workouts/{workoutID}", s.getWorkoutHandler)
	mux.HandleFunc("PATCH /workouts/{workoutID}", s.trackWorkoutHandler)
	return mux
}

// Run starts the HTTP server and blocks until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API server listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Server.Run: shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server.Run: graceful shutdown failed", "error", err)
		return err
	}
	return nil
}
