// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the batch submission endpoint and a liveness probe.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

const (
	defaultMaxBatch = 500
	maxBodyBytes    = 32 << 20
	shutdownTimeout = 10 * time.Second
)

// BatchProcessor turns a validated batch into per-item results.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, recs []types.RawRecord) []types.ItemResult
}

// Server serves the submission API.
type Server struct {
	cfg     types.ServerConfig
	proc    BatchProcessor
	log     zerolog.Logger
	version string
	started time.Time
	router  chi.Router
}

// New builds the router. Nothing listens until ListenAndServe is called.
func New(cfg types.ServerConfig, proc BatchProcessor, log zerolog.Logger, version string) *Server {
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = defaultMaxBatch
	}
	s := &Server{
		cfg:     cfg,
		proc:    proc,
		log:     log.With().Str("component", "server").Logger(),
		version: version,
		started: time.Now(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}).Handler)
	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.RemoteAddrHandler("remote"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, elapsed time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("elapsed", elapsed).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/api/bookmarks", s.handleSubmit)
	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A 500-item batch is analyzed sequentially.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Str("version", s.version).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Version: s.version,
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeSubmit(w, r)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("rejected batch")
		writeJSON(w, http.StatusBadRequest, types.SubmitResponse{
			Results: []types.ItemResult{{ID: "", Success: false, Error: err.Error()}},
		})
		return
	}

	results := s.proc.ProcessBatch(r.Context(), req.Bookmarks)
	writeJSON(w, http.StatusOK, types.SubmitResponse{Results: results})
}

// decodeSubmit parses and validates a batch. All failures are
// *types.ValidationError.
func (s *Server) decodeSubmit(w http.ResponseWriter, r *http.Request) (types.SubmitRequest, error) {
	var req types.SubmitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return req, &types.ValidationError{Field: "body", Message: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if len(req.Bookmarks) == 0 {
		return req, &types.ValidationError{Field: "bookmarks", Message: "must contain at least one item"}
	}
	if len(req.Bookmarks) > s.cfg.MaxBatch {
		return req, &types.ValidationError{
			Field:   "bookmarks",
			Message: fmt.Sprintf("batch of %d exceeds limit of %d", len(req.Bookmarks), s.cfg.MaxBatch),
		}
	}
	for i, b := range req.Bookmarks {
		if b.ID == "" {
			return req, &types.ValidationError{Field: fmt.Sprintf("bookmarks[%d].id", i), Message: "must not be empty"}
		}
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
