// Package server exposes the pixelforge pipeline over HTTP.
//
// The server is stateless: every request names the blobs it works on, and
// all inputs and outputs live in the configured [blob.Store]. Routes:
//
//	GET    /health              liveness and capability report
//	POST   /api/convert         reconstruct the grid of a stored image
//	POST   /api/estimate        score candidate block sizes
//	POST   /api/generate        generate an image and store it
//	POST   /api/remove-bg       remove the background of a stored image
//	GET    /api/blobs           list stored blobs (?prefix=)
//	DELETE /api/blobs/{name}    delete a blob
//	GET    /blobs/{name}        download a blob
//
// Errors are JSON objects {"error": {"code": ..., "message": ...}} with an
// HTTP status derived from the error code.
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pixelforge/pkg/blob"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/integrations/generation"
	"github.com/matzehuels/pixelforge/pkg/integrations/rmbg"
	"github.com/matzehuels/pixelforge/pkg/pipeline"
)

const (
	// maxBodyBytes bounds JSON request bodies.
	maxBodyBytes = 1 << 20

	requestTimeout  = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// Generator creates images and downloads the results.
// *generation.Client implements it.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (generation.Result, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BackgroundRemover removes image backgrounds and downloads the results.
// *rmbg.Client implements it.
type BackgroundRemover interface {
	Remove(ctx context.Context, data []byte) (rmbg.Result, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
}

var (
	_ Generator         = (*generation.Client)(nil)
	_ BackgroundRemover = (*rmbg.Client)(nil)
)

// Options configures a [Server]. Runner and Store are required; a nil
// Generator or Remover makes the matching route answer UNSUPPORTED.
type Options struct {
	Runner    *pipeline.Runner
	Store     blob.Store
	Generator Generator
	Remover   BackgroundRemover
	Logger    *log.Logger

	// Defaults seeds the pipeline options of every convert and estimate
	// request (threshold, candidates, workers).
	Defaults pipeline.Options
}

// Server serves the HTTP API.
type Server struct {
	runner    *pipeline.Runner
	store     blob.Store
	generator Generator
	remover   BackgroundRemover
	logger    *log.Logger
	defaults  pipeline.Options
	router    chi.Router
}

// New creates a server and mounts its routes.
func New(opts Options) (*Server, error) {
	if opts.Runner == nil || opts.Store == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "server needs a pipeline runner and a blob store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{
		runner:    opts.Runner,
		store:     opts.Store,
		generator: opts.Generator,
		remover:   opts.Remover,
		logger:    logger,
		defaults:  opts.Defaults,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
		r.Post("/estimate", s.handleEstimate)
		r.Post("/generate", s.handleGenerate)
		r.Post("/remove-bg", s.handleRemoveBackground)
		r.Get("/blobs", s.handleListBlobs)
		r.Delete("/blobs/*", s.handleDeleteBlob)
	})

	r.Get("/blobs/*", s.handleGetBlob)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeIO, err, "listen on %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "shutdown")
	}
	return nil
}

// logRequests logs one line per request with status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
