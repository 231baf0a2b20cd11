// Package server exposes a canvas and its layout engine over HTTP.
//
// Reads are served concurrently. Every request that mutates the canvas
// holds one server-wide lock, so at most one cascade runs per canvas. When
// the store can flush (the file store), it is flushed after each mutation.
//
//	GET  /healthz
//	GET  /document
//	GET  /validate
//	GET  /render.{svg,png,dot}
//	GET  /nodes/{id}
//	GET  /nodes/{id}/connections
//	POST /nodes/{id}/{autolayout,cascade,collapse,expand}
//	POST /nodes/{id}/actions/{action}
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/cards"
	"github.com/matzehuels/cardtree/pkg/layout"
	"github.com/matzehuels/cardtree/pkg/render"
)

const shutdownTimeout = 10 * time.Second

// flusher is implemented by stores that buffer writes.
type flusher interface {
	Flush(ctx context.Context) error
}

// Server serves one canvas.
type Server struct {
	store    canvas.Store
	engine   *layout.Engine
	editor   *cards.Editor
	renderer *render.Runner
	logger   *log.Logger

	mu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithRenderer sets the render runner, e.g. one backed by a shared cache.
func WithRenderer(r *render.Runner) Option { return func(s *Server) { s.renderer = r } }

// New creates a server around editor and the engine and store it drives.
func New(editor *cards.Editor, opts ...Option) *Server {
	s := &Server{
		engine: editor.Engine(),
		store:  editor.Engine().Store(),
		editor: editor,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = render.NewRunner(nil, nil, s.logger)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/document", s.handleDocument)
	r.Get("/validate", s.handleValidate)
	r.Get("/render.{format}", s.handleRender)

	r.Route("/nodes/{id}", func(r chi.Router) {
		r.Get("/", s.handleNode)
		r.Get("/connections", s.handleConnections)
		r.Group(func(r chi.Router) {
			r.Use(s.exclusive)
			r.Post("/autolayout", s.handleAutoLayout)
			r.Post("/cascade", s.handleCascade)
			r.Post("/collapse", s.handleCollapse)
			r.Post("/expand", s.handleExpand)
			r.Post("/actions/{action}", s.handleAction)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// flush persists buffered writes after a mutation.
func (s *Server) flush(ctx context.Context) error {
	if f, ok := s.store.(flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}
