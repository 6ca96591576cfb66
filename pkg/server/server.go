// Package server serves a node set as a live diagram.
//
// Every browser viewer gets its own layout engine, owned by one goroutine
// for the lifetime of its WebSocket. The page sends drag gestures as
// messages; the session answers with projected frames while the
// simulation is warm. Replacing the node set with [Server.SetGraph] tells
// every open viewer to reload.
//
// Routes:
//
//	GET /               live HTML page
//	GET /ws             WebSocket for frames and drag messages
//	GET /api/layout     layout snapshot as JSON
//	GET /api/scene.svg  interactive SVG
//	GET /healthz        liveness and counts
//	GET /metrics        Prometheus scrape, when configured
package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/render/html"
	"github.com/matzehuels/forcegraph/pkg/render/svg"
	"github.com/matzehuels/forcegraph/pkg/scene"
	"github.com/matzehuels/forcegraph/pkg/watch"
)

// DefaultFrameInterval paces frames at roughly one per display refresh.
const DefaultFrameInterval = time.Second / 60

// Options configures a Server.
type Options struct {
	Viewport      layout.Viewport
	Config        layout.Config
	Title         string
	FrameInterval time.Duration

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server serves one node set to any number of viewers.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	opts   Options
	router chi.Router

	mu     sync.RWMutex
	graph  *graph.Graph
	reload chan struct{}

	sessionsMu sync.Mutex
	sessions   map[string]*session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server for g. Layouts go through runner, so viewers of the
// same node set share one cached pre-generated layout.
func New(runner *pipeline.Runner, g *graph.Graph, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Viewport == (layout.Viewport{}) {
		opts.Viewport = layout.DefaultViewport
	}
	if opts.Config == (layout.Config{}) {
		opts.Config = layout.DefaultConfig()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.Title == "" {
		opts.Title = "forcegraph"
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		runner:   runner,
		logger:   logger,
		opts:     opts,
		graph:    g,
		reload:   make(chan struct{}),
		sessions: make(map[string]*session),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleIndex)
	r.Get("/ws", s.handleSocket)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/layout", s.handleLayout)
		r.Get("/scene.svg", s.handleSVG)
	})
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Graph returns the node set being served.
func (s *Server) Graph() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// SetGraph replaces the node set and asks every open viewer to reload.
func (s *Server) SetGraph(g *graph.Graph) {
	s.mu.Lock()
	s.graph = g
	close(s.reload)
	s.reload = make(chan struct{})
	s.mu.Unlock()
	s.logger.Info("node set replaced", "nodes", g.Len(), "viewers", s.Sessions())
}

func (s *Server) current() (*graph.Graph, <-chan struct{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph, s.reload
}

// Sessions returns the number of connected viewers.
func (s *Server) Sessions() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}

// Watch reloads the node set whenever w reports a change, until ctx is
// done. A file that fails to parse is logged and the old node set kept.
func (s *Server) Watch(ctx context.Context, w *watch.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events():
			if !ok {
				return
			}
			g, err := graph.ReadFile(ev.Path)
			if err != nil {
				s.logger.Error("reload failed, keeping previous nodes", "path", ev.Path, "err", errors.UserMessage(err))
				continue
			}
			s.SetGraph(g)
		}
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", addr)

	select {
	case err := <-errCh:
		s.Close()
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close ends every viewer session and waits for them to finish.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Server) layoutOptions() pipeline.Options {
	return pipeline.Options{Viewport: s.opts.Viewport, Config: s.opts.Config, Title: s.opts.Title}
}

// engine configures (or restores) an engine for the current node set. A
// nil engine with a nil error means there is nothing to draw.
func (s *Server) engine(ctx context.Context) (*layout.Engine, <-chan struct{}, error) {
	g, reload := s.current()
	e, err := s.runner.Layout(ctx, g, s.layoutOptions())
	if stderrors.Is(err, layout.ErrNoNodes) {
		return nil, reload, nil
	}
	return e, reload, err
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	e, _, err := s.engine(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if e == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	cfg := e.Config()
	page, err := html.Render(scene.Build(e), html.Options{
		Title:    s.opts.Title,
		MinZoom:  cfg.MinZoom,
		MaxZoom:  cfg.MaxZoom,
		LivePath: "/ws",
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	e, _, err := s.engine(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if e == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var buf bytes.Buffer
	if err := layout.WriteSnapshot(e.Snapshot(), &buf); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	e, _, err := s.engine(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if e == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	cfg := e.Config()
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg.Render(scene.Build(e), svg.WithInteraction(cfg.MinZoom, cfg.MaxZoom)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"nodes":    s.Graph().Len(),
		"sessions": s.Sessions(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidNode, errors.ErrCodeDuplicateNode,
		errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeUnsupported:
		status = http.StatusNotImplemented
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{
		"error":   string(code),
		"message": errors.UserMessage(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
