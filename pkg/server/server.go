package server

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/radialtree/pkg/config"
	"github.com/matzehuels/radialtree/pkg/pipeline"
	"github.com/matzehuels/radialtree/pkg/session"
)

// Server serves layouts and sessions.
type Server struct {
	cfg      config.Config
	runner   *pipeline.Runner
	sessions session.Store
	logger   *log.Logger
	gatherer prometheus.Gatherer

	// layouts collapses concurrent identical layout requests.
	layouts singleflight.Group

	// sessionLocks serialize updates per session ID within this process.
	// Instances sharing a store still race; the last write wins there.
	sessionLocks [64]sync.Mutex

	handler http.Handler
}

// Option customizes a Server.
type Option func(*Server)

// WithGatherer sets the registry served on /metrics. Defaults to
// prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New builds a server. A nil logger means log.Default().
func New(cfg config.Config, runner *pipeline.Runner, sessions session.Store, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:      cfg,
		runner:   runner,
		sessions: sessions,
		logger:   logger,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// lockSession locks the stripe that id hashes to and returns its unlock.
func (s *Server) lockSession(id string) func() {
	h := fnv.New32a()
	h.Write([]byte(id))
	mu := &s.sessionLocks[h.Sum32()%uint32(len(s.sessionLocks))]
	mu.Lock()
	return mu.Unlock
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	mount := func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(s.requireAPIKey)
			r.Use(s.limitBody)

			r.Get("/datasets", s.handleListDatasets)
			r.Get("/datasets/{name}/tree", s.handleDatasetTree)
			r.Post("/layout", s.handleLayout)

			r.Post("/sessions", s.handleCreateSession)
			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/toggle", s.handleToggle)
				r.Post("/expand-all", s.handleExpandAll)
				r.Get("/layout", s.handleSessionLayout)
			})
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, s.logger, notFound(r))
		})
	}

	if prefix := s.cfg.Server.GlobalPrefix; prefix != "" {
		r.Route(prefix, mount)
	} else {
		mount(r)
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         net.JoinHostPort("", strconv.Itoa(s.cfg.Server.Port)),
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr, "prefix", s.cfg.Server.GlobalPrefix)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
