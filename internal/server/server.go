// Package server exposes the score calculator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/verte-zerg/ropescore/internal/logging"
	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/reference"
)

const (
	apiPrefix              = "/api/v1"
	defaultAddr            = "127.0.0.1:8080"
	defaultReadTimeout     = 10 * time.Second
	defaultRequestTimeout  = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	maxBodyBytes           = 1 << 20
)

// Store is the score history used by the API. It is optional.
type Store interface {
	InsertScore(ctx context.Context, rec model.ScoreRecord) (model.ScoreRecord, error)
	ListScores(ctx context.Context, filter model.HistoryFilter) ([]model.ScoreRecord, error)
	GetScore(ctx context.Context, ref string) (model.ScoreRecord, error)
	DeleteScore(ctx context.Context, ref string) error
}

// Config controls the HTTP listener.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	RequestTimeout time.Duration
	// SaveAll stores every valid score request, not only those asking for it.
	SaveAll bool
}

// Server serves the scoring API.
type Server struct {
	cfg     Config
	store   Store
	catalog reference.Catalog
	log     *zap.Logger
	now     func() time.Time
	started time.Time
}

// Option customises a Server.
type Option func(*Server)

// WithStore enables the history endpoints and saving.
func WithStore(st Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Server.
func New(cfg Config, cat reference.Catalog, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	s := &Server{
		cfg:     cfg,
		catalog: cat,
		log:     logging.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	return s
}

// Handler builds the chi router with shared middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.log),
		recoverer,
		middleware.Timeout(s.cfg.RequestTimeout),
	)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, newError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, newError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", s.healthz)
	r.Route(apiPrefix, func(api chi.Router) {
		api.Post("/score", s.score)
		api.Get("/point-value", s.pointValue)
		api.Get("/reference", s.reference)
		api.Get("/scores", s.listScores)
		api.Get("/scores/{ref}", s.getScore)
		api.Delete("/scores/{ref}", s.deleteScore)
	})
	return r
}

// Run listens until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		IdleTimeout:       2 * s.cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	logger := s.log.Named("http").With(zap.String("addr", srv.Addr))
	go func() {
		logger.Info("ropescore api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received; draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
