// Package server exposes generation, recycling and the cost ledger over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/generate"
	"github.com/alnah/go-contentflow/internal/recycle"
)

const (
	defaultReadHeaderTimeout = 30 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// Generator streams one document. *generate.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, req generate.Request, emit generate.Emitter) (*generate.Result, error)
}

// Recycler turns one piece of content into several formats.
// *recycle.Service implements it.
type Recycler interface {
	Recycle(ctx context.Context, req recycle.Request) (*recycle.Result, error)
}

// Server is the HTTP surface.
type Server struct {
	engine *gin.Engine
	gen    Generator
	rec    Recycler
	ledger *cost.Ledger
	log    *zap.Logger

	origins           []string
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
	now               func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLedger exposes the cost ledger under /api/costs.
func WithLedger(l *cost.Ledger) Option {
	return func(s *Server) {
		s.ledger = l
	}
}

// WithLogger sets the base logger. Each request logs with its request ID.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCORSOrigins sets the allowed origins. "*" allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithTimeouts sets the header read timeout and the graceful shutdown budget.
// Zero values keep the defaults.
func WithTimeouts(readHeader, shutdown time.Duration) Option {
	return func(s *Server) {
		if readHeader > 0 {
			s.readHeaderTimeout = readHeader
		}
		if shutdown > 0 {
			s.shutdownTimeout = shutdown
		}
	}
}

// WithClock sets the time source used for processing times.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds the router.
func New(gen Generator, rec Recycler, opts ...Option) *Server {
	s := &Server{
		gen:               gen,
		rec:               rec,
		log:               zap.NewNop(),
		origins:           []string{"*"},
		readHeaderTimeout: defaultReadHeaderTimeout,
		shutdownTimeout:   defaultShutdownTimeout,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = gin.New()
	s.engine.Use(recovery(s.log), requestID(s.log), corsPolicy(s.origins), observe(s.log))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.POST("/generate", s.generate)
	api.POST("/recycle", s.recycle)
	api.GET("/recycle", s.recycleInfo)

	if s.ledger != nil {
		costs := api.Group("/costs")
		costs.GET("/today", s.costsToday)
		costs.GET("/:date", s.costsDay)
		costs.DELETE("/today", s.costsReset)
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully within the shutdown budget. In-flight streams see their
// request context canceled when the budget runs out.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: s.readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down", zap.Duration("timeout", s.shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}
