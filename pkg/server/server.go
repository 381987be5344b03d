// Package server exposes plan generation over HTTP.
//
// Generation failures are reported in the body with status 200:
//
//	{"error": "AI returned invalid JSON", "pm_plan": []}
//
// Only malformed requests (bad format value, bad asset body) get a 4xx.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pmplanner/pkg/asset"
	"pmplanner/pkg/encoder"
	"pmplanner/pkg/plan"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8000"

const (
	defaultMaxBodyBytes = 1 << 20
	shutdownTimeout     = 10 * time.Second
)

// Planner generates a plan for one asset.
type Planner interface {
	Generate(ctx context.Context, a asset.Descriptor) (plan.Plan, error)
}

// RequestLog records incoming plan requests. Append must not block for long
// and never fails the request.
type RequestLog interface {
	Append(ctx context.Context, a asset.Descriptor)
}

// Options configures a Server. Zero values select defaults.
type Options struct {
	Addr         string
	Exporter     *encoder.Exporter
	RequestLog   RequestLog
	Logger       *zap.Logger
	MaxBodyBytes int64
}

// Server is the HTTP front end.
type Server struct {
	planner  Planner
	exporter *encoder.Exporter
	reqlog   RequestLog
	logger   *zap.Logger
	addr     string
	maxBody  int64
	handler  http.Handler
}

// New wires the routes for p.
func New(p Planner, opts Options) *Server {
	s := &Server{
		planner:  p,
		exporter: opts.Exporter,
		reqlog:   opts.RequestLog,
		logger:   opts.Logger,
		addr:     opts.Addr,
		maxBody:  opts.MaxBodyBytes,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.exporter == nil {
		s.exporter = encoder.NewExporter("", false, s.logger)
	}
	if s.addr == "" {
		s.addr = DefaultAddr
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/generate_pm_plan", s.handleGenerate)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", requestIDHeader},
		AllowCredentials: true,
	})
	s.handler = s.withRequestID(c.Handler(mux))
	return s
}

// Handler returns the root handler, CORS and request IDs included.
func (s *Server) Handler() http.Handler { return s.handler }

// Addr is the configured listen address.
func (s *Server) Addr() string { return s.addr }

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		// In-flight requests outlive ctx; Shutdown waits for them.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
