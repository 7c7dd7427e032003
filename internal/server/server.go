// If you are AI: This file implements the process composition root: registry, RTMP, HTTP and health listeners.
// Every listener runs in one errgroup; the first failure or context cancellation shuts all of them down.

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"streamhub/internal/config"
	"streamhub/internal/core/bus"
	"streamhub/internal/metrics"
	"streamhub/internal/svc/api"
	"streamhub/internal/svc/health"
	"streamhub/internal/svc/httpflv"
	"streamhub/internal/svc/record"
	"streamhub/internal/svc/relay"
	rtmpsvc "streamhub/internal/svc/rtmp"
	"streamhub/internal/svc/wsflv"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
var shutdownTimeout = 5 * time.Second

// recordQueueSize bounds packets waiting for the recorder.
const recordQueueSize = 4096

// Server wraps the listeners and their shared dependencies.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	registry *bus.Registry

	rtmp       *rtmpsvc.Server
	relays     *relay.Manager
	recorder   *record.Recorder
	recordSink *bus.AsyncSink

	httpServer   *http.Server
	healthServer *http.Server
}

// New wires every service from cfg. Nothing listens until Run.
func New(cfg *config.Config, version string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	opts := []bus.Option{
		bus.WithMinGop(cfg.Stream.MinGop),
		bus.WithLogger(logger.With("component", "registry")),
		bus.WithEvictFunc(func(bus.StreamKey, string, error) { s.metrics.WriterEvicted() }),
	}
	if cfg.Record.Enabled {
		rec, err := record.New(cfg.Record.Dir, logger)
		if err != nil {
			return nil, err
		}
		s.recorder = rec
		s.recordSink = bus.NewAsyncSink("record", rec, recordQueueSize, logger)
		opts = append(opts, bus.WithSink(s.recordSink), bus.WithListener(s.recordSink))
	}
	s.registry = bus.NewRegistry(opts...)

	rtmpOpts, err := rtmpsvc.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	s.rtmp = rtmpsvc.NewServer(s.registry, rtmpOpts, s.metrics, logger)
	s.relays = relay.NewManager(s.registry, logger)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           s.Router(version, rtmpOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.healthServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HealthPort),
		Handler:           s.HealthRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Registry returns the stream registry.
func (s *Server) Registry() *bus.Registry {
	return s.registry
}

// Router builds the public HTTP router: API, HTTP-FLV and WebSocket-FLV.
func (s *Server) Router(version string, opts rtmpsvc.Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	services := []string{"rtmp", "http_flv", "ws_flv", "relay"}
	if s.recorder != nil {
		services = append(services, "record")
	}
	api.NewService(s.registry, s.relays, api.Info{
		Version:  version,
		Services: services,
		Sessions: s.rtmp.SessionCount,
	}).RegisterRoutes(r)
	wsflv.NewService(s.registry, opts.QueueSize, opts.Backpressure, s.logger).RegisterRoutes(r)
	httpflv.NewService(s.registry, opts.QueueSize, opts.Backpressure, s.logger).RegisterRoutes(r)
	return r
}

// HealthRouter builds the health and metrics router.
func (s *Server) HealthRouter() http.Handler {
	r := chi.NewRouter()
	health.New(map[string]health.Check{
		"rtmp": func() error {
			if s.rtmp.Addr() == nil {
				return errors.New("rtmp listener not started")
			}
			return nil
		},
	}).RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler(func() {
		s.metrics.SetActiveStreams(s.registry.Count())
	}))
	return r
}

// Run starts every listener and blocks until ctx is cancelled or one of them fails.
// Shutdown errors are aggregated.
func (s *Server) Run(ctx context.Context) error {
	if err := s.rtmp.Listen(fmt.Sprintf(":%d", s.cfg.Server.RTMPPort)); err != nil {
		return err
	}
	if err := s.relays.StartTasks(s.cfg); err != nil {
		s.rtmp.Close()
		return fmt.Errorf("start relays: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.rtmp.Serve(gctx)
	})
	g.Go(func() error {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		return listen(s.httpServer)
	})
	g.Go(func() error {
		s.logger.Info("health server listening", "addr", s.healthServer.Addr)
		return listen(s.healthServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// listen serves until Shutdown; http.ErrServerClosed is a clean stop.
func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen %s: %w", srv.Addr, err)
	}
	return nil
}

// shutdown stops the listeners, relays and recorder in dependency order.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs *multierror.Error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("http: %w", err))
	}
	if err := s.healthServer.Shutdown(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("health: %w", err))
	}
	if err := s.relays.Stop(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("relay: %w", err))
	}
	if err := s.rtmp.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = multierror.Append(errs, fmt.Errorf("rtmp: %w", err))
	}
	// Sessions are gone, so no more packets reach the recorder.
	if s.recordSink != nil {
		s.recordSink.Close()
		s.recorder.Close()
	}
	return errs.ErrorOrNil()
}
