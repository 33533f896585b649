package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/sinkline/internal/platform/timeouts"
	"github.com/louisbranch/sinkline/internal/services/match/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// RuntimeConfig controls match service startup.
type RuntimeConfig struct {
	GRPCPort          int
	HTTPAddr          string
	DBPath            string
	Locale            string
	SyncInterval      time.Duration
	SyncBatch         int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Sink              Sink
}

const (
	defaultMatchGRPCPort = 8093
	defaultMatchHTTPAddr = ":8094"
	defaultMatchDB       = "data/match.db"
)

func (cfg RuntimeConfig) normalized() RuntimeConfig {
	if cfg.GRPCPort <= 0 {
		cfg.GRPCPort = defaultMatchGRPCPort
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		cfg.HTTPAddr = defaultMatchHTTPAddr
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultMatchDB
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = timeouts.Shutdown
	}
	return cfg
}

// Runtime hosts the match service process: the SQLite store, the live feed
// HTTP server, the health gRPC endpoint, and the outbox forwarder loop.
type Runtime struct {
	cfg     RuntimeConfig
	store   *sqlite.Store
	hub     *Hub
	service *Service
}

// NewRuntime opens storage and assembles the service. The caller owns the
// lifecycle: Run blocks until the context ends and closes the store on exit.
func NewRuntime(ctx context.Context, cfg RuntimeConfig) (*Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.normalized()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create match storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open match sqlite store: %w", err)
	}

	hub := NewHub()
	service := NewService(store, WithHub(hub), WithLocale(cfg.Locale))
	return &Runtime{
		cfg:     cfg,
		store:   store,
		hub:     hub,
		service: service,
	}, nil
}

// Service returns the match service for API surfaces layered on this runtime.
func (r *Runtime) Service() *Service { return r.service }

// Hub returns the live feed hub.
func (r *Runtime) Hub() *Hub { return r.hub }

// Run serves until the context ends.
func (r *Runtime) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if closeErr := r.store.Close(); closeErr != nil {
			log.Printf("close match sqlite store: %v", closeErr)
		}
	}()

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen on match grpc port %d: %w", r.cfg.GRPCPort, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("match.runtime", grpc_health_v1.HealthCheckResponse_SERVING)

	grpcErr := make(chan error, 1)
	go func() {
		grpcErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-grpcErr
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/ws", r.hub.Handler())

	httpServer := &http.Server{
		Addr:              r.cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: r.cfg.ReadHeaderTimeout,
	}
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- httpServer.ListenAndServe()
	}()

	forwarderOpts := []ForwarderOption{}
	if r.cfg.SyncInterval > 0 {
		forwarderOpts = append(forwarderOpts, WithForwardInterval(r.cfg.SyncInterval))
	}
	if r.cfg.SyncBatch > 0 {
		forwarderOpts = append(forwarderOpts, WithForwardBatch(r.cfg.SyncBatch))
	}
	forwarder := NewForwarder(r.store, r.cfg.Sink, forwarderOpts...)
	forwardCtx, stopForwarder := context.WithCancel(ctx)
	forwardErr := make(chan error, 1)
	go func() {
		forwardErr <- forwarder.Run(forwardCtx)
	}()
	// Drained before the deferred store close so the forwarder never polls a
	// closed database, including on early serve errors.
	defer func() {
		stopForwarder()
		<-forwardErr
	}()

	log.Printf("match grpc listening at %v", listener.Addr())
	log.Printf("match http listening at %s", r.cfg.HTTPAddr)

	select {
	case <-ctx.Done():
	case err := <-httpErr:
		httpErr <- nil
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("match http server: %w", err)
		}
	case err := <-grpcErr:
		grpcErr <- nil
		if err != nil {
			return fmt.Errorf("match grpc server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown match http server: %v", err)
	}
	return nil
}
