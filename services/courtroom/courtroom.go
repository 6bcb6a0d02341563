// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package courtroom assembles the trial simulation service: case
// library, generation gateway, simulation manager, judicial memory
// persistence, and the HTTP surface.
package courtroom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/CourtSim/pkg/logging"
	"github.com/AleutianAI/CourtSim/services/courtroom/agent"
	"github.com/AleutianAI/CourtSim/services/courtroom/caselib"
	"github.com/AleutianAI/CourtSim/services/courtroom/config"
	"github.com/AleutianAI/CourtSim/services/courtroom/routes"
	"github.com/AleutianAI/CourtSim/services/courtroom/simulation"
	"github.com/AleutianAI/CourtSim/services/courtroom/storage"
	"github.com/AleutianAI/CourtSim/services/llm"
)

// memorySaveInterval is how often judicial memories flush to disk while
// the service runs; they also flush on shutdown.
const memorySaveInterval = 5 * time.Minute

// Service is the courtroom service lifecycle.
//
// # Thread Safety
//
// Safe for concurrent use after New returns. Run blocks and is called
// at most once.
type Service interface {
	// Run starts the HTTP server and blocks until ctx is cancelled or
	// the server fails.
	Run(ctx context.Context) error

	// Router returns the configured engine, for integration tests.
	Router() *gin.Engine
}

type service struct {
	cfg     config.Config
	logger  *logging.Logger
	router  *gin.Engine
	store   *storage.BadgerStore
	library *caselib.Library
	manager *simulation.Manager
	health  *llm.HealthTracker

	tracerCleanup func(context.Context)
}

// New wires the full service from configuration. Components that fail
// to initialize are fatal here; degraded modes (gateway loss) are
// handled at runtime, not at startup.
func New(cfg config.Config) (Service, error) {
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Log.Level),
		LogDir:  cfg.Log.Dir,
		Service: "courtsim",
		JSON:    cfg.Log.JSON,
	})

	s := &service{
		cfg:    cfg,
		logger: logger,
		health: &llm.HealthTracker{},
	}

	if err := s.initTracer(); err != nil {
		return nil, fmt.Errorf("initialize tracer: %w", err)
	}

	storeCfg := storage.DefaultConfig(filepath.Join(cfg.DataDir, "courtsim.db"))
	storeCfg.Logger = logger.Slog()
	store, err := storage.Open(storeCfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	s.store = store

	library, err := caselib.Open(cfg.CaseDir, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open case library: %w", err)
	}
	s.library = library

	client, err := llm.NewClient(cfg.Provider)
	if err != nil {
		library.Close()
		store.Close()
		return nil, fmt.Errorf("create generation client: %w", err)
	}

	s.manager = simulation.NewManager(client, s.health, logger, simulation.ManagerConfig{
		Controller: simulation.Config{
			Unit:      agent.DefaultConfig(),
			TurnDelay: cfg.TurnDelay,
		},
		JudicialMemory: cfg.JudicialMemory,
	})
	s.manager.SetPersistence(store)

	s.initRouter()

	logger.Info("service initialized",
		"provider", cfg.Provider.Provider,
		"model", cfg.Provider.Model,
		"cases", len(library.List()),
		"judicial_memory", cfg.JudicialMemory)
	return s, nil
}

// Run starts the HTTP server and the background memory flusher, and
// blocks until ctx is cancelled. Shutdown is graceful: in-flight
// requests drain and judicial memories flush.
func (s *service) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server listening", "addr", s.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(memorySaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := s.manager.SaveMemories(ctx, s.store); err != nil {
					s.logger.Warn("judicial memory flush failed", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.close(shutdownCtx)
		return nil
	})

	return g.Wait()
}

// Router implements Service.
func (s *service) Router() *gin.Engine { return s.router }

// close flushes and releases everything, in dependency order.
func (s *service) close(ctx context.Context) {
	if err := s.manager.SaveMemories(ctx, s.store); err != nil {
		s.logger.Warn("final judicial memory flush failed", "error", err)
	}
	if s.library != nil {
		_ = s.library.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(ctx)
	}
	s.logger.Info("service shut down")
	_ = s.logger.Close()
}

func (s *service) initRouter() {
	router := gin.New()
	router.Use(gin.Recovery())
	if s.cfg.OTLPEndpoint != "" {
		router.Use(otelgin.Middleware("courtsim"))
	}
	routes.SetupRoutes(router, s.manager, s.library, s.health, s.cfg.DefaultJurors)
	s.router = router
}

// initTracer sets up OTLP trace export when an endpoint is configured.
// Without one, tracing stays off entirely; there is no point shipping
// spans nowhere.
func (s *service) initTracer() error {
	if s.cfg.OTLPEndpoint == "" {
		return nil
	}
	ctx := context.Background()

	conn, err := grpc.NewClient(s.cfg.OTLPEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("create gRPC connection: %w", err)
	}
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return fmt.Errorf("create trace exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("courtsim")))
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	s.tracerCleanup = func(ctx context.Context) {
		if err := provider.Shutdown(ctx); err != nil {
			s.logger.Warn("tracer shutdown failed", "error", err)
		}
	}
	return nil
}
