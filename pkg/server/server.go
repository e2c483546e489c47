// Package server composes the HTTP surface: dependency wiring, middleware
// stack and route registration.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/enrich"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/entry"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	schemaroutes "github.com/Ramsey-B/fern/pkg/routes/schema"
	"github.com/Ramsey-B/fern/pkg/sanitize"
	"github.com/Ramsey-B/fern/pkg/schema"
	"github.com/Ramsey-B/fern/pkg/service"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Server owns the echo instance and every backing client it serves from
type Server struct {
	echo     *echo.Echo
	cfg      *config.Config
	logger   ectologger.Logger
	client   *graph.Client
	producer *kafka.Producer
	registry *schema.Registry
	checker  *health.Checker
}

// New builds the fully wired server. Nothing dials out until Start.
func New(cfg *config.Config) (*Server, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	tracing.SetTracer(otel.Tracer(cfg.AppName))

	registry, err := schema.DefaultRegistry()
	if err != nil {
		return nil, err
	}

	client, err := graph.NewClient(graph.Config{Host: cfg.DgraphHost, Port: cfg.DgraphPort}, logger)
	if err != nil {
		return nil, err
	}
	store := graph.NewStore(client, logger)

	var geocoder schema.Geocoder
	var profiles schema.ProfileResolver
	if cfg.ProfileEndpoint != "" {
		profiles = enrich.NewProfileResolver(enrich.Config{Endpoint: cfg.ProfileEndpoint, Timeout: cfg.ProfileTimeout}, logger)
	}
	if cfg.GeocoderEndpoint != "" {
		geocoder = enrich.NewGeocoder(enrich.Config{Endpoint: cfg.GeocoderEndpoint, Timeout: cfg.GeocoderTimeout}, logger)
	}

	var producer *kafka.Producer
	var emitter *events.Emitter
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: cfg.KafkaBatchTimeout,
			Compression:  cfg.KafkaCompression,
		}, logger)
		emitter = events.NewEmitter(producer, logger)
	}

	sanitizer := sanitize.New(registry, store, geocoder, profiles, logger)
	compiler := filters.NewCompiler(registry)
	svc := service.NewEntryService(sanitizer, compiler, store, client, emitter, logger)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return nil, err
	}
	if err := ectoinject.RegisterInstance[*schema.Registry](container, registry); err != nil {
		return nil, err
	}
	if err := ectoinject.RegisterInstance[*graph.Store](container, store); err != nil {
		return nil, err
	}
	if err := ectoinject.RegisterInstance[*service.EntryService](container, svc); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, err := ectoinject.SetActiveContainer(c.Request().Context(), container.GetContainerID())
			if err != nil {
				return err
			}
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	entry.Register(e.Group("/api/v1/entries"))
	schemaroutes.Register(e.Group("/api/v1/schema"))

	checker := health.NewChecker(client, cfg.Version)
	checker.RegisterRoutes(e)

	return &Server{
		echo:     e,
		cfg:      cfg,
		logger:   logger,
		client:   client,
		producer: producer,
		registry: registry,
		checker:  checker,
	}, nil
}

// Start applies the graph schema, marks the server ready and serves until
// Shutdown or a listener error.
func (s *Server) Start(ctx context.Context) error {
	if err := s.client.ApplySchema(ctx, s.registry.DDL()); err != nil {
		return fmt.Errorf("failed to apply graph schema: %w", err)
	}
	s.checker.SetReady(true)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.WithContext(ctx).WithField("addr", addr).Info("Starting server")
	return s.echo.Start(addr)
}

// Shutdown drains the listener and closes the backing clients
func (s *Server) Shutdown(ctx context.Context) error {
	s.checker.SetReady(false)

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to shut down listener")
	}
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to close event producer")
		}
	}
	return s.client.Close()
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}
