// Package server assembles the HTTP API, the Kafka consumer, and their
// shared dependencies.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/clover/config"
	duplicateflagrepo "github.com/Ramsey-B/clover/internal/repositories/duplicateflag"
	importbatchrepo "github.com/Ramsey-B/clover/internal/repositories/importbatch"
	transactionrepo "github.com/Ramsey-B/clover/internal/repositories/transaction"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/detection"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/ingest"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/routes/detect"
	"github.com/Ramsey-B/clover/pkg/routes/duplicateflag"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/routes/imports"
	"github.com/Ramsey-B/clover/pkg/routes/transaction"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Server owns the service's long-lived dependencies
type Server struct {
	cfg    config.Config
	logger ectologger.Logger

	echo     *echo.Echo
	db       database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	checker  *health.Checker

	shutdownTracing func(context.Context) error
}

// New builds the service: tracing, database (with migrations), redis,
// kafka, detection, the ingest pipeline, and the HTTP routes.
func New(ctx context.Context, cfg config.Config, logger ectologger.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.TracingConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	s.shutdownTracing = shutdownTracing

	db, err := database.Connect(ctx, cfg.DatabaseConfig(), logger)
	if err != nil {
		return nil, err
	}
	s.db = db

	if err := s.migrate(); err != nil {
		return nil, err
	}

	redisClient, err := redis.NewClient(cfg.RedisConfig(), logger)
	if err != nil {
		return nil, err
	}
	s.redis = redisClient

	s.producer = kafka.NewProducer(cfg.ProducerConfig(), logger)
	emitter := events.NewEmitter(s.producer, logger)

	txRepo := transactionrepo.NewRepository(db, logger)
	flagRepo := duplicateflagrepo.NewRepository(db, logger)
	batchRepo := importbatchrepo.NewRepository(db, logger)

	detector := detection.NewDetectorFromConfig(logger, cfg.DetectionConfig(), cfg.UseCompositeMatching)
	locker := ingest.NewRedisLocker(redis.NewLocker(redisClient, "clover"))
	pipeline := ingest.NewPipeline(logger, detector, db, txRepo, flagRepo, batchRepo, emitter, locker, cfg.IngestOptions())

	if cfg.KafkaConsumerEnabled {
		s.consumer = kafka.NewConsumer(cfg.ConsumerConfig(), logger, ingest.NewBatchHandler(logger, pipeline))
	}

	if err := registerDependencies(logger, txRepo, flagRepo, batchRepo, pipeline, emitter); err != nil {
		return nil, fmt.Errorf("failed to register dependencies: %w", err)
	}

	s.checker = health.NewChecker(db, redisClient, cfg.AppVersion)
	s.echo = s.buildEcho()

	return s, nil
}

func (s *Server) migrate() error {
	driver, err := migratepg.WithInstance(s.db.Unsafe().DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationCfg := s.cfg.MigrationConfig()
	return database.NewMigrationService(s.logger, &migrationCfg).Migrate(s.cfg.DatabaseName, driver)
}

func registerDependencies(
	logger ectologger.Logger,
	txRepo *transactionrepo.Repository,
	flagRepo *duplicateflagrepo.Repository,
	batchRepo *importbatchrepo.Repository,
	pipeline *ingest.Pipeline,
	emitter *events.Emitter,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*transactionrepo.Repository](container, txRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*duplicateflagrepo.Repository](container, flagRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*importbatchrepo.Repository](container, batchRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*ingest.Pipeline](container, pipeline); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*events.Emitter](container, emitter)
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(s.cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(s.cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(s.cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = s.cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(s.logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: s.cfg.AllowOrigins,
		AllowMethods: s.cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(s.cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(s.logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	transaction.Register(api.Group("/transactions"))
	duplicateflag.Register(api.Group("/duplicate-flags"))
	imports.Register(api.Group("/imports"))
	detect.Register(api.Group("/detect"))

	return e
}

// Start runs the consumer and the HTTP listener. It blocks until the HTTP
// server stops.
func (s *Server) Start(ctx context.Context) error {
	if s.consumer != nil {
		go func() {
			if err := s.consumer.Start(ctx); err != nil {
				s.logger.WithError(err).Error("Kafka consumer stopped")
			}
		}()
	}

	s.checker.SetReady(true)
	s.logger.WithField("port", s.cfg.Port).Info("Starting HTTP server")

	err := s.echo.Start(fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops traffic, the consumer, and all connections
func (s *Server) Shutdown(ctx context.Context) error {
	s.checker.SetReady(false)

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(s.echo.Shutdown(ctx))

	if s.consumer != nil {
		record(s.consumer.Stop())
	}
	if s.producer != nil {
		record(s.producer.Close())
	}
	if s.redis != nil {
		record(s.redis.Close())
	}
	if s.db != nil {
		record(s.db.Close())
	}
	if s.shutdownTracing != nil {
		record(s.shutdownTracing(ctx))
	}

	return firstErr
}
