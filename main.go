package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/compliance"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/ingestion"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/processor"
	assetroutes "github.com/Ramsey-B/fern/pkg/routes/asset"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	importroutes "github.com/Ramsey-B/fern/pkg/routes/imports"
	manufacturerroutes "github.com/Ramsey-B/fern/pkg/routes/manufacturer"
	productroutes "github.com/Ramsey-B/fern/pkg/routes/product"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
			ServiceName: cfg.AppName,
			Environment: cfg.Environment,
			OTLP: exporters.OTLPConfig{
				Endpoint: cfg.OTLPEndpoint,
				Protocol: cfg.OTLPProtocol,
				Insecure: cfg.OTLPInsecure,
				Headers:  cfg.OTLPHeaders,
			},
		})
		if err != nil {
			logger.WithError(err).Error("failed to init tracing provider")
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	sqlxDB, err := connectDatabase(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer sqlxDB.Close()

	db := database.NewDatabaseInstance(sqlxDB, logger)
	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	if err := runMigrations(cfg, logger, sqlxDB); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	entityStore := store.NewPostgres(db, logger)

	var graphClient *graph.Client
	var linkService *graph.LinkService
	if cfg.GraphEnabled {
		graphClient, err = graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			logger.WithError(err).Error("failed to create graph client")
			os.Exit(1)
		}
		defer graphClient.Close(context.Background())
		linkService = graph.NewLinkService(graphClient, logger)
	}

	var producer *kafka.Producer
	var emitter *events.Emitter
	if cfg.KafkaProducerEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaEventsTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, logger)
	}

	var importEmitter ingestion.ImportEmitter
	var linkEmitter compliance.LinkEmitter
	if emitter != nil {
		importEmitter = emitter
		linkEmitter = emitter
	}
	var projector compliance.LinkProjector
	if linkService != nil {
		projector = linkService
	}

	ingestionService := ingestion.NewService(entityStore, logger, importEmitter)
	engine := compliance.NewEngine(entityStore, logger, projector, linkEmitter)

	if err := registerDependencies(logger, entityStore, engine, ingestionService, linkService); err != nil {
		logger.WithError(err).Error("failed to register dependencies")
		os.Exit(1)
	}

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		proc := processor.NewProcessor(logger, ingestionService)
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaImportTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, proc.ProcessMessage)
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Error("failed to start kafka consumer")
			os.Exit(1)
		}
	}

	var graphPinger health.GraphPinger
	if graphClient != nil {
		graphPinger = graphClient
	}
	checker := health.NewChecker(sqlxDB, graphPinger, version)
	e := newServer(cfg, logger, checker)
	checker.SetReady(true)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http server stopped")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithError(err).Error("failed to stop kafka consumer")
		}
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down http server")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func connectDatabase(cfg config.Config, logger ectologger.Logger) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseUserName,
		cfg.DatabasePassword,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)

	db, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]any{
		"host": cfg.DatabaseHost,
		"name": cfg.DatabaseName,
	}).Info("connected to database")
	return db, nil
}

func runMigrations(cfg config.Config, logger ectologger.Logger, db *sqlx.DB) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	ms := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	return ms.Migrate(cfg.DatabaseName, driver)
}

func registerDependencies(
	logger ectologger.Logger,
	entityStore store.Store,
	engine *compliance.Engine,
	ingestionService *ingestion.Service,
	linkService *graph.LinkService,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[store.Store](container, entityStore); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*compliance.Engine](container, engine); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*ingestion.Service](container, ingestionService); err != nil {
		return err
	}
	if linkService != nil {
		if err := ectoinject.RegisterInstance[*graph.LinkService](container, linkService); err != nil {
			return err
		}
	}
	return nil
}

func newServer(cfg config.Config, logger ectologger.Logger, checker *health.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(echomiddleware.Recover())

	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	assetroutes.Register(api.Group("/assets"))
	manufacturerroutes.Register(api.Group("/manufacturers"))
	productroutes.Register(api.Group("/products"))
	importroutes.Register(api.Group("/imports"))

	return e
}
