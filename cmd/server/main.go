package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kosarica/dialect-service/config"
	"github.com/kosarica/dialect-service/internal/database"
	"github.com/kosarica/dialect-service/internal/handlers"
	khttp "github.com/kosarica/dialect-service/internal/http"
	"github.com/kosarica/dialect-service/internal/middleware"
	"github.com/kosarica/dialect-service/internal/sniffer"
	"github.com/kosarica/dialect-service/internal/storage"
	"github.com/kosarica/dialect-service/internal/sweepers"
	"github.com/kosarica/dialect-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("DIALECT_SERVICE_CONFIG"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)
	log.Logger = *logger

	logger.Info().Msg("Starting dialect service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Telemetry.Environment,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	engineCfg, err := cfg.Sniffer.EngineConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid sniffer configuration")
	}

	fetcher := khttp.NewClient(cfg.RateLimit.Limits()).WithTimeout(cfg.Fetch.Timeout)

	deps := handlers.Dependencies{
		Engine:        sniffer.NewEngine(engineCfg),
		Fetcher:       fetcher,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		FetchMaxBytes: cfg.Fetch.MaxBytes,
	}

	if dbURL := config.GetDatabaseURL(); dbURL != "" {
		store, err := database.ConnectAndMigrate(ctx, dbURL, database.Options{
			MaxConnections:  cfg.Database.MaxConnections,
			MinConnections:  cfg.Database.MinConnections,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer database.Close()
		deps.Store = store
		deps.DatabaseStatus = database.Status
		logger.Info().Msg("Database connected")

		if cfg.Database.ResultTTL > 0 && cfg.Database.SweepInterval > 0 {
			sweeper := sweepers.NewResultSweeper(store, logger, cfg.Database.SweepInterval, cfg.Database.ResultTTL)
			go sweeper.Start(ctx)
		}
	} else {
		logger.Info().Msg("DATABASE_URL not set, result cache disabled")
	}

	if cfg.Storage.Archive {
		archive, err := storage.New(storage.StorageType(cfg.Storage.Type), cfg.Storage.BasePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize sample archive")
		}
		if archive != nil {
			deps.Archive = archive
			logger.Info().Str("path", cfg.Storage.BasePath).Msg("Sample archive enabled")
		}
	}

	handlers.Init(deps)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewIPRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		BurstSize:         cfg.API.Burst,
	})
	go limiter.RunCleanup(ctx, 5*time.Minute)

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.APIKeyAuth(cfg.API.Key))
	v1.Use(middleware.RateLimitMiddleware(limiter))
	handlers.RegisterRoutes(v1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(router, "dialect-service"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to flush telemetry")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "dialect-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
