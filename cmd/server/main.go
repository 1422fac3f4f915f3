package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	consolidationapp "github.com/flock/backend/internal/application/consolidation"
	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/infrastructure/cache"
	"github.com/flock/backend/internal/infrastructure/config"
	"github.com/flock/backend/internal/infrastructure/event"
	"github.com/flock/backend/internal/infrastructure/logger"
	"github.com/flock/backend/internal/infrastructure/persistence"
	"github.com/flock/backend/internal/infrastructure/telemetry"
	"github.com/flock/backend/internal/interfaces/http/handler"
	"github.com/flock/backend/internal/interfaces/http/middleware"
	"github.com/flock/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	eventQueueSize     = 256
	slowQueryThreshold = 200 * time.Millisecond
	shutdownTimeout    = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	telCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = loggerProvider.Bridge(log)

	log.Info("Starting Flock consolidation backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database_driver", cfg.Database.Driver),
	)

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), slowQueryThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBSystem:   dbSystem,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// SQL migrations only target postgres; sqlite builds its schema from the models
	if cfg.Database.Driver == config.DriverSQLite || cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
		log.Info("Schema auto-migrated")
	}

	contactRepo := persistence.NewGormContactRepository(db.DB)
	var groupRepo consolidation.GroupRepository = persistence.NewGormGroupRepository(db.DB)
	if cfg.Consolidation.GroupCacheEnabled {
		groupCache, closeCache := cache.NewGroupCache(ctx, cfg.Redis, log)
		defer func() {
			if err := closeCache(); err != nil {
				log.Error("Error closing group cache", zap.Error(err))
			}
		}()
		groupRepo = persistence.NewCachingGroupRepository(groupRepo, groupCache, cfg.Consolidation.GroupCacheTTL, log)
	}

	eventBus := event.NewInMemoryEventBus(log, event.WithAsync(eventQueueSize))
	eventBus.Subscribe(consolidationapp.NewContactActivityHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	pipelineCfg := consolidationapp.DefaultPipelineConfig()
	pipelineCfg.UrgencyPolicy = consolidation.UrgencyPolicy{
		StaleWarningDays:  cfg.Consolidation.StaleWarningDays,
		StaleCriticalDays: cfg.Consolidation.StaleCriticalDays,
	}
	pipelineCfg.RecommendationLimit = cfg.Consolidation.RecommendationLimit
	pipelineCfg.BoardLimit = cfg.Consolidation.BoardLimit

	pipelineService := consolidationapp.NewPipelineService(contactRepo, groupRepo, pipelineCfg, log)
	pipelineService.SetEventPublisher(eventBus)

	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)
	pipelineMetrics, err := telemetry.NewPipelineMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create pipeline metrics", zap.Error(err))
	}
	pipelineService.SetMetrics(pipelineMetrics)

	engineCfg := router.EngineConfig{
		HTTP: cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Logger:   log,
		Contacts: handler.NewContactHandler(pipelineService, log),
		System:   handler.NewSystemHandler(db, log),
	}
	if meterProvider.IsEnabled() {
		engineCfg.Meter = meter
	}
	engine, err := router.NewEngine(engineCfg)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logger": loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Error("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
