package router

import (
	"fmt"

	"github.com/flock/backend/internal/infrastructure/config"
	"github.com/flock/backend/internal/infrastructure/logger"
	"github.com/flock/backend/internal/interfaces/http/handler"
	"github.com/flock/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig collects what NewEngine wires together
type EngineConfig struct {
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	// Meter enables HTTP request metrics when non-nil
	Meter    metric.Meter
	Logger   *zap.Logger
	Contacts *handler.ContactHandler
	System   *handler.SystemHandler
}

// NewEngine builds the gin engine with the full middleware chain:
// tracing, request ID, recovery, access log, security headers, CORS,
// body limit and metrics; then /health, /api/v1/system/* and the
// tenant-scoped /api/v1/consolidation/* routes.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, fmt.Errorf("setup validator: %w", err)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return nil, fmt.Errorf("set trusted proxies: %w", err)
		}
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.Tracing(cfg.Tracing),
		middleware.RequestID(),
		logger.Recovery(cfg.Logger),
		logger.AccessLog(cfg.Logger),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if cfg.Meter != nil {
		metrics, err := middleware.HTTPMetrics(cfg.Meter)
		if err != nil {
			return nil, fmt.Errorf("setup http metrics: %w", err)
		}
		engine.Use(metrics)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if cfg.System != nil {
		engine.GET("/health", cfg.System.Health)
		r.Register(SystemRoutes(cfg.System))
	}
	if cfg.Contacts != nil {
		r.Register(ConsolidationRoutes(cfg.Contacts).Use(middleware.Tenant(), middleware.SpanEnricher()))
	}
	r.Setup()

	return engine, nil
}
