package middleware

import (
	"net/http"

	"github.com/flock/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// TracerProvider overrides the global provider; nil uses otel.GetTracerProvider
	TracerProvider trace.TracerProvider
}

// Tracing wraps otelgin. Span names follow "HTTP METHOD route".
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	var opts []otelgin.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanEnricher tags the active request span with the request and tenant IDs
// and marks it failed on 4xx/5xx. Place it after Tracing, RequestID and Tenant.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		if id := logger.RequestID(ctx); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if id := logger.TenantID(ctx); id != "" {
			span.SetAttributes(attribute.String("tenant_id", id))
		}

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
