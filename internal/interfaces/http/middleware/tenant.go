package middleware

import (
	"net/http"
	"slices"

	"github.com/flock/backend/internal/infrastructure/logger"
	"github.com/flock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Tenant context keys
const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// Tenant requires a UUID X-Tenant-ID header on every request outside skipPaths.
// The parsed ID is stored under TenantIDKey and in the request logger fields.
func Tenant(skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if slices.Contains(skipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		raw := c.GetHeader(TenantHeaderKey)
		if raw == "" {
			abortTenant(c, dto.ErrCodeTenantRequired, "X-Tenant-ID header is required")
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			abortTenant(c, dto.ErrCodeInvalidInput, "X-Tenant-ID must be a UUID")
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))
		c.Next()
	}
}

// GetTenantID returns the tenant stored by Tenant
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(TenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func abortTenant(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
