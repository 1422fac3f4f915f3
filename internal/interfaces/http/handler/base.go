package handler

import (
	"errors"
	"net/http"

	"github.com/flock/backend/internal/domain/shared"
	"github.com/flock/backend/internal/infrastructure/logger"
	"github.com/flock/backend/internal/interfaces/http/dto"
	"github.com/flock/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserIDHeader optionally names the acting team member
const UserIDHeader = "X-User-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct {
	logger *zap.Logger
}

// tenantID returns the tenant resolved by middleware.Tenant. A missing
// tenant writes a 400 and returns false.
func (h *BaseHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetTenantID(c)
	if !ok {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeTenantRequired, "X-Tenant-ID header is required")
		return uuid.Nil, false
	}
	return id, true
}

// userID returns the optional acting user, ignoring malformed values
func userID(c *gin.Context) *uuid.UUID {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return nil
	}
	return &id
}

// pathUUID parses the named path parameter, writing a 400 on failure
func (h *BaseHandler) pathUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleDomainError converts domain errors to HTTP responses. Server-side
// failures are logged; the client only sees the domain message.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		h.log(c).Error("Unhandled error", zap.Error(err))
		h.InternalError(c, "An unexpected error occurred")
		return
	}

	code := dto.NormalizeErrorCode(domainErr.Code)
	status := dto.GetHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.log(c).Error("Request failed", zap.String("code", domainErr.Code), zap.Error(err))
	}
	h.Error(c, status, code, domainErr.Message)
}

func (h *BaseHandler) log(c *gin.Context) *zap.Logger {
	base := h.logger
	if base == nil {
		base = zap.NewNop()
	}
	return logger.FromContext(c.Request.Context(), base)
}
