package handler

import (
	"context"
	"time"

	consolidationapp "github.com/flock/backend/internal/application/consolidation"
	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/interfaces/http/dto"
	"github.com/flock/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PipelineService is the application surface the contact endpoints drive
type PipelineService interface {
	RegisterContact(ctx context.Context, tenantID uuid.UUID, req consolidationapp.RegisterContactRequest) (*consolidationapp.ContactResponse, error)
	GetContact(ctx context.Context, tenantID, contactID uuid.UUID) (*consolidationapp.ContactResponse, error)
	ListContacts(ctx context.Context, tenantID uuid.UUID, filter consolidationapp.ContactListFilter) ([]consolidationapp.ContactResponse, int64, error)
	Board(ctx context.Context, tenantID uuid.UUID, filter consolidationapp.BoardFilter) (*consolidationapp.BoardResponse, error)
	RecommendGroups(ctx context.Context, tenantID, contactID uuid.UUID) ([]consolidationapp.RecommendationResponse, error)
	MoveStage(ctx context.Context, tenantID, contactID uuid.UUID, stage consolidation.Stage) (*consolidationapp.ContactResponse, error)
	SetReminder(ctx context.Context, tenantID, contactID uuid.UUID, text string, dueDate time.Time) (*consolidationapp.ContactResponse, error)
	CompleteReminder(ctx context.Context, tenantID, contactID uuid.UUID) (*consolidationapp.ContactResponse, error)
	ClearReminder(ctx context.Context, tenantID, contactID uuid.UUID) (*consolidationapp.ContactResponse, error)
	AddTag(ctx context.Context, tenantID, contactID uuid.UUID, tag string) (*consolidationapp.ContactResponse, error)
	RemoveTag(ctx context.Context, tenantID, contactID uuid.UUID, tag string) (*consolidationapp.ContactResponse, error)
	AssignGroup(ctx context.Context, tenantID, contactID, groupID uuid.UUID) (*consolidationapp.ContactResponse, error)
	UnassignGroup(ctx context.Context, tenantID, contactID uuid.UUID) (*consolidationapp.ContactResponse, error)
}

// ContactHandler serves the consolidation funnel endpoints
type ContactHandler struct {
	BaseHandler
	service PipelineService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(service PipelineService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		BaseHandler: BaseHandler{logger: logger},
		service:     service,
	}
}

// Register handles POST /contacts
func (h *ContactHandler) Register(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req consolidationapp.RegisterContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	req.CreatedBy = userID(c)

	contact, err := h.service.RegisterContact(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, contact)
}

// Get handles GET /contacts/:id
func (h *ContactHandler) Get(c *gin.Context) {
	tenantID, contactID, ok := h.contactRef(c)
	if !ok {
		return
	}

	contact, err := h.service.GetContact(c.Request.Context(), tenantID, contactID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, contact)
}

// List handles GET /contacts
func (h *ContactHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var filter consolidationapp.ContactListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = dto.DefaultPage
	}
	if filter.PageSize <= 0 {
		filter.PageSize = dto.DefaultPageSize
	}

	contacts, total, err := h.service.ListContacts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, contacts, total, filter.Page, filter.PageSize)
}

// Board handles GET /board
func (h *ContactHandler) Board(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var filter consolidationapp.BoardFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	board, err := h.service.Board(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, board)
}

// Recommendations handles GET /contacts/:id/recommendations
func (h *ContactHandler) Recommendations(c *gin.Context) {
	tenantID, contactID, ok := h.contactRef(c)
	if !ok {
		return
	}

	recs, err := h.service.RecommendGroups(c.Request.Context(), tenantID, contactID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, recs)
}

// MoveStage handles PUT /contacts/:id/stage
func (h *ContactHandler) MoveStage(c *gin.Context) {
	tenantID, contactID, ok := h.contactRef(c)
	if !ok {
		return
	}

	var req consolidationapp.MoveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	h.respond(c)(h.service.MoveStage(c.Request.Context(), tenantID, contactID, consolidation.Stage(req.Stage)))
}

// SetReminder handles PUT /contacts/:id/reminder
func (h *ContactHandler) SetReminder(c *gin.Context) {
	tenantID, contactID, ok := h.contactRef(c)
	if !ok {
		return
	}

	var req consolidationapp.SetReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	due, err := consolidationapp.ParseDate(req.DueDate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.respond(c)(h.service.SetReminder(c.Request.Context(), tenantID, contactID, req.Text, due))
}

// CompleteReminder handles POST /contacts/:id/reminder/complete
func (h *ContactHandler) CompleteReminder(c *gin.Context) {
	tenantID, contactID, ok := h.contactRef(c)
	if !ok {
		return
	}
	h.respond(c)(h.service.CompleteReminder(c.Request.Context(), tenantID, contactID))
}

// ClearReminder handles DELETE /contacts/:id/reminder
func (h *ContactHandler) ClearReminder(c *gin.Context) {
	tenantID, contactID, ok := h.contactRef(c)
	if !ok {
		return
	}
	h.respond(c)(h.service.ClearReminder(c.Request.Context(), tenantID, contactID))
}

// AddTag handles POST /contacts/:id/tags
func (h *ContactHandler) AddTag(c *gin.Context) {
	tenantID, contactID, ok := h.contactRef(c)
	if !ok {
		return
	}

	var req consolidationapp.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	h.respond(c)(h.service.AddTag(c.Request.Context(), tenantID, contactID, req.Tag))
}

// RemoveTag handles DELETE /contacts/:id/tags?tag=...
// The tag travels in the query so tags containing '/' survive routing.
func (h *ContactHandler) RemoveTag(c *gin.Context) {
	tenantID, contactID, ok := h.contactRef(c)
	if !ok {
		return
	}

	var req consolidationapp.TagRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	h.respond(c)(h.service.RemoveTag(c.Request.Context(), tenantID, contactID, req.Tag))
}

// AssignGroup handles PUT /contacts/:id/group
func (h *ContactHandler) AssignGroup(c *gin.Context) {
	tenantID, contactID, ok := h.contactRef(c)
	if !ok {
		return
	}

	var req consolidationapp.AssignGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	h.respond(c)(h.service.AssignGroup(c.Request.Context(), tenantID, contactID, req.GroupID))
}

// UnassignGroup handles DELETE /contacts/:id/group
func (h *ContactHandler) UnassignGroup(c *gin.Context) {
	tenantID, contactID, ok := h.contactRef(c)
	if !ok {
		return
	}
	h.respond(c)(h.service.UnassignGroup(c.Request.Context(), tenantID, contactID))
}

func (h *ContactHandler) contactRef(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	contactID, ok := h.pathUUID(c, "id", "contact")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, contactID, true
}

// respond writes the outcome of a funnel command
func (h *ContactHandler) respond(c *gin.Context) func(*consolidationapp.ContactResponse, error) {
	return func(contact *consolidationapp.ContactResponse, err error) {
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		h.Success(c, contact)
	}
}
