package consolidation

import (
	"time"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, shared.NewValidationError("Date must use the YYYY-MM-DD format")
	}
	return t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// =============================================================================
// Contact DTOs
// =============================================================================

// RegisterContactRequest represents an intake of a new contact
type RegisterContactRequest struct {
	Name          string     `json:"name" binding:"required,min=1,max=200"`
	Phone         string     `json:"phone" binding:"required,min=1,max=50"`
	OriginKind    string     `json:"origin_kind" binding:"required,origin_kind"`
	Address       string     `json:"address" binding:"max=500"`
	BirthDate     string     `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	OwnerID       *uuid.UUID `json:"owner_id"`
	SourceGroupID *uuid.UUID `json:"source_group_id"`
	Tags          []string   `json:"tags" binding:"omitempty,dive,min=1,max=50"`
	CreatedBy     *uuid.UUID `json:"-"`
}

// MoveStageRequest represents a drag-and-drop move on the board
type MoveStageRequest struct {
	Stage string `json:"stage" binding:"required,stage"`
}

// SetReminderRequest represents scheduling the next action
type SetReminderRequest struct {
	Text    string `json:"text" binding:"required,min=1,max=500"`
	DueDate string `json:"due_date" binding:"required,datetime=2006-01-02"`
}

// TagRequest represents a tag added to or removed from a contact
type TagRequest struct {
	Tag string `json:"tag" form:"tag" binding:"required,min=1,max=50"`
}

// AssignGroupRequest represents choosing a destination group
type AssignGroupRequest struct {
	GroupID uuid.UUID `json:"group_id" binding:"required"`
}

// ContactListFilter represents filter options for the contact list
type ContactListFilter struct {
	Search     string `form:"search"`
	Stage      string `form:"stage" binding:"omitempty,stage"`
	OriginKind string `form:"origin_kind" binding:"omitempty,origin_kind"`
	OwnerID    string `form:"owner_id" binding:"omitempty,uuid"`
	Tag        string `form:"tag"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=created_at updated_at name next_action_due_date"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// BoardFilter narrows the funnel board
type BoardFilter struct {
	OwnerID string `form:"owner_id" binding:"omitempty,uuid"`
	Tag     string `form:"tag"`
}

// ContactResponse represents a contact in API responses
type ContactResponse struct {
	ID                 uuid.UUID  `json:"id"`
	TenantID           uuid.UUID  `json:"tenant_id"`
	Name               string     `json:"name"`
	Phone              string     `json:"phone"`
	Address            string     `json:"address"`
	BirthDate          *string    `json:"birth_date"`
	OriginKind         string     `json:"origin_kind"`
	Stage              string     `json:"stage"`
	Urgency            string     `json:"urgency"`
	SourceGroupID      *uuid.UUID `json:"source_group_id"`
	DestinationGroupID *uuid.UUID `json:"destination_group_id"`
	AlreadyInGroup     bool       `json:"already_in_group"`
	OwnerID            *uuid.UUID `json:"owner_id"`
	Tags               []string   `json:"tags"`
	NextActionText     string     `json:"next_action_text"`
	NextActionDueDate  *string    `json:"next_action_due_date"`
	LastContactAt      *time.Time `json:"last_contact_at"`
	IntegratedAt       *time.Time `json:"integrated_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Version            int        `json:"version"`
}

// ToContactResponse converts a domain Contact to ContactResponse
func ToContactResponse(c *consolidation.Contact, urgency consolidation.Urgency) ContactResponse {
	resp := ContactResponse{
		ID:                 c.ID,
		TenantID:           c.TenantID,
		Name:               c.Name,
		Phone:              c.Phone,
		Address:            c.Address,
		BirthDate:          formatDate(c.BirthDate),
		OriginKind:         string(c.OriginKind),
		Stage:              string(c.Stage),
		Urgency:            string(urgency),
		SourceGroupID:      c.SourceGroupID,
		DestinationGroupID: c.DestinationGroupID,
		AlreadyInGroup:     c.AlreadyInGroup,
		Tags:               c.Tags,
		NextActionText:     c.NextActionText,
		NextActionDueDate:  formatDate(c.NextActionDueDate),
		LastContactAt:      c.LastContactAt,
		IntegratedAt:       c.IntegratedAt,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		Version:            c.Version,
	}
	if c.OwnerID != uuid.Nil {
		owner := c.OwnerID
		resp.OwnerID = &owner
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}

// =============================================================================
// Board DTOs
// =============================================================================

// BoardColumn is one stage column of the funnel board
type BoardColumn struct {
	Stage  string            `json:"stage"`
	Count  int               `json:"count"`
	Urgent int               `json:"urgent"`
	Cards  []ContactResponse `json:"cards"`
}

// BoardResponse is the funnel board grouped by stage
type BoardResponse struct {
	Columns     []BoardColumn `json:"columns"`
	Total       int           `json:"total"`
	Truncated   bool          `json:"truncated"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// =============================================================================
// Recommendation DTOs
// =============================================================================

// GroupResponse represents a small group in API responses
type GroupResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	LeaderName       string    `json:"leader_name"`
	AudienceCategory string    `json:"audience_category"`
	Address          string    `json:"address"`
	Weekday          string    `json:"weekday"`
	Time             string    `json:"time"`
	Active           bool      `json:"active"`
}

// RecommendationResponse is a scored candidate group
type RecommendationResponse struct {
	Group   GroupResponse `json:"group"`
	Score   int           `json:"score"`
	Reasons []string      `json:"reasons"`
}

// ToGroupResponse converts a domain Group to GroupResponse
func ToGroupResponse(g *consolidation.Group) GroupResponse {
	return GroupResponse{
		ID:               g.ID,
		Name:             g.Name,
		LeaderName:       g.LeaderName,
		AudienceCategory: string(g.AudienceCategory),
		Address:          g.Address,
		Weekday:          g.Weekday,
		Time:             g.Time,
		Active:           g.Active,
	}
}

// ToRecommendationResponses converts ranked recommendations
func ToRecommendationResponses(recs []consolidation.Recommendation) []RecommendationResponse {
	out := make([]RecommendationResponse, 0, len(recs))
	for i := range recs {
		reasons := recs[i].Reasons
		if reasons == nil {
			reasons = []string{}
		}
		out = append(out, RecommendationResponse{
			Group:   ToGroupResponse(&recs[i].Group),
			Score:   recs[i].Score,
			Reasons: reasons,
		})
	}
	return out
}
