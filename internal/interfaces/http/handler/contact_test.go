package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	consolidationapp "github.com/flock/backend/internal/application/consolidation"
	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/domain/shared"
	"github.com/flock/backend/internal/interfaces/http/dto"
	"github.com/flock/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockPipelineService implements PipelineService for testing
type MockPipelineService struct {
	mock.Mock
}

func contactResult(args mock.Arguments) (*consolidationapp.ContactResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*consolidationapp.ContactResponse), args.Error(1)
}

func (m *MockPipelineService) RegisterContact(ctx context.Context, tenantID uuid.UUID, req consolidationapp.RegisterContactRequest) (*consolidationapp.ContactResponse, error) {
	return contactResult(m.Called(ctx, tenantID, req))
}

func (m *MockPipelineService) GetContact(ctx context.Context, tenantID, contactID uuid.UUID) (*consolidationapp.ContactResponse, error) {
	return contactResult(m.Called(ctx, tenantID, contactID))
}

func (m *MockPipelineService) ListContacts(ctx context.Context, tenantID uuid.UUID, filter consolidationapp.ContactListFilter) ([]consolidationapp.ContactResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]consolidationapp.ContactResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockPipelineService) Board(ctx context.Context, tenantID uuid.UUID, filter consolidationapp.BoardFilter) (*consolidationapp.BoardResponse, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*consolidationapp.BoardResponse), args.Error(1)
}

func (m *MockPipelineService) RecommendGroups(ctx context.Context, tenantID, contactID uuid.UUID) ([]consolidationapp.RecommendationResponse, error) {
	args := m.Called(ctx, tenantID, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]consolidationapp.RecommendationResponse), args.Error(1)
}

func (m *MockPipelineService) MoveStage(ctx context.Context, tenantID, contactID uuid.UUID, stage consolidation.Stage) (*consolidationapp.ContactResponse, error) {
	return contactResult(m.Called(ctx, tenantID, contactID, stage))
}

func (m *MockPipelineService) SetReminder(ctx context.Context, tenantID, contactID uuid.UUID, text string, dueDate time.Time) (*consolidationapp.ContactResponse, error) {
	return contactResult(m.Called(ctx, tenantID, contactID, text, dueDate))
}

func (m *MockPipelineService) CompleteReminder(ctx context.Context, tenantID, contactID uuid.UUID) (*consolidationapp.ContactResponse, error) {
	return contactResult(m.Called(ctx, tenantID, contactID))
}

func (m *MockPipelineService) ClearReminder(ctx context.Context, tenantID, contactID uuid.UUID) (*consolidationapp.ContactResponse, error) {
	return contactResult(m.Called(ctx, tenantID, contactID))
}

func (m *MockPipelineService) AddTag(ctx context.Context, tenantID, contactID uuid.UUID, tag string) (*consolidationapp.ContactResponse, error) {
	return contactResult(m.Called(ctx, tenantID, contactID, tag))
}

func (m *MockPipelineService) RemoveTag(ctx context.Context, tenantID, contactID uuid.UUID, tag string) (*consolidationapp.ContactResponse, error) {
	return contactResult(m.Called(ctx, tenantID, contactID, tag))
}

func (m *MockPipelineService) AssignGroup(ctx context.Context, tenantID, contactID, groupID uuid.UUID) (*consolidationapp.ContactResponse, error) {
	return contactResult(m.Called(ctx, tenantID, contactID, groupID))
}

func (m *MockPipelineService) UnassignGroup(ctx context.Context, tenantID, contactID uuid.UUID) (*consolidationapp.ContactResponse, error) {
	return contactResult(m.Called(ctx, tenantID, contactID))
}

func setupContactRouter(t *testing.T, svc *MockPipelineService) *gin.Engine {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

	h := NewContactHandler(svc, zap.NewNop())
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Tenant())
	g := r.Group("/consolidation")
	g.GET("/board", h.Board)
	g.POST("/contacts", h.Register)
	g.GET("/contacts", h.List)
	g.GET("/contacts/:id", h.Get)
	g.GET("/contacts/:id/recommendations", h.Recommendations)
	g.PUT("/contacts/:id/stage", h.MoveStage)
	g.PUT("/contacts/:id/reminder", h.SetReminder)
	g.POST("/contacts/:id/reminder/complete", h.CompleteReminder)
	g.DELETE("/contacts/:id/reminder", h.ClearReminder)
	g.POST("/contacts/:id/tags", h.AddTag)
	g.DELETE("/contacts/:id/tags", h.RemoveTag)
	g.PUT("/contacts/:id/group", h.AssignGroup)
	g.DELETE("/contacts/:id/group", h.UnassignGroup)
	return r
}

func doRequest(r *gin.Engine, method, path string, tenantID uuid.UUID, body any) (*httptest.ResponseRecorder, dto.Response) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tenantID != uuid.Nil {
		req.Header.Set(middleware.TenantHeaderKey, tenantID.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func sampleContact(tenantID uuid.UUID) *consolidationapp.ContactResponse {
	return &consolidationapp.ContactResponse{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Name:       "Ana Souza",
		Phone:      "+55 11 99999-0000",
		OriginKind: string(consolidation.OriginVisitor),
		Stage:      string(consolidation.StageNew),
		Urgency:    string(consolidation.UrgencyNormal),
		Tags:       []string{},
	}
}

func TestContactHandler_Register(t *testing.T) {
	svc := new(MockPipelineService)
	r := setupContactRouter(t, svc)
	tenantID := uuid.New()
	actor := uuid.New()

	expected := sampleContact(tenantID)
	svc.On("RegisterContact", mock.Anything, tenantID, mock.MatchedBy(func(req consolidationapp.RegisterContactRequest) bool {
		return req.Name == "Ana Souza" && req.CreatedBy != nil && *req.CreatedBy == actor
	})).Return(expected, nil).Once()

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(map[string]any{
		"name":        "Ana Souza",
		"phone":       "+55 11 99999-0000",
		"origin_kind": "visitor",
		"birth_date":  "2010-03-09",
	})
	req := httptest.NewRequest(http.MethodPost, "/consolidation/contacts", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeaderKey, tenantID.String())
	req.Header.Set(UserIDHeader, actor.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), expected.ID.String())
	svc.AssertExpectations(t)
}

func TestContactHandler_Register_ValidationFailure(t *testing.T) {
	svc := new(MockPipelineService)
	r := setupContactRouter(t, svc)

	w, resp := doRequest(r, http.MethodPost, "/consolidation/contacts", uuid.New(), map[string]any{
		"name":        "Ana",
		"phone":       "123",
		"origin_kind": "tourist",
		"birth_date":  "09/03/2010",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	fields := make([]string, 0)
	for _, d := range resp.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"origin_kind", "birth_date"}, fields)
	svc.AssertNotCalled(t, "RegisterContact")
}

func TestContactHandler_Get(t *testing.T) {
	tenantID := uuid.New()

	t.Run("found", func(t *testing.T) {
		svc := new(MockPipelineService)
		r := setupContactRouter(t, svc)
		expected := sampleContact(tenantID)
		svc.On("GetContact", mock.Anything, tenantID, expected.ID).Return(expected, nil)

		w, resp := doRequest(r, http.MethodGet, "/consolidation/contacts/"+expected.ID.String(), tenantID, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockPipelineService)
		r := setupContactRouter(t, svc)
		id := uuid.New()
		svc.On("GetContact", mock.Anything, tenantID, id).Return(nil, shared.NewNotFoundError("Contact"))

		w, resp := doRequest(r, http.MethodGet, "/consolidation/contacts/"+id.String(), tenantID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
		assert.Equal(t, "Contact not found", resp.Error.Message)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("malformed id", func(t *testing.T) {
		svc := new(MockPipelineService)
		r := setupContactRouter(t, svc)

		w, resp := doRequest(r, http.MethodGet, "/consolidation/contacts/not-a-uuid", tenantID, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
		svc.AssertNotCalled(t, "GetContact")
	})

	t.Run("missing tenant", func(t *testing.T) {
		svc := new(MockPipelineService)
		r := setupContactRouter(t, svc)

		w, resp := doRequest(r, http.MethodGet, "/consolidation/contacts/"+uuid.NewString(), uuid.Nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeTenantRequired, resp.Error.Code)
	})
}

func TestContactHandler_List(t *testing.T) {
	svc := new(MockPipelineService)
	r := setupContactRouter(t, svc)
	tenantID := uuid.New()

	svc.On("ListContacts", mock.Anything, tenantID, consolidationapp.ContactListFilter{
		Stage:    "in_contact",
		Tag:      "youth",
		Page:     2,
		PageSize: 10,
	}).Return([]consolidationapp.ContactResponse{*sampleContact(tenantID)}, int64(11), nil)

	w, resp := doRequest(r, http.MethodGet, "/consolidation/contacts?stage=in_contact&tag=youth&page=2&page_size=10", tenantID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, dto.Meta{Total: 11, Page: 2, PageSize: 10, TotalPages: 2}, *resp.Meta)

	w, _ = doRequest(r, http.MethodGet, "/consolidation/contacts?stage=archived", tenantID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactHandler_List_DefaultPaging(t *testing.T) {
	svc := new(MockPipelineService)
	r := setupContactRouter(t, svc)
	tenantID := uuid.New()

	svc.On("ListContacts", mock.Anything, tenantID, consolidationapp.ContactListFilter{
		Page:     dto.DefaultPage,
		PageSize: dto.DefaultPageSize,
	}).Return([]consolidationapp.ContactResponse{}, int64(0), nil)

	w, resp := doRequest(r, http.MethodGet, "/consolidation/contacts", tenantID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, resp.Meta.TotalPages)
}

func TestContactHandler_Board(t *testing.T) {
	svc := new(MockPipelineService)
	r := setupContactRouter(t, svc)
	tenantID := uuid.New()
	owner := uuid.New()

	svc.On("Board", mock.Anything, tenantID, consolidationapp.BoardFilter{OwnerID: owner.String()}).
		Return(&consolidationapp.BoardResponse{Columns: []consolidationapp.BoardColumn{}}, nil)

	w, _ := doRequest(r, http.MethodGet, "/consolidation/board?owner_id="+owner.String(), tenantID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(r, http.MethodGet, "/consolidation/board?owner_id=me", tenantID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactHandler_MoveStage(t *testing.T) {
	tenantID := uuid.New()
	contactID := uuid.New()

	t.Run("moves", func(t *testing.T) {
		svc := new(MockPipelineService)
		r := setupContactRouter(t, svc)
		svc.On("MoveStage", mock.Anything, tenantID, contactID, consolidation.StageIntegrated).
			Return(sampleContact(tenantID), nil)

		w, _ := doRequest(r, http.MethodPut, "/consolidation/contacts/"+contactID.String()+"/stage", tenantID, map[string]string{"stage": "integrated"})
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unknown stage rejected before the service", func(t *testing.T) {
		svc := new(MockPipelineService)
		r := setupContactRouter(t, svc)

		w, resp := doRequest(r, http.MethodPut, "/consolidation/contacts/"+contactID.String()+"/stage", tenantID, map[string]string{"stage": "lost"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		svc.AssertNotCalled(t, "MoveStage")
	})

	t.Run("persistence failure is 503", func(t *testing.T) {
		svc := new(MockPipelineService)
		r := setupContactRouter(t, svc)
		svc.On("MoveStage", mock.Anything, tenantID, contactID, consolidation.StageInContact).
			Return(nil, shared.NewPersistenceError(errors.New("connection refused")))

		w, resp := doRequest(r, http.MethodPut, "/consolidation/contacts/"+contactID.String()+"/stage", tenantID, map[string]string{"stage": "in_contact"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodePersistence, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "connection refused")
	})
}

func TestContactHandler_Reminder(t *testing.T) {
	tenantID := uuid.New()
	contactID := uuid.New()
	base := "/consolidation/contacts/" + contactID.String() + "/reminder"

	svc := new(MockPipelineService)
	r := setupContactRouter(t, svc)
	due := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	svc.On("SetReminder", mock.Anything, tenantID, contactID, "Call about Friday group", due).Return(sampleContact(tenantID), nil)
	svc.On("CompleteReminder", mock.Anything, tenantID, contactID).Return(sampleContact(tenantID), nil)
	svc.On("ClearReminder", mock.Anything, tenantID, contactID).Return(sampleContact(tenantID), nil)

	w, _ := doRequest(r, http.MethodPut, base, tenantID, map[string]string{"text": "Call about Friday group", "due_date": "2026-03-20"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(r, http.MethodPut, base, tenantID, map[string]string{"text": "Call", "due_date": "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(r, http.MethodPut, base, tenantID, map[string]string{"due_date": "2026-03-20"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(r, http.MethodPost, base+"/complete", tenantID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(r, http.MethodDelete, base, tenantID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}

func TestContactHandler_Tags(t *testing.T) {
	tenantID := uuid.New()
	contactID := uuid.New()
	base := "/consolidation/contacts/" + contactID.String() + "/tags"

	svc := new(MockPipelineService)
	r := setupContactRouter(t, svc)
	svc.On("AddTag", mock.Anything, tenantID, contactID, "needs ride").Return(sampleContact(tenantID), nil)
	svc.On("RemoveTag", mock.Anything, tenantID, contactID, "a/b").Return(sampleContact(tenantID), nil)

	w, _ := doRequest(r, http.MethodPost, base, tenantID, map[string]string{"tag": "needs ride"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(r, http.MethodPost, base, tenantID, map[string]string{"tag": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(r, http.MethodDelete, base+"?tag=a%2Fb", tenantID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(r, http.MethodDelete, base, tenantID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestContactHandler_TagOnMissingContact(t *testing.T) {
	tenantID := uuid.New()
	contactID := uuid.New()
	svc := new(MockPipelineService)
	r := setupContactRouter(t, svc)

	tagErr := shared.WrapDomainError(shared.CodeValidationFailed, "Contact does not exist", shared.NewNotFoundError("Contact"))
	svc.On("AddTag", mock.Anything, tenantID, contactID, "youth").Return(nil, tagErr)

	w, resp := doRequest(r, http.MethodPost, "/consolidation/contacts/"+contactID.String()+"/tags", tenantID, map[string]string{"tag": "youth"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func TestContactHandler_Group(t *testing.T) {
	tenantID := uuid.New()
	contactID := uuid.New()
	groupID := uuid.New()
	base := "/consolidation/contacts/" + contactID.String() + "/group"

	svc := new(MockPipelineService)
	r := setupContactRouter(t, svc)
	svc.On("AssignGroup", mock.Anything, tenantID, contactID, groupID).Return(sampleContact(tenantID), nil)
	svc.On("UnassignGroup", mock.Anything, tenantID, contactID).Return(sampleContact(tenantID), nil)
	svc.On("RecommendGroups", mock.Anything, tenantID, contactID).Return([]consolidationapp.RecommendationResponse{
		{Group: consolidationapp.GroupResponse{ID: groupID, Name: "Harbor Youth"}, Score: 5, Reasons: []string{"age match"}},
	}, nil)

	w, _ := doRequest(r, http.MethodPut, base, tenantID, map[string]string{"group_id": groupID.String()})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(r, http.MethodPut, base, tenantID, map[string]string{"group_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(r, http.MethodDelete, base, tenantID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(r, http.MethodGet, "/consolidation/contacts/"+contactID.String()+"/recommendations", tenantID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Harbor Youth")

	svc.AssertExpectations(t)
}

func TestContactHandler_UnexpectedError(t *testing.T) {
	tenantID := uuid.New()
	contactID := uuid.New()
	svc := new(MockPipelineService)
	r := setupContactRouter(t, svc)
	svc.On("UnassignGroup", mock.Anything, tenantID, contactID).Return(nil, errors.New("boom"))

	w, resp := doRequest(r, http.MethodDelete, "/consolidation/contacts/"+contactID.String()+"/group", tenantID, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}
