package consolidation

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/domain/shared"
	"github.com/flock/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Operation names used in logs and metrics
const (
	OpRegister         = "register"
	OpMoveStage        = "move_stage"
	OpSetReminder      = "set_reminder"
	OpCompleteReminder = "complete_reminder"
	OpClearReminder    = "clear_reminder"
	OpAddTag           = "add_tag"
	OpRemoveTag        = "remove_tag"
	OpAssignGroup      = "assign_group"
	OpUnassignGroup    = "unassign_group"
)

// DefaultBoardLimit caps the number of cards loaded for the board
const DefaultBoardLimit = 500

// PipelineConfig tunes classification and ranking
type PipelineConfig struct {
	UrgencyPolicy       consolidation.UrgencyPolicy
	RecommendationLimit int
	BoardLimit          int
}

// DefaultPipelineConfig returns the standard thresholds and limits
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		UrgencyPolicy:       consolidation.DefaultUrgencyPolicy(),
		RecommendationLimit: consolidation.DefaultRecommendationLimit,
		BoardLimit:          DefaultBoardLimit,
	}
}

// PipelineService drives contacts through the consolidation funnel.
//
// Every mutating call loads the contact, applies one pure funnel
// operation to a copy, saves the copy and only then publishes its
// events. A failed save discards the copy.
type PipelineService struct {
	contactRepo    consolidation.ContactRepository
	groupRepo      consolidation.GroupRepository
	eventPublisher shared.EventPublisher
	metrics        PipelineRecorder
	clock          shared.Clock
	config         PipelineConfig
	logger         *zap.Logger
}

// NewPipelineService creates a new PipelineService
func NewPipelineService(
	contactRepo consolidation.ContactRepository,
	groupRepo consolidation.GroupRepository,
	config PipelineConfig,
	logger *zap.Logger,
) *PipelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.RecommendationLimit < 1 {
		config.RecommendationLimit = consolidation.DefaultRecommendationLimit
	}
	if config.BoardLimit < 1 {
		config.BoardLimit = DefaultBoardLimit
	}
	if config.UrgencyPolicy.Validate() != nil {
		config.UrgencyPolicy = consolidation.DefaultUrgencyPolicy()
	}
	return &PipelineService{
		contactRepo: contactRepo,
		groupRepo:   groupRepo,
		metrics:     nopRecorder{},
		clock:       shared.SystemClock{},
		config:      config,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher that receives committed domain events
func (s *PipelineService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the recorder for pipeline counters
func (s *PipelineService) SetMetrics(recorder PipelineRecorder) {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	s.metrics = recorder
}

// SetClock replaces the time source
func (s *PipelineService) SetClock(clock shared.Clock) {
	s.clock = clock
}

// =============================================================================
// Intake and queries
// =============================================================================

// RegisterContact creates a contact in the new stage
func (s *PipelineService) RegisterContact(ctx context.Context, tenantID uuid.UUID, req RegisterContactRequest) (*ContactResponse, error) {
	now := s.clock.Now()

	contact, err := consolidation.NewContact(tenantID, req.Name, req.Phone, consolidation.OriginKind(req.OriginKind), now)
	if err != nil {
		return nil, err
	}

	var birthDate *time.Time
	if req.BirthDate != "" {
		d, err := ParseDate(req.BirthDate)
		if err != nil {
			return nil, err
		}
		birthDate = &d
	}
	if err := contact.SetProfile(req.Address, birthDate); err != nil {
		return nil, err
	}
	if req.OwnerID != nil {
		contact.SetOwner(*req.OwnerID)
	}
	contact.SetSourceGroup(req.SourceGroupID)
	if req.CreatedBy != nil {
		contact.SetCreatedBy(*req.CreatedBy)
	}
	for _, tag := range req.Tags {
		if tag == "" || contact.HasTag(tag) {
			continue
		}
		contact.Tags = append(contact.Tags, tag)
	}

	if err := s.save(ctx, contact, OpRegister); err != nil {
		return nil, err
	}
	s.publish(ctx, contact)

	resp := ToContactResponse(contact, s.config.UrgencyPolicy.Classify(contact, now))
	return &resp, nil
}

// GetContact retrieves a contact with its current urgency
func (s *PipelineService) GetContact(ctx context.Context, tenantID, contactID uuid.UUID) (*ContactResponse, error) {
	contact, err := s.load(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}
	resp := ToContactResponse(contact, s.config.UrgencyPolicy.Classify(contact, s.clock.Now()))
	return &resp, nil
}

// ListContacts lists contacts with paging
func (s *PipelineService) ListContacts(ctx context.Context, tenantID uuid.UUID, filter ContactListFilter) ([]ContactResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := consolidation.ContactFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		Stage:      consolidation.Stage(filter.Stage),
		OriginKind: consolidation.OriginKind(filter.OriginKind),
		Tag:        filter.Tag,
	}
	if filter.OwnerID != "" {
		ownerID, err := uuid.Parse(filter.OwnerID)
		if err != nil {
			return nil, 0, shared.NewValidationError("Owner ID must be a UUID")
		}
		domainFilter.OwnerID = &ownerID
	}

	contacts, err := s.contactRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, readError(err)
	}
	total, err := s.contactRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, readError(err)
	}

	now := s.clock.Now()
	responses := make([]ContactResponse, len(contacts))
	for i := range contacts {
		responses[i] = ToContactResponse(&contacts[i], s.config.UrgencyPolicy.Classify(&contacts[i], now))
	}
	return responses, total, nil
}

// Board returns contacts grouped into stage columns, most urgent card first
func (s *PipelineService) Board(ctx context.Context, tenantID uuid.UUID, filter BoardFilter) (*BoardResponse, error) {
	domainFilter := consolidation.ContactFilter{
		Filter: shared.Filter{
			Page:     1,
			PageSize: s.config.BoardLimit + 1,
			OrderBy:  "created_at",
			OrderDir: "asc",
		},
		Tag: filter.Tag,
	}
	if filter.OwnerID != "" {
		ownerID, err := uuid.Parse(filter.OwnerID)
		if err != nil {
			return nil, shared.NewValidationError("Owner ID must be a UUID")
		}
		domainFilter.OwnerID = &ownerID
	}

	contacts, err := s.contactRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, readError(err)
	}
	truncated := len(contacts) > s.config.BoardLimit
	if truncated {
		contacts = contacts[:s.config.BoardLimit]
	}

	now := s.clock.Now()
	columns := make(map[consolidation.Stage]*BoardColumn, len(consolidation.Stages))
	board := &BoardResponse{
		Columns:     make([]BoardColumn, 0, len(consolidation.Stages)),
		Total:       len(contacts),
		Truncated:   truncated,
		GeneratedAt: now,
	}
	for _, stage := range consolidation.Stages {
		columns[stage] = &BoardColumn{Stage: string(stage), Cards: []ContactResponse{}}
	}

	for i := range contacts {
		col, ok := columns[contacts[i].Stage]
		if !ok {
			continue
		}
		urgency := s.config.UrgencyPolicy.Classify(&contacts[i], now)
		col.Cards = append(col.Cards, ToContactResponse(&contacts[i], urgency))
		col.Count++
		if isUrgent(urgency) {
			col.Urgent++
		}
	}

	for _, stage := range consolidation.Stages {
		col := columns[stage]
		sort.SliceStable(col.Cards, func(i, j int) bool {
			return urgencyRank(consolidation.Urgency(col.Cards[i].Urgency)) < urgencyRank(consolidation.Urgency(col.Cards[j].Urgency))
		})
		board.Columns = append(board.Columns, *col)
	}
	return board, nil
}

// RecommendGroups ranks active groups as destinations for a contact
func (s *PipelineService) RecommendGroups(ctx context.Context, tenantID, contactID uuid.UUID) ([]RecommendationResponse, error) {
	contact, err := s.load(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}

	groups, err := s.groupRepo.FindAllForTenant(ctx, tenantID, consolidation.GroupFilter{ActiveOnly: true})
	if err != nil {
		return nil, readError(err)
	}

	recs := consolidation.Recommend(contact, groups, s.clock.Now(), s.config.RecommendationLimit)
	return ToRecommendationResponses(recs), nil
}

// =============================================================================
// Funnel commands
// =============================================================================

// MoveStage moves a contact to another stage
func (s *PipelineService) MoveStage(ctx context.Context, tenantID, contactID uuid.UUID, stage consolidation.Stage) (*ContactResponse, error) {
	if !stage.IsValid() {
		return nil, shared.NewValidationError("Stage must be one of new, in_contact, integrated")
	}

	var from consolidation.Stage
	resp, err := s.mutate(ctx, tenantID, contactID, OpMoveStage, func(c *consolidation.Contact, now time.Time) (*consolidation.Contact, error) {
		from = c.Stage
		return consolidation.Transition(c, stage, now)
	})
	if err != nil {
		return nil, err
	}

	if from != stage {
		s.metrics.RecordStageChange(ctx, tenantID, string(from), string(stage))
		if consolidation.IsBackward(from, stage) {
			s.logger.Warn("contact moved backward in funnel",
				zap.String("contact_id", contactID.String()),
				zap.String("from", string(from)),
				zap.String("to", string(stage)),
			)
		}
	}
	return resp, nil
}

// SetReminder schedules the next action for a contact
func (s *PipelineService) SetReminder(ctx context.Context, tenantID, contactID uuid.UUID, text string, dueDate time.Time) (*ContactResponse, error) {
	return s.mutate(ctx, tenantID, contactID, OpSetReminder, func(c *consolidation.Contact, now time.Time) (*consolidation.Contact, error) {
		return consolidation.SetAction(c, text, dueDate, now)
	})
}

// CompleteReminder marks the follow-up as done and records the contact
func (s *PipelineService) CompleteReminder(ctx context.Context, tenantID, contactID uuid.UUID) (*ContactResponse, error) {
	resp, err := s.mutate(ctx, tenantID, contactID, OpCompleteReminder, func(c *consolidation.Contact, now time.Time) (*consolidation.Contact, error) {
		return consolidation.CompleteAction(c, now), nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordReminderCompleted(ctx, tenantID)
	return resp, nil
}

// ClearReminder dismisses the open reminder
func (s *PipelineService) ClearReminder(ctx context.Context, tenantID, contactID uuid.UUID) (*ContactResponse, error) {
	return s.mutate(ctx, tenantID, contactID, OpClearReminder, func(c *consolidation.Contact, now time.Time) (*consolidation.Contact, error) {
		return consolidation.ClearAction(c, now), nil
	})
}

// AddTag adds a label to a contact
func (s *PipelineService) AddTag(ctx context.Context, tenantID, contactID uuid.UUID, tag string) (*ContactResponse, error) {
	if tag == "" {
		return nil, shared.NewValidationError("Tag cannot be empty")
	}
	resp, err := s.mutate(ctx, tenantID, contactID, OpAddTag, func(c *consolidation.Contact, now time.Time) (*consolidation.Contact, error) {
		return consolidation.AddTag(c, tag, now)
	})
	return resp, tagError(err)
}

// RemoveTag removes a label from a contact
func (s *PipelineService) RemoveTag(ctx context.Context, tenantID, contactID uuid.UUID, tag string) (*ContactResponse, error) {
	if tag == "" {
		return nil, shared.NewValidationError("Tag cannot be empty")
	}
	resp, err := s.mutate(ctx, tenantID, contactID, OpRemoveTag, func(c *consolidation.Contact, now time.Time) (*consolidation.Contact, error) {
		return consolidation.RemoveTag(c, tag, now)
	})
	return resp, tagError(err)
}

// AssignGroup sets the destination group of a contact
func (s *PipelineService) AssignGroup(ctx context.Context, tenantID, contactID, groupID uuid.UUID) (*ContactResponse, error) {
	if groupID == uuid.Nil {
		return nil, shared.NewValidationError("Group ID cannot be empty")
	}

	contact, err := s.load(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.FindAllForTenant(ctx, tenantID, consolidation.GroupFilter{IDs: []uuid.UUID{groupID}})
	if err != nil {
		return nil, readError(err)
	}
	if len(groups) == 0 {
		return nil, shared.NewNotFoundError("Group")
	}

	now := s.clock.Now()
	next, err := consolidation.AssignGroup(contact, groupID, now)
	if err != nil {
		return nil, err
	}
	changed := hasEvent(next, consolidation.EventTypeContactGroupAssigned)
	resp, err := s.commit(ctx, next, OpAssignGroup, now)
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.RecordGroupAssignment(ctx, tenantID, true)
	}
	return resp, nil
}

// UnassignGroup clears the destination group of a contact
func (s *PipelineService) UnassignGroup(ctx context.Context, tenantID, contactID uuid.UUID) (*ContactResponse, error) {
	var changed bool
	resp, err := s.mutate(ctx, tenantID, contactID, OpUnassignGroup, func(c *consolidation.Contact, now time.Time) (*consolidation.Contact, error) {
		next := consolidation.UnassignGroup(c, now)
		changed = hasEvent(next, consolidation.EventTypeContactGroupUnassigned)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.RecordGroupAssignment(ctx, tenantID, false)
	}
	return resp, nil
}

// =============================================================================
// Read-modify-write helpers
// =============================================================================

type transform func(c *consolidation.Contact, now time.Time) (*consolidation.Contact, error)

// mutate performs a single read-modify-write cycle
func (s *PipelineService) mutate(ctx context.Context, tenantID, contactID uuid.UUID, op string, apply transform) (*ContactResponse, error) {
	contact, err := s.load(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	next, err := apply(contact, now)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, next, op, now)
}

// commit saves next, then publishes its events and builds the response
func (s *PipelineService) commit(ctx context.Context, next *consolidation.Contact, op string, now time.Time) (*ContactResponse, error) {
	if err := s.save(ctx, next, op); err != nil {
		return nil, err
	}
	s.publish(ctx, next)

	s.logger.Info("contact updated",
		zap.String("operation", op),
		zap.String("tenant_id", next.TenantID.String()),
		zap.String("contact_id", next.ID.String()),
		zap.String("stage", string(next.Stage)),
	)

	resp := ToContactResponse(next, s.config.UrgencyPolicy.Classify(next, now))
	return &resp, nil
}

func (s *PipelineService) load(ctx context.Context, tenantID, contactID uuid.UUID) (*consolidation.Contact, error) {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return nil, readError(err)
	}
	return contact, nil
}

func (s *PipelineService) save(ctx context.Context, contact *consolidation.Contact, op string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "consolidation", op,
		attribute.String("tenant_id", contact.TenantID.String()),
		attribute.String("contact_id", contact.ID.String()),
	)
	defer span.End()

	if err := s.contactRepo.Save(ctx, contact); err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordPersistenceFailure(ctx, contact.TenantID, op)
		s.logger.Error("failed to persist contact",
			zap.String("operation", op),
			zap.String("tenant_id", contact.TenantID.String()),
			zap.String("contact_id", contact.ID.String()),
			zap.Error(err),
		)
		return shared.NewPersistenceError(err)
	}
	return nil
}

func (s *PipelineService) publish(ctx context.Context, contact *consolidation.Contact) {
	events := contact.GetDomainEvents()
	contact.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish contact events",
			zap.String("contact_id", contact.ID.String()),
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}

// hasEvent reports whether c has a pending event of the given type
func hasEvent(c *consolidation.Contact, eventType string) bool {
	for _, e := range c.GetDomainEvents() {
		if e.EventType() == eventType {
			return true
		}
	}
	return false
}

// readError keeps domain errors and reports anything else as a storage failure
func readError(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.NewPersistenceError(err)
}

// tagError reports tag operations on a missing contact as validation
// failures that still match shared.ErrNotFound.
func tagError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrValidationFailed) {
		return shared.WrapDomainError(shared.CodeValidationFailed, "Cannot tag a contact that does not exist", err)
	}
	return err
}

func isUrgent(u consolidation.Urgency) bool {
	switch u {
	case consolidation.UrgencyOverdue, consolidation.UrgencyDueToday, consolidation.UrgencyStaleCritical:
		return true
	}
	return false
}

func urgencyRank(u consolidation.Urgency) int {
	switch u {
	case consolidation.UrgencyOverdue:
		return 0
	case consolidation.UrgencyDueToday:
		return 1
	case consolidation.UrgencyStaleCritical:
		return 2
	case consolidation.UrgencyStaleWarning:
		return 3
	case consolidation.UrgencyNormal:
		return 4
	}
	return 5
}
