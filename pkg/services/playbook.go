package services

import (
	"context"
	"time"

	"github.com/cadencehq/cadence/pkg/eventbus"
	"github.com/cadencehq/cadence/pkg/events"
	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/validation"
)

// Playbook is the playbook management service.
type Playbook struct {
	persistence persistence.Persistence
	bus         eventbus.EventBus
}

// NewPlaybook creates a new playbook service. The bus may be nil when no
// event distribution is wanted (tests, one-shot tools).
func NewPlaybook(persistence persistence.Persistence, bus eventbus.EventBus) *Playbook {
	return &Playbook{
		persistence: persistence,
		bus:         bus,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Playbook) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// FetchAll retrieves every playbook.
func (s *Playbook) FetchAll(ctx context.Context) ([]*models.Playbook, error) {
	return s.persistence.Playbooks(ctx)
}

// FetchByID retrieves one playbook.
func (s *Playbook) FetchByID(ctx context.Context, id string) (*models.Playbook, error) {
	if id == "" {
		return nil, ErrPlaybookIDRequired
	}

	return s.persistence.PlaybookByID(ctx, id)
}

// Create stores a new playbook as a draft. Drafts may be structurally
// invalid; validation only gates activation and execution.
func (s *Playbook) Create(ctx context.Context, playbook *models.Playbook) (*models.Playbook, error) {
	if playbook == nil {
		return nil, ErrPlaybookNil
	}

	if playbook.Status == "" {
		playbook.Status = models.PlaybookStatusDraft
	}

	created, err := s.persistence.CreatePlaybook(ctx, playbook)
	if err != nil {
		return nil, err
	}

	s.publishSaved(ctx, created)

	return created, nil
}

// Update replaces a stored playbook. Archived playbooks are frozen; the
// persistence layer additionally enforces optimistic concurrency and yields
// ErrConflict when the stored revision moved.
func (s *Playbook) Update(ctx context.Context, id string, playbook *models.Playbook) (*models.Playbook, error) {
	if playbook == nil {
		return nil, ErrPlaybookNil
	}

	existing, err := s.persistence.PlaybookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.IsArchived() {
		return nil, ErrCannotModifyArchived
	}

	updated, err := s.persistence.UpdatePlaybook(ctx, id, playbook)
	if err != nil {
		return nil, err
	}

	s.publishSaved(ctx, updated)

	return updated, nil
}

// Activate validates the playbook at activation grade and transitions it
// from draft to active. Invalid playbooks are rejected with the full
// violation list and never reach the persistence layer's update.
func (s *Playbook) Activate(ctx context.Context, id string) (*models.Playbook, error) {
	playbook, err := s.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if playbook.IsArchived() {
		return nil, ErrCannotModifyArchived
	}

	if playbook.IsActive() {
		return nil, ErrAlreadyActive
	}

	validationErrors := validation.Validate(playbook, true)
	if len(validationErrors) > 0 {
		s.publishValidationFailed(ctx, id, validationErrors)

		return nil, &InvalidPlaybookError{PlaybookID: id, Errors: validationErrors}
	}

	playbook.Status = models.PlaybookStatusActive

	updated, err := s.persistence.UpdatePlaybook(ctx, id, playbook)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.PlaybookActivated{BaseEvent: s.baseEvent(events.PlaybookActivatedEvent, updated.ID)})

	return updated, nil
}

// Archive freezes a playbook from further execution. Archiving is permitted
// from any status and is not reversible through this service.
func (s *Playbook) Archive(ctx context.Context, id string) (*models.Playbook, error) {
	playbook, err := s.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	playbook.Status = models.PlaybookStatusArchived

	updated, err := s.persistence.UpdatePlaybook(ctx, id, playbook)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.PlaybookArchived{BaseEvent: s.baseEvent(events.PlaybookArchivedEvent, updated.ID)})

	return updated, nil
}

// Delete removes a playbook.
func (s *Playbook) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrPlaybookIDRequired
	}

	return s.persistence.DeletePlaybook(ctx, id)
}

// Validate runs the validation engine over a playbook without persisting
// anything, for the editor's inline error surface.
func (s *Playbook) Validate(playbook *models.Playbook, strict bool) []validation.Error {
	if playbook == nil {
		return nil
	}

	return validation.Validate(playbook, strict)
}

func (s *Playbook) publishSaved(ctx context.Context, playbook *models.Playbook) {
	s.publish(ctx, events.PlaybookSaved{
		BaseEvent: s.baseEvent(events.PlaybookSavedEvent, playbook.ID),
		Revision:  playbook.Revision,
	})
}

func (s *Playbook) publishValidationFailed(ctx context.Context, playbookID string, validationErrors []validation.Error) {
	messages := make([]string, 0, len(validationErrors))
	for _, validationError := range validationErrors {
		messages = append(messages, validationError.Error())
	}

	s.publish(ctx, events.ValidationFailed{
		BaseEvent: s.baseEvent(events.ValidationFailedEvent, playbookID),
		Errors:    messages,
	})
}

func (s *Playbook) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}

	_ = s.bus.Publish(ctx, event)
}

func (s *Playbook) baseEvent(eventType events.EventType, playbookID string) events.BaseEvent {
	var id string
	if s.bus != nil {
		id = s.bus.GenerateID()
	}

	return events.BaseEvent{
		ID:         id,
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		PlaybookID: playbookID,
	}
}
