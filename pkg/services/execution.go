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

// Execution is the execution management service.
type Execution struct {
	persistence persistence.Persistence
	bus         eventbus.EventBus
}

// NewExecution creates a new execution service.
func NewExecution(persistence persistence.Persistence, bus eventbus.EventBus) *Execution {
	return &Execution{
		persistence: persistence,
		bus:         bus,
	}
}

// Execute starts a playbook run for one customer. The playbook is fetched
// and checked for active status and structural validity first, so an
// ineligible request never reaches the persistence execute call and no
// partial execution record is created.
func (s *Execution) Execute(ctx context.Context, playbookID, customerID string) (*models.Execution, error) {
	if playbookID == "" {
		return nil, ErrPlaybookIDRequired
	}

	if customerID == "" {
		return nil, ErrCustomerIDRequired
	}

	playbook, err := s.persistence.PlaybookByID(ctx, playbookID)
	if err != nil {
		return nil, err
	}

	if !playbook.IsActive() {
		return nil, persistence.ErrInvalidState
	}

	validationErrors := validation.Validate(playbook, true)
	if len(validationErrors) > 0 {
		return nil, &InvalidPlaybookError{PlaybookID: playbookID, Errors: validationErrors}
	}

	execution, err := s.persistence.Execute(ctx, playbookID, customerID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ExecutionStarted{
		BaseEvent:   s.baseEvent(events.ExecutionStartedEvent, playbookID),
		ExecutionID: execution.ID,
		CustomerID:  customerID,
	})

	return execution, nil
}

// Status fetches the current state of one execution.
func (s *Execution) Status(ctx context.Context, executionID string) (*models.Execution, error) {
	if executionID == "" {
		return nil, ErrExecutionIDRequired
	}

	return s.persistence.ExecutionStatus(ctx, executionID)
}

// ListByPlaybook returns every execution recorded for a playbook.
func (s *Execution) ListByPlaybook(ctx context.Context, playbookID string) ([]*models.Execution, error) {
	if playbookID == "" {
		return nil, ErrPlaybookIDRequired
	}

	return s.persistence.ExecutionsByPlaybook(ctx, playbookID)
}

func (s *Execution) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}

	_ = s.bus.Publish(ctx, event)
}

func (s *Execution) baseEvent(eventType events.EventType, playbookID string) events.BaseEvent {
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
