// Package models defines the core domain models for customer-success playbooks.
package models

import "time"

// PlaybookStatus represents the lifecycle state of a playbook.
type PlaybookStatus string

const (
	PlaybookStatusDraft    PlaybookStatus = "draft"    // Editable, not executable
	PlaybookStatusActive   PlaybookStatus = "active"   // Validated, executable
	PlaybookStatusArchived PlaybookStatus = "archived" // Frozen, viewable only
)

// TriggerType identifies what activates a playbook against a customer.
type TriggerType string

const (
	TriggerTypeRiskScore   TriggerType = "risk_score"
	TriggerTypeHealthScore TriggerType = "health_score"
	TriggerTypeManual      TriggerType = "manual"
	TriggerTypeScheduled   TriggerType = "scheduled"
)

// TriggerConditions holds the trigger parameters for a playbook. Which fields
// are meaningful depends on TriggerType: score triggers use Threshold and
// Comparison, scheduled triggers use Schedule (a cron expression) and the
// customer set it fires against.
type TriggerConditions struct {
	Threshold   *float64 `json:"threshold,omitempty"`
	Comparison  string   `json:"comparison,omitempty" validate:"omitempty,oneof=lt lte gt gte eq"`
	Schedule    string   `json:"schedule,omitempty"`
	CustomerIDs []string `json:"customerIds,omitempty"`
}

// Playbook is a workflow definition: a graph of steps plus trigger metadata.
//
// ID is empty for an unsaved draft and assigned on first successful persist.
// Revision is the server-side optimistic concurrency token; the editor never
// touches it, it is only set from persistence responses.
type Playbook struct {
	ID                string             `json:"id,omitempty"`
	Name              string             `json:"name"                        validate:"required,min=3"`
	Description       string             `json:"description"`
	Steps             []*Step            `json:"steps"`
	TriggerType       TriggerType        `json:"triggerType,omitempty"`
	TriggerConditions *TriggerConditions `json:"triggerConditions,omitempty"`
	Status            PlaybookStatus     `json:"status"`
	Revision          int64              `json:"revision,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

func (p *Playbook) IsDraft() bool    { return p.Status == PlaybookStatusDraft }
func (p *Playbook) IsActive() bool   { return p.Status == PlaybookStatusActive }
func (p *Playbook) IsArchived() bool { return p.Status == PlaybookStatusArchived }

// StepByID returns the step with the given ID, or nil when absent.
func (p *Playbook) StepByID(stepID string) *Step {
	for _, step := range p.Steps {
		if step.StepID == stepID {
			return step
		}
	}

	return nil
}

// HasStep reports whether a step with the given ID exists.
func (p *Playbook) HasStep(stepID string) bool {
	return p.StepByID(stepID) != nil
}

// Touch bumps the modification timestamp. Called once per accepted mutation.
func (p *Playbook) Touch() {
	p.UpdatedAt = time.Now().UTC()
}
