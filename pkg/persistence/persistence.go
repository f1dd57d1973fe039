// Package persistence provides the data storage abstraction for playbooks
// and executions.
package persistence

import (
	"context"

	"github.com/cadencehq/cadence/pkg/models"
)

// Persistence is the collaborator the editor core and the services layer
// consume. Execute creates a new execution for an active playbook; it fails
// with ErrInvalidState for drafts and archived playbooks.
type Persistence interface {
	Playbooks(ctx context.Context) ([]*models.Playbook, error)
	PlaybookByID(ctx context.Context, id string) (*models.Playbook, error)
	CreatePlaybook(ctx context.Context, playbook *models.Playbook) (*models.Playbook, error)
	UpdatePlaybook(ctx context.Context, id string, playbook *models.Playbook) (*models.Playbook, error)
	DeletePlaybook(ctx context.Context, id string) error

	Execute(ctx context.Context, playbookID, customerID string) (*models.Execution, error)
	ExecutionStatus(ctx context.Context, executionID string) (*models.Execution, error)
	ExecutionsByPlaybook(ctx context.Context, playbookID string) ([]*models.Execution, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
