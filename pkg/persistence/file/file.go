// Package file provides file-based persistence for playbooks and executions.
// Records are stored as JSON documents under the root directory; it is the
// backend used by unit tests and local development.
package file

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/runner"
)

var _ persistence.Persistence = (*Persistence)(nil)

// Persistence implements the persistence.Persistence interface using the
// file system.
type Persistence struct {
	root          string
	playbookRepo  *PlaybookRepository
	executionRepo *ExecutionRepository
	runner        *runner.Runner
	logger        *slog.Logger
}

// NewPersistence creates a file persistence layer rooted at the given
// directory. Executions run in-process through the runner.
func NewPersistence(root string, logger *slog.Logger) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		playbookRepo:  NewPlaybookRepository(cleanRoot),
		executionRepo: NewExecutionRepository(cleanRoot),
		runner:        runner.New(nil, logger),
		logger:        logger,
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Playbooks(ctx context.Context) ([]*models.Playbook, error) {
	return fp.playbookRepo.GetAll(ctx)
}

func (fp *Persistence) PlaybookByID(ctx context.Context, id string) (*models.Playbook, error) {
	return fp.playbookRepo.GetByID(ctx, id)
}

func (fp *Persistence) CreatePlaybook(ctx context.Context, playbook *models.Playbook) (*models.Playbook, error) {
	return fp.playbookRepo.Create(ctx, playbook)
}

func (fp *Persistence) UpdatePlaybook(ctx context.Context, id string, playbook *models.Playbook) (*models.Playbook, error) {
	return fp.playbookRepo.Update(ctx, id, playbook)
}

func (fp *Persistence) DeletePlaybook(ctx context.Context, id string) error {
	return fp.playbookRepo.Delete(ctx, id)
}

func (fp *Persistence) Execute(ctx context.Context, playbookID, customerID string) (*models.Execution, error) {
	return fp.executionRepo.Execute(ctx, fp.playbookRepo, fp.runner, playbookID, customerID)
}

func (fp *Persistence) ExecutionStatus(ctx context.Context, executionID string) (*models.Execution, error) {
	return fp.executionRepo.GetByID(ctx, executionID)
}

func (fp *Persistence) ExecutionsByPlaybook(ctx context.Context, playbookID string) ([]*models.Execution, error) {
	return fp.executionRepo.GetByPlaybook(ctx, playbookID)
}
