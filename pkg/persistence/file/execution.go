package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/runner"
	"github.com/cadencehq/cadence/pkg/validation"
)

// ExecutionRepository handles execution-related file operations.
type ExecutionRepository struct {
	root string
	mu   sync.Mutex
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) dir() string {
	return filepath.Join(er.root, "executions")
}

func (er *ExecutionRepository) path(id string) string {
	return filepath.Join(er.dir(), id+".json")
}

// Execute creates a pending execution for an active, valid playbook and runs
// it in the background. The returned snapshot is the pending record; callers
// follow progress through GetByID.
func (er *ExecutionRepository) Execute(
	ctx context.Context,
	playbooks *PlaybookRepository,
	run *runner.Runner,
	playbookID, customerID string,
) (*models.Execution, error) {
	playbook, err := playbooks.GetByID(ctx, playbookID)
	if err != nil {
		return nil, err
	}

	if !playbook.IsActive() {
		return nil, persistence.NewPlaybookError("Execute", playbookID, persistence.ErrInvalidState)
	}

	if !validation.IsValid(playbook) {
		return nil, persistence.NewPlaybookError("Execute", playbookID, persistence.ErrValidationFailed)
	}

	execution := &models.Execution{
		ID:         uuid.New().String(),
		PlaybookID: playbookID,
		CustomerID: customerID,
		Status:     models.ExecutionStatusPending,
		StartedAt:  time.Now().UTC(),
	}

	err = er.save(execution)
	if err != nil {
		return nil, err
	}

	go er.runInBackground(playbook, execution.Clone(), run)

	return execution, nil
}

// runInBackground advances the stored record through running to a terminal
// state. It deliberately uses a background context: an execution outlives the
// request that started it.
func (er *ExecutionRepository) runInBackground(playbook *models.Playbook, execution *models.Execution, run *runner.Runner) {
	execution.Status = models.ExecutionStatusRunning
	_ = er.save(execution)

	_ = run.Run(context.Background(), playbook, execution, nil)

	_ = er.save(execution)
}

// GetByID loads one execution document.
func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	data, err := os.ReadFile(er.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: persistence.ErrExecutionNotFound}
		}

		return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: err}
	}

	var execution models.Execution

	err = json.Unmarshal(data, &execution)
	if err != nil {
		return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: err}
	}

	return &execution, nil
}

// GetByPlaybook returns all executions recorded for a playbook.
func (er *ExecutionRepository) GetByPlaybook(ctx context.Context, playbookID string) ([]*models.Execution, error) {
	root := os.DirFS(er.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.Execution, 0)

	for _, file := range jsonFiles {
		executionID := file[:len(file)-len(".json")]

		execution, err := er.GetByID(ctx, executionID)
		if err != nil {
			return nil, err
		}

		if execution.PlaybookID == playbookID {
			executions = append(executions, execution)
		}
	}

	return executions, nil
}

func (er *ExecutionRepository) save(execution *models.Execution) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	err := os.MkdirAll(er.dir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	err = os.WriteFile(er.path(execution.ID), data, fileMode)
	if err != nil {
		return fmt.Errorf("failed to write execution file: %w", err)
	}

	return nil
}
