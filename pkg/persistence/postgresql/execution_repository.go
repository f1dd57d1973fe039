package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/runner"
	"github.com/cadencehq/cadence/pkg/validation"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
	runner *runner.Runner
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger, run *runner.Runner) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger, runner: run}
}

// Execute creates a pending execution for an active, valid playbook and runs
// it in the background.
func (r *ExecutionRepository) Execute(ctx context.Context, playbooks *PlaybookRepository, playbookID, customerID string) (*models.Execution, error) {
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

	err = r.insert(ctx, execution)
	if err != nil {
		return nil, err
	}

	go r.runInBackground(playbook, execution.Clone())

	return execution, nil
}

func (r *ExecutionRepository) runInBackground(playbook *models.Playbook, execution *models.Execution) {
	ctx := context.Background()

	execution.Status = models.ExecutionStatusRunning

	err := r.update(ctx, execution)
	if err != nil {
		r.logger.Error("Failed to persist execution start", "execution_id", execution.ID, "error", err)
	}

	_ = r.runner.Run(ctx, playbook, execution, nil)

	err = r.update(ctx, execution)
	if err != nil {
		r.logger.Error("Failed to persist execution result", "execution_id", execution.ID, "error", err)
	}
}

// GetByID returns an execution by its ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `
		SELECT id, playbook_id, customer_id, status, results, error, started_at, completed_at
		FROM executions
		WHERE id = $1
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: persistence.ErrExecutionNotFound}
		}

		return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: err}
	}

	return execution, nil
}

// GetByPlaybook returns all executions recorded for a playbook, newest first.
func (r *ExecutionRepository) GetByPlaybook(ctx context.Context, playbookID string) ([]*models.Execution, error) {
	query := `
		SELECT id, playbook_id, customer_id, status, results, error, started_at, completed_at
		FROM executions
		WHERE playbook_id = $1
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, playbookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func (r *ExecutionRepository) insert(ctx context.Context, execution *models.Execution) error {
	results, err := marshalResults(execution)
	if err != nil {
		return &persistence.ExecutionError{Op: "Insert", ExecutionID: execution.ID, Err: err}
	}

	query := `
		INSERT INTO executions (id, playbook_id, customer_id, status, results, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID, execution.PlaybookID, execution.CustomerID,
		string(execution.Status), results, execution.Error,
		execution.StartedAt, execution.CompletedAt,
	)
	if err != nil {
		return &persistence.ExecutionError{Op: "Insert", ExecutionID: execution.ID, Err: err}
	}

	return nil
}

func (r *ExecutionRepository) update(ctx context.Context, execution *models.Execution) error {
	results, err := marshalResults(execution)
	if err != nil {
		return &persistence.ExecutionError{Op: "Update", ExecutionID: execution.ID, Err: err}
	}

	query := `
		UPDATE executions
		SET status = $2, results = $3, error = $4, completed_at = $5
		WHERE id = $1
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID, string(execution.Status), results, execution.Error, execution.CompletedAt,
	)
	if err != nil {
		return &persistence.ExecutionError{Op: "Update", ExecutionID: execution.ID, Err: err}
	}

	return nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution   models.Execution
		resultsDoc  []byte
		completedAt sql.NullTime
	)

	err := row.Scan(
		&execution.ID, &execution.PlaybookID, &execution.CustomerID,
		&execution.Status, &resultsDoc, &execution.Error,
		&execution.StartedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		execution.CompletedAt = &completedAt.Time
	}

	err = json.Unmarshal(resultsDoc, &execution.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}

	return &execution, nil
}

func marshalResults(execution *models.Execution) ([]byte, error) {
	if execution.Results == nil {
		return []byte("[]"), nil
	}

	results, err := json.Marshal(execution.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal results: %w", err)
	}

	return results, nil
}
