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
)

// PlaybookRepository handles playbook-related database operations.
type PlaybookRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPlaybookRepository creates a new playbook repository.
func NewPlaybookRepository(db *sql.DB, logger *slog.Logger) *PlaybookRepository {
	return &PlaybookRepository{db: db, logger: logger}
}

const playbookColumns = `
	id
  , name
  , description
  , steps
  , trigger_type
  , trigger_conditions
  , status
  , revision
  , created_at
  , updated_at
`

// GetAll returns all playbooks, newest first.
func (r *PlaybookRepository) GetAll(ctx context.Context) ([]*models.Playbook, error) {
	query := `SELECT ` + playbookColumns + ` FROM playbooks ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playbooks: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	playbooks := make([]*models.Playbook, 0)

	for rows.Next() {
		playbook, err := scanPlaybook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playbook: %w", err)
		}

		playbooks = append(playbooks, playbook)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating playbooks: %w", err)
	}

	return playbooks, nil
}

// GetByID returns a playbook by its ID.
func (r *PlaybookRepository) GetByID(ctx context.Context, id string) (*models.Playbook, error) {
	query := `SELECT ` + playbookColumns + ` FROM playbooks WHERE id = $1`

	playbook, err := scanPlaybook(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewPlaybookError("GetByID", id, persistence.ErrPlaybookNotFound)
		}

		return nil, persistence.NewPlaybookError("GetByID", id, err)
	}

	return playbook, nil
}

// Create inserts a new playbook, assigning its identifier and timestamps.
func (r *PlaybookRepository) Create(ctx context.Context, playbook *models.Playbook) (*models.Playbook, error) {
	stored := playbook.Clone()

	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Revision = 1

	if stored.Status == "" {
		stored.Status = models.PlaybookStatusDraft
	}

	steps, conditions, err := marshalPlaybookDocs(stored)
	if err != nil {
		return nil, persistence.NewPlaybookError("Create", stored.ID, err)
	}

	query := `
		INSERT INTO playbooks (id, name, description, steps, trigger_type, trigger_conditions, status, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		stored.ID, stored.Name, stored.Description, steps,
		nullString(string(stored.TriggerType)), conditions,
		string(stored.Status), stored.Revision, stored.CreatedAt, stored.UpdatedAt,
	)
	if err != nil {
		return nil, persistence.NewPlaybookError("Create", stored.ID, err)
	}

	return stored, nil
}

// Update replaces a stored playbook under optimistic concurrency: the UPDATE
// only matches when the caller's revision equals the stored one.
func (r *PlaybookRepository) Update(ctx context.Context, id string, playbook *models.Playbook) (*models.Playbook, error) {
	stored := playbook.Clone()
	stored.ID = id
	stored.UpdatedAt = time.Now().UTC()

	steps, conditions, err := marshalPlaybookDocs(stored)
	if err != nil {
		return nil, persistence.NewPlaybookError("Update", id, err)
	}

	query := `
		UPDATE playbooks
		SET name = $2, description = $3, steps = $4, trigger_type = $5,
		    trigger_conditions = $6, status = $7, revision = revision + 1, updated_at = $8
		WHERE id = $1 AND revision = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		id, stored.Name, stored.Description, steps,
		nullString(string(stored.TriggerType)), conditions,
		string(stored.Status), stored.UpdatedAt, stored.Revision,
	)
	if err != nil {
		return nil, persistence.NewPlaybookError("Update", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, persistence.NewPlaybookError("Update", id, err)
	}

	if affected == 0 {
		// Either the row is gone or the revision moved under us.
		_, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		return nil, persistence.NewPlaybookError("Update", id, persistence.ErrConflict)
	}

	stored.Revision++

	return stored, nil
}

// Delete removes a playbook and, through the schema's cascade, its executions.
func (r *PlaybookRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM playbooks WHERE id = $1", id)
	if err != nil {
		return persistence.NewPlaybookError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewPlaybookError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewPlaybookError("Delete", id, persistence.ErrPlaybookNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlaybook(row rowScanner) (*models.Playbook, error) {
	var (
		playbook      models.Playbook
		stepsDoc      []byte
		conditionsDoc []byte
		triggerType   sql.NullString
	)

	err := row.Scan(
		&playbook.ID, &playbook.Name, &playbook.Description, &stepsDoc,
		&triggerType, &conditionsDoc, &playbook.Status, &playbook.Revision,
		&playbook.CreatedAt, &playbook.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if triggerType.Valid {
		playbook.TriggerType = models.TriggerType(triggerType.String)
	}

	err = json.Unmarshal(stepsDoc, &playbook.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	if len(conditionsDoc) > 0 {
		err = json.Unmarshal(conditionsDoc, &playbook.TriggerConditions)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger conditions: %w", err)
		}
	}

	return &playbook, nil
}

func marshalPlaybookDocs(playbook *models.Playbook) ([]byte, []byte, error) {
	if playbook.Steps == nil {
		playbook.Steps = make([]*models.Step, 0)
	}

	steps, err := json.Marshal(playbook.Steps)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal steps: %w", err)
	}

	var conditions []byte

	if playbook.TriggerConditions != nil {
		conditions, err = json.Marshal(playbook.TriggerConditions)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal trigger conditions: %w", err)
		}
	}

	return steps, conditions, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
