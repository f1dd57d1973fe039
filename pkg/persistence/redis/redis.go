// Package redis provides Redis-backed persistence for playbooks and
// executions. Records are stored as JSON values under prefixed keys.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/runner"
	"github.com/cadencehq/cadence/pkg/validation"
)

const (
	playbookPrefix  = "cadence:playbook:"
	executionPrefix = "cadence:execution:"

	connectTimeout = 5 * time.Second
)

// Persistence implements the persistence.Persistence interface on Redis.
type Persistence struct {
	client *goredis.Client
	runner *runner.Runner
	logger *slog.Logger
}

// NewPersistence connects to Redis using a redis:// URL.
func NewPersistence(redisURL string, logger *slog.Logger) (*Persistence, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to redis: %w", persistence.ErrNetwork, err)
	}

	return &Persistence{
		client: client,
		runner: runner.New(nil, logger),
		logger: logger,
	}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("%w: %w", persistence.ErrNetwork, err)
	}

	return nil
}

func (p *Persistence) Playbooks(ctx context.Context) ([]*models.Playbook, error) {
	keys, err := p.client.Keys(ctx, playbookPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list playbook keys: %w", err)
	}

	playbooks := make([]*models.Playbook, 0, len(keys))

	for _, key := range keys {
		playbook, err := p.PlaybookByID(ctx, key[len(playbookPrefix):])
		if err != nil {
			return nil, err
		}

		playbooks = append(playbooks, playbook)
	}

	return playbooks, nil
}

func (p *Persistence) PlaybookByID(ctx context.Context, id string) (*models.Playbook, error) {
	data, err := p.client.Get(ctx, playbookPrefix+id).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, persistence.NewPlaybookError("GetByID", id, persistence.ErrPlaybookNotFound)
		}

		return nil, persistence.NewPlaybookError("GetByID", id, err)
	}

	var playbook models.Playbook

	err = json.Unmarshal(data, &playbook)
	if err != nil {
		return nil, persistence.NewPlaybookError("GetByID", id, err)
	}

	return &playbook, nil
}

func (p *Persistence) CreatePlaybook(ctx context.Context, playbook *models.Playbook) (*models.Playbook, error) {
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

	err := p.savePlaybook(ctx, stored)
	if err != nil {
		return nil, persistence.NewPlaybookError("Create", stored.ID, err)
	}

	return stored, nil
}

func (p *Persistence) UpdatePlaybook(ctx context.Context, id string, playbook *models.Playbook) (*models.Playbook, error) {
	existing, err := p.PlaybookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if playbook.Revision != existing.Revision {
		return nil, persistence.NewPlaybookError("Update", id, persistence.ErrConflict)
	}

	stored := playbook.Clone()
	stored.ID = id
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now().UTC()
	stored.Revision = existing.Revision + 1

	err = p.savePlaybook(ctx, stored)
	if err != nil {
		return nil, persistence.NewPlaybookError("Update", id, err)
	}

	return stored, nil
}

func (p *Persistence) DeletePlaybook(ctx context.Context, id string) error {
	deleted, err := p.client.Del(ctx, playbookPrefix+id).Result()
	if err != nil {
		return persistence.NewPlaybookError("Delete", id, err)
	}

	if deleted == 0 {
		return persistence.NewPlaybookError("Delete", id, persistence.ErrPlaybookNotFound)
	}

	return nil
}

func (p *Persistence) Execute(ctx context.Context, playbookID, customerID string) (*models.Execution, error) {
	playbook, err := p.PlaybookByID(ctx, playbookID)
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

	err = p.saveExecution(ctx, execution)
	if err != nil {
		return nil, err
	}

	go p.runInBackground(playbook, execution.Clone())

	return execution, nil
}

func (p *Persistence) runInBackground(playbook *models.Playbook, execution *models.Execution) {
	ctx := context.Background()

	execution.Status = models.ExecutionStatusRunning
	_ = p.saveExecution(ctx, execution)

	_ = p.runner.Run(ctx, playbook, execution, nil)

	err := p.saveExecution(ctx, execution)
	if err != nil {
		p.logger.Error("Failed to persist execution result", "execution_id", execution.ID, "error", err)
	}
}

func (p *Persistence) ExecutionStatus(ctx context.Context, executionID string) (*models.Execution, error) {
	data, err := p.client.Get(ctx, executionPrefix+executionID).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: executionID, Err: persistence.ErrExecutionNotFound}
		}

		return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: executionID, Err: err}
	}

	var execution models.Execution

	err = json.Unmarshal(data, &execution)
	if err != nil {
		return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: executionID, Err: err}
	}

	return &execution, nil
}

func (p *Persistence) ExecutionsByPlaybook(ctx context.Context, playbookID string) ([]*models.Execution, error) {
	keys, err := p.client.Keys(ctx, executionPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list execution keys: %w", err)
	}

	executions := make([]*models.Execution, 0)

	for _, key := range keys {
		execution, err := p.ExecutionStatus(ctx, key[len(executionPrefix):])
		if err != nil {
			return nil, err
		}

		if execution.PlaybookID == playbookID {
			executions = append(executions, execution)
		}
	}

	return executions, nil
}

func (p *Persistence) savePlaybook(ctx context.Context, playbook *models.Playbook) error {
	data, err := json.Marshal(playbook)
	if err != nil {
		return fmt.Errorf("failed to marshal playbook: %w", err)
	}

	return p.client.Set(ctx, playbookPrefix+playbook.ID, data, 0).Err()
}

func (p *Persistence) saveExecution(ctx context.Context, execution *models.Execution) error {
	data, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	return p.client.Set(ctx, executionPrefix+execution.ID, data, 0).Err()
}
