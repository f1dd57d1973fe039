// Package postgresql provides PostgreSQL persistence for playbooks and
// executions.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the postgres driver.
	_ "github.com/lib/pq"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence/sqlbase"
	"github.com/cadencehq/cadence/pkg/runner"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	playbookRepo  *PlaybookRepository
	executionRepo *ExecutionRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and runs pending
// migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	playbookRepo := NewPlaybookRepository(database, logger)
	executionRepo := NewExecutionRepository(database, logger, runner.New(nil, logger))

	return &Persistence{
		db:            database,
		logger:        logger,
		playbookRepo:  playbookRepo,
		executionRepo: executionRepo,
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Playbooks(ctx context.Context) ([]*models.Playbook, error) {
	return p.playbookRepo.GetAll(ctx)
}

func (p *Persistence) PlaybookByID(ctx context.Context, id string) (*models.Playbook, error) {
	return p.playbookRepo.GetByID(ctx, id)
}

func (p *Persistence) CreatePlaybook(ctx context.Context, playbook *models.Playbook) (*models.Playbook, error) {
	return p.playbookRepo.Create(ctx, playbook)
}

func (p *Persistence) UpdatePlaybook(ctx context.Context, id string, playbook *models.Playbook) (*models.Playbook, error) {
	return p.playbookRepo.Update(ctx, id, playbook)
}

func (p *Persistence) DeletePlaybook(ctx context.Context, id string) error {
	return p.playbookRepo.Delete(ctx, id)
}

func (p *Persistence) Execute(ctx context.Context, playbookID, customerID string) (*models.Execution, error) {
	return p.executionRepo.Execute(ctx, p.playbookRepo, playbookID, customerID)
}

func (p *Persistence) ExecutionStatus(ctx context.Context, executionID string) (*models.Execution, error) {
	return p.executionRepo.GetByID(ctx, executionID)
}

func (p *Persistence) ExecutionsByPlaybook(ctx context.Context, playbookID string) ([]*models.Execution, error) {
	return p.executionRepo.GetByPlaybook(ctx, playbookID)
}
