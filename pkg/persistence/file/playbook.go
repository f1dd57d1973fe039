package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
)

const fileMode = 0o644

// PlaybookRepository handles playbook-related file operations.
type PlaybookRepository struct {
	root string
	mu   sync.Mutex
}

// NewPlaybookRepository creates a new playbook repository.
func NewPlaybookRepository(root string) *PlaybookRepository {
	return &PlaybookRepository{root: root}
}

func (pr *PlaybookRepository) dir() string {
	return filepath.Join(pr.root, "playbooks")
}

func (pr *PlaybookRepository) path(id string) string {
	return filepath.Join(pr.dir(), id+".json")
}

// GetAll returns all stored playbooks sorted by creation time, newest first.
func (pr *PlaybookRepository) GetAll(ctx context.Context) ([]*models.Playbook, error) {
	root := os.DirFS(pr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list playbook files: %w", err)
	}

	playbooks := make([]*models.Playbook, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		playbookID := file[:len(file)-len(".json")]

		playbook, err := pr.GetByID(ctx, playbookID)
		if err != nil {
			return nil, fmt.Errorf("failed to load playbook %s: %w", playbookID, err)
		}

		playbooks = append(playbooks, playbook)
	}

	sort.Slice(playbooks, func(i, j int) bool {
		return playbooks[i].CreatedAt.After(playbooks[j].CreatedAt)
	})

	return playbooks, nil
}

// GetByID loads one playbook document.
func (pr *PlaybookRepository) GetByID(_ context.Context, id string) (*models.Playbook, error) {
	data, err := os.ReadFile(pr.path(id))
	if err != nil {
		if os.IsNotExist(err) {
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

// Create stores a new playbook, assigning its identifier and timestamps.
func (pr *PlaybookRepository) Create(_ context.Context, playbook *models.Playbook) (*models.Playbook, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	stored := playbook.Clone()

	if stored.ID == "" {
		stored.ID = uuid.New().String()
	} else if _, err := os.Stat(pr.path(stored.ID)); err == nil {
		return nil, persistence.NewPlaybookError("Create", stored.ID, persistence.ErrPlaybookAlreadyExists)
	}

	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Revision = 1

	if stored.Status == "" {
		stored.Status = models.PlaybookStatusDraft
	}

	err := pr.write(stored)
	if err != nil {
		return nil, persistence.NewPlaybookError("Create", stored.ID, err)
	}

	return stored, nil
}

// Update replaces a stored playbook. The caller's revision must match the
// stored copy; a mismatch means someone else saved in between and yields
// ErrConflict.
func (pr *PlaybookRepository) Update(ctx context.Context, id string, playbook *models.Playbook) (*models.Playbook, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	existing, err := pr.GetByID(ctx, id)
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

	err = pr.write(stored)
	if err != nil {
		return nil, persistence.NewPlaybookError("Update", id, err)
	}

	return stored, nil
}

// Delete removes a playbook document.
func (pr *PlaybookRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(pr.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewPlaybookError("Delete", id, persistence.ErrPlaybookNotFound)
		}

		return persistence.NewPlaybookError("Delete", id, err)
	}

	return nil
}

func (pr *PlaybookRepository) write(playbook *models.Playbook) error {
	err := os.MkdirAll(pr.dir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create playbooks directory: %w", err)
	}

	data, err := json.MarshalIndent(playbook, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal playbook: %w", err)
	}

	err = os.WriteFile(pr.path(playbook.ID), data, fileMode)
	if err != nil {
		return fmt.Errorf("failed to write playbook file: %w", err)
	}

	return nil
}
