// Package scheduler runs active playbooks with scheduled triggers on their
// cron schedules.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/services"
)

// DefaultRefreshInterval is how often the scheduler re-reads the playbook
// store to pick up newly activated or archived playbooks.
const DefaultRefreshInterval = time.Minute

// Scheduler keeps one cron entry per active scheduled playbook. Each tick
// starts an execution for every customer listed in the trigger conditions.
type Scheduler struct {
	persistence persistence.Persistence
	executions  *services.Execution
	logger      *slog.Logger
	refresh     time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
}

func New(store persistence.Persistence, executions *services.Execution, logger *slog.Logger, refresh time.Duration) *Scheduler {
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}

	return &Scheduler{
		persistence: store,
		executions:  executions,
		logger:      logger,
		refresh:     refresh,
		cron:        cron.New(),
		entries:     make(map[string]cron.EntryID),
	}
}

// Start loads the current schedule set, starts the cron runner, and keeps
// the set in sync until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	err := s.sync(ctx)
	if err != nil {
		return err
	}

	s.cron.Start()

	go s.refreshLoop(ctx)

	return nil
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

func (s *Scheduler) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()

			return
		case <-ticker.C:
			err := s.sync(ctx)
			if err != nil {
				s.logger.Error("Failed to refresh playbook schedules", "error", err)
			}
		}
	}
}

// sync reconciles cron entries with the store: register new active scheduled
// playbooks, drop entries whose playbook was archived or deleted.
func (s *Scheduler) sync(ctx context.Context) error {
	playbooks, err := s.persistence.Playbooks(ctx)
	if err != nil {
		return err
	}

	wanted := make(map[string]*models.Playbook)

	for _, playbook := range playbooks {
		if !playbook.IsActive() || playbook.TriggerType != models.TriggerTypeScheduled {
			continue
		}

		if playbook.TriggerConditions == nil || playbook.TriggerConditions.Schedule == "" {
			continue
		}

		wanted[playbook.ID] = playbook
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entryID := range s.entries {
		if _, ok := wanted[id]; !ok {
			s.cron.Remove(entryID)
			delete(s.entries, id)
			s.logger.Info("Unscheduled playbook", "playbook_id", id)
		}
	}

	for id, playbook := range wanted {
		if _, ok := s.entries[id]; ok {
			continue
		}

		entryID, err := s.cron.AddFunc(playbook.TriggerConditions.Schedule, s.runJob(id))
		if err != nil {
			s.logger.Error("Invalid playbook schedule",
				"playbook_id", id,
				"schedule", playbook.TriggerConditions.Schedule,
				"error", err,
			)

			continue
		}

		s.entries[id] = entryID
		s.logger.Info("Scheduled playbook",
			"playbook_id", id,
			"schedule", playbook.TriggerConditions.Schedule,
		)
	}

	return nil
}

// runJob returns the cron callback for one playbook. The playbook is
// re-fetched on each tick so customer lists and status changes between
// refreshes are honored.
func (s *Scheduler) runJob(playbookID string) func() {
	return func() {
		ctx := context.Background()

		playbook, err := s.persistence.PlaybookByID(ctx, playbookID)
		if err != nil {
			s.logger.Error("Failed to load scheduled playbook", "playbook_id", playbookID, "error", err)

			return
		}

		if !playbook.IsActive() || playbook.TriggerConditions == nil {
			return
		}

		for _, customerID := range playbook.TriggerConditions.CustomerIDs {
			started, err := s.executions.Execute(ctx, playbookID, customerID)
			if err != nil {
				s.logger.Error("Scheduled execution failed to start",
					"playbook_id", playbookID,
					"customer_id", customerID,
					"error", err,
				)

				continue
			}

			s.logger.Info("Started scheduled execution",
				"playbook_id", playbookID,
				"customer_id", customerID,
				"execution_id", started.ID,
			)
		}
	}
}
