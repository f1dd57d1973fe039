package execution

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cadencehq/cadence/pkg/models"
)

// DefaultPollInterval is how often the poller asks the persistence
// collaborator for execution status.
const DefaultPollInterval = 2 * time.Second

// StatusFunc fetches the current state of an execution, typically backed by
// the persistence collaborator's ExecutionStatus call.
type StatusFunc func(ctx context.Context, executionID string) (*models.Execution, error)

// Poller drives a Tracker from periodic status fetches until the execution
// reaches a terminal state or the context is cancelled.
type Poller struct {
	tracker  *Tracker
	status   StatusFunc
	interval time.Duration
	logger   *slog.Logger
}

func NewPoller(tracker *Tracker, status StatusFunc, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Poller{
		tracker:  tracker,
		status:   status,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until terminal state or cancellation. Transient fetch failures
// are logged and the next tick retries; protocol errors from the tracker are
// logged and polling continues with local state unchanged.
func (p *Poller) Run(ctx context.Context) error {
	if p.tracker.Done() {
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	executionID := p.tracker.Execution().ID

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			observed, err := p.status(ctx, executionID)
			if err != nil {
				p.logger.Warn("Failed to fetch execution status",
					"execution_id", executionID,
					"error", err,
				)

				continue
			}

			err = p.tracker.Observe(observed)
			if err != nil && !errors.Is(err, ErrProtocol) {
				return err
			}

			if p.tracker.Done() {
				return nil
			}
		}
	}
}
