// Package autosave debounces playbook mutations into persist calls. Repeated
// schedules within the debounce window collapse into a single save carrying
// the most recent snapshot, and no two saves for the same coordinator are
// ever in flight at once.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/notification"
)

// DefaultDelay is the debounce window between the last mutation and the
// persist call.
const DefaultDelay = 2500 * time.Millisecond

// Saver is the slice of the persistence collaborator the coordinator needs.
type Saver interface {
	CreatePlaybook(ctx context.Context, playbook *models.Playbook) (*models.Playbook, error)
	UpdatePlaybook(ctx context.Context, id string, playbook *models.Playbook) (*models.Playbook, error)
}

// Coordinator owns the debounce timer and the single save flight. Safe for
// use from the editor's event loop: Schedule never blocks on I/O.
type Coordinator struct {
	saver    Saver
	notifier notification.Notifier
	logger   *slog.Logger
	delay    time.Duration

	// onSaved observes the server copy after a successful save that is still
	// current (not cancelled). The editor adopts the assigned ID and revision
	// through it.
	onSaved func(saved *models.Playbook)

	mu       sync.Mutex
	timer    *time.Timer
	pending  *models.Playbook
	inFlight bool
	flight   chan struct{}
	rearm    bool
	gen      uint64

	// assignedID is the server identity from the first successful create.
	// Snapshots taken while that create was still in flight carry an empty ID;
	// stamping them here turns the follow-up save into an update instead of a
	// second create.
	assignedID string
}

// Option configures a Coordinator.
type Option func(c *Coordinator)

// WithDelay overrides the debounce window.
func WithDelay(delay time.Duration) Option {
	return func(c *Coordinator) { c.delay = delay }
}

// WithOnSaved registers the saved-copy observer.
func WithOnSaved(fn func(saved *models.Playbook)) Option {
	return func(c *Coordinator) { c.onSaved = fn }
}

// New creates a coordinator. The notifier receives one success or error
// notification per persist attempt; failures are not retried automatically,
// the next edit reschedules.
func New(saver Saver, notifier notification.Notifier, logger *slog.Logger, opts ...Option) *Coordinator {
	coordinator := &Coordinator{
		saver:    saver,
		notifier: notifier,
		logger:   logger,
		delay:    DefaultDelay,
	}

	for _, opt := range opts {
		opt(coordinator)
	}

	return coordinator
}

// Schedule records the latest snapshot and (re)starts the debounce timer.
// The snapshot is copied immediately so continued editing cannot alter what
// gets persisted.
func (c *Coordinator) Schedule(playbook *models.Playbook) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = playbook.Clone()

	if c.timer != nil {
		c.timer.Stop()
	}

	c.timer = time.AfterFunc(c.delay, c.fire)
}

// Cancel stops any pending timer and invalidates the in-flight save, if any:
// its result will be discarded on completion. Called when the editor unmounts
// or switches to a different playbook, so a stale snapshot never lands in the
// wrong record.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	c.pending = nil
	c.rearm = false
	c.assignedID = ""
	c.gen++
}

// Flush persists the pending snapshot immediately, bypassing the timer. It
// takes the same single flight as a timer-fired save: an in-flight save is
// waited out first, and a timer armed while Flush's own save is on the wire
// defers until it lands, so saves never overlap. Used by the editor's
// explicit save action. A no-op when nothing is pending.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()

	for c.inFlight {
		flight := c.flight
		c.mu.Unlock()

		select {
		case <-flight:
		case <-ctx.Done():
			return ctx.Err()
		}

		c.mu.Lock()
	}

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	snapshot := c.pending
	c.pending = nil

	if snapshot == nil {
		c.mu.Unlock()

		return nil
	}

	gen := c.gen
	c.inFlight = true
	flight := make(chan struct{})
	c.flight = flight
	c.mu.Unlock()

	_, err := c.save(ctx, snapshot, gen)

	c.landed(flight)

	return err
}

// fire runs on timer expiry. If a save is already in flight the shot is
// deferred: the flight's completion re-arms the timer with the latest
// snapshot, preserving write ordering.
func (c *Coordinator) fire() {
	c.mu.Lock()

	if c.inFlight {
		c.rearm = true
		c.mu.Unlock()

		return
	}

	snapshot := c.pending
	c.pending = nil
	c.timer = nil

	if snapshot == nil {
		c.mu.Unlock()

		return
	}

	c.inFlight = true
	flight := make(chan struct{})
	c.flight = flight
	gen := c.gen
	c.mu.Unlock()

	go func() {
		_, _ = c.save(context.Background(), snapshot, gen)

		c.landed(flight)
	}()
}

// landed clears the flight state after a save returns and re-arms the timer
// when a snapshot queued up while the save was on the wire.
func (c *Coordinator) landed(flight chan struct{}) {
	c.mu.Lock()
	c.inFlight = false
	c.flight = nil

	if c.rearm && c.pending != nil {
		c.rearm = false
		c.timer = time.AfterFunc(c.delay, c.fire)
	} else {
		c.rearm = false
	}
	c.mu.Unlock()

	close(flight)
}

// save performs one persist call. Results belonging to a cancelled generation
// are discarded: no notification, no saved-copy callback.
func (c *Coordinator) save(ctx context.Context, snapshot *models.Playbook, gen uint64) (*models.Playbook, error) {
	c.mu.Lock()
	if snapshot.ID == "" && c.assignedID != "" {
		snapshot.ID = c.assignedID
	}
	c.mu.Unlock()

	var (
		saved *models.Playbook
		err   error
	)

	created := snapshot.ID == ""
	if created {
		saved, err = c.saver.CreatePlaybook(ctx, snapshot)
	} else {
		saved, err = c.saver.UpdatePlaybook(ctx, snapshot.ID, snapshot)
	}

	c.mu.Lock()
	stale := gen != c.gen
	if !stale && err == nil && created {
		c.assignedID = saved.ID
	}
	c.mu.Unlock()

	if stale {
		c.logger.Debug("Discarding stale autosave result", "playbook_id", snapshot.ID)

		return nil, err
	}

	if err != nil {
		c.logger.Error("Autosave failed", "playbook_id", snapshot.ID, "error", err)
		c.notifier.Notify(ctx, notification.KindError, "Failed to save playbook: "+err.Error())

		return nil, err
	}

	c.notifier.Notify(ctx, notification.KindSuccess, "Playbook saved")

	if c.onSaved != nil {
		c.onSaved(saved)
	}

	return saved, nil
}
