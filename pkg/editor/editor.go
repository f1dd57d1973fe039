// Package editor composes the playbook editing surface: one canvas session
// with command history, the validation engine running after every mutation,
// and the autosave coordinator persisting drafts in the background.
package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cadencehq/cadence/pkg/autosave"
	"github.com/cadencehq/cadence/pkg/canvas"
	"github.com/cadencehq/cadence/pkg/eventbus"
	"github.com/cadencehq/cadence/pkg/execution"
	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/notification"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/services"
	"github.com/cadencehq/cadence/pkg/validation"
)

// ValidationHook observes the violation list produced after each mutation.
// An empty slice means the document became clean.
type ValidationHook func(errors []validation.Error)

// Editor is one user's editing surface over a single playbook. Like the
// canvas session it owns, it is driven from a single UI event loop; only the
// autosave completion path crosses goroutines.
type Editor struct {
	logger        *slog.Logger
	persistence   persistence.Persistence
	notifier      notification.Notifier
	playbooks     *services.Playbook
	executions    *services.Execution
	session       *canvas.Session
	coordinator   *autosave.Coordinator
	autosaveDelay time.Duration
	pollInterval  time.Duration

	mu           sync.Mutex
	onValidation []ValidationHook
	lastErrors   []validation.Error
}

// Option configures an Editor.
type Option func(e *Editor)

// WithAutosaveDelay overrides the autosave debounce window.
func WithAutosaveDelay(delay time.Duration) Option {
	return func(e *Editor) { e.autosaveDelay = delay }
}

// WithPollInterval overrides the execution status poll interval.
func WithPollInterval(interval time.Duration) Option {
	return func(e *Editor) { e.pollInterval = interval }
}

// New creates an editor over the given playbook. A nil playbook starts a
// fresh unsaved draft. The bus may be nil.
func New(
	playbook *models.Playbook,
	store persistence.Persistence,
	bus eventbus.EventBus,
	notifier notification.Notifier,
	logger *slog.Logger,
	opts ...Option,
) *Editor {
	if playbook == nil {
		playbook = &models.Playbook{Status: models.PlaybookStatusDraft}
	}

	// Save and validation outcomes also go out on the bus so other surfaces
	// (toasts, activity feeds) can subscribe without coupling to the editor.
	if bus != nil {
		notifier = notification.Multi{notifier, notification.NewBusNotifier(bus)}
	}

	editor := &Editor{
		logger:        logger,
		persistence:   store,
		notifier:      notifier,
		playbooks:     services.NewPlaybook(store, bus),
		executions:    services.NewExecution(store, bus),
		autosaveDelay: autosave.DefaultDelay,
		pollInterval:  execution.DefaultPollInterval,
	}

	for _, opt := range opts {
		opt(editor)
	}

	editor.coordinator = autosave.New(store, notifier, logger,
		autosave.WithDelay(editor.autosaveDelay),
		autosave.WithOnSaved(editor.adoptSaved),
	)

	editor.session = canvas.NewSession(playbook, nil, editor.onMutate)

	return editor
}

// Session exposes the canvas interaction state machine.
func (e *Editor) Session() *canvas.Session { return e.session }

// Playbook returns the playbook being edited.
func (e *Editor) Playbook() *models.Playbook { return e.session.Playbook() }

// CanUndo reports whether an undo snapshot is available.
func (e *Editor) CanUndo() bool { return e.session.History().CanUndo() }

// CanRedo reports whether a redo snapshot is available.
func (e *Editor) CanRedo() bool { return e.session.History().CanRedo() }

// Undo restores the previous document state. The restore flows through the
// same mutation pipeline as an edit: re-validate, schedule autosave.
func (e *Editor) Undo() bool { return e.session.Undo() }

// Redo restores the next document state.
func (e *Editor) Redo() bool { return e.session.Redo() }

// OnValidation registers a hook receiving the violation list after every
// mutation.
func (e *Editor) OnValidation(hook ValidationHook) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onValidation = append(e.onValidation, hook)
}

// ValidationErrors returns the violations from the most recent mutation.
func (e *Editor) ValidationErrors() []validation.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]validation.Error(nil), e.lastErrors...)
}

// onMutate runs after every applied graph mutation, including undo and redo
// restores. Draft-grade validation feeds the inline error surface; the
// snapshot goes to the autosave coordinator.
func (e *Editor) onMutate(playbook *models.Playbook) {
	errs := validation.Validate(playbook, false)

	e.mu.Lock()
	e.lastErrors = errs
	hooks := append([]ValidationHook(nil), e.onValidation...)
	e.mu.Unlock()

	for _, hook := range hooks {
		hook(errs)
	}

	e.coordinator.Schedule(playbook)
}

// adoptSaved copies the server-assigned identity back onto the live
// document after a successful autosave, so the next save is an update.
func (e *Editor) adoptSaved(saved *models.Playbook) {
	e.mu.Lock()
	defer e.mu.Unlock()

	playbook := e.session.Playbook()
	if playbook.ID == "" {
		playbook.ID = saved.ID
		playbook.CreatedAt = saved.CreatedAt
	}

	if playbook.ID == saved.ID {
		playbook.Revision = saved.Revision
	}
}

// Save persists the current document immediately, bypassing the debounce
// timer.
func (e *Editor) Save(ctx context.Context) error {
	e.coordinator.Schedule(e.session.Playbook())

	return e.coordinator.Flush(ctx)
}

// Activate saves the document, validates it at activation grade, and
// transitions it to active. Violations come back as an
// *services.InvalidPlaybookError with the full list.
func (e *Editor) Activate(ctx context.Context) (*models.Playbook, error) {
	err := e.Save(ctx)
	if err != nil {
		return nil, err
	}

	activated, err := e.playbooks.Activate(ctx, e.session.Playbook().ID)
	if err != nil {
		return nil, err
	}

	e.session.Playbook().Status = activated.Status
	e.session.Playbook().Revision = activated.Revision

	return activated, nil
}

// Execute starts a run of the edited playbook for one customer and returns a
// tracker following its progress. The caller drives the returned poller,
// typically in a goroutine scoped to the run view.
func (e *Editor) Execute(ctx context.Context, customerID string) (*execution.Tracker, *execution.Poller, error) {
	started, err := e.executions.Execute(ctx, e.session.Playbook().ID, customerID)
	if err != nil {
		return nil, nil, err
	}

	tracker := execution.NewTracker(started, e.logger)
	poller := execution.NewPoller(tracker, e.persistence.ExecutionStatus, e.pollInterval, e.logger)

	return tracker, poller, nil
}

// Load switches the editor to a different playbook. Pending and in-flight
// autosaves for the old record are cancelled so a stale snapshot never lands
// in the new one, and the command history starts fresh.
func (e *Editor) Load(playbook *models.Playbook) {
	e.coordinator.Cancel()

	e.mu.Lock()
	e.lastErrors = nil
	e.mu.Unlock()

	e.session.Load(playbook)
}

// Close releases the editor, discarding any unsaved debounced changes.
func (e *Editor) Close() {
	e.coordinator.Cancel()
}
