// Package canvas implements the node-canvas interaction state machine of the
// playbook editor: selection, in-progress connection drawing, pan/zoom, and
// keyboard-driven node navigation. Mutation-producing transitions record a
// command-history snapshot before touching the graph and report the applied
// change through the session's mutation hook; non-mutating transitions touch
// neither.
package canvas

import (
	"errors"
	"fmt"

	"github.com/cadencehq/cadence/pkg/history"
	"github.com/cadencehq/cadence/pkg/models"
)

// Zoom bounds and the increment applied per discrete zoom action. Requests
// beyond a bound are silently clamped.
const (
	MinZoom  = 0.5
	MaxZoom  = 2.0
	ZoomStep = 0.1
)

var (
	// ErrStepNotFound is returned when an interaction targets a step that is
	// not part of the playbook.
	ErrStepNotFound = errors.New("step not found")

	// ErrDuplicateStep is returned when adding a step whose ID already exists.
	ErrDuplicateStep = errors.New("step already exists")

	// ErrNoConnection is returned when completing a connection that was never
	// started.
	ErrNoConnection = errors.New("no connection in progress")

	// ErrConfigMismatch is returned when a step config update carries a
	// variant that does not match the step's action type.
	ErrConfigMismatch = errors.New("action config does not match step action type")
)

// ConnectionDraw is the in-progress state of a connection drag, from the
// source step's output connector to the current pointer position.
type ConnectionDraw struct {
	FromStepID string
	PointerX   float64
	PointerY   float64
}

// MutationHook observes every applied graph mutation (including undo/redo
// restores). The editor uses it to re-validate and schedule autosave.
type MutationHook func(playbook *models.Playbook)

type dragState struct {
	stepID   string
	recorded bool
	moved    bool
}

// Session is one editing session over a single playbook. It owns the live
// playbook instance; the command history only ever holds copies.
//
// All methods are intended for the UI event loop: a session is not safe for
// concurrent use.
type Session struct {
	playbook *models.Playbook
	history  *history.History
	onMutate MutationHook

	selection string
	focus     string
	drawing   *ConnectionDraw
	drag      *dragState

	zoom float64
	panX float64
	panY float64
}

// NewSession creates a session over the given playbook. The hook may be nil.
func NewSession(playbook *models.Playbook, hist *history.History, onMutate MutationHook) *Session {
	if hist == nil {
		hist = history.New()
	}

	return &Session{
		playbook: playbook,
		history:  hist,
		onMutate: onMutate,
		zoom:     1.0,
	}
}

// Playbook returns the live playbook owned by this session.
func (s *Session) Playbook() *models.Playbook { return s.playbook }

// History returns the session's command history.
func (s *Session) History() *history.History { return s.history }

// Load replaces the edited playbook, clearing all interaction state and the
// command history. Used when the editor switches to a different record.
func (s *Session) Load(playbook *models.Playbook) {
	s.playbook = playbook
	s.history.Reset()
	s.selection = ""
	s.focus = ""
	s.drawing = nil
	s.drag = nil
}

// --- Selection ---

// Select marks a step as selected. Selecting is not a graph mutation.
func (s *Session) Select(stepID string) error {
	if !s.playbook.HasStep(stepID) {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	s.selection = stepID
	s.focus = stepID

	return nil
}

// ClearSelection clears the selection, e.g. on canvas background click.
func (s *Session) ClearSelection() {
	s.selection = ""
}

// Selection returns the selected step ID, if any.
func (s *Session) Selection() (string, bool) {
	return s.selection, s.selection != ""
}

// --- Connection drawing ---

// BeginConnection enters the drawing state from a step's output connector.
func (s *Session) BeginConnection(fromStepID string) error {
	if !s.playbook.HasStep(fromStepID) {
		return fmt.Errorf("%w: %s", ErrStepNotFound, fromStepID)
	}

	s.drawing = &ConnectionDraw{FromStepID: fromStepID}

	return nil
}

// MovePointer updates the pointer position of an in-progress draw. A no-op
// when nothing is being drawn; never a mutation.
func (s *Session) MovePointer(x, y float64) {
	if s.drawing == nil {
		return
	}

	s.drawing.PointerX = x
	s.drawing.PointerY = y
}

// Drawing returns the in-progress connection draw, if any.
func (s *Session) Drawing() (ConnectionDraw, bool) {
	if s.drawing == nil {
		return ConnectionDraw{}, false
	}

	return *s.drawing, true
}

// CompleteConnection finishes a draw over the target step's body. Dropping on
// the source step itself, or on a step that no longer exists, discards the
// draw without a mutation or a history entry.
func (s *Session) CompleteConnection(targetStepID string) error {
	if s.drawing == nil {
		return ErrNoConnection
	}

	from := s.drawing.FromStepID
	s.drawing = nil

	if targetStepID == from || !s.playbook.HasStep(targetStepID) {
		return nil
	}

	return s.ConnectSteps(from, targetStepID)
}

// CancelConnection discards an in-progress draw, e.g. pointer-up over empty
// canvas.
func (s *Session) CancelConnection() {
	s.drawing = nil
}

// --- Pan / zoom ---

// ZoomIn applies one zoom increment, clamped at MaxZoom.
func (s *Session) ZoomIn() float64 {
	return s.setZoom(s.zoom + ZoomStep)
}

// ZoomOut applies one zoom decrement, clamped at MinZoom.
func (s *Session) ZoomOut() float64 {
	return s.setZoom(s.zoom - ZoomStep)
}

func (s *Session) setZoom(zoom float64) float64 {
	if zoom > MaxZoom {
		zoom = MaxZoom
	}

	if zoom < MinZoom {
		zoom = MinZoom
	}

	s.zoom = zoom

	return s.zoom
}

// Zoom returns the current zoom level.
func (s *Session) Zoom() float64 { return s.zoom }

// PanBy shifts the canvas offset. Pan is unconstrained and never a mutation.
func (s *Session) PanBy(dx, dy float64) {
	s.panX += dx
	s.panY += dy
}

// Pan returns the current canvas offset.
func (s *Session) Pan() (float64, float64) { return s.panX, s.panY }

// --- Mutations ---

// mutate runs one discrete user action against the graph: snapshot to
// history, apply, bump the modification timestamp, then report through the
// hook. Callers must have checked preconditions already; apply cannot fail.
func (s *Session) mutate(apply func(playbook *models.Playbook)) {
	s.history.Record(s.playbook)
	apply(s.playbook)
	s.playbook.Touch()
	s.notify()
}

func (s *Session) notify() {
	if s.onMutate != nil {
		s.onMutate(s.playbook)
	}
}

// AddStep appends a new step to the graph.
func (s *Session) AddStep(step *models.Step) error {
	if step == nil || step.StepID == "" {
		return fmt.Errorf("%w: empty step ID", ErrStepNotFound)
	}

	if s.playbook.HasStep(step.StepID) {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, step.StepID)
	}

	s.mutate(func(playbook *models.Playbook) {
		playbook.Steps = append(playbook.Steps, step)
	})

	return nil
}

// ConnectSteps points the source step's outgoing edge at the target. The
// graph model permits a self-edge here; validation reports it rather than the
// interaction layer rejecting it, so the draft stays editable.
func (s *Session) ConnectSteps(fromStepID, toStepID string) error {
	step := s.playbook.StepByID(fromStepID)
	if step == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, fromStepID)
	}

	s.mutate(func(*models.Playbook) {
		target := toStepID
		step.NextStep = &target
	})

	return nil
}

// ClearNextStep removes the step's outgoing edge, making it terminal.
func (s *Session) ClearNextStep(stepID string) error {
	step := s.playbook.StepByID(stepID)
	if step == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	s.mutate(func(*models.Playbook) {
		step.NextStep = nil
	})

	return nil
}

// DeleteStep removes a step and clears every edge pointing at it, so a
// delete never introduces dangling references.
func (s *Session) DeleteStep(stepID string) error {
	if !s.playbook.HasStep(stepID) {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	s.mutate(func(playbook *models.Playbook) {
		steps := make([]*models.Step, 0, len(playbook.Steps)-1)

		for _, step := range playbook.Steps {
			if step.StepID == stepID {
				continue
			}

			if step.NextStep != nil && *step.NextStep == stepID {
				step.NextStep = nil
			}

			if config, ok := step.ActionConfig.(models.ConditionConfig); ok {
				step.ActionConfig = dropBranchTarget(config, stepID)
			}

			steps = append(steps, step)
		}

		playbook.Steps = steps
	})

	if s.selection == stepID {
		s.selection = ""
	}

	if s.focus == stepID {
		s.focus = ""
	}

	return nil
}

func dropBranchTarget(config models.ConditionConfig, stepID string) models.ConditionConfig {
	branches := make([]models.Branch, 0, len(config.Branches))

	for _, branch := range config.Branches {
		if branch.Target != stepID {
			branches = append(branches, branch)
		}
	}

	config.Branches = branches

	if config.Default != nil && *config.Default == stepID {
		config.Default = nil
	}

	return config
}

// MoveStep repositions a step as a single discrete action. Continuous drags
// should go through BeginDrag/DragTo/EndDrag so the gesture collapses into
// one history entry.
func (s *Session) MoveStep(stepID string, x, y float64) error {
	step := s.playbook.StepByID(stepID)
	if step == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	s.mutate(func(*models.Playbook) {
		step.PositionX = x
		step.PositionY = y
	})

	return nil
}

// BeginDrag starts a continuous move gesture on a step.
func (s *Session) BeginDrag(stepID string) error {
	if !s.playbook.HasStep(stepID) {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	s.drag = &dragState{stepID: stepID}

	return nil
}

// DragTo moves the dragged step. The pre-gesture snapshot is recorded once,
// on the first movement; intermediate positions produce no further history
// entries and no autosave traffic.
func (s *Session) DragTo(x, y float64) {
	if s.drag == nil {
		return
	}

	step := s.playbook.StepByID(s.drag.stepID)
	if step == nil {
		s.drag = nil

		return
	}

	if !s.drag.recorded {
		s.history.Record(s.playbook)
		s.drag.recorded = true
	}

	step.PositionX = x
	step.PositionY = y
	s.drag.moved = true
}

// EndDrag finishes the gesture. If the step actually moved, the whole drag
// counts as one mutation.
func (s *Session) EndDrag() {
	drag := s.drag
	s.drag = nil

	if drag == nil || !drag.moved {
		return
	}

	s.playbook.Touch()
	s.notify()
}

// UpdateStepConfig replaces a step's action config. The variant must match
// the step's action type; the union stays consistent by construction.
func (s *Session) UpdateStepConfig(stepID string, config models.ActionConfig) error {
	step := s.playbook.StepByID(stepID)
	if step == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	if config != nil && config.ActionType() != step.ActionType {
		return fmt.Errorf("%w: step %s is %q, config is %q",
			ErrConfigMismatch, stepID, step.ActionType, config.ActionType())
	}

	s.mutate(func(*models.Playbook) {
		step.ActionConfig = config
	})

	return nil
}

// SetStepConditions sets a step's guard expression.
func (s *Session) SetStepConditions(stepID, expression string) error {
	step := s.playbook.StepByID(stepID)
	if step == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	s.mutate(func(*models.Playbook) {
		step.Conditions = expression
	})

	return nil
}

// Rename sets the playbook name.
func (s *Session) Rename(name string) {
	s.mutate(func(playbook *models.Playbook) {
		playbook.Name = name
	})
}

// SetDescription sets the playbook description.
func (s *Session) SetDescription(description string) {
	s.mutate(func(playbook *models.Playbook) {
		playbook.Description = description
	})
}

// SetTrigger sets the trigger type and its parameters.
func (s *Session) SetTrigger(triggerType models.TriggerType, conditions *models.TriggerConditions) {
	s.mutate(func(playbook *models.Playbook) {
		playbook.TriggerType = triggerType
		playbook.TriggerConditions = conditions
	})
}

// --- Undo / redo ---

// Undo restores the previous snapshot. The restore is reported through the
// mutation hook (the document changed and needs re-validation and a save)
// but is not itself recorded. Returns false on an empty stack.
func (s *Session) Undo() bool {
	snapshot := s.history.Undo(s.playbook)
	if snapshot == nil {
		return false
	}

	s.restore(snapshot)

	return true
}

// Redo restores the next snapshot, symmetric to Undo.
func (s *Session) Redo() bool {
	snapshot := s.history.Redo(s.playbook)
	if snapshot == nil {
		return false
	}

	s.restore(snapshot)

	return true
}

func (s *Session) restore(snapshot *models.Playbook) {
	s.playbook = snapshot
	s.drawing = nil
	s.drag = nil

	if s.selection != "" && !s.playbook.HasStep(s.selection) {
		s.selection = ""
	}

	if s.focus != "" && !s.playbook.HasStep(s.focus) {
		s.focus = ""
	}

	s.notify()
}
