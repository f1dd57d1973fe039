// Package runner walks a playbook's step chain for one execution, evaluating
// guards and condition branches and accumulating per-step results.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cadencehq/cadence/pkg/conditions"
	"github.com/cadencehq/cadence/pkg/models"
)

const (
	stepStatusSuccess = "success"
	stepStatusSkipped = "skipped"
	stepStatusFailed  = "failed"
)

// maxDelay caps how long a delay step may actually sleep in-process. Longer
// waits belong to a durable scheduler, not a request-scoped run.
const maxDelay = 30 * time.Second

// Runner executes playbooks against a customer environment.
type Runner struct {
	evaluator conditions.Evaluator
	logger    *slog.Logger
}

func New(evaluator conditions.Evaluator, logger *slog.Logger) *Runner {
	if evaluator == nil {
		evaluator = conditions.NewExprEvaluator()
	}

	return &Runner{
		evaluator: evaluator,
		logger:    logger,
	}
}

// Run walks the chain from the first step, mutating the execution in place:
// status becomes running on entry and completed or failed on exit, with
// CompletedAt set. env carries the customer facts guards evaluate against.
func (r *Runner) Run(ctx context.Context, playbook *models.Playbook, execution *models.Execution, env map[string]any) error {
	logger := r.logger.With("playbook_id", playbook.ID, "execution_id", execution.ID)
	logger.InfoContext(ctx, "Starting playbook execution", "customer_id", execution.CustomerID)

	execution.Status = models.ExecutionStatusRunning

	if env == nil {
		env = map[string]any{}
	}

	env["customerId"] = execution.CustomerID

	err := r.walk(ctx, playbook, execution, env, logger)

	now := time.Now().UTC()
	execution.CompletedAt = &now

	if err != nil {
		execution.Status = models.ExecutionStatusFailed
		execution.Error = err.Error()
		logger.ErrorContext(ctx, "Playbook execution failed", "error", err)

		return err
	}

	execution.Status = models.ExecutionStatusCompleted
	logger.InfoContext(ctx, "Playbook execution completed", "steps", len(execution.Results))

	return nil
}

func (r *Runner) walk(ctx context.Context, playbook *models.Playbook, execution *models.Execution, env map[string]any, logger *slog.Logger) error {
	if len(playbook.Steps) == 0 {
		return nil
	}

	currentStepID := playbook.Steps[0].StepID

	// Each step has at most one outgoing edge, so any walk longer than the
	// step count has entered a cycle.
	for visits := 0; currentStepID != ""; visits++ {
		if visits >= len(playbook.Steps) {
			return fmt.Errorf("cycle detected at step %s", currentStepID)
		}

		step := playbook.StepByID(currentStepID)
		if step == nil {
			return fmt.Errorf("step %s not found in playbook %s", currentStepID, playbook.ID)
		}

		shouldRun, err := r.evaluator.Evaluate(step.Conditions, env)
		if err != nil {
			return fmt.Errorf("guard for step %s: %w", step.StepID, err)
		}

		if !shouldRun {
			logger.DebugContext(ctx, "Guard evaluated false, skipping step", "step_id", step.StepID)
			execution.Results = append(execution.Results, &models.StepResult{
				StepID:     step.StepID,
				ActionType: step.ActionType,
				Status:     stepStatusSkipped,
				Timestamp:  time.Now().UTC(),
			})

			currentStepID = nextOf(step)

			continue
		}

		next, output, err := r.runStep(ctx, step, env)

		result := &models.StepResult{
			StepID:     step.StepID,
			ActionType: step.ActionType,
			Status:     stepStatusSuccess,
			Output:     output,
			Timestamp:  time.Now().UTC(),
		}

		if err != nil {
			result.Status = stepStatusFailed
			result.Error = err.Error()
			execution.Results = append(execution.Results, result)

			return fmt.Errorf("step %s: %w", step.StepID, err)
		}

		execution.Results = append(execution.Results, result)
		env["lastStep"] = step.StepID

		currentStepID = next
	}

	return nil
}

// runStep performs one step's action and returns the successor step ID.
func (r *Runner) runStep(ctx context.Context, step *models.Step, env map[string]any) (string, map[string]any, error) {
	switch config := step.ActionConfig.(type) {
	case models.ConditionConfig:
		target, err := conditions.SelectBranch(r.evaluator, config, env)
		if err != nil {
			return "", nil, err
		}

		return target, map[string]any{"selected": target}, nil

	case models.DelayConfig:
		err := r.delay(ctx, config)
		if err != nil {
			return "", nil, err
		}

		return nextOf(step), map[string]any{"minutes": config.Minutes}, nil

	case models.EmailConfig:
		return nextOf(step), map[string]any{
			"templateId": config.TemplateID,
			"subject":    config.Subject,
			"recipient":  config.Recipient,
		}, nil

	case models.TaskConfig:
		return nextOf(step), map[string]any{
			"title":    config.Title,
			"assignee": config.Assignee,
		}, nil

	case models.MeetingConfig:
		return nextOf(step), map[string]any{
			"title":           config.Title,
			"durationMinutes": config.DurationMinutes,
		}, nil

	case models.NotificationConfig:
		return nextOf(step), map[string]any{
			"channel": config.Channel,
			"message": config.Message,
		}, nil

	default:
		return "", nil, fmt.Errorf("%w: %q", models.ErrUnknownActionType, step.ActionType)
	}
}

func (r *Runner) delay(ctx context.Context, config models.DelayConfig) error {
	wait := time.Duration(config.Minutes) * time.Minute
	if wait > maxDelay {
		wait = maxDelay
	}

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextOf(step *models.Step) string {
	if step.NextStep == nil {
		return ""
	}

	return *step.NextStep
}
