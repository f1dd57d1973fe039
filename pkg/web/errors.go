package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	var invalid *services.InvalidPlaybookError

	switch {
	case errors.As(err, &invalid):
		// Activation-grade validation failed. Return the full violation list
		// so the editor can surface every error at once.
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"type":   "invalid_playbook",
			"title":  "Playbook failed validation",
			"status": fiber.StatusUnprocessableEntity,
			"errors": invalid.Errors,
		})

	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err), persistence.IsConflict(err):
		return conflict(c, err.Error())

	case persistence.IsInvalidState(err), persistence.IsValidationFailed(err):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("invalid_state").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case persistence.IsPlaybookNotFound(err):
		return notFound(c, "Playbook not found")

	case persistence.IsExecutionNotFound(err):
		return notFound(c, "Execution not found")

	default:
		return internalError(c, err)
	}
}
