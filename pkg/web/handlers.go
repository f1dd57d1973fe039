// Package web provides HTTP handlers and REST API endpoints for playbook
// management.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/registry"
	"github.com/cadencehq/cadence/pkg/services"
	"github.com/cadencehq/cadence/pkg/validation"
)

type APIHandlers struct {
	playbookService  *services.Playbook
	executionService *services.Execution
	validator        *validator.Validate
	registry         *registry.Registry
}

func NewAPIHandlers(
	playbookService *services.Playbook,
	executionService *services.Execution,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		playbookService:  playbookService,
		executionService: executionService,
		validator:        validator,
		registry:         registry,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.playbookService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Cadence API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Cadence API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetPlaybooks(c fiber.Ctx) error {
	playbooks, err := h.playbookService.FetchAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"playbooks": playbooks,
		"count":     len(playbooks),
	})
}

func (h *APIHandlers) GetPlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	playbook, err := h.playbookService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(playbook)
}

func (h *APIHandlers) CreatePlaybook(c fiber.Ctx) error {
	var req CreatePlaybookRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	steps, err := h.buildSteps(req.Steps)
	if err != nil {
		return badRequest(c, err.Error())
	}

	playbook := &models.Playbook{
		Name:              req.Name,
		Description:       req.Description,
		TriggerType:       req.TriggerType,
		TriggerConditions: req.TriggerConditions,
		Steps:             steps,
		Status:            models.PlaybookStatusDraft,
	}

	created, err := h.playbookService.Create(c.Context(), playbook)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdatePlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	var req UpdatePlaybookRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.playbookService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.TriggerType != nil {
		existing.TriggerType = *req.TriggerType
	}

	if req.TriggerConditions != nil {
		existing.TriggerConditions = req.TriggerConditions
	}

	if req.Steps != nil {
		steps, err := h.buildSteps(req.Steps)
		if err != nil {
			return badRequest(c, err.Error())
		}

		existing.Steps = steps
	}

	existing.Revision = req.Revision

	updated, err := h.playbookService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeletePlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	err := h.playbookService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivatePlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	activated, err := h.playbookService.Activate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(activated)
}

func (h *APIHandlers) ArchivePlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	archived, err := h.playbookService.Archive(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(archived)
}

// ValidatePlaybook runs the validation engine without persisting anything.
// Pass strict=true for the activation-grade rule set.
func (h *APIHandlers) ValidatePlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	strict := true

	if strictStr := c.Query("strict"); strictStr != "" {
		parsed, err := strconv.ParseBool(strictStr)
		if err != nil {
			return badRequest(c, "Invalid strict parameter: "+err.Error())
		}

		strict = parsed
	}

	playbook, err := h.playbookService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	errs := h.playbookService.Validate(playbook, strict)
	if errs == nil {
		errs = []validation.Error{}
	}

	return c.JSON(ValidationResponse{
		Valid:  len(errs) == 0,
		Errors: errs,
	})
}

func (h *APIHandlers) ExecutePlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	var req ExecuteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.executionService.Execute(c.Context(), id, req.CustomerID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(execution)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("executionId")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.executionService.Status(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	executions, err := h.executionService.ListByPlaybook(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions": executions,
		"count":      len(executions),
	})
}

// GetActionTypes lists the registered step action types.
func (h *APIHandlers) GetActionTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"actionTypes": h.registry.ActionTypes(),
	})
}

// buildSteps validates each raw config against its action type schema and
// decodes the typed union.
func (h *APIHandlers) buildSteps(requests []StepRequest) ([]*models.Step, error) {
	steps := make([]*models.Step, 0, len(requests))

	for _, request := range requests {
		err := h.registry.ValidateConfig(request.ActionType, request.ActionConfig)
		if err != nil {
			return nil, err
		}

		step, err := request.ToModel()
		if err != nil {
			return nil, err
		}

		steps = append(steps, step)
	}

	return steps, nil
}
