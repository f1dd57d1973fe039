// Package main provides the Cadence API server implementation.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/cadencehq/cadence/pkg/eventbus"
	"github.com/cadencehq/cadence/pkg/events"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/registry"
	"github.com/cadencehq/cadence/pkg/services"
	"github.com/cadencehq/cadence/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
) (*API, error) {
	reg, err := registry.NewRegistry(logger)
	if err != nil {
		return nil, err
	}

	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    reg,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (a *API) App() *fiber.App {
	playbookService := services.NewPlaybook(a.persistence, a.eventBus)
	executionService := services.NewExecution(a.persistence, a.eventBus)

	handlers := web.NewAPIHandlers(playbookService, executionService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Cadence API")
	})

	p := app.Group("/playbooks")
	p.Get("/", handlers.GetPlaybooks)
	p.Post("/", handlers.CreatePlaybook)
	p.Get("/:id", handlers.GetPlaybook)
	p.Patch("/:id", handlers.UpdatePlaybook)
	p.Delete("/:id", handlers.DeletePlaybook)
	p.Post("/:id/activate", handlers.ActivatePlaybook)
	p.Post("/:id/archive", handlers.ArchivePlaybook)
	p.Get("/:id/validate", handlers.ValidatePlaybook)
	p.Post("/:id/execute", handlers.ExecutePlaybook)
	p.Get("/:id/executions", handlers.GetExecutions)

	app.Get("/executions/:executionId", handlers.GetExecution)
	app.Get("/action-types", handlers.GetActionTypes)

	app.Get("/health", handlers.HealthCheck)

	return app
}

// SubscribeEvents starts the in-process event loop, logging playbook
// lifecycle events as an activity feed until the context is cancelled.
func (a *API) SubscribeEvents(ctx context.Context) error {
	a.eventBus.Handle(events.PlaybookActivatedEvent, a.logEvent("Playbook activated"))
	a.eventBus.Handle(events.PlaybookArchivedEvent, a.logEvent("Playbook archived"))
	a.eventBus.Handle(events.ExecutionStartedEvent, a.logEvent("Execution started"))
	a.eventBus.Handle(events.ValidationFailedEvent, a.logEvent("Playbook validation failed"))

	return a.eventBus.Subscribe(ctx)
}

func (a *API) logEvent(message string) eventbus.EventHandler {
	return func(ctx context.Context, payload []byte) error {
		var event events.BaseEvent

		err := json.Unmarshal(payload, &event)
		if err != nil {
			return err
		}

		a.logger.InfoContext(ctx, message, "playbook_id", event.PlaybookID, "event_id", event.ID)

		return nil
	}
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
