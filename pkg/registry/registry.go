// Package registry holds the JSON schemas describing each step action
// config. The web layer validates incoming raw configs against them before a
// step ever reaches the graph model.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/cadencehq/cadence/pkg/models"
)

// Registry maps action types to their compiled config schemas.
type Registry struct {
	logger  *slog.Logger
	schemas map[models.ActionType]*gojsonschema.Schema
}

// NewRegistry creates a registry with every built-in action type registered.
func NewRegistry(logger *slog.Logger) (*Registry, error) {
	registry := &Registry{
		logger:  logger,
		schemas: make(map[models.ActionType]*gojsonschema.Schema),
	}

	for actionType, schemaJSON := range builtinSchemas() {
		err := registry.register(actionType, schemaJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to register schema for %q: %w", actionType, err)
		}
	}

	return registry, nil
}

func (r *Registry) register(actionType models.ActionType, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return err
	}

	r.schemas[actionType] = schema

	return nil
}

// ActionTypes returns the registered action types in stable order.
func (r *Registry) ActionTypes() []models.ActionType {
	types := make([]models.ActionType, 0, len(r.schemas))
	for actionType := range r.schemas {
		types = append(types, actionType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// ValidateConfig checks a raw action config against the schema for its
// action type. An unknown action type is itself a validation failure.
func (r *Registry) ValidateConfig(actionType models.ActionType, rawConfig json.RawMessage) error {
	schema, ok := r.schemas[actionType]
	if !ok {
		return fmt.Errorf("%w: %q", models.ErrUnknownActionType, actionType)
	}

	if len(rawConfig) == 0 {
		rawConfig = json.RawMessage("{}")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(rawConfig))
	if err != nil {
		return fmt.Errorf("failed to validate %q config: %w", actionType, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, resultError := range result.Errors() {
		details = append(details, resultError.String())
	}

	return fmt.Errorf("invalid %q config: %s", actionType, strings.Join(details, "; "))
}

// HealthCheck reports whether the registry is usable.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.schemas) == 0 {
		return "No action schemas registered", false
	}

	return fmt.Sprintf("%d action schemas registered", len(r.schemas)), true
}
