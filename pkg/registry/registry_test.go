package registry_test

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/registry"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg, err := registry.NewRegistry(slog.Default())
	require.NoError(t, err)

	return reg
}

func TestRegistry_RegistersAllActionTypes(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)

	assert.Equal(t, []models.ActionType{
		models.ActionTypeCondition,
		models.ActionTypeDelay,
		models.ActionTypeEmail,
		models.ActionTypeMeeting,
		models.ActionTypeNotification,
		models.ActionTypeTask,
	}, reg.ActionTypes())

	message, ok := reg.HealthCheck()
	assert.True(t, ok)
	assert.Contains(t, message, "6")
}

func TestRegistry_ValidateConfig(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)

	tests := []struct {
		name       string
		actionType models.ActionType
		config     string
		wantErr    bool
	}{
		{
			name:       "valid task config",
			actionType: models.ActionTypeTask,
			config:     `{"title": "Call customer", "dueInDays": 3}`,
		},
		{
			name:       "task missing title",
			actionType: models.ActionTypeTask,
			config:     `{"dueInDays": 3}`,
			wantErr:    true,
		},
		{
			name:       "notification requires channel and message",
			actionType: models.ActionTypeNotification,
			config:     `{"channel": "csm"}`,
			wantErr:    true,
		},
		{
			name:       "delay minutes must be an integer",
			actionType: models.ActionTypeDelay,
			config:     `{"minutes": "sixty"}`,
			wantErr:    true,
		},
		{
			name:       "condition branches required",
			actionType: models.ActionTypeCondition,
			config:     `{"default": "x"}`,
			wantErr:    true,
		},
		{
			name:       "valid condition config",
			actionType: models.ActionTypeCondition,
			config:     `{"branches": [{"label": "high", "target": "escalate", "when": "riskScore > 70"}]}`,
		},
		{
			name:       "unknown fields rejected",
			actionType: models.ActionTypeEmail,
			config:     `{"templateId": "welcome", "cc": "boss@example.com"}`,
			wantErr:    true,
		},
		{
			name:       "empty email config is fine",
			actionType: models.ActionTypeEmail,
			config:     ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := reg.ValidateConfig(tt.actionType, json.RawMessage(tt.config))

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_UnknownActionType(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)

	err := reg.ValidateConfig("webhook", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownActionType)
}
