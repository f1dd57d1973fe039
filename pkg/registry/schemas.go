package registry

import "github.com/cadencehq/cadence/pkg/models"

// builtinSchemas returns the config schema source for each built-in action
// type. Schemas are intentionally permissive about optional fields; they
// exist to catch shape errors (wrong types, missing required keys), not to
// duplicate the validation engine's graph rules.
func builtinSchemas() map[models.ActionType]string {
	return map[models.ActionType]string{
		models.ActionTypeEmail: `{
			"type": "object",
			"properties": {
				"templateId": {"type": "string"},
				"subject": {"type": "string"},
				"body": {"type": "string"},
				"recipient": {"type": "string"}
			},
			"additionalProperties": false
		}`,

		models.ActionTypeTask: `{
			"type": "object",
			"properties": {
				"title": {"type": "string", "minLength": 1},
				"description": {"type": "string"},
				"assignee": {"type": "string"},
				"dueInDays": {"type": "integer", "minimum": 0}
			},
			"required": ["title"],
			"additionalProperties": false
		}`,

		models.ActionTypeMeeting: `{
			"type": "object",
			"properties": {
				"title": {"type": "string", "minLength": 1},
				"durationMinutes": {"type": "integer", "minimum": 1},
				"agenda": {"type": "string"}
			},
			"required": ["title"],
			"additionalProperties": false
		}`,

		models.ActionTypeNotification: `{
			"type": "object",
			"properties": {
				"channel": {"type": "string", "minLength": 1},
				"message": {"type": "string", "minLength": 1}
			},
			"required": ["channel", "message"],
			"additionalProperties": false
		}`,

		models.ActionTypeCondition: `{
			"type": "object",
			"properties": {
				"branches": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {
							"label": {"type": "string", "minLength": 1},
							"target": {"type": "string", "minLength": 1},
							"when": {"type": "string"}
						},
						"required": ["label", "target"],
						"additionalProperties": false
					}
				},
				"default": {"type": "string"}
			},
			"required": ["branches"],
			"additionalProperties": false
		}`,

		models.ActionTypeDelay: `{
			"type": "object",
			"properties": {
				"minutes": {"type": "integer", "minimum": 0}
			},
			"required": ["minutes"],
			"additionalProperties": false
		}`,
	}
}
