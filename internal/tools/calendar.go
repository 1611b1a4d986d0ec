package tools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/dealflow/internal/google"
	"github.com/haasonsaas/dealflow/pkg/models"
)

// CreateCalendarEvent is the Calendar event-creation tool.
type CreateCalendarEvent struct {
	creator EventCreator
}

// NewCreateCalendarEvent creates the tool over the given creator.
func NewCreateCalendarEvent(creator EventCreator) *CreateCalendarEvent {
	return &CreateCalendarEvent{creator: creator}
}

// Name implements agent.Tool.
func (t *CreateCalendarEvent) Name() string { return "create_calendar_event" }

// Description implements agent.Tool.
func (t *CreateCalendarEvent) Description() string {
	return "Create a Google Calendar event with optional attendees"
}

// Schema implements agent.Tool.
func (t *CreateCalendarEvent) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"summary": {"type": "string", "description": "Event title"},
			"description": {"type": "string", "description": "Event description/agenda"},
			"start_time": {"type": "string", "description": "Start time in ISO format (e.g., 2026-01-20T10:00:00-08:00)"},
			"end_time": {"type": "string", "description": "End time in ISO format"},
			"attendees": {
				"type": "array",
				"items": {"type": "string"},
				"description": "List of attendee email addresses"
			}
		},
		"required": ["summary", "start_time", "end_time"]
	}`)
}

// Execute implements agent.Tool.
func (t *CreateCalendarEvent) Execute(ctx context.Context, input json.RawMessage) (models.ToolResult, error) {
	var params struct {
		Summary     string   `json:"summary"`
		Description string   `json:"description"`
		StartTime   string   `json:"start_time"`
		EndTime     string   `json:"end_time"`
		Attendees   []string `json:"attendees"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return models.ToolResult{}, err
	}

	res := t.creator.CreateEvent(ctx, google.CreateEventParams{
		Summary:     params.Summary,
		Description: params.Description,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		Attendees:   params.Attendees,
	})
	if !res.Success {
		return models.Failure(res.Error), nil
	}

	result := models.ToolResult{Success: true}
	if res.EventLink != "" || res.EventID != "" {
		result.Result = map[string]any{
			"eventLink": res.EventLink,
			"eventId":   res.EventID,
		}
	}
	return result, nil
}
