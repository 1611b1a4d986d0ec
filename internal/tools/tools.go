// Package tools implements the demo's tool catalog: send_email,
// search_drive, and create_calendar_event. Each tool narrows its JSON input
// to the collaborator's shape and maps the collaborator's result into the
// normalized tool result; semantic validation beyond required fields is left
// to the collaborator.
package tools

import (
	"context"

	"github.com/haasonsaas/dealflow/internal/agent"
	"github.com/haasonsaas/dealflow/internal/google"
)

// EmailSender sends an email on behalf of the authenticated user.
type EmailSender interface {
	SendEmail(ctx context.Context, params google.SendEmailParams) google.SendEmailResult
}

// FileSearcher looks up files by name.
type FileSearcher interface {
	SearchFiles(ctx context.Context, query string) ([]google.DriveFile, error)
}

// EventCreator creates a calendar event.
type EventCreator interface {
	CreateEvent(ctx context.Context, params google.CreateEventParams) google.CreateEventResult
}

// Catalog builds the full demo tool set over one collaborator bundle.
func Catalog(svc *google.Service) []agent.Tool {
	return []agent.Tool{
		NewSendEmail(svc),
		NewSearchDrive(svc),
		NewCreateCalendarEvent(svc),
	}
}
