package google

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const calendarTimeZone = "America/Los_Angeles"

// CreateEventParams is the input of the Calendar insert operation. Times are
// RFC 3339 strings.
type CreateEventParams struct {
	Summary     string
	Description string
	StartTime   string
	EndTime     string
	Attendees   []string
}

// CreateEventResult is the normalized outcome of a Calendar insert.
type CreateEventResult struct {
	Success   bool
	EventID   string
	EventLink string
	Error     string
}

// Slot is one busy interval on the primary calendar.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CreateEvent inserts an event on the primary calendar with a Meet
// conference request and invitations for all attendees.
func (s *Service) CreateEvent(ctx context.Context, params CreateEventParams) CreateEventResult {
	ts, err := s.auth.TokenSource(ctx)
	if err != nil {
		return CreateEventResult{Error: err.Error()}
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return CreateEventResult{Error: fmt.Sprintf("create calendar client: %v", err)}
	}

	event := &calendar.Event{
		Summary:     params.Summary,
		Description: params.Description,
		Start:       &calendar.EventDateTime{DateTime: params.StartTime, TimeZone: calendarTimeZone},
		End:         &calendar.EventDateTime{DateTime: params.EndTime, TimeZone: calendarTimeZone},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             fmt.Sprintf("meet-%d", time.Now().UnixMilli()),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}
	for _, email := range params.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := svc.Events.Insert("primary", event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		s.logger.Warn("calendar insert failed", "summary", params.Summary, "error", err)
		return CreateEventResult{Error: fmt.Sprintf("failed to create event: %v", err)}
	}

	return CreateEventResult{Success: true, EventID: created.Id, EventLink: created.HtmlLink}
}

// GetAvailability lists the busy intervals on the given day. Provider errors
// degrade to an empty list; availability is advisory in the demo.
func (s *Service) GetAvailability(ctx context.Context, date string) []Slot {
	ts, err := s.auth.TokenSource(ctx)
	if err != nil {
		return nil
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		s.logger.Warn("bad availability date", "date", date, "error", err)
		return nil
	}
	startOfDay := day
	endOfDay := day.Add(24*time.Hour - time.Millisecond)

	resp, err := svc.Events.List("primary").
		TimeMin(startOfDay.Format(time.RFC3339)).
		TimeMax(endOfDay.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		s.logger.Warn("calendar list failed", "date", date, "error", err)
		return nil
	}

	slots := make([]Slot, 0, len(resp.Items))
	for _, event := range resp.Items {
		slot := Slot{}
		if event.Start != nil {
			slot.Start = event.Start.DateTime
			if slot.Start == "" {
				slot.Start = event.Start.Date
			}
		}
		if event.End != nil {
			slot.End = event.End.DateTime
			if slot.End == "" {
				slot.End = event.End.Date
			}
		}
		slots = append(slots, slot)
	}
	return slots
}
