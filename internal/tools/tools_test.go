package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/dealflow/internal/google"
)

type fakeSender struct {
	got    google.SendEmailParams
	result google.SendEmailResult
}

func (f *fakeSender) SendEmail(ctx context.Context, params google.SendEmailParams) google.SendEmailResult {
	f.got = params
	return f.result
}

type fakeSearcher struct {
	got   string
	files []google.DriveFile
	err   error
}

func (f *fakeSearcher) SearchFiles(ctx context.Context, query string) ([]google.DriveFile, error) {
	f.got = query
	return f.files, f.err
}

type fakeCreator struct {
	got    google.CreateEventParams
	result google.CreateEventResult
}

func (f *fakeCreator) CreateEvent(ctx context.Context, params google.CreateEventParams) google.CreateEventResult {
	f.got = params
	return f.result
}

func TestSendEmailExecute(t *testing.T) {
	sender := &fakeSender{result: google.SendEmailResult{Success: true, MessageID: "m-42"}}
	tool := NewSendEmail(sender)

	input := json.RawMessage(`{"to":"marcus.chen@acmecorp.com","subject":"Hello","body":"Hi Marcus"}`)
	result, err := tool.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.Result["messageId"] != "m-42" {
		t.Errorf("messageId = %v", result.Result["messageId"])
	}
	if sender.got.To != "marcus.chen@acmecorp.com" || sender.got.Subject != "Hello" {
		t.Errorf("params = %+v", sender.got)
	}
}

func TestSendEmailFailureBecomesResult(t *testing.T) {
	sender := &fakeSender{result: google.SendEmailResult{Error: "not authenticated with Google"}}
	tool := NewSendEmail(sender)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"to":"a@b.c","subject":"s","body":"b"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success {
		t.Fatal("failed send should not succeed")
	}
	if result.Error != "not authenticated with Google" {
		t.Errorf("Error = %q", result.Error)
	}
}

func TestSearchDriveExecute(t *testing.T) {
	searcher := &fakeSearcher{files: []google.DriveFile{
		{ID: "1", Name: "Distribution Pro Case Study"},
		{ID: "2", Name: "NetSuite Integration Specs"},
	}}
	tool := NewSearchDrive(searcher)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"query":"case study"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.Result["count"] != 2 {
		t.Errorf("count = %v", result.Result["count"])
	}
	if searcher.got != "case study" {
		t.Errorf("query = %q", searcher.got)
	}
}

func TestCreateCalendarEventExecute(t *testing.T) {
	creator := &fakeCreator{result: google.CreateEventResult{
		Success:   true,
		EventID:   "ev-1",
		EventLink: "https://calendar.google.com/event?eid=ev-1",
	}}
	tool := NewCreateCalendarEvent(creator)

	input := json.RawMessage(`{
		"summary": "InventoryAI <> Acme Corp - Discovery Call",
		"start_time": "2026-01-15T10:00:00-08:00",
		"end_time": "2026-01-15T10:30:00-08:00",
		"attendees": ["marcus.chen@acmecorp.com"]
	}`)
	result, err := tool.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.Result["eventId"] != "ev-1" {
		t.Errorf("eventId = %v", result.Result["eventId"])
	}
	if len(creator.got.Attendees) != 1 || creator.got.Attendees[0] != "marcus.chen@acmecorp.com" {
		t.Errorf("attendees = %v", creator.got.Attendees)
	}
}

func TestCatalogNamesMatchSchemas(t *testing.T) {
	for _, tool := range Catalog(nil) {
		var schema map[string]any
		if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
			t.Errorf("tool %s schema is not valid JSON: %v", tool.Name(), err)
		}
		if schema["type"] != "object" {
			t.Errorf("tool %s schema type = %v", tool.Name(), schema["type"])
		}
		if tool.Description() == "" {
			t.Errorf("tool %s missing description", tool.Name())
		}
	}
}
