package models

import (
	"math"
	"strings"
	"testing"
)

func TestToolReturnPayload(t *testing.T) {
	ret := ToolReturn{
		ToolCallID: "call-1",
		Result: ToolResult{
			Success: true,
			Result:  map[string]any{"messageId": "m-1"},
		},
	}
	payload := ret.Payload()
	if !strings.Contains(payload, `"messageId":"m-1"`) {
		t.Errorf("Payload = %s", payload)
	}
	if !strings.Contains(payload, `"success":true`) {
		t.Errorf("Payload = %s", payload)
	}
}

func TestToolReturnPayloadUnencodable(t *testing.T) {
	ret := ToolReturn{
		ToolCallID: "call-1",
		Result: ToolResult{
			Success: true,
			Result:  map[string]any{"bad": math.Inf(1)},
		},
	}
	payload := ret.Payload()
	if !strings.Contains(payload, "unencodable tool result") {
		t.Errorf("Payload = %s", payload)
	}
}

func TestFailure(t *testing.T) {
	res := Failure("it broke")
	if res.Success {
		t.Error("failure should not be success")
	}
	if res.Error != "it broke" {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		typ  EventType
		want bool
	}{
		{EventStatus, false},
		{EventThinkingStart, false},
		{EventThinkingDelta, false},
		{EventOutputStart, false},
		{EventOutputDelta, false},
		{EventBlockStop, false},
		{EventError, true},
		{EventComplete, true},
	}
	for _, tt := range tests {
		if got := (StreamEvent{Type: tt.typ}).Terminal(); got != tt.want {
			t.Errorf("Terminal(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}
