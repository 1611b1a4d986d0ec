// Package models defines the shared domain and wire types for the dealflow
// demo: tool calls and results, stream events, and the fixed demo script
// content (prospect, emails, transcripts, proposals).
package models

import "encoding/json"

// ToolCall represents the model's request to execute a tool. The ID is the
// correlation identifier that must be echoed back in exactly one ToolReturn
// before the next model round.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is the normalized outcome of a tool invocation. Error is only
// set when Success is false; Result is only set when Success is true.
type ToolResult struct {
	Success bool           `json:"success"`
	Result  map[string]any `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Failure builds an error result from a message.
func Failure(msg string) ToolResult {
	return ToolResult{Success: false, Error: msg}
}

// ToolReturn pairs a normalized tool result with the correlation id of the
// call that produced it, ready to be fed back into the conversation.
type ToolReturn struct {
	ToolCallID string     `json:"tool_call_id"`
	Result     ToolResult `json:"result"`
}

// Payload serializes the result for the model. The model sees the same JSON
// shape for success and failure so it can adapt to tool errors.
func (r ToolReturn) Payload() string {
	data, err := json.Marshal(r.Result)
	if err != nil {
		return `{"success":false,"error":"unencodable tool result"}`
	}
	return string(data)
}
