package models

// EventType identifies one kind of turn event. The set is closed: the engine
// never emits a type outside this list, and consumers ignore unknown types.
type EventType string

const (
	// EventStatus carries a human-readable progress message.
	EventStatus EventType = "status"

	// EventThinkingStart signals the beginning of a reasoning block.
	EventThinkingStart EventType = "thinking_start"

	// EventThinkingDelta carries an incremental piece of reasoning text.
	EventThinkingDelta EventType = "thinking_delta"

	// EventOutputStart signals the beginning of a final-output block.
	EventOutputStart EventType = "output_start"

	// EventOutputDelta carries an incremental piece of final-output text.
	EventOutputDelta EventType = "output_delta"

	// EventBlockStop marks the end of the current content block.
	EventBlockStop EventType = "block_stop"

	// EventError terminates a turn after a round-breaking failure.
	EventError EventType = "error"

	// EventComplete terminates a turn successfully with the accumulated output.
	EventComplete EventType = "complete"
)

// EventData is the payload of a stream event. Which field is populated
// depends on the event type: status and error use Message, the delta events
// use Content, and complete uses Output.
type EventData struct {
	Message string `json:"message,omitempty"`
	Content string `json:"content,omitempty"`
	Output  string `json:"output,omitempty"`
}

// StreamEvent is one logical occurrence in an agent turn, serialized as a
// single SSE frame. Events are strictly ordered as produced and exactly one
// terminal event ends every turn.
type StreamEvent struct {
	Type EventType `json:"type"`
	Data EventData `json:"data"`
}

// Terminal reports whether no further events may follow this one.
func (e StreamEvent) Terminal() bool {
	return e.Type == EventError || e.Type == EventComplete
}
