// Package agent implements the streaming agent-turn protocol: a multi-round
// tool-use conversation with a language model, emitted as an ordered sequence
// of typed stream events.
package agent

import (
	"context"

	"github.com/haasonsaas/dealflow/pkg/models"
)

// StopReason distinguishes why a model round ended. Only StopToolUse
// continues the loop; every other reason is terminal for the turn.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
	StopOther     StopReason = "other"
)

// Provider is the model backend contract. Implementations must be safe for
// concurrent use; each Complete call owns an independent stream.
type Provider interface {
	// Complete sends one completion request and streams the response.
	// The returned channel is closed when the round ends or fails; a failed
	// round delivers exactly one chunk with Err set as its last chunk.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *Chunk, error)

	// Name returns the provider identifier for logging.
	Name() string
}

// CompletionRequest is one model round: the full conversation so far, the
// advertised tool catalog, and the generation budgets.
type CompletionRequest struct {
	System               string
	Messages             []CompletionMessage
	Tools                []Tool
	MaxTokens            int
	ThinkingBudgetTokens int
}

// ThinkingBlock is a completed reasoning block together with its integrity
// signature. When thinking is enabled and a round ends in tool use, the API
// requires the assistant echo to replay its thinking blocks verbatim,
// signature included, ahead of any other content.
type ThinkingBlock struct {
	Text      string
	Signature string
}

// CompletionMessage is a single conversation message. Role is "user" or
// "assistant"; tool returns ride on user messages, thinking blocks and tool
// calls on assistant messages.
type CompletionMessage struct {
	Role        string
	Content     string
	Thinking    []ThinkingBlock
	ToolCalls   []models.ToolCall
	ToolReturns []models.ToolReturn
}

// Chunk is one increment of a streaming model response. Exactly one variant
// field is meaningful per chunk; ThinkingEnd carries the completed signed
// block, Done carries the round's stop reason.
type Chunk struct {
	ThinkingStart bool
	Thinking      string
	ThinkingEnd   bool
	ThinkingBlock *ThinkingBlock
	TextStart     bool
	Text          string
	ToolCall      *models.ToolCall
	Done          bool
	StopReason    StopReason
	Err           error
}
