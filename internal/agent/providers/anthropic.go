// Package providers implements model backends for the dealflow agent engine.
//
// The Anthropic provider streams Server-Sent Events from the Messages API and
// converts them into agent.Chunk values: thinking block boundaries and
// deltas, text deltas, assembled tool calls, and the round's stop reason.
// Model failures surface as a single error chunk; the engine treats them as
// terminal for the turn, so the provider performs no retries of its own.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/haasonsaas/dealflow/internal/agent"
	"github.com/haasonsaas/dealflow/pkg/models"
)

// maxEmptyStreamEvents bounds consecutive no-op events before the stream is
// treated as malformed, protecting against a flood of empty frames.
const maxEmptyStreamEvents = 300

// AnthropicConfig holds construction parameters for the Anthropic provider.
type AnthropicConfig struct {
	// APIKey is required.
	APIKey string

	// BaseURL overrides the default API endpoint, mainly for tests.
	BaseURL string

	// Model is the model ID used for every request.
	// Default: "claude-sonnet-4-20250514".
	Model string
}

// AnthropicProvider implements agent.Provider for Anthropic's Messages API.
// It is safe for concurrent use; each Complete call owns an independent
// stream and goroutine.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider validates the configuration and builds a provider.
func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if config.Model == "" {
		config.Model = "claude-sonnet-4-20250514"
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if strings.TrimSpace(config.BaseURL) != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(options...),
		model:  config.Model,
	}, nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Complete sends one completion round and streams the response. The returned
// channel is closed when the round ends; a failing round delivers exactly one
// chunk with Err set as its last chunk.
func (p *AnthropicProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.Chunk, error) {
	stream, err := p.createStream(ctx, req)
	if err != nil {
		return nil, err
	}

	chunks := make(chan *agent.Chunk)
	go func() {
		defer close(chunks)
		p.processStream(stream, chunks)
	}()
	return chunks, nil
}

func (p *AnthropicProvider) createStream(ctx context.Context, req *agent.CompletionRequest) (*ssestream.Stream[anthropic.MessageStreamEventUnion], error) {
	messages, err := convertMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("anthropic: failed to convert messages: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  messages,
		MaxTokens: int64(req.MaxTokens),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: req.System,
			},
		}
	}

	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("anthropic: failed to convert tools: %w", err)
		}
		params.Tools = tools
	}

	if req.ThinkingBudgetTokens > 0 {
		budget := int64(req.ThinkingBudgetTokens)
		if budget < 1024 {
			budget = 1024
		}
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
	}

	return p.client.Messages.NewStreaming(ctx, params), nil
}

// processStream converts Anthropic SSE events into agent chunks. Tool calls
// arrive across multiple events (block start with id/name, input JSON deltas,
// block stop) and are assembled before a single ToolCall chunk is sent.
func (p *AnthropicProvider) processStream(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], chunks chan<- *agent.Chunk) {
	var currentToolCall *models.ToolCall
	var currentToolInput strings.Builder
	var thinkingText strings.Builder
	var thinkingSig strings.Builder
	inThinkingBlock := false
	emptyEventCount := 0
	stopReason := agent.StopOther

	for stream.Next() {
		event := stream.Current()
		eventProcessed := false

		switch event.Type {
		case "message_start":
			eventProcessed = true

		case "content_block_start":
			contentBlockStart := event.AsContentBlockStart()
			switch contentBlockStart.ContentBlock.Type {
			case "thinking":
				inThinkingBlock = true
				thinkingText.Reset()
				thinkingSig.Reset()
				chunks <- &agent.Chunk{ThinkingStart: true}
				eventProcessed = true
			case "text":
				chunks <- &agent.Chunk{TextStart: true}
				eventProcessed = true
			case "tool_use":
				toolUse := contentBlockStart.ContentBlock.AsToolUse()
				currentToolCall = &models.ToolCall{
					ID:   toolUse.ID,
					Name: toolUse.Name,
				}
				currentToolInput.Reset()
				eventProcessed = true
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					chunks <- &agent.Chunk{Text: delta.Text}
					eventProcessed = true
				}
			case "thinking_delta":
				if delta.Thinking != "" {
					thinkingText.WriteString(delta.Thinking)
					chunks <- &agent.Chunk{Thinking: delta.Thinking}
					eventProcessed = true
				}
			case "signature_delta":
				if delta.Signature != "" {
					thinkingSig.WriteString(delta.Signature)
					eventProcessed = true
				}
			case "input_json_delta":
				if delta.PartialJSON != "" {
					currentToolInput.WriteString(delta.PartialJSON)
					eventProcessed = true
				}
			}

		case "content_block_stop":
			if inThinkingBlock {
				chunks <- &agent.Chunk{
					ThinkingEnd: true,
					ThinkingBlock: &agent.ThinkingBlock{
						Text:      thinkingText.String(),
						Signature: thinkingSig.String(),
					},
				}
				inThinkingBlock = false
				eventProcessed = true
			} else if currentToolCall != nil {
				currentToolCall.Input = json.RawMessage(currentToolInput.String())
				chunks <- &agent.Chunk{ToolCall: currentToolCall}
				currentToolCall = nil
				eventProcessed = true
			}

		case "message_delta":
			messageDelta := event.AsMessageDelta()
			if messageDelta.Delta.StopReason != "" {
				stopReason = mapStopReason(string(messageDelta.Delta.StopReason))
			}
			eventProcessed = true

		case "message_stop":
			chunks <- &agent.Chunk{Done: true, StopReason: stopReason}
			return

		case "error":
			chunks <- &agent.Chunk{Err: errors.New("anthropic: stream error")}
			return
		}

		if eventProcessed {
			emptyEventCount = 0
		} else {
			emptyEventCount++
			if emptyEventCount >= maxEmptyStreamEvents {
				chunks <- &agent.Chunk{
					Err: fmt.Errorf("anthropic: stream appears malformed: %d consecutive empty events", emptyEventCount),
				}
				return
			}
		}
	}

	if err := stream.Err(); err != nil {
		chunks <- &agent.Chunk{Err: fmt.Errorf("anthropic: %w", err)}
	}
}

func mapStopReason(reason string) agent.StopReason {
	switch reason {
	case "tool_use":
		return agent.StopToolUse
	case "end_turn":
		return agent.StopEndTurn
	case "max_tokens":
		return agent.StopMaxTokens
	default:
		return agent.StopOther
	}
}

// convertMessages translates conversation messages into Anthropic content
// blocks. Tool returns ride on user messages as tool_result blocks carrying
// the serialized result payload; tool calls are echoed on assistant messages
// as tool_use blocks.
func convertMessages(messages []agent.CompletionMessage) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam

	for _, msg := range messages {
		var content []anthropic.ContentBlockParamUnion

		// Signed thinking blocks must lead the assistant echo; the API
		// rejects a tool round-trip whose assistant message drops them
		// while thinking is enabled.
		for _, tb := range msg.Thinking {
			content = append(content, anthropic.NewThinkingBlock(tb.Signature, tb.Text))
		}

		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}

		for _, ret := range msg.ToolReturns {
			content = append(content, anthropic.NewToolResultBlock(
				ret.ToolCallID,
				ret.Payload(),
				!ret.Result.Success,
			))
		}

		for _, call := range msg.ToolCalls {
			var input map[string]any
			if err := json.Unmarshal(call.Input, &input); err != nil {
				return nil, fmt.Errorf("invalid tool call input: %w", err)
			}
			content = append(content, anthropic.NewToolUseBlock(call.ID, input, call.Name))
		}

		if msg.Role == "assistant" {
			result = append(result, anthropic.NewAssistantMessage(content...))
		} else {
			result = append(result, anthropic.NewUserMessage(content...))
		}
	}

	return result, nil
}

func convertTools(tools []agent.Tool) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam

	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name(), err)
		}

		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name())
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", tool.Name())
		}
		toolParam.OfTool.Description = anthropic.String(tool.Description())
		result = append(result, toolParam)
	}

	return result, nil
}
