package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/haasonsaas/dealflow/pkg/models"
)

// AuthCapability reports whether the external account connection is live.
// It gates which tools are advertised to the model.
type AuthCapability interface {
	Authenticated() bool
}

// EngineConfig bounds a turn's execution.
type EngineConfig struct {
	// MaxRounds caps the tool-use loop. The protocol itself has no
	// termination guarantee, so the cap is a safety net against a model
	// issuing unbounded tool calls. Default: 10.
	MaxRounds int

	// MaxTokens is the per-round generation limit. Default: 16000.
	MaxTokens int

	// ThinkingBudgetTokens is the fixed reasoning-effort budget. Default: 10000.
	ThinkingBudgetTokens int

	// ThinkingChunkRunes bounds the size of a single thinking_delta so the
	// client receives steady increments rather than one giant write.
	// Default: 100.
	ThinkingChunkRunes int

	// EventBuffer is the turn event channel capacity. Default: 64.
	EventBuffer int
}

// DefaultEngineConfig returns the default turn bounds.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		MaxRounds:            10,
		MaxTokens:            16000,
		ThinkingBudgetTokens: 10000,
		ThinkingChunkRunes:   100,
		EventBuffer:          64,
	}
}

func sanitizeEngineConfig(config *EngineConfig) EngineConfig {
	defaults := DefaultEngineConfig()
	if config == nil {
		return *defaults
	}
	cfg := *config
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaults.MaxRounds
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.ThinkingBudgetTokens <= 0 {
		cfg.ThinkingBudgetTokens = defaults.ThinkingBudgetTokens
	}
	if cfg.ThinkingChunkRunes <= 0 {
		cfg.ThinkingChunkRunes = defaults.ThinkingChunkRunes
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaults.EventBuffer
	}
	return cfg
}

// Engine drives one agent turn at a time: it builds the conversation, runs
// the model round-trip loop, dispatches tool calls, and emits an ordered
// stream of events with exactly one terminal event.
//
// The loop operates as a state machine:
//
//	Idle -> Requesting -> Dispatching -> Requesting -> ... -> Complete | Failed
//
// The only loop-back edge is Dispatching -> Requesting, taken when the model
// stopped specifically to receive tool results. All per-turn state (the
// conversation, pending calls, output buffer) is local to one Run call; two
// runs share nothing.
type Engine struct {
	provider Provider
	registry *Registry
	invoker  *Invoker
	auth     AuthCapability
	config   EngineConfig
	logger   *slog.Logger
}

// NewEngine assembles a turn engine. The registry may be empty but not nil.
func NewEngine(provider Provider, registry *Registry, auth AuthCapability, config *EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		provider: provider,
		registry: registry,
		invoker:  NewInvoker(registry, logger),
		auth:     auth,
		config:   sanitizeEngineConfig(config),
		logger:   logger.With("component", "engine"),
	}
}

// Run starts a turn for the given step and returns its event stream. The
// channel is closed after the terminal event on every path. Validation
// failures are returned synchronously, before any stream exists.
func (e *Engine) Run(ctx context.Context, step *models.DemoStep) (<-chan models.StreamEvent, error) {
	if e.provider == nil {
		return nil, ErrNoProvider
	}
	if step == nil || step.Type != models.StepAgentAction || step.Agent == nil {
		return nil, ErrNotAgentStep
	}

	events := make(chan models.StreamEvent, e.config.EventBuffer)
	go e.run(ctx, step, events)
	return events, nil
}

func (e *Engine) run(ctx context.Context, step *models.DemoStep, out chan<- models.StreamEvent) {
	defer close(out)

	turnID := uuid.NewString()
	logger := e.logger.With("turn_id", turnID, "step", step.ID)

	authed := e.auth != nil && e.auth.Authenticated()
	system := augmentSystemPrompt(step.Agent.SystemPrompt, authed)

	var tools []Tool
	if authed {
		tools = e.registry.List()
	}

	e.emit(ctx, out, models.StreamEvent{
		Type: models.EventStatus,
		Data: models.EventData{Message: "Starting agent..."},
	})

	// Conversation is owned exclusively by this run and grows monotonically
	// until the turn ends.
	messages := []CompletionMessage{{Role: "user", Content: step.Agent.Task}}
	finalOutput := ""

	for roundNum := 0; roundNum < e.config.MaxRounds; roundNum++ {
		note := "> No account connection - generating content only\n"
		if authed {
			note = "> Tools available: Gmail, Drive, Calendar\n"
		}
		e.emitThinking(ctx, out, note)

		req := &CompletionRequest{
			System:               system,
			Messages:             messages,
			Tools:                tools,
			MaxTokens:            e.config.MaxTokens,
			ThinkingBudgetTokens: e.config.ThinkingBudgetTokens,
		}

		round, err := e.requestRound(ctx, req, out)
		if err != nil {
			if ctx.Err() != nil {
				// Cancellation is a clean termination, not a failure.
				logger.Debug("turn cancelled", "round", roundNum)
				return
			}
			turnErr := &TurnError{Phase: PhaseRequesting, Round: roundNum, Cause: err}
			logger.Error("model round failed", "round", roundNum, "error", err)
			e.emit(ctx, out, models.StreamEvent{
				Type: models.EventError,
				Data: models.EventData{Message: turnErr.Error()},
			})
			return
		}

		// Only the last round that produced output wins.
		if round.text != "" {
			finalOutput = round.text
		}

		// Loop back only when the model stopped specifically for tool
		// results. Any other stop reason ends the turn, even with calls
		// pending.
		if len(round.toolCalls) == 0 || round.stop != StopToolUse {
			e.emit(ctx, out, models.StreamEvent{
				Type: models.EventComplete,
				Data: models.EventData{Output: finalOutput},
			})
			return
		}

		returns := e.dispatch(ctx, round.toolCalls, out)
		if ctx.Err() != nil {
			logger.Debug("turn cancelled during dispatch", "round", roundNum)
			return
		}

		// Echo the full assistant response and feed every result back in one
		// user message before the next round. The signed thinking blocks lead
		// the echo; the API rejects a tool round-trip that drops them while
		// thinking is enabled.
		messages = append(messages,
			CompletionMessage{Role: "assistant", Thinking: round.thinking, Content: round.text, ToolCalls: round.toolCalls},
			CompletionMessage{Role: "user", ToolReturns: returns},
		)
	}

	turnErr := &TurnError{Phase: PhaseRequesting, Round: e.config.MaxRounds, Cause: ErrMaxRounds}
	logger.Error("turn aborted", "error", ErrMaxRounds, "max_rounds", e.config.MaxRounds)
	e.emit(ctx, out, models.StreamEvent{
		Type: models.EventError,
		Data: models.EventData{Message: turnErr.Error()},
	})
}

// roundResult is everything one completion round produced: the response text,
// the signed thinking blocks, the tool calls awaiting dispatch, and the stop
// reason.
type roundResult struct {
	text      string
	thinking  []ThinkingBlock
	toolCalls []models.ToolCall
	stop      StopReason
}

// requestRound issues one completion request and classifies the streamed
// content: thinking becomes thinking events, text becomes output events and
// the round's text, tool-use segments are collected for dispatch. Completed
// thinking blocks are retained with their signatures so the assistant echo
// can replay them on the next round.
func (e *Engine) requestRound(ctx context.Context, req *CompletionRequest, out chan<- models.StreamEvent) (*roundResult, error) {
	chunks, err := e.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	round := &roundResult{stop: StopOther}

	for chunk := range chunks {
		switch {
		case chunk.Err != nil:
			return nil, chunk.Err
		case chunk.ThinkingStart:
			e.emit(ctx, out, models.StreamEvent{Type: models.EventThinkingStart})
		case chunk.Thinking != "":
			e.emitThinking(ctx, out, chunk.Thinking)
		case chunk.ThinkingEnd:
			if chunk.ThinkingBlock != nil {
				round.thinking = append(round.thinking, *chunk.ThinkingBlock)
			}
			e.emit(ctx, out, models.StreamEvent{Type: models.EventBlockStop})
		case chunk.TextStart:
			e.emit(ctx, out, models.StreamEvent{Type: models.EventOutputStart})
		case chunk.Text != "":
			text.WriteString(chunk.Text)
			e.emit(ctx, out, models.StreamEvent{
				Type: models.EventOutputDelta,
				Data: models.EventData{Content: chunk.Text},
			})
		case chunk.ToolCall != nil:
			call := *chunk.ToolCall
			if call.ID == "" {
				call.ID = uuid.NewString()
			}
			round.toolCalls = append(round.toolCalls, call)
		case chunk.Done:
			round.stop = chunk.StopReason
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	round.text = text.String()
	return round, nil
}

// dispatch resolves pending tool calls one at a time, in list order. Every
// call receives exactly one return tagged with its correlation id; tool
// failures are converted to data and never abort the turn.
func (e *Engine) dispatch(ctx context.Context, calls []models.ToolCall, out chan<- models.StreamEvent) []models.ToolReturn {
	returns := make([]models.ToolReturn, 0, len(calls))

	for _, call := range calls {
		e.emitThinking(ctx, out, fmt.Sprintf("\n\n> Executing tool: %s...\n", call.Name))
		e.emitThinking(ctx, out, fmt.Sprintf("  Input: %s\n", previewJSON(call.Input, 200)))

		result := e.invoker.Invoke(ctx, call.Name, call.Input)

		if result.Success {
			e.emitThinking(ctx, out, fmt.Sprintf("  ✓ %s completed successfully\n", call.Name))
			if len(result.Result) > 0 {
				if payload, err := json.Marshal(result.Result); err == nil {
					e.emitThinking(ctx, out, fmt.Sprintf("  Result: %s\n", payload))
				}
			}
		} else {
			e.emitThinking(ctx, out, fmt.Sprintf("  ✗ %s failed: %s\n", call.Name, result.Error))
		}

		returns = append(returns, models.ToolReturn{ToolCallID: call.ID, Result: result})
	}

	return returns
}

func (e *Engine) emit(ctx context.Context, out chan<- models.StreamEvent, ev models.StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// emitThinking splits large reasoning text into bounded pieces so the client
// receives steady increments.
func (e *Engine) emitThinking(ctx context.Context, out chan<- models.StreamEvent, content string) {
	for _, piece := range chunkRunes(content, e.config.ThinkingChunkRunes) {
		if !e.emit(ctx, out, models.StreamEvent{
			Type: models.EventThinkingDelta,
			Data: models.EventData{Content: piece},
		}) {
			return
		}
	}
}

func chunkRunes(s string, size int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}
	pieces := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}

func previewJSON(raw json.RawMessage, limit int) string {
	s := string(raw)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func augmentSystemPrompt(base string, authed bool) string {
	if authed {
		return base + "\n\nYou have access to Google tools (Gmail, Drive, Calendar). Use them to complete the task. When sending emails, use the actual recipient email from the context."
	}
	return base + "\n\nNote: Google integration is not connected. Generate the email content but indicate it would be sent when connected."
}
