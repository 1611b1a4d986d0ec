package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/haasonsaas/dealflow/pkg/models"
)

// scriptedProvider replays pre-built chunk sequences, one per round, and
// records every request it receives.
type scriptedProvider struct {
	mu     sync.Mutex
	rounds [][]*Chunk
	calls  []*CompletionRequest
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *Chunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.rounds) == 0 {
		return nil, errors.New("no scripted rounds remaining")
	}
	round := p.rounds[0]
	p.rounds = p.rounds[1:]
	p.calls = append(p.calls, req)

	ch := make(chan *Chunk, len(round))
	for _, c := range round {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) requests() []*CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*CompletionRequest(nil), p.calls...)
}

// blockingProvider parks the stream until the context is cancelled.
type blockingProvider struct{}

func (p *blockingProvider) Name() string { return "blocking" }

func (p *blockingProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *Chunk, error) {
	ch := make(chan *Chunk)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type staticAuth bool

func (a staticAuth) Authenticated() bool { return bool(a) }

// recordTool notes invocations and returns a canned result.
type recordTool struct {
	name   string
	result models.ToolResult
	err    error

	mu     sync.Mutex
	inputs []json.RawMessage
}

func (t *recordTool) Name() string            { return t.name }
func (t *recordTool) Description() string     { return "test tool" }
func (t *recordTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

func (t *recordTool) Execute(ctx context.Context, input json.RawMessage) (models.ToolResult, error) {
	t.mu.Lock()
	t.inputs = append(t.inputs, input)
	t.mu.Unlock()
	return t.result, t.err
}

func agentStep() *models.DemoStep {
	return &models.DemoStep{
		ID:   "test-step",
		Type: models.StepAgentAction,
		Agent: &models.AgentContext{
			SystemPrompt: "You are a test assistant.",
			Task:         "Do the test thing.",
		},
	}
}

func collect(t *testing.T, events <-chan models.StreamEvent) []models.StreamEvent {
	t.Helper()
	var out []models.StreamEvent
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatal("timed out draining events")
		}
	}
}

func emptyRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestRunValidation(t *testing.T) {
	registry := emptyRegistry(t)

	engine := NewEngine(nil, registry, staticAuth(false), nil, nil)
	if _, err := engine.Run(context.Background(), agentStep()); !errors.Is(err, ErrNoProvider) {
		t.Errorf("nil provider err = %v, want ErrNoProvider", err)
	}

	engine = NewEngine(&scriptedProvider{}, registry, staticAuth(false), nil, nil)
	if _, err := engine.Run(context.Background(), nil); !errors.Is(err, ErrNotAgentStep) {
		t.Errorf("nil step err = %v, want ErrNotAgentStep", err)
	}

	simulated := &models.DemoStep{ID: "sim", Type: models.StepSimulatedResponse}
	if _, err := engine.Run(context.Background(), simulated); !errors.Is(err, ErrNotAgentStep) {
		t.Errorf("simulated step err = %v, want ErrNotAgentStep", err)
	}
}

func TestTextOnlyTurn(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]*Chunk{{
		{TextStart: true},
		{Text: "Hello "},
		{Text: "world"},
		{Done: true, StopReason: StopEndTurn},
	}}}
	engine := NewEngine(provider, emptyRegistry(t), staticAuth(false), nil, nil)

	events, err := engine.Run(context.Background(), agentStep())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := collect(t, events)

	if got[0].Type != models.EventStatus {
		t.Errorf("first event = %s, want status", got[0].Type)
	}

	last := got[len(got)-1]
	if last.Type != models.EventComplete {
		t.Fatalf("last event = %s, want complete", last.Type)
	}
	if last.Data.Output != "Hello world" {
		t.Errorf("Output = %q", last.Data.Output)
	}

	// Exactly one terminal event, and it is last.
	terminals := 0
	for _, ev := range got {
		if ev.Terminal() {
			terminals++
		}
	}
	if terminals != 1 {
		t.Errorf("terminal events = %d, want 1", terminals)
	}

	// Deltas concatenate to the final output.
	var deltas strings.Builder
	for _, ev := range got {
		if ev.Type == models.EventOutputDelta {
			deltas.WriteString(ev.Data.Content)
		}
	}
	if deltas.String() != last.Data.Output {
		t.Errorf("delta concat %q != final output %q", deltas.String(), last.Data.Output)
	}
}

func TestToolRoundTrip(t *testing.T) {
	tool := &recordTool{
		name:   "send_email",
		result: models.ToolResult{Success: true, Result: map[string]any{"messageId": "m-1"}},
	}
	registry, err := NewRegistry(tool)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	input := json.RawMessage(`{"to":"a@b.c"}`)
	provider := &scriptedProvider{rounds: [][]*Chunk{
		{
			{TextStart: true},
			{Text: "Sending now."},
			{ToolCall: &models.ToolCall{ID: "call-1", Name: "send_email", Input: input}},
			{Done: true, StopReason: StopToolUse},
		},
		{
			{TextStart: true},
			{Text: "Email sent."},
			{Done: true, StopReason: StopEndTurn},
		},
	}}
	engine := NewEngine(provider, registry, staticAuth(true), nil, nil)

	events, err := engine.Run(context.Background(), agentStep())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := collect(t, events)

	last := got[len(got)-1]
	if last.Type != models.EventComplete {
		t.Fatalf("last event = %s, want complete", last.Type)
	}
	// The final round's output wins over the pre-tool text.
	if last.Data.Output != "Email sent." {
		t.Errorf("Output = %q", last.Data.Output)
	}

	if len(tool.inputs) != 1 {
		t.Fatalf("tool invoked %d times, want 1", len(tool.inputs))
	}

	reqs := provider.requests()
	if len(reqs) != 2 {
		t.Fatalf("provider rounds = %d, want 2", len(reqs))
	}

	// Round two carries the assistant echo and exactly one return per call,
	// tagged with the call's id.
	msgs := reqs[1].Messages
	if len(msgs) != 3 {
		t.Fatalf("round 2 messages = %d, want 3", len(msgs))
	}
	assistant := msgs[1]
	if assistant.Role != "assistant" || len(assistant.ToolCalls) != 1 {
		t.Errorf("assistant echo = %+v", assistant)
	}
	returns := msgs[2].ToolReturns
	if len(returns) != 1 {
		t.Fatalf("returns = %d, want 1", len(returns))
	}
	if returns[0].ToolCallID != "call-1" {
		t.Errorf("ToolCallID = %q", returns[0].ToolCallID)
	}
	if !returns[0].Result.Success {
		t.Errorf("return should carry the tool's success result")
	}

	// Tools are advertised on every round of an authenticated turn.
	for i, req := range reqs {
		if len(req.Tools) != 1 {
			t.Errorf("round %d advertised %d tools, want 1", i, len(req.Tools))
		}
	}
}

func TestAssistantEchoReplaysSignedThinking(t *testing.T) {
	tool := &recordTool{
		name:   "send_email",
		result: models.ToolResult{Success: true},
	}
	registry, err := NewRegistry(tool)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	provider := &scriptedProvider{rounds: [][]*Chunk{
		{
			{ThinkingStart: true},
			{Thinking: "I should send the email first."},
			{ThinkingEnd: true, ThinkingBlock: &ThinkingBlock{
				Text:      "I should send the email first.",
				Signature: "sig-abc123",
			}},
			{ToolCall: &models.ToolCall{ID: "call-1", Name: "send_email", Input: json.RawMessage(`{}`)}},
			{Done: true, StopReason: StopToolUse},
		},
		{
			{TextStart: true},
			{Text: "Done."},
			{Done: true, StopReason: StopEndTurn},
		},
	}}
	engine := NewEngine(provider, registry, staticAuth(true), nil, nil)

	events, err := engine.Run(context.Background(), agentStep())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	collect(t, events)

	reqs := provider.requests()
	if len(reqs) != 2 {
		t.Fatalf("provider rounds = %d, want 2", len(reqs))
	}

	// The assistant echo in round two must lead with the signed thinking
	// block; dropping it makes the API reject the tool round-trip.
	assistant := reqs[1].Messages[1]
	if assistant.Role != "assistant" {
		t.Fatalf("Role = %q, want assistant", assistant.Role)
	}
	if len(assistant.Thinking) != 1 {
		t.Fatalf("assistant echo carries %d thinking blocks, want 1", len(assistant.Thinking))
	}
	if assistant.Thinking[0].Signature != "sig-abc123" {
		t.Errorf("Signature = %q, want the original signature", assistant.Thinking[0].Signature)
	}
	if assistant.Thinking[0].Text != "I should send the email first." {
		t.Errorf("Text = %q", assistant.Thinking[0].Text)
	}
	if len(assistant.ToolCalls) != 1 {
		t.Errorf("assistant echo carries %d tool calls, want 1", len(assistant.ToolCalls))
	}
}

func TestToolFailureDoesNotAbortTurn(t *testing.T) {
	tool := &recordTool{name: "search_drive", err: errors.New("drive unavailable")}
	registry, err := NewRegistry(tool)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	provider := &scriptedProvider{rounds: [][]*Chunk{
		{
			{ToolCall: &models.ToolCall{ID: "call-1", Name: "search_drive", Input: json.RawMessage(`{}`)}},
			{Done: true, StopReason: StopToolUse},
		},
		{
			{TextStart: true},
			{Text: "Could not search, drafting from memory."},
			{Done: true, StopReason: StopEndTurn},
		},
	}}
	engine := NewEngine(provider, registry, staticAuth(true), nil, nil)

	events, err := engine.Run(context.Background(), agentStep())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := collect(t, events)

	last := got[len(got)-1]
	if last.Type != models.EventComplete {
		t.Fatalf("last event = %s, want complete despite tool failure", last.Type)
	}

	reqs := provider.requests()
	returns := reqs[1].Messages[2].ToolReturns
	if len(returns) != 1 || returns[0].Result.Success {
		t.Fatalf("failure should travel to the model as data: %+v", returns)
	}
	if !strings.Contains(returns[0].Result.Error, "drive unavailable") {
		t.Errorf("Error = %q", returns[0].Result.Error)
	}
}

func TestStopReasonGatesLoop(t *testing.T) {
	// Pending calls with a non-tool-use stop reason end the turn.
	provider := &scriptedProvider{rounds: [][]*Chunk{{
		{TextStart: true},
		{Text: "Truncated."},
		{ToolCall: &models.ToolCall{ID: "call-1", Name: "send_email", Input: json.RawMessage(`{}`)}},
		{Done: true, StopReason: StopMaxTokens},
	}}}
	tool := &recordTool{name: "send_email", result: models.ToolResult{Success: true}}
	registry, err := NewRegistry(tool)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	engine := NewEngine(provider, registry, staticAuth(true), nil, nil)

	events, err := engine.Run(context.Background(), agentStep())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := collect(t, events)

	if got[len(got)-1].Type != models.EventComplete {
		t.Fatalf("last event = %s, want complete", got[len(got)-1].Type)
	}
	if len(tool.inputs) != 0 {
		t.Errorf("tool should not run when the model did not stop for tool use")
	}
}

func TestMaxRoundsAborts(t *testing.T) {
	toolUseRound := func() []*Chunk {
		return []*Chunk{
			{ToolCall: &models.ToolCall{ID: "call", Name: "send_email", Input: json.RawMessage(`{}`)}},
			{Done: true, StopReason: StopToolUse},
		}
	}
	provider := &scriptedProvider{rounds: [][]*Chunk{toolUseRound(), toolUseRound(), toolUseRound()}}
	tool := &recordTool{name: "send_email", result: models.ToolResult{Success: true}}
	registry, err := NewRegistry(tool)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	engine := NewEngine(provider, registry, staticAuth(true), &EngineConfig{MaxRounds: 2}, nil)

	events, err := engine.Run(context.Background(), agentStep())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := collect(t, events)

	last := got[len(got)-1]
	if last.Type != models.EventError {
		t.Fatalf("last event = %s, want error", last.Type)
	}
	if !strings.Contains(last.Data.Message, ErrMaxRounds.Error()) {
		t.Errorf("Message = %q", last.Data.Message)
	}
	if len(tool.inputs) != 2 {
		t.Errorf("tool ran %d times, want 2", len(tool.inputs))
	}
}

func TestProviderErrorEmitsErrorEvent(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]*Chunk{{
		{Err: errors.New("model overloaded")},
	}}}
	engine := NewEngine(provider, emptyRegistry(t), staticAuth(false), nil, nil)

	events, err := engine.Run(context.Background(), agentStep())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := collect(t, events)

	last := got[len(got)-1]
	if last.Type != models.EventError {
		t.Fatalf("last event = %s, want error", last.Type)
	}
	if !strings.Contains(last.Data.Message, "model overloaded") {
		t.Errorf("Message = %q", last.Data.Message)
	}
}

func TestCancellationEndsStreamWithoutErrorEvent(t *testing.T) {
	engine := NewEngine(&blockingProvider{}, emptyRegistry(t), staticAuth(false), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := engine.Run(ctx, agentStep())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	cancel()
	got := collect(t, events)

	for _, ev := range got {
		if ev.Type == models.EventError {
			t.Errorf("cancellation produced an error event: %q", ev.Data.Message)
		}
		if ev.Type == models.EventComplete {
			t.Errorf("cancellation produced a complete event")
		}
	}
}

func TestRunsAreIsolated(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]*Chunk{
		{
			{Text: "first"},
			{Done: true, StopReason: StopEndTurn},
		},
		{
			{Text: "second"},
			{Done: true, StopReason: StopEndTurn},
		},
	}}
	engine := NewEngine(provider, emptyRegistry(t), staticAuth(false), nil, nil)

	for range 2 {
		events, err := engine.Run(context.Background(), agentStep())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		collect(t, events)
	}

	reqs := provider.requests()
	if len(reqs) != 2 {
		t.Fatalf("provider rounds = %d, want 2", len(reqs))
	}
	// Each run starts its conversation from scratch.
	for i, req := range reqs {
		if len(req.Messages) != 1 {
			t.Errorf("run %d opened with %d messages, want 1", i, len(req.Messages))
		}
	}
}

func TestUnauthenticatedTurnAdvertisesNoTools(t *testing.T) {
	tool := &recordTool{name: "send_email", result: models.ToolResult{Success: true}}
	registry, err := NewRegistry(tool)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	provider := &scriptedProvider{rounds: [][]*Chunk{{
		{Text: "Draft only."},
		{Done: true, StopReason: StopEndTurn},
	}}}
	engine := NewEngine(provider, registry, staticAuth(false), nil, nil)

	events, err := engine.Run(context.Background(), agentStep())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	collect(t, events)

	reqs := provider.requests()
	if len(reqs[0].Tools) != 0 {
		t.Errorf("unauthenticated turn advertised %d tools", len(reqs[0].Tools))
	}
	if !strings.Contains(reqs[0].System, "not connected") {
		t.Errorf("system prompt should note the missing connection: %q", reqs[0].System)
	}
}

func TestChunkRunes(t *testing.T) {
	tests := []struct {
		in   string
		size int
		want []string
	}{
		{"", 3, nil},
		{"ab", 3, []string{"ab"}},
		{"abcdef", 3, []string{"abc", "def"}},
		{"abcdefg", 3, []string{"abc", "def", "g"}},
		{"héllo", 2, []string{"hé", "ll", "o"}},
	}
	for _, tt := range tests {
		got := chunkRunes(tt.in, tt.size)
		if len(got) != len(tt.want) {
			t.Errorf("chunkRunes(%q, %d) = %v, want %v", tt.in, tt.size, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("chunkRunes(%q, %d)[%d] = %q, want %q", tt.in, tt.size, i, got[i], tt.want[i])
			}
		}
	}
}
