package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/haasonsaas/dealflow/pkg/models"
)

// Invoker dispatches tool calls against the registry and normalizes every
// outcome into a models.ToolResult. Invoke never returns a Go error and never
// lets a panic escape: local tool failures are data, not control flow, so the
// model can see them and adapt.
type Invoker struct {
	registry *Registry
	logger   *slog.Logger
}

// NewInvoker creates an invoker over the given registry.
func NewInvoker(registry *Registry, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{
		registry: registry,
		logger:   logger.With("component", "invoker"),
	}
}

// Invoke runs one tool call. The side effect of a successful call happens
// exactly once; there is no retry on failure.
func (inv *Invoker) Invoke(ctx context.Context, name string, input json.RawMessage) (result models.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			inv.logger.Error("tool panicked", "tool", name, "panic", r)
			result = models.Failure(fmt.Sprintf("%v: %s: %v", ErrToolPanic, name, r))
		}
	}()

	tool, ok := inv.registry.Get(name)
	if !ok {
		return models.Failure("unknown tool: " + name)
	}

	if err := inv.registry.Validate(name, input); err != nil {
		return models.Failure(err.Error())
	}

	res, err := tool.Execute(ctx, input)
	if err != nil {
		inv.logger.Warn("tool failed", "tool", name, "error", err)
		return models.Failure(err.Error())
	}
	return res
}
