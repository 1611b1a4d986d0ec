package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/haasonsaas/dealflow/pkg/models"
)

// Tool is one callable external capability. Schema returns the JSON Schema
// for the tool's input; it is compiled once at registration and used both to
// advertise the tool to the model and to validate incoming calls.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage

	// Execute runs the tool with schema-valid input. Returned errors are
	// normalized by the Invoker; implementations never need to recover their
	// own panics.
	Execute(ctx context.Context, input json.RawMessage) (models.ToolResult, error)
}

type registeredTool struct {
	tool     Tool
	compiled *jsonschema.Schema
}

// Registry is a static catalog of tools. It is populated at construction and
// read-only afterwards: a call for a name outside the registry is an
// invalid-tool failure, never silently ignored.
type Registry struct {
	names []string
	tools map[string]registeredTool
}

// NewRegistry compiles and registers the given tools. A tool with an invalid
// schema is a construction error, not a runtime one.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]registeredTool, len(tools))}
	for _, tool := range tools {
		compiled, err := compileSchema(tool.Name(), tool.Schema())
		if err != nil {
			return nil, fmt.Errorf("register tool %s: %w", tool.Name(), err)
		}
		if _, exists := r.tools[tool.Name()]; exists {
			return nil, fmt.Errorf("register tool %s: duplicate name", tool.Name())
		}
		r.tools[tool.Name()] = registeredTool{tool: tool, compiled: compiled}
		r.names = append(r.names, tool.Name())
	}
	sort.Strings(r.names)
	return r, nil
}

func compileSchema(name string, schema json.RawMessage) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	resource := name + ".schema.json"
	if err := compiler.AddResource(resource, bytes.NewReader(schema)); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	entry, ok := r.tools[name]
	return entry.tool, ok
}

// Validate checks input against the tool's compiled schema.
func (r *Registry) Validate(name string, input json.RawMessage) error {
	entry, ok := r.tools[name]
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}
	var decoded any
	if err := json.Unmarshal(input, &decoded); err != nil {
		return fmt.Errorf("tool input is not valid JSON: %w", err)
	}
	if err := entry.compiled.Validate(decoded); err != nil {
		return fmt.Errorf("tool input invalid: %w", err)
	}
	return nil
}

// List returns all registered tools in stable name order, for advertising to
// the model.
func (r *Registry) List() []Tool {
	tools := make([]Tool, 0, len(r.names))
	for _, name := range r.names {
		tools = append(tools, r.tools[name].tool)
	}
	return tools
}

// Names returns the registered tool names in stable order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
