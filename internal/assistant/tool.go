package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user/golfoguide/pkg/llm"
)

// ValidationError reports malformed tool arguments. It is fed back into
// the conversation as the tool's result so the model can retry with
// corrected arguments; it never aborts the turn.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Tool defines the interface for an executable tool. The description is
// read by the model to decide when to invoke the tool, so its wording is
// part of the contract surface.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry holds registered tools and provides lookup. Registration
// order is preserved so the tool list sent to the model is stable.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns all registered tools in registration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// AsLLMTools converts registered tools to the LLM provider format.
func (r *Registry) AsLLMTools() []llm.Tool {
	out := make([]llm.Tool, 0, len(r.order))
	for _, t := range r.All() {
		out = append(out, llm.Tool{
			Type: "function",
			Function: llm.Function{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return out
}
