package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/golfoguide/internal/types"
	"github.com/user/golfoguide/pkg/llm"
)

// DefaultMaxSteps bounds model invocations per turn when no cap is
// configured. This is the only safeguard against runaway tool loops.
const DefaultMaxSteps = 5

// ToolInvocation records one tool call requested by the model during a
// turn, with its serialized result. Error results are kept, never
// dropped: the model needs to see them to react.
type ToolInvocation struct {
	ID        types.InvocationID `json:"id"`
	Tool      string             `json:"tool"`
	Arguments json.RawMessage    `json:"arguments"`
	Result    string             `json:"result"`
	IsError   bool               `json:"is_error,omitempty"`
}

// TurnResult is the outcome of one conversation turn.
type TurnResult struct {
	Text        string
	Invocations []ToolInvocation
	Steps       int
}

// Orchestrator drives the bounded model/tool loop for a single turn.
// It holds no conversation state: the outcome depends only on the
// supplied history.
type Orchestrator struct {
	provider llm.Provider
	registry *Registry
	budgeter *Budgeter
	maxSteps int
	location *time.Location
	now      func() time.Time
}

// NewOrchestrator wires the loop. A nil budgeter disables history
// trimming; maxSteps <= 0 falls back to the default cap.
func NewOrchestrator(provider llm.Provider, registry *Registry, budgeter *Budgeter, maxSteps int) *Orchestrator {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		loc = time.UTC
	}
	return &Orchestrator{
		provider: provider,
		registry: registry,
		budgeter: budgeter,
		maxSteps: maxSteps,
		location: loc,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Tests use this to pin "today".
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Run executes one turn: send the history to the model, execute any
// requested tool calls, feed results back, and repeat until the model
// answers without tools or the step cap is reached. A provider error
// fails the turn; tool errors are contained as tool results.
func (o *Orchestrator) Run(ctx context.Context, history []llm.Message) (*TurnResult, error) {
	turnID := types.NewTurnID()

	var toolNames []string
	for _, t := range o.registry.All() {
		toolNames = append(toolNames, t.Name())
	}
	system := SystemPrompt(o.now().In(o.location), toolNames)

	if o.budgeter != nil {
		history = o.budgeter.Trim(system, history)
	}
	conv := make([]llm.Message, 0, len(history)+1)
	conv = append(conv, llm.TextMessage(llm.RoleSystem, system))
	conv = append(conv, history...)

	var invocations []ToolInvocation
	var lastText string

	for step := 1; step <= o.maxSteps; step++ {
		resp, err := o.provider.Complete(ctx, conv, o.registry.AsLLMTools())
		if err != nil {
			return nil, fmt.Errorf("model call (step %d): %w", step, err)
		}
		lastText = resp.Content

		if len(resp.ToolCalls) == 0 {
			slog.Debug("turn complete", "turn_id", turnID, "steps", step, "tool_calls", len(invocations))
			return &TurnResult{Text: resp.Content, Invocations: invocations, Steps: step}, nil
		}

		if step == o.maxSteps {
			slog.Warn("step cap reached with pending tool calls", "turn_id", turnID, "max_steps", o.maxSteps)
			break
		}

		conv = append(conv, llm.Message{
			Role:    llm.RoleAssistant,
			Content: resp.Content,
			Tools:   resp.ToolCalls,
		})

		results := o.executeAll(ctx, turnID, resp.ToolCalls)
		for i, tc := range resp.ToolCalls {
			invocations = append(invocations, results[i])
			conv = append(conv, llm.ToolResultMessage(tc.ID, results[i].Result))
		}
	}

	// Step cap exhausted; answer with whatever text the model last gave.
	return &TurnResult{Text: lastText, Invocations: invocations, Steps: o.maxSteps}, nil
}

// executeAll runs the step's tool calls in parallel and joins them all
// before returning. Calls are independent; results keep request order.
func (o *Orchestrator) executeAll(ctx context.Context, turnID types.TurnID, calls []llm.ToolCall) []ToolInvocation {
	results := make([]ToolInvocation, len(calls))
	g, ctx := errgroup.WithContext(ctx)

	for i, tc := range calls {
		g.Go(func() error {
			inv := ToolInvocation{
				ID:        types.NewInvocationID(),
				Tool:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}

			tool, ok := o.registry.Get(tc.Function.Name)
			if !ok {
				inv.Result = fmt.Sprintf("error: unknown tool %q", tc.Function.Name)
				inv.IsError = true
				results[i] = inv
				return nil
			}

			start := time.Now()
			out, err := tool.Execute(ctx, tc.Function.Arguments)
			if err != nil {
				inv.Result = fmt.Sprintf("error: %v", err)
				inv.IsError = true
				slog.Info("tool call failed", "turn_id", turnID, "tool", inv.Tool, "latency", time.Since(start), "error", err)
			} else {
				inv.Result = out
				slog.Debug("tool call", "turn_id", turnID, "tool", inv.Tool, "latency", time.Since(start))
			}
			results[i] = inv
			return nil
		})
	}

	g.Wait()
	return results
}
