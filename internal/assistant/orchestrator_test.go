package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/user/golfoguide/pkg/llm"
)

// scriptedProvider returns canned responses in order, repeating the
// last one when the script runs out.
type scriptedProvider struct {
	responses []*llm.Response
	err       error
	calls     atomic.Int32
}

func (p *scriptedProvider) Complete(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Response, error) {
	n := int(p.calls.Add(1)) - 1
	if p.err != nil {
		return nil, p.err
	}
	if n >= len(p.responses) {
		n = len(p.responses) - 1
	}
	return p.responses[n], nil
}

func (p *scriptedProvider) Stream(ctx context.Context, messages []llm.Message, tools []llm.Tool) (<-chan llm.Delta, error) {
	resp, err := p.Complete(ctx, messages, tools)
	if err != nil {
		return nil, err
	}
	ch := make(chan llm.Delta, 1)
	ch <- llm.Delta{Content: resp.Content}
	close(ch)
	return ch, nil
}

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{
		ID:   id,
		Type: "function",
		Function: llm.FunctionCall{
			Name:      name,
			Arguments: json.RawMessage(args),
		},
	}
}

// countingTool records how many times it executed.
type countingTool struct {
	name  string
	out   string
	err   error
	count atomic.Int32
}

func (c *countingTool) Name() string                { return c.name }
func (c *countingTool) Description() string         { return "test tool" }
func (c *countingTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (c *countingTool) Execute(context.Context, json.RawMessage) (string, error) {
	c.count.Add(1)
	return c.out, c.err
}

func userTurn(text string) []llm.Message {
	return []llm.Message{llm.TextMessage(llm.RoleUser, text)}
}

func TestRunPlainAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{Content: "Benvenuti! Il paese offre molte attività."},
	}}
	orch := NewOrchestrator(provider, NewRegistry(), nil, 5)

	result, err := orch.Run(context.Background(), userTurn("ciao"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Text != "Benvenuti! Il paese offre molte attività." {
		t.Errorf("unexpected text %q", result.Text)
	}
	if result.Steps != 1 {
		t.Errorf("expected 1 step, got %d", result.Steps)
	}
	if len(result.Invocations) != 0 {
		t.Errorf("expected no invocations, got %d", len(result.Invocations))
	}
}

func TestRunToolRoundTrip(t *testing.T) {
	tool := &countingTool{name: "searchEvents", out: "Found 2 events:\n1. Sagra del pesce\n2. Concerto in piazza"}
	registry := NewRegistry()
	registry.Register(tool)

	provider := &scriptedProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "searchEvents", `{"startDate":"2026-08-23","endDate":"2026-08-23"}`)}},
		{Content: "Oggi ci sono la Sagra del pesce e il Concerto in piazza."},
	}}
	orch := NewOrchestrator(provider, registry, nil, 5)

	result, err := orch.Run(context.Background(), userTurn("Cosa c'è da fare oggi?"))
	if err != nil {
		t.Fatal(err)
	}
	if tool.count.Load() != 1 {
		t.Errorf("expected 1 tool execution, got %d", tool.count.Load())
	}
	if len(result.Invocations) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(result.Invocations))
	}
	inv := result.Invocations[0]
	if inv.Tool != "searchEvents" {
		t.Errorf("expected searchEvents invocation, got %q", inv.Tool)
	}
	if inv.IsError {
		t.Error("expected successful invocation")
	}
	if !strings.Contains(result.Text, "Sagra del pesce") {
		t.Errorf("final text missing event title: %q", result.Text)
	}
	if result.Steps != 2 {
		t.Errorf("expected 2 steps, got %d", result.Steps)
	}
}

func TestRunStepCap(t *testing.T) {
	tool := &countingTool{name: "searchEvents", out: "Found 1 events:\n1. Sagra"}
	registry := NewRegistry()
	registry.Register(tool)

	// The model always wants another tool call.
	provider := &scriptedProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "searchEvents", `{}`)}},
	}}
	const maxSteps = 5
	orch := NewOrchestrator(provider, registry, nil, maxSteps)

	result, err := orch.Run(context.Background(), userTurn("loop"))
	if err != nil {
		t.Fatal(err)
	}
	if got := provider.calls.Load(); got != maxSteps {
		t.Errorf("expected exactly %d model invocations, got %d", maxSteps, got)
	}
	// The final round's pending tool calls are not executed.
	if got := tool.count.Load(); got != maxSteps-1 {
		t.Errorf("expected %d tool executions, got %d", maxSteps-1, got)
	}
	if result.Steps != maxSteps {
		t.Errorf("expected steps == cap, got %d", result.Steps)
	}
	// Whatever text was last available is returned, possibly empty.
	if result.Text != "" {
		t.Errorf("stub never produced text, got %q", result.Text)
	}
}

func TestRunToolErrorContained(t *testing.T) {
	tool := &countingTool{name: "searchEvents", err: fmt.Errorf("the events service is unavailable (status 500); results are unknown, not empty")}
	registry := NewRegistry()
	registry.Register(tool)

	provider := &scriptedProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "searchEvents", `{}`)}},
		{Content: "Al momento il servizio eventi non è disponibile, riprova più tardi."},
	}}
	orch := NewOrchestrator(provider, registry, nil, 5)

	result, err := orch.Run(context.Background(), userTurn("eventi?"))
	if err != nil {
		t.Fatalf("tool errors must not fail the turn: %v", err)
	}
	if len(result.Invocations) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(result.Invocations))
	}
	inv := result.Invocations[0]
	if !inv.IsError {
		t.Error("expected error invocation")
	}
	if !strings.Contains(inv.Result, "unavailable") {
		t.Errorf("error result should describe the failure, got %q", inv.Result)
	}
	if !strings.Contains(inv.Result, "error:") {
		t.Errorf("error result should be marked as an error, got %q", inv.Result)
	}
}

func TestRunValidationErrorFedBack(t *testing.T) {
	tool := &countingTool{name: "searchEvents", err: &ValidationError{Field: "startDate", Reason: "must be an ISO date (YYYY-MM-DD)"}}
	registry := NewRegistry()
	registry.Register(tool)

	provider := &scriptedProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "searchEvents", `{"startDate":"domani"}`)}},
		{Content: "Riprovo con una data corretta."},
	}}
	orch := NewOrchestrator(provider, registry, nil, 5)

	result, err := orch.Run(context.Background(), userTurn("eventi domani"))
	if err != nil {
		t.Fatalf("validation errors must not fail the turn: %v", err)
	}
	if len(result.Invocations) != 1 || !result.Invocations[0].IsError {
		t.Fatalf("expected one error invocation, got %+v", result.Invocations)
	}
	if !strings.Contains(result.Invocations[0].Result, "invalid startDate") {
		t.Errorf("validation detail should reach the model, got %q", result.Invocations[0].Result)
	}
}

func TestRunUnknownToolContained(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "searchHotels", `{}`)}},
		{Content: "Non ho uno strumento per gli hotel."},
	}}
	orch := NewOrchestrator(provider, NewRegistry(), nil, 5)

	result, err := orch.Run(context.Background(), userTurn("hotel?"))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Invocations) != 1 || !result.Invocations[0].IsError {
		t.Fatalf("expected one error invocation, got %+v", result.Invocations)
	}
	if !strings.Contains(result.Invocations[0].Result, "unknown tool") {
		t.Errorf("expected unknown tool message, got %q", result.Invocations[0].Result)
	}
}

func TestRunProviderErrorFatal(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("API error (status 429): rate limit")}
	orch := NewOrchestrator(provider, NewRegistry(), nil, 5)

	_, err := orch.Run(context.Background(), userTurn("ciao"))
	if err == nil {
		t.Fatal("expected provider error to fail the turn")
	}
	if !strings.Contains(err.Error(), "model call") {
		t.Errorf("expected wrapped model error, got %v", err)
	}
}

func TestRunParallelToolBarrier(t *testing.T) {
	eventsTool := &countingTool{name: "searchEvents", out: "Found 1 events:\n1. Sagra"}
	offersTool := &countingTool{name: "searchOffers", out: "Found 1 offers:\n1. Sconto famiglie"}
	registry := NewRegistry()
	registry.Register(eventsTool)
	registry.Register(offersTool)

	provider := &scriptedProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", "searchEvents", `{}`),
			toolCall("c2", "searchOffers", `{}`),
		}},
		{Content: "Ecco eventi e offerte."},
	}}
	orch := NewOrchestrator(provider, registry, nil, 5)

	result, err := orch.Run(context.Background(), userTurn("eventi e offerte"))
	if err != nil {
		t.Fatal(err)
	}
	if eventsTool.count.Load() != 1 || offersTool.count.Load() != 1 {
		t.Error("both tools in the step must execute before the model resumes")
	}
	if len(result.Invocations) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(result.Invocations))
	}
	// Results keep the model's request order regardless of completion order.
	if result.Invocations[0].Tool != "searchEvents" || result.Invocations[1].Tool != "searchOffers" {
		t.Errorf("invocation order not preserved: %s, %s", result.Invocations[0].Tool, result.Invocations[1].Tool)
	}
}

func TestRunDefaultStepCap(t *testing.T) {
	tool := &countingTool{name: "searchEvents", out: "x"}
	registry := NewRegistry()
	registry.Register(tool)
	provider := &scriptedProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "searchEvents", `{}`)}},
	}}

	orch := NewOrchestrator(provider, registry, nil, 0)
	if _, err := orch.Run(context.Background(), userTurn("loop")); err != nil {
		t.Fatal(err)
	}
	if got := provider.calls.Load(); got != DefaultMaxSteps {
		t.Errorf("expected default cap %d, got %d invocations", DefaultMaxSteps, got)
	}
}
