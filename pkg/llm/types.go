package llm

import "encoding/json"

// Message roles. The full history is supplied by the caller on every
// turn; the orchestrator only appends within a single turn.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message in a conversation.
type Message struct {
	Role    string     `json:"role"`
	Content string     `json:"content"`
	Tools   []ToolCall `json:"tool_calls,omitempty"`
}

// TextMessage builds a plain message with the given role.
func TextMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// ToolResultMessage builds the message that carries a tool's result back
// to the model, keyed to the originating call ID.
func ToolResultMessage(callID, content string) Message {
	return Message{
		Role:    RoleTool,
		Content: content,
		Tools:   []ToolCall{{ID: callID}},
	}
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the function name and arguments for a tool call.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Tool describes a tool that can be provided to the model.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function describes a callable function including its parameters schema.
type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Response represents a complete response from an LLM provider.
type Response struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"usage"`
}

// Usage tracks token consumption for a request/response pair.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Delta represents an incremental update during streaming.
type Delta struct {
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}
