// Package messages defines the provider-neutral conversation model used for
// call tracking. Provider packages translate OpenAI, Anthropic and Gemini
// wire formats into these types so tracked records look the same no matter
// which backend produced them.
package messages

import "github.com/go-openapi/strfmt"

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one normalized conversation turn.
type Message struct {
	Role       Role            `json:"role"`
	Content    Content         `json:"content"`
	Name       string          `json:"name,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Timestamp  strfmt.DateTime `json:"timestamp,omitempty"`
}

// ToolCall records a function invocation requested by the model. Arguments
// holds the raw JSON argument string exactly as the provider returned it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// System builds a system message from plain text.
func System(text string) Message {
	return Message{Role: RoleSystem, Content: Content{Text: text}}
}

// User builds a user message from plain text.
func User(text string) Message {
	return Message{Role: RoleUser, Content: Content{Text: text}}
}

// Assistant builds an assistant message from plain text.
func Assistant(text string) Message {
	return Message{Role: RoleAssistant, Content: Content{Text: text}}
}

// ToolResult builds a tool message carrying the result of a tool call.
func ToolResult(callID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: Content{Text: content}}
}
