// Package openai normalizes OpenAI chat-completion payloads for tracking.
//
// Responses are consumed through the official SDK types; request messages
// are extracted from the raw request JSON so any client built on the OpenAI
// wire format can be tracked, not only ones using the official SDK.
package openai

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"

	"github.com/loopline-ai/loopline-go/messages"
	"github.com/loopline-ai/loopline-go/provider"
	"github.com/loopline-ai/loopline-go/tool"
)

// Name is the provider discriminant stored on tracked calls.
const Name = "openai"

// RequestMessages extracts normalized messages from the "messages" array of
// a chat-completion request body.
func RequestMessages(raw []byte) ([]messages.Message, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("invalid request json")
	}
	msgs := gjson.GetBytes(raw, "messages")
	if !msgs.IsArray() {
		return nil, fmt.Errorf("request has no messages array")
	}

	var result []messages.Message
	for _, jv := range msgs.Array() {
		msg := messages.Message{
			Role: messages.Role(jv.Get("role").String()),
			Name: jv.Get("name").String(),
		}

		content := jv.Get("content")
		switch {
		case content.IsArray():
			for _, part := range content.Array() {
				switch part.Get("type").String() {
				case "text":
					msg.Content.Parts = append(msg.Content.Parts, messages.Text(part.Get("text").String()))
				case "image_url":
					msg.Content.Parts = append(msg.Content.Parts, messages.Image(part.Get("image_url.url").String()))
				}
			}
		case content.Type == gjson.String:
			msg.Content.Text = content.String()
		}

		for _, tc := range jv.Get("tool_calls").Array() {
			msg.ToolCalls = append(msg.ToolCalls, messages.ToolCall{
				ID:        tc.Get("id").String(),
				Name:      tc.Get("function.name").String(),
				Arguments: tc.Get("function.arguments").String(),
			})
		}
		if msg.Role == messages.RoleTool {
			msg.ToolCallID = jv.Get("tool_call_id").String()
		}

		result = append(result, msg)
	}
	return result, nil
}

// RequestTools extracts the tool definitions offered in a chat-completion
// request body. Parameter schemas are reduced to name/type/description.
func RequestTools(raw []byte) []tool.Definition {
	var defs []tool.Definition
	for _, tj := range gjson.GetBytes(raw, "tools").Array() {
		fn := tj.Get("function")
		def := tool.Definition{
			Name:        fn.Get("name").String(),
			Description: fn.Get("description").String(),
		}
		required := make(map[string]bool)
		for _, req := range fn.Get("parameters.required").Array() {
			required[req.String()] = true
		}
		fn.Get("parameters.properties").ForEach(func(key, value gjson.Result) bool {
			def.Params = append(def.Params, tool.Param{
				Name:        key.String(),
				Type:        value.Get("type").String(),
				Description: value.Get("description").String(),
				Required:    required[key.String()],
			})
			return true
		})
		defs = append(defs, def)
	}
	return defs
}

// ResponseMessage converts the first choice of a completion into a
// normalized assistant message. The second return value is false when the
// completion has no choices.
func ResponseMessage(chat *openai.ChatCompletion) (messages.Message, bool) {
	if chat == nil || len(chat.Choices) == 0 {
		return messages.Message{}, false
	}

	choice := chat.Choices[0].Message
	msg := messages.Message{
		Role:    messages.RoleAssistant,
		Content: messages.Content{Text: choice.Content},
	}
	for _, tc := range choice.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, messages.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return msg, true
}

// Info extracts the normalized call metadata from a completion.
func Info(chat *openai.ChatCompletion) provider.CallInfo {
	info := provider.CallInfo{Provider: Name}
	if chat == nil {
		return info
	}
	info.Model = chat.Model
	info.Usage = provider.Usage{
		InputTokens:  chat.Usage.PromptTokens,
		OutputTokens: chat.Usage.CompletionTokens,
		TotalTokens:  chat.Usage.TotalTokens,
	}
	if len(chat.Choices) > 0 {
		info.StopReason = string(chat.Choices[0].FinishReason)
	}
	return info
}
