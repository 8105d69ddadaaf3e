// Package anthropic normalizes Anthropic Messages API payloads for
// tracking, consuming the go-anthropic SDK types directly.
package anthropic

import (
	"github.com/liushuangls/go-anthropic/v2"

	"github.com/loopline-ai/loopline-go/messages"
	"github.com/loopline-ai/loopline-go/provider"
)

// Name is the provider discriminant stored on tracked calls.
const Name = "anthropic"

// RequestMessages converts a messages request into normalized messages.
// The system prompt, when set, becomes a leading system message. Image
// blocks are dropped; Anthropic inlines image bytes rather than URLs, and
// tracked records only keep addressable content.
func RequestMessages(req *anthropic.MessagesRequest) []messages.Message {
	if req == nil {
		return nil
	}

	var result []messages.Message
	if req.System != "" {
		result = append(result, messages.System(req.System))
	}
	for _, m := range req.Messages {
		result = append(result, convertMessage(m.Role, m.Content)...)
	}
	return result
}

// ResponseMessage converts a messages response into one normalized
// assistant message.
func ResponseMessage(resp *anthropic.MessagesResponse) (messages.Message, bool) {
	if resp == nil || len(resp.Content) == 0 {
		return messages.Message{}, false
	}
	converted := convertMessage(anthropic.RoleAssistant, resp.Content)
	if len(converted) == 0 {
		return messages.Message{}, false
	}
	return converted[0], true
}

// Info extracts the normalized call metadata from a messages response.
func Info(resp *anthropic.MessagesResponse) provider.CallInfo {
	info := provider.CallInfo{Provider: Name}
	if resp == nil {
		return info
	}
	info.Model = string(resp.Model)
	info.StopReason = string(resp.StopReason)
	info.Usage = provider.Usage{
		InputTokens:  int64(resp.Usage.InputTokens),
		OutputTokens: int64(resp.Usage.OutputTokens),
		TotalTokens:  int64(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}
	return info
}

// convertMessage flattens one Anthropic message into normalized messages.
// Text and tool_use blocks stay on the carrier message; every tool_result
// block becomes its own tool message, since the normalized model gives tool
// results a dedicated role.
func convertMessage(role anthropic.ChatRole, content []anthropic.MessageContent) []messages.Message {
	carrier := messages.Message{Role: messages.Role(role)}
	var result []messages.Message
	var texts []messages.Part

	for _, c := range content {
		switch c.Type {
		case anthropic.MessagesContentTypeText:
			texts = append(texts, messages.Text(c.GetText()))
		case anthropic.MessagesContentTypeToolUse:
			if c.MessageContentToolUse == nil {
				continue
			}
			carrier.ToolCalls = append(carrier.ToolCalls, messages.ToolCall{
				ID:        c.MessageContentToolUse.ID,
				Name:      c.MessageContentToolUse.Name,
				Arguments: string(c.MessageContentToolUse.Input),
			})
		case anthropic.MessagesContentTypeToolResult:
			if c.MessageContentToolResult == nil || c.MessageContentToolResult.ToolUseID == nil {
				continue
			}
			var text string
			for _, inner := range c.MessageContentToolResult.Content {
				if inner.Type == anthropic.MessagesContentTypeText {
					text = inner.GetText()
				}
			}
			result = append(result, messages.ToolResult(*c.MessageContentToolResult.ToolUseID, text))
		}
	}

	switch len(texts) {
	case 0:
	case 1:
		carrier.Content = messages.Content{Text: texts[0].(messages.TextPart).Text}
	default:
		carrier.Content = messages.Content{Parts: texts}
	}

	if carrier.Content.Text != "" || carrier.Content.Parts != nil || len(carrier.ToolCalls) > 0 {
		result = append([]messages.Message{carrier}, result...)
	}
	return result
}
