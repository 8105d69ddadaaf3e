// Package gemini normalizes Gemini generateContent payloads for tracking.
//
// Google ships no Gemini SDK in this module's dependency set, so the REST
// wire shapes are declared here directly; they follow the v1beta
// models.generateContent schema.
package gemini

import (
	"strings"

	json "github.com/goccy/go-json"

	"github.com/loopline-ai/loopline-go/messages"
	"github.com/loopline-ai/loopline-go/provider"
)

// Name is the provider discriminant stored on tracked calls.
const Name = "gemini"

// Content is one conversation turn on the Gemini wire.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Part is one block inside a Content. Exactly one field is set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
}

// GenerateContentRequest is the request body of models.generateContent.
type GenerateContentRequest struct {
	Contents          []Content `json:"contents"`
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// UsageMetadata is Gemini's token accounting block.
type UsageMetadata struct {
	PromptTokenCount     int64 `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int64 `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int64 `json:"totalTokenCount,omitempty"`
}

// GenerateContentResponse is the response body of models.generateContent.
type GenerateContentResponse struct {
	Candidates    []Candidate    `json:"candidates,omitempty"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

// RequestMessages converts a generateContent request into normalized
// messages. The system instruction, when present, becomes a leading system
// message. Gemini's "model" role maps to the assistant role.
func RequestMessages(req *GenerateContentRequest) []messages.Message {
	if req == nil {
		return nil
	}

	var result []messages.Message
	if req.SystemInstruction != nil {
		result = append(result, messages.System(flattenText(req.SystemInstruction.Parts)))
	}
	for _, content := range req.Contents {
		result = append(result, convertContent(content)...)
	}
	return result
}

// ResponseMessage converts the first candidate into a normalized assistant
// message.
func ResponseMessage(resp *GenerateContentResponse) (messages.Message, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return messages.Message{}, false
	}
	converted := convertContent(*resp.Candidates[0].Content)
	if len(converted) == 0 {
		return messages.Message{}, false
	}
	msg := converted[0]
	msg.Role = messages.RoleAssistant
	return msg, true
}

// Info extracts the normalized call metadata from a generateContent
// response.
func Info(resp *GenerateContentResponse) provider.CallInfo {
	info := provider.CallInfo{Provider: Name}
	if resp == nil {
		return info
	}
	info.Model = resp.ModelVersion
	if len(resp.Candidates) > 0 {
		info.StopReason = resp.Candidates[0].FinishReason
	}
	if resp.UsageMetadata != nil {
		info.Usage = provider.Usage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	return info
}

func convertContent(content Content) []messages.Message {
	role := messages.Role(content.Role)
	if content.Role == "model" {
		role = messages.RoleAssistant
	}
	carrier := messages.Message{Role: role}
	var result []messages.Message
	var texts []string

	for _, part := range content.Parts {
		switch {
		case part.FunctionCall != nil:
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				args = []byte(`{}`)
			}
			carrier.ToolCalls = append(carrier.ToolCalls, messages.ToolCall{
				Name:      part.FunctionCall.Name,
				Arguments: string(args),
			})
		case part.FunctionResponse != nil:
			body, err := json.Marshal(part.FunctionResponse.Response)
			if err != nil {
				body = []byte(`{}`)
			}
			tr := messages.ToolResult("", string(body))
			tr.Name = part.FunctionResponse.Name
			result = append(result, tr)
		case part.Text != "":
			texts = append(texts, part.Text)
		}
	}

	if len(texts) > 0 {
		carrier.Content = messages.Content{Text: strings.Join(texts, "\n")}
	}
	if carrier.Content.Text != "" || len(carrier.ToolCalls) > 0 {
		result = append([]messages.Message{carrier}, result...)
	}
	return result
}

func flattenText(parts []Part) string {
	var texts []string
	for _, part := range parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}
