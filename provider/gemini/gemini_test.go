package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopline-ai/loopline-go/messages"
)

func TestRequestMessages(t *testing.T) {
	req := &GenerateContentRequest{
		SystemInstruction: &Content{Parts: []Part{{Text: "You are terse."}}},
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: "what's the weather in Oslo?"}}},
			{Role: "model", Parts: []Part{{FunctionCall: &FunctionCall{
				Name: "get_weather",
				Args: map[string]any{"city": "Oslo"},
			}}}},
			{Role: "user", Parts: []Part{{FunctionResponse: &FunctionResponse{
				Name:     "get_weather",
				Response: map[string]any{"celsius": 12},
			}}}},
		},
	}

	msgs := RequestMessages(req)
	require.Len(t, msgs, 4)

	assert.Equal(t, messages.RoleSystem, msgs[0].Role)
	assert.Equal(t, "You are terse.", msgs[0].Content.Text)

	assert.Equal(t, messages.RoleUser, msgs[1].Role)

	assert.Equal(t, messages.RoleAssistant, msgs[2].Role)
	require.Len(t, msgs[2].ToolCalls, 1)
	assert.Equal(t, "get_weather", msgs[2].ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"Oslo"}`, msgs[2].ToolCalls[0].Arguments)

	assert.Equal(t, messages.RoleTool, msgs[3].Role)
	assert.Equal(t, "get_weather", msgs[3].Name)
	assert.JSONEq(t, `{"celsius":12}`, msgs[3].Content.Text)
}

func TestResponseMessage(t *testing.T) {
	resp := &GenerateContentResponse{
		ModelVersion: "gemini-2.0-flash",
		Candidates: []Candidate{{
			FinishReason: "STOP",
			Content:      &Content{Role: "model", Parts: []Part{{Text: "12 degrees."}}},
		}},
		UsageMetadata: &UsageMetadata{PromptTokenCount: 9, CandidatesTokenCount: 3, TotalTokenCount: 12},
	}

	msg, ok := ResponseMessage(resp)
	require.True(t, ok)
	assert.Equal(t, messages.RoleAssistant, msg.Role)
	assert.Equal(t, "12 degrees.", msg.Content.Text)

	info := Info(resp)
	assert.Equal(t, Name, info.Provider)
	assert.Equal(t, "gemini-2.0-flash", info.Model)
	assert.Equal(t, "STOP", info.StopReason)
	assert.EqualValues(t, 12, info.Usage.TotalTokens)
}

func TestResponseMessageEmpty(t *testing.T) {
	_, ok := ResponseMessage(nil)
	assert.False(t, ok)
	_, ok = ResponseMessage(&GenerateContentResponse{})
	assert.False(t, ok)
}

func TestMultiTextPartsJoined(t *testing.T) {
	msgs := RequestMessages(&GenerateContentRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: "a"}, {Text: "b"}}}},
	})
	require.Len(t, msgs, 1)
	assert.Equal(t, "a\nb", msgs[0].Content.Text)
}
