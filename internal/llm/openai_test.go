package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCompleter struct {
	lastReq  openai.ChatCompletionRequest
	response string
	finish   openai.FinishReason
	err      error
}

func (m *mockCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.response},
				FinishReason: m.finish,
			},
		},
	}, nil
}

func TestOpenAIClient_GenerateJSON(t *testing.T) {
	mock := &mockCompleter{response: "```json\n{\"value\": 40}\n```"}
	client := &OpenAIClient{client: mock, config: DefaultOpenAIConfig("")}

	out, err := client.GenerateJSON(context.Background(), "extract", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, `{"value": 40}`, out)
	require.NotNil(t, mock.lastReq.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, mock.lastReq.ResponseFormat.Type)
	assert.Equal(t, "gpt-4o-mini", mock.lastReq.Model)
}

func TestOpenAIClient_GenerateContent(t *testing.T) {
	mock := &mockCompleter{response: "Bonjour !"}
	client := &OpenAIClient{client: mock, config: DefaultOpenAIConfig("")}

	out, err := client.GenerateContent(context.Background(), "greet", TierAdvanced)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour !", out)
	assert.Nil(t, mock.lastReq.ResponseFormat)
	assert.Equal(t, "gpt-4o", mock.lastReq.Model)
}

func TestOpenAIClient_Error(t *testing.T) {
	mock := &mockCompleter{err: errors.New("502 bad gateway")}
	client := &OpenAIClient{client: mock, config: DefaultOpenAIConfig("")}

	_, err := client.GenerateContent(context.Background(), "x", TierLite)
	assert.ErrorContains(t, err, "502")
}

func TestOpenAIClient_SystemInstruction(t *testing.T) {
	mock := &mockCompleter{response: "ok"}
	client := &OpenAIClient{client: mock, config: DefaultOpenAIConfig("")}

	_, err := client.GenerateContent(context.Background(), "question", TierLite)
	require.NoError(t, err)
	require.Len(t, mock.lastReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, mock.lastReq.Messages[0].Role)
	assert.Equal(t, DefaultSystemInstruction, mock.lastReq.Messages[0].Content)
	assert.Equal(t, "question", mock.lastReq.Messages[1].Content)

	client.config = client.config.clone()
	client.config.SystemInstruction = ""
	_, err = client.GenerateContent(context.Background(), "question", TierLite)
	require.NoError(t, err)
	assert.Len(t, mock.lastReq.Messages, 1)
}

func TestOpenAIClient_ContentFilter(t *testing.T) {
	mock := &mockCompleter{finish: openai.FinishReasonContentFilter}
	client := &OpenAIClient{client: mock, config: DefaultOpenAIConfig("")}

	_, err := client.GenerateJSON(context.Background(), "x", TierStandard)
	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, ProviderOpenAI, blocked.Provider)
}
