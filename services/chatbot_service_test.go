package services

import (
	"context"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatProvider struct {
	calls     []string
	lastReq   openai.ChatCompletionRequest
	responses map[string]openai.ChatCompletionResponse
	errs      map[string]error
}

func (f *fakeChatProvider) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls = append(f.calls, req.Model)
	f.lastReq = req
	if err, ok := f.errs[req.Model]; ok {
		return openai.ChatCompletionResponse{}, err
	}
	return f.responses[req.Model], nil
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestSendMessageFirstModelAnswers(t *testing.T) {
	fake := &fakeChatProvider{
		responses: map[string]openai.ChatCompletionResponse{
			"model-a": chatResponse("hello"),
		},
	}
	svc := NewChatbotServiceWithProvider(fake, []string{"model-a", "model-b"})

	reply, err := svc.SendMessage(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Reply)
	assert.Equal(t, "model-a", reply.Model)
	assert.Equal(t, []string{"model-a"}, fake.calls)
}

func TestSendMessageIncludesHistory(t *testing.T) {
	fake := &fakeChatProvider{
		responses: map[string]openai.ChatCompletionResponse{
			"model-a": chatResponse("sure"),
		},
	}
	svc := NewChatbotServiceWithProvider(fake, []string{"model-a"})

	history := []ChatMessage{
		{Role: "user", Content: "plan my morning"},
		{Role: "assistant", Content: "start with deep work"},
	}
	_, err := svc.SendMessage(context.Background(), "and the afternoon?", history)
	require.NoError(t, err)

	// system prompt, two history turns, the new message.
	require.Len(t, fake.lastReq.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, fake.lastReq.Messages[0].Role)
	assert.Equal(t, "plan my morning", fake.lastReq.Messages[1].Content)
	assert.Equal(t, openai.ChatMessageRoleAssistant, fake.lastReq.Messages[2].Role)
	assert.Equal(t, "and the afternoon?", fake.lastReq.Messages[3].Content)
}

func TestSendMessageFallsBackOnFailure(t *testing.T) {
	fake := &fakeChatProvider{
		errs: map[string]error{
			"model-a": &openai.APIError{HTTPStatusCode: http.StatusInternalServerError},
		},
		responses: map[string]openai.ChatCompletionResponse{
			"model-b": chatResponse("backup"),
		},
	}
	svc := NewChatbotServiceWithProvider(fake, []string{"model-a", "model-b"})

	reply, err := svc.SendMessage(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "backup", reply.Reply)
	assert.Equal(t, "model-b", reply.Model)
	assert.Equal(t, []string{"model-a", "model-b"}, fake.calls)
}

func TestSendMessageAllModelsOverQuota(t *testing.T) {
	fake := &fakeChatProvider{
		errs: map[string]error{
			"model-a": &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
			"model-b": &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
		},
	}
	svc := NewChatbotServiceWithProvider(fake, []string{"model-a", "model-b"})

	_, err := svc.SendMessage(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrChatOverCapacity)
}

func TestSendMessageAllModelsRejectKey(t *testing.T) {
	fake := &fakeChatProvider{
		errs: map[string]error{
			"model-a": &openai.APIError{HTTPStatusCode: http.StatusUnauthorized},
			"model-b": &openai.APIError{HTTPStatusCode: http.StatusForbidden},
		},
	}
	svc := NewChatbotServiceWithProvider(fake, []string{"model-a", "model-b"})

	_, err := svc.SendMessage(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrChatNotConfigured)
	assert.Equal(t, []string{"model-a", "model-b"}, fake.calls)
}

func TestSendMessageAllModelsFail(t *testing.T) {
	fake := &fakeChatProvider{
		errs: map[string]error{
			"model-a": &openai.APIError{HTTPStatusCode: http.StatusInternalServerError},
			"model-b": &openai.APIError{HTTPStatusCode: http.StatusBadGateway},
		},
	}
	svc := NewChatbotServiceWithProvider(fake, []string{"model-a", "model-b"})

	_, err := svc.SendMessage(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrChatFailed)
}

func TestSendMessageNoProvider(t *testing.T) {
	svc := NewChatbotService("")

	_, err := svc.SendMessage(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrChatNotConfigured)
}

func TestSendMessageEmptyMessage(t *testing.T) {
	fake := &fakeChatProvider{}
	svc := NewChatbotServiceWithProvider(fake, []string{"model-a"})

	_, err := svc.SendMessage(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, fake.calls)
}
