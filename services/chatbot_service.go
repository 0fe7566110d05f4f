package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const chatSystemPrompt = `You are FlowState's productivity assistant. Help the user plan their day, ` +
	`break work into tasks, build habits, and stay focused. Keep answers short and practical.`

var (
	// ErrChatNotConfigured means no usable API key: either none was provided
	// at startup or the upstream rejected it.
	ErrChatNotConfigured = errors.New("assistant is not configured")
	// ErrChatOverCapacity means every model hit its quota.
	ErrChatOverCapacity = errors.New("assistant is over capacity")
	// ErrChatFailed covers everything else after the fallback chain runs dry.
	ErrChatFailed = errors.New("assistant request failed")
)

// ChatProvider is the slice of the OpenAI client the chatbot needs.
type ChatProvider interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatbotService proxies chat messages to OpenAI, trying each model in order
// until one answers.
type ChatbotService struct {
	provider ChatProvider
	models   []string
}

func NewChatbotService(apiKey string) *ChatbotService {
	s := &ChatbotService{
		models: []string{openai.GPT4oMini, openai.GPT3Dot5Turbo},
	}
	if apiKey != "" {
		s.provider = openai.NewClient(apiKey)
	}
	return s
}

// NewChatbotServiceWithProvider is used by tests to swap in a fake client.
func NewChatbotServiceWithProvider(provider ChatProvider, models []string) *ChatbotService {
	return &ChatbotService{provider: provider, models: models}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatReply struct {
	Reply string `json:"reply"`
	Model string `json:"model,omitempty"`
}

// SendMessage forwards one user message plus prior turns and returns the
// assistant's reply. Quota, auth, and transient failures all advance to the
// next model; the first success short-circuits.
func (s *ChatbotService) SendMessage(ctx context.Context, message string, history []ChatMessage) (*ChatReply, error) {
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if s.provider == nil {
		return nil, ErrChatNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt,
	})
	for _, m := range history {
		role := m.Role
		if role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: message,
	})

	lastFailure := chatFailureTransient
	for _, model := range s.models {
		resp, err := s.provider.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    model,
			Messages: messages,
		})
		if err != nil {
			lastFailure = classifyChatError(err)
			log.Printf("Chat completion with %s failed: %v", model, err)
			continue
		}
		if len(resp.Choices) == 0 {
			continue
		}
		return &ChatReply{Reply: resp.Choices[0].Message.Content, Model: model}, nil
	}

	switch lastFailure {
	case chatFailureQuota:
		return nil, ErrChatOverCapacity
	case chatFailureAuth:
		return nil, ErrChatNotConfigured
	}
	return nil, ErrChatFailed
}

type chatFailure int

const (
	chatFailureTransient chatFailure = iota
	chatFailureQuota
	chatFailureAuth
)

// classifyChatError sorts an attempt's failure into quota, auth, or transient.
// An auth rejection means the API key is bad, which reads the same as not
// configured to the caller.
func classifyChatError(err error) chatFailure {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return chatFailureQuota
		case http.StatusUnauthorized, http.StatusForbidden:
			return chatFailureAuth
		}
	}
	return chatFailureTransient
}
