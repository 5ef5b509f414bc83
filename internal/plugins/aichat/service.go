package aichat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/config"
)

const (
	msgPromptRequired = "Please send 'prompt' in the request body"
	msgNotConfigured  = "AI endpoint is not configured"
	msgRateLimited    = "Too many AI requests, please try again later"
	msgUpstream       = "Error connecting to the AI service"
)

// ChatService completes prompts against the configured deployment.
type ChatService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// chatService implements ChatService. client is nil when unconfigured.
type chatService struct {
	client     *openai.Client
	deployment string
	limiter    *rate.Limiter
}

// NewChatService creates a chat service from the AI settings. A missing
// endpoint or key yields a service whose calls fail with a config error.
func NewChatService(cfg config.AIConfig) ChatService {
	perMinute := max(cfg.RequestsPerMinute, 1)
	s := &chatService{
		deployment: cfg.Deployment,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return s
	}

	clientCfg := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	if cfg.APIVersion != "" {
		clientCfg.APIVersion = cfg.APIVersion
	}
	deployment := cfg.Deployment
	clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
	s.client = openai.NewClientWithConfig(clientCfg)
	return s
}

// Complete sends the prompt with the fixed system message and returns the
// first choice's content.
func (s *chatService) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperror.NewBadRequest(msgPromptRequired)
	}
	if s.client == nil {
		return "", &apperror.AppError{
			Code:    http.StatusInternalServerError,
			Type:    "config_error",
			Message: msgNotConfigured,
		}
	}
	if !s.limiter.Allow() {
		return "", apperror.NewTooManyRequests(msgRateLimited)
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.deployment,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		slog.Error("ai chat completion failed", slog.Any("error", err))
		return "", apperror.NewBadGateway(msgUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", apperror.NewBadGateway(msgUpstream, errors.New("completion returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}
