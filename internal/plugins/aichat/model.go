// Package aichat is a thin admin-only pass-through to an Azure OpenAI chat
// deployment, used by the dashboard's writing assistant.
package aichat

const (
	systemPrompt = "You are a helpful assistant."
	maxTokens    = 1024
	temperature  = 0.7
)

// ChatRequest is the body of POST /api/openai-chat.
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}
