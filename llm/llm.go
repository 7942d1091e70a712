// Package llm provides a minimal provider-agnostic client for chat
// completion endpoints. A single HTTP adapter speaks the OpenAI-compatible
// API surface, which also covers OpenRouter- and Groq-hosted models.
package llm

import "context"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model    string
	Messages []Message

	// Temperature and MaxTokens are passed through when non-nil.
	Temperature *float64
	MaxTokens   *int

	// JSONResponse requests a JSON-object response format from providers
	// that support it.
	JSONResponse bool
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Response is a completed model turn.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Client is the interface consumed by the normalization stage. Implemented
// by HTTPClient in production and by fakes in tests.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
