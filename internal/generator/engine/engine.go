package engine

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string
	Content string
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: RoleUser, Content: content} }

// JSONSchema asks the engine for a single JSON object matching Schema.
type JSONSchema struct {
	Name   string
	Schema map[string]any
	Strict bool
}

type GenerateOptions struct {
	Temperature float64
	// MaxTokens caps the completion length. Zero leaves it to the upstream default.
	MaxTokens  int
	JSONSchema *JSONSchema
}

// Engine completes a chat transcript. Implementations must honour ctx cancellation.
type Engine interface {
	GenerateText(ctx context.Context, model string, messages []Message, opts GenerateOptions) (string, error)
}
