package driven

import "context"

// LLMService is the chat-completion contract the Enrichment Worker calls
// per §4.8: temperature 0.3, token cap ≈700, structured-output preamble
// parsed by the worker itself (this port returns raw text).
type LLMService interface {
	// Complete issues one chat-completion call with systemPrompt as the
	// composed instructions (user prompt + structured-output preamble)
	// and userContent as the document's subject+body.
	Complete(ctx context.Context, systemPrompt, userContent string, maxTokens int) (string, error)

	// Model returns the model name being used.
	Model() string

	// Ping verifies the LLM service is available.
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service.
	Close() error
}
