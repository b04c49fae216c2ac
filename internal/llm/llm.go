// Package llm wraps the chat-completion provider behind a streaming and a
// single-shot call.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Request is one chat completion.
type Request struct {
	System string
	User   string

	// Platform labels errors, spans and metrics. Optional.
	Platform string

	MaxTokens   int
	Temperature float32

	// ExpectJSON asks for JSON mode when the model supports it.
	// Other models rely on the prompt alone.
	ExpectJSON bool
}

// Usage is the provider-reported token usage, when present.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Completion is the result of a single-shot call.
type Completion struct {
	Text  string
	Model string
	Usage *Usage
}

// Client is the completion API used by the generation and recycling paths.
type Client interface {
	Stream(ctx context.Context, req Request) (*Stream, error)
	Complete(ctx context.Context, req Request) (Completion, error)
	Model() string
}

// jsonModeModels lists the models that accept response_format=json_object.
var jsonModeModels = map[string]bool{
	"gpt-4-1106-preview": true,
	"gpt-4-turbo":        true,
	"gpt-3.5-turbo-1106": true,
	"gpt-4o-mini":        true,
	"gpt-4o":             true,
}

// SupportsJSONMode reports whether model accepts JSON mode.
func SupportsJSONMode(model string) bool {
	return jsonModeModels[model]
}

var (
	// ErrEmptyAPIKey indicates that the API key was not provided.
	ErrEmptyAPIKey = errors.New("API key is required")

	// ErrStreamClosed is carried by Next after the stream reached a terminal event.
	ErrStreamClosed = errors.New("stream closed")
)

// ProviderError is a failed call to the provider.
type ProviderError struct {
	Op       string // "stream" or "complete"
	Platform string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Platform != "" {
		return fmt.Sprintf("llm %s (%s, %s): %v", e.Op, e.Model, e.Platform, e.Err)
	}
	return fmt.Sprintf("llm %s (%s): %v", e.Op, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
