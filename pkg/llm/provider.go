package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// StreamEvent is one unit of a streamed model response. Events arrive as an
// ordered, single-pass sequence: zero or more deltas, then exactly one
// terminal event (Done or Err set).
type StreamEvent struct {
	Delta string
	Done  bool
	Err   error
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any LLM backend
type Provider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and emits the response incrementally.
	// The channel is closed after the terminal event. Cancelling ctx stops
	// upstream token consumption and releases the stream.
	ChatStream(ctx context.Context, history []Message, options ...Option) (<-chan StreamEvent, error)
}
