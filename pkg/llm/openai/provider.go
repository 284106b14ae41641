package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"doc-chat-be/pkg/llm"
)

// OpenAIProvider implements llm.Provider for OpenAI-compatible APIs.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

var _ llm.Provider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	params := p.buildParams(history, opts...)

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// ChatStream relays SSE deltas from the completions endpoint. Tokens are
// forwarded in arrival order; cancelling ctx terminates the SSE stream.
func (p *OpenAIProvider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.StreamEvent, error) {
	params := p.buildParams(history, opts...)

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	ch := make(chan llm.StreamEvent, 16)
	go func() {
		defer close(ch)
		defer stream.Close()

		for stream.Next() {
			select {
			case <-ctx.Done():
				ch <- llm.StreamEvent{Err: ctx.Err()}
				return
			default:
			}

			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				ch <- llm.StreamEvent{Delta: delta}
			}
		}

		if err := stream.Err(); err != nil {
			ch <- llm.StreamEvent{Err: fmt.Errorf("openai streaming error: %w", err)}
			return
		}
		ch <- llm.StreamEvent{Done: true}
	}()

	return ch, nil
}

func (p *OpenAIProvider) buildParams(history []llm.Message, opts ...llm.Option) openai.ChatCompletionNewParams {
	options := &llm.Options{Temperature: 0.7}
	for _, opt := range opts {
		opt(options)
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(msg.Content))
		case "assistant", "model":
			msgs = append(msgs, openai.AssistantMessage(msg.Content))
		default:
			msgs = append(msgs, openai.UserMessage(msg.Content))
		}
	}

	model := p.model
	if options.Model != "" {
		model = options.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	return params
}
