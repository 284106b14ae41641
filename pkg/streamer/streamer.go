// Package streamer turns retrieved chunks and a question into a grounded,
// cancellable token stream. The model is only ever allowed to answer from
// the supplied chunks; with no chunks at all it never gets called.
package streamer

import (
	"context"
	"fmt"
	"strings"

	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/retrieval"
)

// NoAnswerFallback is emitted verbatim when retrieval found nothing. It is
// also the refusal the model is instructed to use if it cannot answer from
// the provided context.
const NoAnswerFallback = "I couldn't find the answer to your question in the provided documents."

const systemPromptHeader = `You are a document assistant. Answer the user's question using ONLY the document excerpts below. Rules:
1. Use only the excerpts as factual grounding. Never use outside knowledge.
2. If the excerpts do not contain the answer, reply exactly: "%s"
3. When you do answer, begin with "Based on your documents, " and then answer concisely.

Document excerpts:
%s`

// FailureKind classifies upstream generation errors so callers can render
// distinct guidance or decide whether to retry.
type FailureKind string

const (
	FailureQuotaExceeded FailureKind = "quota_exceeded"
	FailureRateLimited   FailureKind = "rate_limited"
	FailureAuth          FailureKind = "auth_error"
	FailureModel         FailureKind = "model_error"
	FailureGeneric       FailureKind = "generic_error"
)

type Streamer struct {
	provider llm.Provider
	opts     []llm.Option
}

func New(provider llm.Provider, opts ...llm.Option) *Streamer {
	return &Streamer{provider: provider, opts: opts}
}

// Answer streams the grounded response token by token, in order. Cancelling
// ctx stops upstream consumption; tokens already emitted are not retracted.
func (s *Streamer) Answer(ctx context.Context, question string, chunks []retrieval.Chunk, history []llm.Message) (<-chan llm.StreamEvent, error) {
	if len(chunks) == 0 {
		events := make(chan llm.StreamEvent, 2)
		events <- llm.StreamEvent{Delta: NoAnswerFallback}
		events <- llm.StreamEvent{Done: true}
		close(events)
		return events, nil
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    "system",
		Content: buildSystemPrompt(chunks),
	})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: question})

	return s.provider.ChatStream(ctx, messages, s.opts...)
}

func buildSystemPrompt(chunks []retrieval.Chunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[Excerpt %d, source: %s", i+1, chunk.Metadata.SourceName)
		if chunk.Metadata.Page > 0 {
			fmt.Fprintf(&b, ", page %d of %d", chunk.Metadata.Page, chunk.Metadata.TotalPages)
		}
		b.WriteString("]\n")
		b.WriteString(chunk.Content)
		b.WriteString("\n\n")
	}
	return fmt.Sprintf(systemPromptHeader, NoAnswerFallback, b.String())
}

// Classify maps an upstream model error to a failure kind. Matching is on
// well-known substrings because every provider wraps its errors differently.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureGeneric
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "insufficient_quota") || strings.Contains(msg, "quota"):
		return FailureQuotaExceeded
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit"):
		return FailureRateLimited
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key") ||
		strings.Contains(msg, "authentication"):
		return FailureAuth
	case strings.Contains(msg, "model") || strings.Contains(msg, "404") ||
		strings.Contains(msg, "overloaded") || strings.Contains(msg, "503"):
		return FailureModel
	default:
		return FailureGeneric
	}
}

// Message returns the user-facing text for a failure kind.
func (k FailureKind) Message() string {
	switch k {
	case FailureQuotaExceeded:
		return "The AI provider quota has been exceeded. Please try again later."
	case FailureRateLimited:
		return "Too many requests to the AI provider. Please wait a moment and retry."
	case FailureAuth:
		return "The AI provider rejected the configured credentials."
	case FailureModel:
		return "The AI model is currently unavailable."
	default:
		return "Answer generation failed. Please try again."
	}
}
