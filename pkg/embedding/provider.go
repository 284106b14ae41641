package embedding

import "context"

// Task types forwarded to providers that distinguish document and query
// embeddings (Gemini does; Ollama ignores them).
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// Provider maps a batch of texts to fixed-length vectors. Implementations
// must return one vector per input text, in input order.
type Provider interface {
	Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}
