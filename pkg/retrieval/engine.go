// Package retrieval turns a question into the chunks that ground an answer.
// The index store's native payload filter is not trusted for tenant
// isolation, so the engine oversamples an unfiltered search and applies the
// tenant and source predicates itself before truncating to k.
package retrieval

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/vectorstore"
)

const (
	// DefaultTopK is the number of chunks handed to generation.
	DefaultTopK = 4

	// oversampleFactor and oversampleFloor size the raw search so that
	// post-filter truncation still has enough tenant-local candidates.
	oversampleFactor = 4
	oversampleFloor  = 15

	queryCacheTTL     = 5 * time.Minute
	queryCacheCleanup = 10 * time.Minute
)

// Chunk is one retrieved passage with the metadata the prompt builder and
// the citation layer need.
type Chunk struct {
	Content  string
	Score    float32
	Metadata vectorstore.ChunkMetadata
}

type Engine struct {
	store      vectorstore.Store
	embedder   embedding.Provider
	queryCache *gocache.Cache
}

func NewEngine(store vectorstore.Store, embedder embedding.Provider) *Engine {
	return &Engine{
		store:      store,
		embedder:   embedder,
		queryCache: gocache.New(queryCacheTTL, queryCacheCleanup),
	}
}

// Retrieve returns up to k chunks belonging to tenantID, ordered by
// descending similarity. A non-empty sourceName restricts results to that
// source. Fewer than k matches is not an error; zero matches returns an
// empty slice.
func (e *Engine) Retrieve(ctx context.Context, tenantID, query, sourceName string, k int) ([]Chunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	vector, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rawLimit := k * oversampleFactor
	if rawLimit < oversampleFloor {
		rawLimit = oversampleFloor
	}

	hits, err := e.store.Search(ctx, vector, rawLimit)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	chunks := make([]Chunk, 0, k)
	for _, hit := range hits {
		if hit.Metadata.TenantID != tenantID {
			continue
		}
		if sourceName != "" && hit.Metadata.SourceName != sourceName {
			continue
		}
		chunks = append(chunks, Chunk{
			Content:  hit.Content,
			Score:    hit.Score,
			Metadata: hit.Metadata,
		})
		if len(chunks) == k {
			break
		}
	}
	return chunks, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if cached, found := e.queryCache.Get(query); found {
		return cached.([]float32), nil
	}

	vectors, err := e.embedder.Embed(ctx, []string{query}, embedding.TaskQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(vectors))
	}

	e.queryCache.Set(query, vectors[0], gocache.DefaultExpiration)
	return vectors[0], nil
}
