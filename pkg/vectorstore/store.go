// Package vectorstore defines the minimal index-store contract the
// retrieval core depends on: upsert, similarity search, a paged metadata
// walk, and delete-by-id. Tenant filtering deliberately lives OUTSIDE this
// package — the native payload filter of the backing store is not trusted.
package vectorstore

import "context"

// ChunkMetadata is the fixed payload schema attached to every chunk. It is
// decided once at ingestion time and carried immutably through chunking.
type ChunkMetadata struct {
	TenantID     string `json:"tenant_id"`
	SourceName   string `json:"source_name"`
	ContentType  string `json:"content_type"`
	Page         int    `json:"page,omitempty"`        // 1-based, pdf only
	TotalPages   int    `json:"total_pages,omitempty"` // pdf only
	SectionIndex int    `json:"section_index"`         // 0-based web section, -1 otherwise
}

// Point is an embedded chunk ready for indexing.
type Point struct {
	ID       string
	Vector   []float32
	Content  string
	Metadata ChunkMetadata
}

// SearchHit is one similarity-search candidate, ordered by descending score.
type SearchHit struct {
	ID       string
	Score    float32
	Content  string
	Metadata ChunkMetadata
}

// ScrollItem is one row of a paged metadata walk (no vectors).
type ScrollItem struct {
	ID       string
	Metadata ChunkMetadata
}

type Store interface {
	Upsert(ctx context.Context, points []Point) error

	// Search returns up to limit hits ordered by descending similarity.
	// No filtering happens here; callers oversample and filter themselves.
	Search(ctx context.Context, vector []float32, limit int) ([]SearchHit, error)

	// Scroll pages through all stored points. Pass an empty offset to start;
	// an empty next offset means the walk is done.
	Scroll(ctx context.Context, offset string, limit int) (items []ScrollItem, next string, err error)

	Delete(ctx context.Context, ids []string) error

	Close() error
}

const scrollPageSize = 256

// DeleteWhere removes every point whose metadata matches pred and returns
// the number of deleted points. This is a linear scan by design: the payload
// schema is not guaranteed indexable by the store, so deletion never relies
// on a native query.
func DeleteWhere(ctx context.Context, s Store, pred func(ChunkMetadata) bool) (int, error) {
	deleted := 0
	offset := ""
	for {
		items, next, err := s.Scroll(ctx, offset, scrollPageSize)
		if err != nil {
			return deleted, err
		}

		var ids []string
		for _, item := range items {
			if pred(item.Metadata) {
				ids = append(ids, item.ID)
			}
		}
		if len(ids) > 0 {
			if err := s.Delete(ctx, ids); err != nil {
				return deleted, err
			}
			deleted += len(ids)
		}

		if next == "" {
			return deleted, nil
		}
		offset = next
	}
}
