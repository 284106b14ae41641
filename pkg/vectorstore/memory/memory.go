// Package memory is a brute-force cosine-similarity store. It backs unit
// tests and small local deployments; the on-wire backends live in the
// sibling qdrant and pgvector packages.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"doc-chat-be/pkg/vectorstore"
)

type Store struct {
	mu     sync.RWMutex
	points []vectorstore.Point
}

var _ vectorstore.Store = &Store{}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		replaced := false
		for i := range s.points {
			if s.points[i].ID == p.ID {
				s.points[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			s.points = append(s.points, p)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 5
	}

	hits := make([]vectorstore.SearchHit, 0, len(s.points))
	for _, p := range s.points {
		hits = append(hits, vectorstore.SearchHit{
			ID:       p.ID,
			Score:    cosine(p.Vector, vector),
			Content:  p.Content,
			Metadata: p.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit > len(hits) {
		limit = len(hits)
	}
	return hits[:limit], nil
}

func (s *Store) Scroll(ctx context.Context, offset string, limit int) ([]vectorstore.ScrollItem, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 256
	}

	start := 0
	if offset != "" {
		for i, p := range s.points {
			if p.ID == offset {
				start = i
				break
			}
		}
	}

	end := start + limit
	if end > len(s.points) {
		end = len(s.points)
	}

	items := make([]vectorstore.ScrollItem, 0, end-start)
	for _, p := range s.points[start:end] {
		items = append(items, vectorstore.ScrollItem{ID: p.ID, Metadata: p.Metadata})
	}

	next := ""
	if end < len(s.points) {
		next = s.points[end].ID
	}
	return items, next, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := s.points[:0]
	for _, p := range s.points {
		if !drop[p.ID] {
			kept = append(kept, p)
		}
	}
	s.points = kept
	return nil
}

func (s *Store) Close() error { return nil }

// Len reports the number of stored points. Used by tests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}
