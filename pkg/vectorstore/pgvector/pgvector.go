// Package pgvector backs the index-store contract with a Postgres table and
// the pgvector extension. Like the qdrant backend, Search returns an
// unfiltered ranking; tenant filtering stays in the retrieval layer.
package pgvector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	pgv "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"doc-chat-be/pkg/vectorstore"
)

type DocumentChunk struct {
	Id           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Content      string      `gorm:"type:text"`
	Embedding    pgv.Vector  `gorm:"type:vector(768)"`
	TenantId     string      `gorm:"index"`
	SourceName   string      `gorm:"index"`
	ContentType  string
	Page         int
	TotalPages   int
	SectionIndex int       `gorm:"default:-1"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}

type Store struct {
	db *gorm.DB
}

var _ vectorstore.Store = &Store{}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("enable pgvector extension: %w", err)
	}
	if err := db.AutoMigrate(&DocumentChunk{}); err != nil {
		return nil, fmt.Errorf("migrate document_chunks: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}

	rows := make([]*DocumentChunk, len(points))
	for i, p := range points {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return fmt.Errorf("point id %q is not a uuid: %w", p.ID, err)
		}
		rows[i] = &DocumentChunk{
			Id:           id,
			Content:      p.Content,
			Embedding:    pgv.NewVector(p.Vector),
			TenantId:     p.Metadata.TenantID,
			SourceName:   p.Metadata.SourceName,
			ContentType:  p.Metadata.ContentType,
			Page:         p.Metadata.Page,
			TotalPages:   p.Metadata.TotalPages,
			SectionIndex: p.Metadata.SectionIndex,
		}
	}

	return s.db.WithContext(ctx).Save(rows).Error
}

func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.SearchHit, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query) recovers the similarity score.
	type result struct {
		DocumentChunk
		Similarity float64
	}
	var results []result

	queryVector := pgv.NewVector(vector)
	err := s.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	hits := make([]vectorstore.SearchHit, len(results))
	for i, res := range results {
		hits[i] = vectorstore.SearchHit{
			ID:       res.Id.String(),
			Score:    float32(res.Similarity),
			Content:  res.Content,
			Metadata: rowMetadata(&res.DocumentChunk),
		}
	}
	return hits, nil
}

func (s *Store) Scroll(ctx context.Context, offset string, limit int) ([]vectorstore.ScrollItem, string, error) {
	if limit <= 0 {
		limit = 256
	}

	query := s.db.WithContext(ctx).
		Model(&DocumentChunk{}).
		Order("id ASC").
		Limit(limit + 1)
	if offset != "" {
		query = query.Where("id >= ?", offset)
	}

	var rows []*DocumentChunk
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		next = rows[limit].Id.String()
		rows = rows[:limit]
	}

	items := make([]vectorstore.ScrollItem, len(rows))
	for i, row := range rows {
		items[i] = vectorstore.ScrollItem{ID: row.Id.String(), Metadata: rowMetadata(row)}
	}
	return items, next, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&DocumentChunk{}).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func rowMetadata(row *DocumentChunk) vectorstore.ChunkMetadata {
	return vectorstore.ChunkMetadata{
		TenantID:     row.TenantId,
		SourceName:   row.SourceName,
		ContentType:  row.ContentType,
		Page:         row.Page,
		TotalPages:   row.TotalPages,
		SectionIndex: row.SectionIndex,
	}
}
