package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"doc-chat-be/internal/apperror"
	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/chunker"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/session"
	"doc-chat-be/pkg/vectorstore"
)

type IIngestService interface {
	IngestFile(ctx context.Context, sessionID, fileName string, data []byte) (*dto.IngestResponse, error)
	IngestURL(ctx context.Context, sessionID, url string) (*dto.IngestResponse, error)
	IngestText(ctx context.Context, sessionID, title, text string) (*dto.IngestResponse, error)
	DeleteSource(ctx context.Context, sessionID, sourceName string) (*dto.DeleteSourceResponse, error)
}

type ingestService struct {
	registry     *extract.Registry
	urlExtractor extract.URLExtractor
	chunker      *chunker.Chunker
	embedder     embedding.Provider
	store        vectorstore.Store
	sessions     session.Store
	logger       logger.ILogger
}

func NewIngestService(
	registry *extract.Registry,
	urlExtractor extract.URLExtractor,
	c *chunker.Chunker,
	embedder embedding.Provider,
	store vectorstore.Store,
	sessions session.Store,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		registry:     registry,
		urlExtractor: urlExtractor,
		chunker:      c,
		embedder:     embedder,
		store:        store,
		sessions:     sessions,
		logger:       log,
	}
}

func (s *ingestService) IngestFile(ctx context.Context, sessionID, fileName string, data []byte) (*dto.IngestResponse, error) {
	if fileName == "" || len(data) == 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "file content is empty")
	}

	// Format dispatch happens before any embedding cost is incurred.
	extractor, ok := s.registry.ForFile(fileName)
	if !ok {
		return nil, apperror.New(apperror.KindUnsupportedFormat,
			"unsupported file format: "+fileName)
	}

	result, err := extractor.Extract(ctx, data, fileName)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindIngestionFailed, "failed to extract "+fileName, err)
	}

	return s.indexSource(ctx, sessionID, fileName, session.KindFile, session.HumanSize(int64(len(data))), result)
}

func (s *ingestService) IngestURL(ctx context.Context, sessionID, url string) (*dto.IngestResponse, error) {
	if strings.TrimSpace(url) == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "url is empty")
	}

	result, err := s.urlExtractor.ExtractURL(ctx, url)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindIngestionFailed, "failed to fetch "+url, err)
	}

	name := result.Title
	if name == "" {
		name = url
	}
	size := 0
	for _, u := range result.Units {
		size += len(u.Text)
	}
	return s.indexSource(ctx, sessionID, name, session.KindURL, session.HumanSize(int64(size)), result)
}

func (s *ingestService) IngestText(ctx context.Context, sessionID, title, text string) (*dto.IngestResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "text is empty")
	}
	if title == "" {
		title = "Pasted text " + time.Now().Format("2006-01-02 15:04")
	}

	result := &extract.Result{
		Units:       []extract.Unit{{Text: text, SectionIndex: -1}},
		ContentType: "text",
		Title:       title,
		Words:       extract.CountWords(text),
	}
	return s.indexSource(ctx, sessionID, title, session.KindText, session.HumanSize(int64(len(text))), result)
}

// indexSource runs tag -> chunk -> embed -> upsert -> record. Tenant and
// source identity are attached to each unit before chunking so every derived
// chunk carries them without re-derivation. The upsert is a single call;
// any failure before the session record means no partial source exists.
func (s *ingestService) indexSource(ctx context.Context, sessionID, name, kind, size string, result *extract.Result) (*dto.IngestResponse, error) {
	var contents []string
	var metas []vectorstore.ChunkMetadata

	for _, unit := range result.Units {
		meta := vectorstore.ChunkMetadata{
			TenantID:     sessionID,
			SourceName:   name,
			ContentType:  result.ContentType,
			Page:         unit.Page,
			TotalPages:   unit.TotalPages,
			SectionIndex: unit.SectionIndex,
		}

		spans, err := s.chunker.Chunk(unit.Text)
		if err != nil {
			if errors.Is(err, chunker.ErrEmptyText) {
				continue
			}
			return nil, apperror.Wrap(apperror.KindIngestionFailed, "failed to chunk "+name, err)
		}
		for _, span := range spans {
			contents = append(contents, span)
			metas = append(metas, meta)
		}
	}

	if len(contents) == 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "source contains no extractable text")
	}

	vectors, err := s.embedder.Embed(ctx, contents, embedding.TaskDocument)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindIngestionFailed, "failed to embed "+name, err)
	}
	if len(vectors) != len(contents) {
		return nil, apperror.New(apperror.KindIngestionFailed, "embedding count mismatch for "+name)
	}

	points := make([]vectorstore.Point, len(contents))
	for i := range contents {
		points[i] = vectorstore.Point{
			ID:       uuid.NewString(),
			Vector:   vectors[i],
			Content:  contents[i],
			Metadata: metas[i],
		}
	}

	if err := s.store.Upsert(ctx, points); err != nil {
		return nil, apperror.Wrap(apperror.KindIngestionFailed, "failed to index "+name, err)
	}

	now := time.Now()
	src := session.SourceMetadata{
		ID:          session.NewSourceID(now),
		Name:        name,
		Kind:        kind,
		ContentType: result.ContentType,
		Size:        size,
		UploadedAt:  now,
	}
	if err := s.sessions.AppendSource(ctx, sessionID, src); err != nil {
		return nil, apperror.Wrap(apperror.KindIngestionFailed, "failed to record source "+name, err)
	}

	s.logger.Info("ingest", "source indexed", map[string]interface{}{
		"session": sessionID,
		"source":  name,
		"kind":    kind,
		"chunks":  len(points),
	})

	return &dto.IngestResponse{
		Success: true,
		Source: dto.IngestedSource{
			Id:               src.ID,
			Name:             name,
			Type:             result.ContentType,
			DocumentsIndexed: len(points),
			ExtractedWords:   result.Words,
			ExtractedPages:   result.Pages,
		},
	}, nil
}

// DeleteSource removes every chunk whose source name matches and drops the
// session's record of it. An unknown name is a no-op success with deleted=0.
func (s *ingestService) DeleteSource(ctx context.Context, sessionID, sourceName string) (*dto.DeleteSourceResponse, error) {
	if sourceName == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "fileName query parameter is required")
	}

	deleted, err := vectorstore.DeleteWhere(ctx, s.store, func(m vectorstore.ChunkMetadata) bool {
		return m.TenantID == sessionID && m.SourceName == sourceName
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindIngestionFailed, "failed to delete chunks for "+sourceName, err)
	}

	if _, err := s.sessions.RemoveSource(ctx, sessionID, sourceName); err != nil {
		return nil, apperror.Wrap(apperror.KindIngestionFailed, "failed to remove source record "+sourceName, err)
	}

	s.logger.Info("ingest", "source deleted", map[string]interface{}{
		"session": sessionID,
		"source":  sourceName,
		"deleted": deleted,
	})

	return &dto.DeleteSourceResponse{Success: true, Deleted: deleted}, nil
}
