package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-chat-be/internal/apperror"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/chunker"
	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/session"
	"doc-chat-be/pkg/vectorstore/memory"
)

type ingestFixture struct {
	service  IIngestService
	store    *memory.Store
	sessions *session.MemoryStore
	embedder *stubEmbedder
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	registry := extract.NewRegistry()
	registry.Register(extract.NewPlainTextExtractor(), ".txt")
	registry.Register(extract.NewMarkdownExtractor(), ".md")
	registry.Register(pagedExtractor{}, ".pdf")

	store := memory.NewStore()
	sessions := session.NewMemoryStore(10)
	embedder := &stubEmbedder{marker: "zebra"}

	svc := NewIngestService(
		registry,
		extract.NewWebExtractor(time.Second),
		chunker.New(200, 40),
		embedder,
		store,
		sessions,
		logger.NewNopLogger(),
	)
	return &ingestFixture{service: svc, store: store, sessions: sessions, embedder: embedder}
}

func TestIngestFileIndexesAndRecordsSource(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	res, err := f.service.IngestFile(ctx, "s1", "notes.txt", []byte("hello world from the test file"))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "notes.txt", res.Source.Name)
	assert.Equal(t, "text", res.Source.Type)
	assert.Equal(t, 1, res.Source.DocumentsIndexed)
	assert.Equal(t, 6, res.Source.ExtractedWords)
	assert.Equal(t, 1, f.store.Len())

	sources, err := f.sessions.ListSources(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, session.KindFile, sources[0].Kind)
}

func TestIngestUnsupportedFormatRejectedBeforeEmbedding(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.service.IngestFile(context.Background(), "s1", "archive.zip", []byte{0x50, 0x4b})
	assert.True(t, apperror.IsKind(err, apperror.KindUnsupportedFormat))
	assert.Equal(t, 0, f.embedder.calls)
	assert.Equal(t, 0, f.store.Len())
}

func TestIngestEmptyInputsRejected(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	_, err := f.service.IngestFile(ctx, "s1", "notes.txt", nil)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))

	_, err = f.service.IngestText(ctx, "s1", "title", "   ")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))

	_, err = f.service.IngestURL(ctx, "s1", "")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))
}

func TestIngestEmbedFailureRecordsNoPartialSource(t *testing.T) {
	f := newIngestFixture(t)
	f.embedder.fail = true
	ctx := context.Background()

	_, err := f.service.IngestFile(ctx, "s1", "notes.txt", []byte("some content"))
	assert.True(t, apperror.IsKind(err, apperror.KindIngestionFailed))

	// All-or-nothing: neither chunks nor a session record survive.
	assert.Equal(t, 0, f.store.Len())
	sources, listErr := f.sessions.ListSources(ctx, "s1")
	require.NoError(t, listErr)
	assert.Empty(t, sources)
}

func TestIngestPagedFilePropagatesPageMetadata(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	content := "page one talks about apples\npage two talks about zebra herds\npage three talks about rivers"
	res, err := f.service.IngestFile(ctx, "s1", "report.pdf", []byte(content))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Source.ExtractedPages)
	assert.Equal(t, 3, res.Source.DocumentsIndexed)

	items, _, err := f.store.Scroll(ctx, "", 100)
	require.NoError(t, err)
	pages := map[int]bool{}
	for _, item := range items {
		assert.Equal(t, "s1", item.Metadata.TenantID)
		assert.Equal(t, 3, item.Metadata.TotalPages)
		pages[item.Metadata.Page] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, pages)
}

func TestReingestDuplicatesChunks(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	_, err := f.service.IngestFile(ctx, "s1", "notes.txt", []byte("same content"))
	require.NoError(t, err)
	_, err = f.service.IngestFile(ctx, "s1", "notes.txt", []byte("same content"))
	require.NoError(t, err)

	// No dedup by content: callers must delete before re-adding.
	assert.Equal(t, 2, f.store.Len())
	sources, err := f.sessions.ListSources(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestDeleteSourceRemovesExactlyMatchingChunks(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	_, err := f.service.IngestFile(ctx, "s1", "keep.txt", []byte("keep this content"))
	require.NoError(t, err)
	_, err = f.service.IngestFile(ctx, "s1", "drop.txt", []byte("drop this content"))
	require.NoError(t, err)
	_, err = f.service.IngestFile(ctx, "s2", "drop.txt", []byte("other tenant same name"))
	require.NoError(t, err)

	res, err := f.service.DeleteSource(ctx, "s1", "drop.txt")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Deleted)

	// s2's chunks under the same name are untouched.
	assert.Equal(t, 2, f.store.Len())
	items, _, err := f.store.Scroll(ctx, "", 100)
	require.NoError(t, err)
	for _, item := range items {
		if item.Metadata.TenantID == "s1" {
			assert.Equal(t, "keep.txt", item.Metadata.SourceName)
		}
	}
}

func TestDeleteUnknownSourceIsNoOpSuccess(t *testing.T) {
	f := newIngestFixture(t)

	res, err := f.service.DeleteSource(context.Background(), "s1", "never-existed.txt")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.Deleted)
}

func TestIngestTextDefaultsTitle(t *testing.T) {
	f := newIngestFixture(t)

	res, err := f.service.IngestText(context.Background(), "s1", "", "pasted content here")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Source.Name)
	assert.Equal(t, "text", res.Source.Type)
}
