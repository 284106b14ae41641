package service

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/session"
	"doc-chat-be/pkg/vectorstore"
	"doc-chat-be/pkg/vectorstore/memory"
)

const testPurgeTopic = "PURGE_TENANT_CHUNKS"

func newSessionFixture(t *testing.T) (ISessionService, IConsumerService, *session.MemoryStore, *memory.Store) {
	t.Helper()

	sessions := session.NewMemoryStore(10)
	store := memory.NewStore()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))

	svc := NewSessionService(sessions, pubSub, testPurgeTopic, logger.NewNopLogger())
	consumer := NewConsumerService(pubSub, testPurgeTopic, store, logger.NewNopLogger())
	return svc, consumer, sessions, store
}

func TestGetInfoReturnsQuotaAndFiles(t *testing.T) {
	svc, _, sessions, _ := newSessionFixture(t)
	ctx := context.Background()

	_, err := sessions.ConsumeQuota(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, sessions.AppendSource(ctx, "s1", session.SourceMetadata{
		ID: "1", Name: "notes.txt", Kind: session.KindFile,
		ContentType: "text", Size: "12 B", UploadedAt: time.Now(),
	}))

	info, err := svc.GetInfo(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 9, info.Tokens)
	require.Len(t, info.Files, 1)
	assert.Equal(t, "notes.txt", info.Files[0].Name)
}

func TestGetInfoFreshSessionHasFullQuota(t *testing.T) {
	svc, _, _, _ := newSessionFixture(t)

	info, err := svc.GetInfo(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, 10, info.Tokens)
	assert.Empty(t, info.Files)
}

func TestResetQuotaRestoresDefaultTokens(t *testing.T) {
	svc, _, sessions, _ := newSessionFixture(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := sessions.ConsumeQuota(ctx, "s1")
		require.NoError(t, err)
	}

	res, err := svc.ResetQuota(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 10, res.Tokens)
}

func TestDeleteClearsSessionAndPurgesChunks(t *testing.T) {
	svc, consumer, sessions, store := newSessionFixture(t)
	ctx := context.Background()

	require.NoError(t, consumer.Consume(ctx))

	_, err := sessions.ConsumeQuota(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, sessions.AppendSource(ctx, "s1", session.SourceMetadata{
		ID: "1", Name: "notes.txt", Kind: session.KindFile,
	}))

	seed := []vectorstore.Point{
		{ID: "c1", Vector: []float32{1, 0}, Content: "mine",
			Metadata: vectorstore.ChunkMetadata{TenantID: "s1", SourceName: "notes.txt", SectionIndex: -1}},
		{ID: "c2", Vector: []float32{0, 1}, Content: "theirs",
			Metadata: vectorstore.ChunkMetadata{TenantID: "s2", SourceName: "other.txt", SectionIndex: -1}},
	}
	require.NoError(t, store.Upsert(ctx, seed))

	res, err := svc.Delete(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, res.Success)

	// Bookkeeping is cleared synchronously.
	info, err := svc.GetInfo(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 10, info.Tokens)
	assert.Empty(t, info.Files)

	// Index cleanup happens on the consumer side; only s1's chunk goes.
	require.Eventually(t, func() bool {
		return store.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	items, _, err := store.Scroll(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "s2", items[0].Metadata.TenantID)
}
