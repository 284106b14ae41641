package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeQuotaCountsDown(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	remaining, err := store.ConsumeQuota(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	remaining, err = store.ConsumeQuota(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	remaining, err = store.ConsumeQuota(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, err = store.ConsumeQuota(ctx, "s1")
	assert.True(t, errors.Is(err, ErrQuotaExhausted))
}

func TestConsumeQuotaNeverGoesNegative(t *testing.T) {
	const workers = 50
	store := NewMemoryStore(workers)
	ctx := context.Background()

	var wg sync.WaitGroup
	granted := make(chan int, workers*2)
	for i := 0; i < workers*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			remaining, err := store.ConsumeQuota(ctx, "s1")
			if err == nil {
				granted <- remaining
			}
		}()
	}
	wg.Wait()
	close(granted)

	count := 0
	for remaining := range granted {
		assert.GreaterOrEqual(t, remaining, 0)
		count++
	}
	assert.Equal(t, workers, count)

	final, err := store.GetQuota(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, final)
}

func TestQuotaIsolatedPerSession(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	_, err := store.ConsumeQuota(ctx, "s1")
	require.NoError(t, err)

	remaining, err := store.GetQuota(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestResetQuotaRestoresDefault(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	_, err := store.ConsumeQuota(ctx, "s1")
	require.NoError(t, err)
	_, err = store.ConsumeQuota(ctx, "s1")
	require.NoError(t, err)
	_, err = store.ConsumeQuota(ctx, "s1")
	require.Error(t, err)

	remaining, err := store.ResetQuota(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	remaining, err = store.ConsumeQuota(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestSourceLifecycle(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	now := time.Now()

	first := SourceMetadata{
		ID: NewSourceID(now), Name: "notes.txt", Kind: KindFile,
		ContentType: "text/plain", Size: "1.2 KB", UploadedAt: now,
	}
	second := SourceMetadata{
		ID: NewSourceID(now.Add(time.Millisecond)), Name: "spec.md", Kind: KindFile,
		ContentType: "text/markdown", Size: "3.4 KB", UploadedAt: now,
	}
	require.NoError(t, store.AppendSource(ctx, "s1", first))
	require.NoError(t, store.AppendSource(ctx, "s1", second))

	sources, err := store.ListSources(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "notes.txt", sources[0].Name)
	assert.Equal(t, "spec.md", sources[1].Name)

	removed, err := store.RemoveSource(ctx, "s1", "notes.txt")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.RemoveSource(ctx, "s1", "notes.txt")
	require.NoError(t, err)
	assert.False(t, removed)

	sources, err = store.ListSources(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "spec.md", sources[0].Name)
}

func TestRemoveSourceDropsDuplicateNames(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 2; i++ {
		src := SourceMetadata{
			ID:   NewSourceID(now.Add(time.Duration(i) * time.Millisecond)),
			Name: "dup.txt", Kind: KindFile, ContentType: "text/plain",
			Size: "5 B", UploadedAt: now,
		}
		require.NoError(t, store.AppendSource(ctx, "s1", src))
	}

	removed, err := store.RemoveSource(ctx, "s1", "dup.txt")
	require.NoError(t, err)
	assert.True(t, removed)

	sources, err := store.ListSources(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestClearWipesQuotaAndSources(t *testing.T) {
	store := NewMemoryStore(5)
	ctx := context.Background()

	_, err := store.ConsumeQuota(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, store.AppendSource(ctx, "s1", SourceMetadata{
		ID: NewSourceID(time.Now()), Name: "a.txt", Kind: KindFile,
	}))

	require.NoError(t, store.Clear(ctx, "s1"))

	remaining, err := store.GetQuota(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	sources, err := store.ListSources(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "1.0 KB", HumanSize(1024))
	assert.Equal(t, "1.5 MB", HumanSize(1572864))
}
