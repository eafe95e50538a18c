package vecstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t testing.TB) (*Store, *StaticEmbedder) {
	t.Helper()

	embedder := NewStaticEmbedder(4)
	store, err := Open(filepath.Join(t.TempDir(), "index.db"), embedder)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, embedder
}

func TestStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	store, embedder := newTestStore(t)

	// Pin vectors so ranking is deterministic.
	embedder.Register("sqlite basics", []float32{1, 0, 0, 0})
	embedder.Register("vector search", []float32{0, 1, 0, 0})
	embedder.Register("agent loops", []float32{0, 0, 1, 0})
	embedder.Register("how do vectors work", []float32{0, 0.9, 0.1, 0})

	docs := []Document{
		{Source: "db_guide", Text: "sqlite basics"},
		{Source: "search_guide", Text: "vector search"},
		{Source: "agent_guide", Text: "agent loops"},
	}
	require.NoError(t, store.AddBatch(ctx, docs))

	t.Run("exact match ranks first", func(t *testing.T) {
		matches, err := store.Search(ctx, "how do vectors work", 2, nil)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "vector search", matches[0].Text)
		assert.Greater(t, matches[0].Score, matches[1].Score)
	})

	t.Run("topK bounds results", func(t *testing.T) {
		matches, err := store.Search(ctx, "vector search", 1, nil)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("topK above corpus size returns everything", func(t *testing.T) {
		matches, err := store.Search(ctx, "vector search", 50, nil)
		require.NoError(t, err)
		assert.Len(t, matches, 3)
	})

	t.Run("source filter restricts matches", func(t *testing.T) {
		matches, err := store.Search(ctx, "vector search", 10, []string{"db_guide"})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "db_guide", matches[0].Source)
	})

	t.Run("unknown source yields no matches", func(t *testing.T) {
		matches, err := store.Search(ctx, "vector search", 10, []string{"nope"})
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("empty query rejected", func(t *testing.T) {
		_, err := store.Search(ctx, "  ", 3, nil)
		assert.Error(t, err)
	})

	t.Run("non-positive topK rejected", func(t *testing.T) {
		_, err := store.Search(ctx, "vector search", 0, nil)
		assert.Error(t, err)
	})

	t.Run("sources lists distinct names in order", func(t *testing.T) {
		sources, err := store.Sources(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"agent_guide", "db_guide", "search_guide"}, sources)
	})

	t.Run("count", func(t *testing.T) {
		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("search is idempotent", func(t *testing.T) {
		first, err := store.Search(ctx, "vector search", 3, nil)
		require.NoError(t, err)
		second, err := store.Search(ctx, "vector search", 3, nil)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestStore_AddValidation(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	t.Run("empty source rejected", func(t *testing.T) {
		err := store.Add(ctx, Document{Source: " ", Text: "something"})
		assert.Error(t, err)
	})

	t.Run("empty text rejected", func(t *testing.T) {
		err := store.Add(ctx, Document{Source: "guide", Text: ""})
		assert.Error(t, err)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, store.AddBatch(ctx, nil))
		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("embedder failure aborts the batch", func(t *testing.T) {
		broken, err := Open(filepath.Join(t.TempDir(), "broken.db"), NewStaticEmbedderWithError())
		require.NoError(t, err)
		defer broken.Close()

		err = broken.Add(ctx, Document{Source: "guide", Text: "something"})
		require.Error(t, err)

		n, err := broken.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func TestOpen(t *testing.T) {
	t.Run("nil embedder rejected", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "x.db"), nil)
		assert.Error(t, err)
	})

	t.Run("reopen preserves documents", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "persist.db")
		embedder := NewStaticEmbedder(4)

		store, err := Open(path, embedder)
		require.NoError(t, err)
		require.NoError(t, store.Add(ctx, Document{Source: "guide", Text: "hello"}))
		require.NoError(t, store.Close())

		reopened, err := Open(path, embedder)
		require.NoError(t, err)
		defer reopened.Close()

		n, err := reopened.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestStore_InMemorySurvivesPoolChurn(t *testing.T) {
	ctx := context.Background()

	store, err := Open(":memory:", NewStaticEmbedder(4))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Add(ctx, Document{Source: "guide", Text: "in-memory indexing"}))

	// Each sqlite connection to a :memory: DSN is a private empty database.
	// Concurrent readers would fan out over fresh connections and lose the
	// indexed corpus if the pool were allowed to grow past one.
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.Count(ctx)
			if err != nil {
				errs <- err
				return
			}
			if n != 1 {
				errs <- fmt.Errorf("count = %d, want 1", n)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	matches, err := store.Search(ctx, "in-memory indexing", 1, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "guide", matches[0].Source)
}
