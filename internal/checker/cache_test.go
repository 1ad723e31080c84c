package checker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

type stubRetriever struct{ id int }

func (s *stubRetriever) Retrieve(context.Context, string, int, map[string]any) ([]retrieval.EvidenceSpan, error) {
	return nil, nil
}

func TestRetrieverCache_HitsAndMisses(t *testing.T) {
	c := newRetrieverCache(true, 10)

	build := func(id int) func() (retrieval.Retriever, error) {
		return func() (retrieval.Retriever, error) { return &stubRetriever{id: id}, nil }
	}

	r1, err := c.getOrBuild("transcript a", "bm25", nil, build(1))
	require.NoError(t, err)
	r2, err := c.getOrBuild("transcript a", "bm25", nil, build(2))
	require.NoError(t, err)

	assert.Same(t, r1, r2)
	stats := c.Stats()
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 1, stats.CacheMisses)
	assert.Equal(t, 1, stats.CacheSize)
}

func TestRetrieverCache_DistinctKeysMiss(t *testing.T) {
	c := newRetrieverCache(true, 10)
	build := func() (retrieval.Retriever, error) { return &stubRetriever{}, nil }

	_, err := c.getOrBuild("transcript a", "bm25", nil, build)
	require.NoError(t, err)
	_, err = c.getOrBuild("transcript b", "bm25", nil, build)
	require.NoError(t, err)
	_, err = c.getOrBuild("transcript a", "semantic", nil, build)
	require.NoError(t, err)
	_, err = c.getOrBuild("transcript a", "bm25", map[string]any{"chunk_size": 200}, build)
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, 0, stats.CacheHits)
	assert.Equal(t, 4, stats.CacheMisses)
	assert.Equal(t, 4, stats.CacheSize)
}

func TestRetrieverCache_FIFOEviction(t *testing.T) {
	c := newRetrieverCache(true, 2)
	build := func(id int) func() (retrieval.Retriever, error) {
		return func() (retrieval.Retriever, error) { return &stubRetriever{id: id}, nil }
	}

	first, err := c.getOrBuild("t1", "bm25", nil, build(1))
	require.NoError(t, err)
	_, err = c.getOrBuild("t2", "bm25", nil, build(2))
	require.NoError(t, err)
	_, err = c.getOrBuild("t3", "bm25", nil, build(3))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Stats().CacheSize)

	rebuilt, err := c.getOrBuild("t1", "bm25", nil, build(4))
	require.NoError(t, err)
	assert.NotSame(t, first, rebuilt)
}

func TestRetrieverCache_Disabled(t *testing.T) {
	c := newRetrieverCache(false, 10)
	calls := 0
	build := func() (retrieval.Retriever, error) {
		calls++
		return &stubRetriever{}, nil
	}

	_, err := c.getOrBuild("t1", "bm25", nil, build)
	require.NoError(t, err)
	_, err = c.getOrBuild("t1", "bm25", nil, build)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	stats := c.Stats()
	assert.Equal(t, 0, stats.CacheHits)
	assert.Equal(t, 0, stats.CacheMisses)
}

func TestRetrieverCache_Clear(t *testing.T) {
	c := newRetrieverCache(true, 10)
	build := func() (retrieval.Retriever, error) { return &stubRetriever{}, nil }

	_, err := c.getOrBuild("t1", "bm25", nil, build)
	require.NoError(t, err)
	_, err = c.getOrBuild("t1", "bm25", nil, build)
	require.NoError(t, err)

	c.Clear()
	stats := c.Stats()
	assert.Equal(t, 0, stats.CacheSize)
	assert.Equal(t, 0, stats.CacheHits)
	assert.Equal(t, 0, stats.CacheMisses)
	assert.Equal(t, 0.0, stats.HitRate)
}
