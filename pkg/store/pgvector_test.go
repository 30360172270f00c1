package store_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
	"github.com/Samuellps/Rag-Reranking-Agent/internal/types"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/store"
)

// pgVectorFor gives 3-dimensional vectors matching the test table dimension.
func pgVectorFor(text string) []float32 {
	switch {
	case strings.Contains(text, "chunk-a"):
		return []float32{0.9, 0, 0}
	case strings.Contains(text, "chunk-b"):
		return []float32{0.8, 0, 0}
	case strings.Contains(text, "chunk-c"):
		return []float32{0.1, 0, 0}
	default:
		return []float32{1, 0, 0}
	}
}

func newPGTestStore(t *testing.T) (*store.PGStore, *stubEmbedder, string) {
	t.Helper()

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set, skipping live database test")
	}

	docName := fmt.Sprintf("testdoc_%d", time.Now().UnixNano())
	embedder := &stubEmbedder{vectorFor: pgVectorFor, tokensPerCall: 10}

	s, err := store.NewPGStore(store.PGStoreConfig{
		ConnString: connString,
		TableName:  "test_contextual_chunks",
		VectorDim:  3,
		DocName:    docName,
		Embedder:   embedder,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		pool, err := pgxpool.New(context.Background(), connString)
		if err == nil {
			pool.Exec(context.Background(), "DELETE FROM test_contextual_chunks WHERE doc_name = $1", docName)
			pool.Close()
		}
		s.Close()
	})

	return s, embedder, docName
}

func TestPGStoreBuildAndSearch(t *testing.T) {
	s, _, _ := newPGTestStore(t)
	require.NoError(t, s.Build(context.Background(), testChunks()))

	results, err := s.Search(context.Background(), "query", types.SearchOptions{
		K:                   2,
		SimilarityThreshold: 0.5,
	})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "chunk-a text", results[0].Chunk)
	assert.InDelta(t, 0.9, results[0].Similarity, 1e-5)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, "chunk-b text", results[1].Chunk)
	assert.Equal(t, 2, results[1].Rank)
}

func TestPGStoreSkipsRebuild(t *testing.T) {
	s, embedder, docName := newPGTestStore(t)
	require.NoError(t, s.Build(context.Background(), testChunks()))
	callsAfterBuild := embedder.calls

	connString := os.Getenv("DATABASE_URL")
	second, err := store.NewPGStore(store.PGStoreConfig{
		ConnString: connString,
		TableName:  "test_contextual_chunks",
		VectorDim:  3,
		DocName:    docName,
		Embedder:   embedder,
	})
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, second.Build(context.Background(), []models.ContextualChunk{
		{Chunk: "entirely new chunk", Context: "new context"},
	}))
	assert.Equal(t, callsAfterBuild, embedder.calls)

	results, err := second.Search(context.Background(), "query", types.SearchOptions{
		K: 3, SimilarityThreshold: -1,
	})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}
