package annotator_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/annotator"
)

type stubCompleter struct {
	calls   int
	prompts []string
	failAt  int // 1-based call number to fail at, 0 never fails
}

func (s *stubCompleter) Complete(ctx context.Context, systemPrompt string, temperature float64, maxTokens int) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, systemPrompt)
	if s.failAt > 0 && s.calls >= s.failAt {
		return "", errors.New("service unavailable")
	}
	return fmt.Sprintf("bridging sentence %d", s.calls), nil
}

type wordSplitter struct{}

func (wordSplitter) Split(text string) ([]string, error) {
	return strings.Fields(text), nil
}

func writeDoc(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestAnnotateAll(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := writeDoc(t, tmpDir, "alpha beta gamma")
	completer := &stubCompleter{}

	a := annotator.NewWithConfig(docPath, completer, wordSplitter{}, annotator.AnnotatorConfig{
		DataDir: tmpDir,
	})

	chunks, err := a.AnnotateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, models.ContextualChunk{Chunk: "alpha", Context: "bridging sentence 1"}, chunks[0])
	assert.Equal(t, models.ContextualChunk{Chunk: "gamma", Context: "bridging sentence 3"}, chunks[2])
	assert.Equal(t, 3, completer.calls)
}

func TestAnnotateAllPromptNeighbors(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := writeDoc(t, tmpDir, "alpha beta gamma")
	completer := &stubCompleter{}

	a := annotator.NewWithConfig(docPath, completer, wordSplitter{}, annotator.AnnotatorConfig{
		DataDir: tmpDir,
	})

	_, err := a.AnnotateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, completer.prompts, 3)

	// First chunk has no previous neighbor, last has no next.
	assert.NotContains(t, completer.prompts[0], "<previous_excerpt>")
	assert.Contains(t, completer.prompts[0], "<next_excerpt>")

	assert.Contains(t, completer.prompts[1], "<previous_excerpt>")
	assert.Contains(t, completer.prompts[1], "<next_excerpt>")
	assert.Contains(t, completer.prompts[1], "alpha")
	assert.Contains(t, completer.prompts[1], "gamma")

	assert.Contains(t, completer.prompts[2], "<previous_excerpt>")
	assert.NotContains(t, completer.prompts[2], "<next_excerpt>")
}

func TestAnnotateAllIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := writeDoc(t, tmpDir, "alpha beta gamma")
	completer := &stubCompleter{}

	a := annotator.NewWithConfig(docPath, completer, wordSplitter{}, annotator.AnnotatorConfig{
		DataDir: tmpDir,
	})

	first, err := a.AnnotateAll(context.Background())
	require.NoError(t, err)
	cached, err := os.ReadFile(a.CachePath())
	require.NoError(t, err)

	second, err := a.AnnotateAll(context.Background())
	require.NoError(t, err)

	// No additional model calls, byte-identical cache, same content.
	assert.Equal(t, 3, completer.calls)
	assert.Equal(t, first, second)
	after, err := os.ReadFile(a.CachePath())
	require.NoError(t, err)
	assert.Equal(t, cached, after)
}

func TestAnnotateAllWriteThrough(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := writeDoc(t, tmpDir, "alpha beta gamma")
	completer := &stubCompleter{failAt: 3}

	a := annotator.NewWithConfig(docPath, completer, wordSplitter{}, annotator.AnnotatorConfig{
		DataDir: tmpDir,
	})

	_, err := a.AnnotateAll(context.Background())
	require.Error(t, err)

	// The two chunks annotated before the failure survive on disk.
	data, err := os.ReadFile(a.CachePath())
	require.NoError(t, err)

	var partial []models.ContextualChunk
	require.NoError(t, json.Unmarshal(data, &partial))
	assert.Len(t, partial, 2)
	assert.Equal(t, "alpha", partial[0].Chunk)
	assert.Equal(t, "beta", partial[1].Chunk)
}

func TestAnnotateAllInvalidDocument(t *testing.T) {
	tmpDir := t.TempDir()
	completer := &stubCompleter{}

	a := annotator.NewWithConfig(filepath.Join(tmpDir, "missing.txt"), completer, wordSplitter{}, annotator.AnnotatorConfig{
		DataDir: tmpDir,
	})

	_, err := a.AnnotateAll(context.Background())
	var invalid *models.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
	assert.Zero(t, completer.calls)
}

func TestAnnotateAllProgress(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := writeDoc(t, tmpDir, "alpha beta")
	completer := &stubCompleter{}

	var seen []int
	a := annotator.NewWithConfig(docPath, completer, wordSplitter{}, annotator.AnnotatorConfig{
		DataDir: tmpDir,
		OnProgress: func(done, total int) {
			assert.Equal(t, 2, total)
			seen = append(seen, done)
		},
	})

	_, err := a.AnnotateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}
