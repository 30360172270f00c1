package types

import (
	"context"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
)

// Completer issues a single system-prompt completion against a chat model.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, temperature float64, maxTokens int) (string, error)
}

// Embedder turns texts into vectors. It returns one vector per input text
// plus the total tokens the call consumed, and identifies the model so
// callers can key caches on it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, int, error)
	Model() string
}

// RankedDocument is a reranker hit: the candidate's position in the request,
// its text and the cross-encoder relevance score.
type RankedDocument struct {
	Index int
	Text  string
	Score float64
}

// Reranker re-scores a candidate set with a relevance model. Available
// reports whether a credential is configured; callers treat an unavailable
// reranker as a degraded mode, not an error.
type Reranker interface {
	Available() bool
	Rerank(ctx context.Context, query string, docs []string, topN int) ([]RankedDocument, error)
}

// Splitter breaks a document into ordered, overlapping chunks.
type Splitter interface {
	Split(text string) ([]string, error)
}

// ContextSource produces the contextualized chunks for one document,
// generating or loading them from cache as needed.
type ContextSource interface {
	AnnotateAll(ctx context.Context) ([]models.ContextualChunk, error)
}

// QueryExpander rewrites a user query into a better embedding-search key.
type QueryExpander interface {
	Expand(ctx context.Context, query string) (string, error)
}

// SearchOptions controls one similarity search. SimilarityThreshold is
// applied after the top-K cut; it can shrink the result set below K, never
// grow it.
type SearchOptions struct {
	K                   int
	SimilarityThreshold float64
	UseRerank           bool
	RerankTopN          int
}

// VectorStore owns the embedding records for one document and answers
// similarity queries over them.
type VectorStore interface {
	Build(ctx context.Context, chunks []models.ContextualChunk) error
	Search(ctx context.Context, query string, opts SearchOptions) ([]models.SearchResult, error)
}
