// Package retriever composes chunking, context annotation, the vector store
// and optional query expansion into the single search capability the agent
// consumes.
package retriever

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
	"github.com/Samuellps/Rag-Reranking-Agent/internal/types"
)

// NoRelevantResults is the fixed reply the agent gets when the relevance
// policy decides the store has nothing good enough to ground an answer.
const NoRelevantResults = "No sufficiently relevant results were found in the knowledge base."

type RetrieverConfig struct {
	TopK                   int
	UseSimilarityThreshold bool
	SimilarityThreshold    float64
	UseRerank              bool
	UseHyde                bool
}

type Retriever struct {
	config   RetrieverConfig
	source   types.ContextSource
	store    types.VectorStore
	expander types.QueryExpander
}

func NewWithConfig(source types.ContextSource, store types.VectorStore, expander types.QueryExpander, config RetrieverConfig) *Retriever {
	if config.TopK == 0 {
		config.TopK = 3
	}

	return &Retriever{
		config:   config,
		source:   source,
		store:    store,
		expander: expander,
	}
}

// EnsureReady makes sure the contextualized-chunk cache exists and the
// vector store is built or loaded. Both steps are idempotent, so calling it
// per query only pays on the first pass.
func (r *Retriever) EnsureReady(ctx context.Context) error {
	chunks, err := r.source.AnnotateAll(ctx)
	if err != nil {
		return err
	}
	return r.store.Build(ctx, chunks)
}

// Retrieve returns the top-k results for the query, expanding it into a
// hypothetical answer sentence first when HyDE is enabled.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		k = r.config.TopK
	}

	if err := r.EnsureReady(ctx); err != nil {
		return nil, err
	}

	searchQuery := query
	if r.config.UseHyde && r.expander != nil {
		expanded, err := r.expander.Expand(ctx, query)
		if err != nil {
			return nil, err
		}
		if expanded != "" {
			searchQuery = expanded
		}
	}

	threshold := math.Inf(-1)
	if r.config.UseSimilarityThreshold {
		threshold = r.config.SimilarityThreshold
	}

	return r.store.Search(ctx, searchQuery, types.SearchOptions{
		K:                   k,
		SimilarityThreshold: threshold,
		UseRerank:           r.config.UseRerank,
		RerankTopN:          k,
	})
}

// SearchTool runs a retrieval and formats the results for the language
// model. When the relevance policy is on and nothing clears the threshold,
// it short-circuits with the fixed no-results sentence so the caller skips
// generation.
func (r *Retriever) SearchTool(ctx context.Context, query string, k int) (string, error) {
	results, err := r.Retrieve(ctx, query, k)
	if err != nil {
		return "", err
	}

	if len(results) == 0 {
		return NoRelevantResults, nil
	}
	if r.config.UseSimilarityThreshold && results[0].Similarity < r.config.SimilarityThreshold {
		return NoRelevantResults, nil
	}

	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Excerpt %d (similarity: %.2f):\n%s\nGenerated context: %s",
			i+1, res.Similarity, res.Chunk, res.Context)
	}
	return b.String(), nil
}
