package store

import (
	"context"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
	"github.com/Samuellps/Rag-Reranking-Agent/internal/types"
)

// applyRerank re-scores results with the reranker and maps each reranked
// document back to its source result by first exact chunk-text match.
// An unavailable or failing reranker degrades to the similarity order; the
// returned reason is non-empty exactly when degradation happened, so callers
// surface it instead of swallowing the failure.
func applyRerank(ctx context.Context, reranker types.Reranker, query string, results []models.SearchResult, topN int) ([]models.SearchResult, string) {
	if reranker == nil || !reranker.Available() {
		return results, "reranker credential not configured"
	}

	docs := make([]string, len(results))
	for i, res := range results {
		docs[i] = res.Chunk
	}
	if topN > len(docs) {
		topN = len(docs)
	}

	ranked, err := reranker.Rerank(ctx, query, docs, topN)
	if err != nil {
		return results, err.Error()
	}

	reranked := make([]models.SearchResult, 0, len(ranked))
	for _, doc := range ranked {
		for _, res := range results {
			if res.Chunk == doc.Text {
				score := doc.Score
				res.RerankScore = &score
				reranked = append(reranked, res)
				break
			}
		}
	}

	return reranked, ""
}
