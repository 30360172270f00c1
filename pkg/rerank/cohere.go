// Package rerank calls an external cross-encoder relevance model to re-score
// retrieval candidates. The reranker is optional: without a credential the
// caller keeps the similarity ordering, which is a documented degraded mode
// rather than an error.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
	"github.com/Samuellps/Rag-Reranking-Agent/internal/types"
)

const (
	defaultEndpoint = "https://api.cohere.com/v1/rerank"
	defaultModel    = "rerank-multilingual-v3.0"
)

type ClientConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

func NewWithConfig(config ClientConfig) *Client {
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Endpoint == "" {
		config.Endpoint = defaultEndpoint
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Available reports whether a rerank credential is configured.
func (c *Client) Available() bool {
	return c.config.APIKey != ""
}

type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
		Document       struct {
			Text string `json:"text"`
		} `json:"document"`
	} `json:"results"`
}

// Rerank re-scores docs against the query and returns at most topN of them
// ordered by relevance. Callers map hits back to their candidates by exact
// text; with duplicate candidate texts the first match wins, which can
// misattribute scores between identical chunks.
func (c *Client) Rerank(ctx context.Context, query string, docs []string, topN int) ([]types.RankedDocument, error) {
	if !c.Available() {
		return nil, &models.ExternalServiceError{Service: "rerank", Err: errors.New("no credential configured")}
	}
	if topN > len(docs) {
		topN = len(docs)
	}

	body, err := json.Marshal(rerankRequest{
		Model:           c.config.Model,
		Query:           query,
		Documents:       docs,
		TopN:            topN,
		ReturnDocuments: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.ExternalServiceError{Service: "rerank", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &models.ExternalServiceError{
			Service: "rerank",
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, snippet),
		}
	}

	var result rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &models.ExternalServiceError{Service: "rerank", Err: fmt.Errorf("decode response: %w", err)}
	}

	ranked := make([]types.RankedDocument, 0, len(result.Results))
	for _, r := range result.Results {
		ranked = append(ranked, types.RankedDocument{
			Index: r.Index,
			Text:  r.Document.Text,
			Score: r.RelevanceScore,
		})
	}

	return ranked, nil
}
