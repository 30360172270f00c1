package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
)

// EmbedderConfig represents the configuration for an embedding client.
type EmbedderConfig struct {
	Model   string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Embedder calls an OpenAI-compatible /embeddings endpoint directly so the
// usage block survives: every call reports the tokens it consumed, which the
// vector store folds into its persistent cost counters.
type Embedder struct {
	config     EmbedderConfig
	httpClient *http.Client
}

func NewEmbedderWithConfig(config EmbedderConfig) *Embedder {
	if config.Model == "" {
		config.Model = "text-embedding-3-small"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	return &Embedder{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed returns one vector per input text plus the total tokens consumed.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, int, error) {
	body, err := json.Marshal(embedRequest{
		Model: e.config.Model,
		Input: texts,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, &models.ExternalServiceError{Service: "embedding", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, &models.ExternalServiceError{
			Service: "embedding",
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, snippet),
		}
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, &models.ExternalServiceError{Service: "embedding", Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(result.Data) != len(texts) {
		return nil, 0, &models.ExternalServiceError{
			Service: "embedding",
			Err:     fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Data)),
		}
	}

	vectors := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		vectors[i] = d.Embedding
	}

	return vectors, result.Usage.TotalTokens, nil
}

// Model returns the embedding model identifier used for cache keys.
func (e *Embedder) Model() string {
	return e.config.Model
}
