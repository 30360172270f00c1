package annotator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
	"github.com/Samuellps/Rag-Reranking-Agent/internal/types"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/processor"
)

const (
	contextTemperature = 0.0
	contextMaxTokens   = 150
)

type AnnotatorConfig struct {
	DataDir    string
	RateLimit  float64              // completion calls per second, 0 disables pacing
	OnProgress func(done, total int)
}

// Annotator generates one bridging sentence per chunk, persisting the
// chunk+context pairs to a JSON cache after every chunk so partial progress
// survives interruption. An existing cache file is returned unconditionally
// without any model call: staleness is accepted in exchange for never paying
// for the same document twice. Re-ingest under a new document name (or
// delete the cache) after a content change.
type Annotator struct {
	docPath   string
	config    AnnotatorConfig
	completer types.Completer
	splitter  types.Splitter
	limiter   *rate.Limiter
}

func NewWithConfig(docPath string, completer types.Completer, splitter types.Splitter, config AnnotatorConfig) *Annotator {
	if config.DataDir == "" {
		config.DataDir = "data"
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &Annotator{
		docPath:   docPath,
		config:    config,
		completer: completer,
		splitter:  splitter,
		limiter:   limiter,
	}
}

// CachePath returns the on-disk location of the context cache for this
// document, derived from the document's filename stem.
func (a *Annotator) CachePath() string {
	stem := processor.DocumentName(a.docPath)
	return filepath.Join(a.config.DataDir, stem+"_chunks_with_context.json")
}

// AnnotateAll returns the contextualized chunks for the document, generating
// them when no cache exists yet. A completion failure halts generation and
// propagates; the pairs already written stay on disk.
func (a *Annotator) AnnotateAll(ctx context.Context) ([]models.ContextualChunk, error) {
	cachePath := a.CachePath()
	if data, err := os.ReadFile(cachePath); err == nil {
		var cached []models.ContextualChunk
		if err := json.Unmarshal(data, &cached); err != nil {
			return nil, fmt.Errorf("decode context cache %s: %w", cachePath, err)
		}
		return cached, nil
	}

	text, err := processor.LoadDocument(a.docPath)
	if err != nil {
		return nil, err
	}

	chunks, err := a.splitter.Split(text)
	if err != nil {
		return nil, err
	}

	results := make([]models.ContextualChunk, 0, len(chunks))
	for i, chunk := range chunks {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var prev, next string
		if i > 0 {
			prev = chunks[i-1]
		}
		if i < len(chunks)-1 {
			next = chunks[i+1]
		}

		sentence, err := a.completer.Complete(ctx, buildPrompt(prev, chunk, next), contextTemperature, contextMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("annotate chunk %d: %w", i, err)
		}

		results = append(results, models.ContextualChunk{
			Chunk:   chunk,
			Context: strings.TrimSpace(sentence),
		})

		// Write-through: a crash loses at most the chunk in flight.
		if err := a.writeCache(cachePath, results); err != nil {
			return nil, err
		}

		if a.config.OnProgress != nil {
			a.config.OnProgress(i+1, len(chunks))
		}
	}

	return results, nil
}

func (a *Annotator) writeCache(path string, results []models.ContextualChunk) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal context cache: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write context cache: %w", err)
	}

	return nil
}
