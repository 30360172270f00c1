package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
)

// Tokenizer vocabulary shared with the embedding model family.
const encodingName = "cl100k_base"

type ProcessorConfig struct {
	MaxTokensPerChunk int
}

// Processor splits a document into overlapping token-bounded chunks.
// Consecutive chunks overlap by half the chunk size, so every chunk carries
// the tail of its predecessor. Splitting is deterministic for a given text.
type Processor struct {
	config   ProcessorConfig
	splitter textsplitter.TokenSplitter
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.MaxTokensPerChunk == 0 {
		config.MaxTokensPerChunk = 500
	}

	splitter := textsplitter.NewTokenSplitter(
		textsplitter.WithEncodingName(encodingName),
		textsplitter.WithChunkSize(config.MaxTokensPerChunk),
		textsplitter.WithChunkOverlap(config.MaxTokensPerChunk/2),
	)

	return Processor{
		config:   config,
		splitter: splitter,
	}
}

// Split breaks text into ordered chunks of at most MaxTokensPerChunk tokens.
func (p Processor) Split(text string) ([]string, error) {
	chunks, err := p.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split document: %w", err)
	}
	return chunks, nil
}

// LoadDocument reads a source document, rejecting anything that is not an
// existing plain-text .txt file before any processing happens.
func LoadDocument(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", &models.InvalidInputError{Path: path, Reason: "source document not found"}
	}
	if strings.ToLower(filepath.Ext(path)) != ".txt" {
		return "", &models.InvalidInputError{Path: path, Reason: "only plain-text .txt documents are supported"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

// DocumentName derives the stable identity of a document from its filename
// stem. Caches and store artifacts are keyed on it, so renaming the file is
// the supported way to force re-ingestion after a content change.
func DocumentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
