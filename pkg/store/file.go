package store

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
	"github.com/Samuellps/Rag-Reranking-Agent/internal/types"
)

const (
	embedBatchSize = 128
	costPerMillion = 0.02 // USD per million embedding tokens
)

type FileStoreConfig struct {
	Name       string // document name, keys the on-disk artifact
	DataDir    string
	Embedder   types.Embedder
	Reranker   types.Reranker
	OnProgress func(done, total int)
}

// FileStore holds one document's embedding records, a query-embedding cache
// and running token/cost counters, persisted together as a single gob file.
// An existing artifact always wins over fresh input: Build loads it and
// never reconciles against the chunks passed in. Deleting the file is the
// only way to force a rebuild. The counters are never reset on load; they
// accumulate across the artifact's lifetime.
type FileStore struct {
	config FileStoreConfig
	dbPath string

	embeddings [][]float32
	metadata   []models.ChunkMetadata
	queryCache map[string][]float32

	totalTokensUsed int
	totalCost       float64
}

func NewFileStore(config FileStoreConfig) *FileStore {
	if config.DataDir == "" {
		config.DataDir = "data"
	}

	return &FileStore{
		config:     config,
		dbPath:     filepath.Join(config.DataDir, config.Name, "vector_db.gob"),
		queryCache: make(map[string][]float32),
	}
}

// combinedText is the string actually embedded for a record: the chunk plus
// its generated bridging context.
func combinedText(c models.ContextualChunk) string {
	return fmt.Sprintf("Chunk content:\n%s\n\nGenerated adjacent context:\n%s", c.Chunk, c.Context)
}

// Build loads the persisted store when one exists, otherwise embeds the
// contextualized chunks in sequential batches and persists the result.
func (s *FileStore) Build(ctx context.Context, chunks []models.ContextualChunk) error {
	if _, err := os.Stat(s.dbPath); err == nil {
		return s.load()
	}

	texts := make([]string, len(chunks))
	metadata := make([]models.ChunkMetadata, len(chunks))
	for i, c := range chunks {
		texts[i] = combinedText(c)
		metadata[i] = models.ChunkMetadata{
			ChunkContent:  c.Chunk,
			Context:       c.Context,
			OriginalIndex: i,
		}
	}

	// Accumulate locally and install vectors and metadata together, so a
	// failed batch leaves the store untouched and a retried Build starts
	// clean instead of appending onto leftovers.
	embeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, tokens, err := s.config.Embedder.Embed(ctx, texts[i:end])
		if err != nil {
			return fmt.Errorf("embed batch starting at %d: %w", i, err)
		}

		embeddings = append(embeddings, vectors...)
		s.addUsage(tokens)

		if s.config.OnProgress != nil {
			s.config.OnProgress(end, len(texts))
		}
	}

	s.embeddings = embeddings
	s.metadata = metadata
	return s.Persist()
}

// Search embeds the query (or serves it from the exact-match cache), ranks
// every record by dot product, cuts to the top K, drops entries below the
// threshold, assigns 1-based ranks and optionally hands the survivors to the
// reranker. Vectors are expected pre-normalized by the embedding model, so
// the dot product is the cosine similarity.
func (s *FileStore) Search(ctx context.Context, query string, opts types.SearchOptions) ([]models.SearchResult, error) {
	queryVec, err := s.queryEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(s.embeddings) == 0 {
		return []models.SearchResult{}, nil
	}

	type scored struct {
		idx int
		sim float64
	}
	sims := make([]scored, len(s.embeddings))
	for i, vec := range s.embeddings {
		sims[i] = scored{idx: i, sim: dot(vec, queryVec)}
	}
	sort.SliceStable(sims, func(i, j int) bool {
		return sims[i].sim > sims[j].sim
	})

	k := opts.K
	if k > len(sims) {
		k = len(sims)
	}

	results := make([]models.SearchResult, 0, k)
	for rank, sc := range sims[:k] {
		if sc.sim < opts.SimilarityThreshold {
			continue
		}
		m := s.metadata[sc.idx]
		results = append(results, models.SearchResult{
			Chunk:         m.ChunkContent,
			Context:       m.Context,
			Similarity:    sc.sim,
			OriginalIndex: m.OriginalIndex,
			Rank:          rank + 1,
		})
	}

	if opts.UseRerank && len(results) > 1 {
		reranked, degraded := applyRerank(ctx, s.config.Reranker, query, results, opts.RerankTopN)
		if degraded != "" {
			log.Printf("rerank degraded to similarity order: %s", degraded)
		}
		return reranked, nil
	}

	return results, nil
}

func (s *FileStore) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	key := s.queryKey(query)
	if vec, ok := s.queryCache[key]; ok {
		return vec, nil
	}

	vectors, tokens, err := s.config.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.queryCache[key] = vectors[0]
	s.addUsage(tokens)
	return vectors[0], nil
}

// queryKey is the cache key for a query embedding: exact query text plus the
// model identifier, no fuzzy matching.
func (s *FileStore) queryKey(query string) string {
	key, _ := json.Marshal(struct {
		Query string `json:"query"`
		Model string `json:"model"`
	}{Query: query, Model: s.config.Embedder.Model()})
	return string(key)
}

func (s *FileStore) addUsage(tokens int) {
	s.totalTokensUsed += tokens
	s.totalCost += float64(tokens) / 1_000_000 * costPerMillion
}

// storeFile is the serialized form of the whole store. There is no format
// versioning; schema changes require deleting the cache file.
type storeFile struct {
	Embeddings      [][]float32
	Metadata        []models.ChunkMetadata
	QueryCache      map[string][]float32
	TotalTokensUsed int
	TotalCost       float64
}

// Persist writes the full store (vectors, metadata, query cache, counters)
// to the per-document artifact.
func (s *FileStore) Persist() error {
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	file, err := os.Create(s.dbPath)
	if err != nil {
		return fmt.Errorf("create store file: %w", err)
	}
	defer file.Close()

	err = gob.NewEncoder(file).Encode(storeFile{
		Embeddings:      s.embeddings,
		Metadata:        s.metadata,
		QueryCache:      s.queryCache,
		TotalTokensUsed: s.totalTokensUsed,
		TotalCost:       s.totalCost,
	})
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	return nil
}

func (s *FileStore) load() error {
	file, err := os.Open(s.dbPath)
	if err != nil {
		return fmt.Errorf("open store file: %w", err)
	}
	defer file.Close()

	var data storeFile
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return fmt.Errorf("decode store %s: %w", s.dbPath, err)
	}

	s.embeddings = data.Embeddings
	s.metadata = data.Metadata
	s.queryCache = data.QueryCache
	if s.queryCache == nil {
		s.queryCache = make(map[string][]float32)
	}
	s.totalTokensUsed = data.TotalTokensUsed
	s.totalCost = data.TotalCost

	s.Validate()
	return nil
}

// Validate logs a warning when the vector and metadata counts diverge. The
// store is never repaired automatically.
func (s *FileStore) Validate() bool {
	if len(s.embeddings) != len(s.metadata) {
		log.Printf("cache inconsistency in %s: %d embeddings vs %d metadata entries",
			s.dbPath, len(s.embeddings), len(s.metadata))
		return false
	}
	return true
}

// Count returns the number of stored records.
func (s *FileStore) Count() int {
	return len(s.embeddings)
}

// TotalTokensUsed returns the accumulated embedding token count.
func (s *FileStore) TotalTokensUsed() int {
	return s.totalTokensUsed
}

// TotalCost returns the accumulated embedding cost estimate in USD.
func (s *FileStore) TotalCost() float64 {
	return s.totalCost
}

func dot(a []float32, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
