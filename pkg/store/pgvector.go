package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/models"
	"github.com/Samuellps/Rag-Reranking-Agent/internal/types"
)

type PGStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	DocName    string
	Embedder   types.Embedder
	Reranker   types.Reranker
	OnProgress func(done, total int)
}

// PGStore is the Postgres-backed alternative to FileStore for documents too
// large to scan in memory. It follows the same Build/Search contract,
// including the skip-rebuild rule: existing rows for the document name win
// over fresh input. The query cache and usage counters live in process
// memory only.
type PGStore struct {
	config PGStoreConfig
	pool   *pgxpool.Pool

	queryCache      map[string][]float32
	totalTokensUsed int
	totalCost       float64
}

func NewPGStore(config PGStoreConfig) (*PGStore, error) {
	if config.TableName == "" {
		config.TableName = "contextual_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536 // text-embedding-3-small
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	ps := &PGStore{
		config:     config,
		pool:       pool,
		queryCache: make(map[string][]float32),
	}

	if err := ps.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return ps, nil
}

func (ps *PGStore) initialize() error {
	ctx := context.Background()

	_, err := ps.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			doc_name TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			chunk TEXT,
			context TEXT,
			embedding vector(%d)
		)`, ps.config.TableName, ps.config.VectorDim)

	_, err = ps.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_ip_ops)
		WITH (lists = 100)`,
		ps.config.TableName, ps.config.TableName)

	_, err = ps.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Build embeds and inserts the contextualized chunks unless rows for this
// document name already exist, in which case the stored rows win unchanged.
func (ps *PGStore) Build(ctx context.Context, chunks []models.ContextualChunk) error {
	var count int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE doc_name = $1", ps.config.TableName)
	if err := ps.pool.QueryRow(ctx, countQuery, ps.config.DocName).Scan(&count); err != nil {
		return fmt.Errorf("failed to check existing rows: %v", err)
	}
	if count > 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = combinedText(c)
	}

	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, doc_name, chunk_index, chunk, context, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ps.config.TableName)

	for i := 0; i < len(texts); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, tokens, err := ps.config.Embedder.Embed(ctx, texts[i:end])
		if err != nil {
			return fmt.Errorf("embed batch starting at %d: %w", i, err)
		}
		ps.addUsage(tokens)

		for j, vec := range vectors {
			idx := i + j
			id := fmt.Sprintf("%s_%d", ps.config.DocName, idx)

			_, err = tx.Exec(ctx, stmt,
				id,
				ps.config.DocName,
				idx,
				chunks[idx].Chunk,
				chunks[idx].Context,
				pgvector.NewVector(vec),
			)
			if err != nil {
				return fmt.Errorf("failed to insert chunk %d: %v", idx, err)
			}
		}

		if ps.config.OnProgress != nil {
			ps.config.OnProgress(end, len(texts))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// Search ranks the document's rows by inner product in SQL, then applies the
// threshold, rank assignment and optional rerank hand-off in Go so the
// semantics match FileStore exactly.
func (ps *PGStore) Search(ctx context.Context, query string, opts types.SearchOptions) ([]models.SearchResult, error) {
	queryVec, err := ps.queryEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	// <#> is the negated inner product; negate it back into a similarity.
	sqlQuery := fmt.Sprintf(`
		SELECT chunk, context, chunk_index, -(embedding <#> $1) AS similarity
		FROM %s
		WHERE doc_name = $2
		ORDER BY embedding <#> $1
		LIMIT $3`,
		ps.config.TableName)

	rows, err := ps.pool.Query(ctx, sqlQuery, pgvector.NewVector(queryVec), ps.config.DocName, opts.K)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %v", err)
	}
	defer rows.Close()

	results := make([]models.SearchResult, 0, opts.K)
	rank := 0
	for rows.Next() {
		var res models.SearchResult
		if err := rows.Scan(&res.Chunk, &res.Context, &res.OriginalIndex, &res.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}

		rank++
		if res.Similarity < opts.SimilarityThreshold {
			continue
		}
		res.Rank = rank
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %v", err)
	}

	if opts.UseRerank && len(results) > 1 {
		reranked, degraded := applyRerank(ctx, ps.config.Reranker, query, results, opts.RerankTopN)
		if degraded != "" {
			log.Printf("rerank degraded to similarity order: %s", degraded)
		}
		return reranked, nil
	}

	return results, nil
}

func (ps *PGStore) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	key, _ := json.Marshal(struct {
		Query string `json:"query"`
		Model string `json:"model"`
	}{Query: query, Model: ps.config.Embedder.Model()})

	if vec, ok := ps.queryCache[string(key)]; ok {
		return vec, nil
	}

	vectors, tokens, err := ps.config.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ps.queryCache[string(key)] = vectors[0]
	ps.addUsage(tokens)
	return vectors[0], nil
}

func (ps *PGStore) addUsage(tokens int) {
	ps.totalTokensUsed += tokens
	ps.totalCost += float64(tokens) / 1_000_000 * costPerMillion
}

// TotalTokensUsed returns the embedding tokens consumed by this process.
func (ps *PGStore) TotalTokensUsed() int {
	return ps.totalTokensUsed
}

// TotalCost returns the embedding cost estimate accumulated by this process.
func (ps *PGStore) TotalCost() float64 {
	return ps.totalCost
}

func (ps *PGStore) Close() {
	if ps.pool != nil {
		ps.pool.Close()
	}
}
