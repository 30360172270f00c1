package models

// ContextualChunk pairs a document chunk with the generated sentence that
// bridges it to its neighbours. This is the element persisted in the
// per-document context cache.
type ContextualChunk struct {
	Chunk   string `json:"chunk"`
	Context string `json:"context"`
}

// ChunkMetadata is the record stored alongside each embedding vector.
// OriginalIndex is the chunk's position in the source document.
type ChunkMetadata struct {
	ChunkContent  string
	Context       string
	OriginalIndex int
}

// SearchResult is a transient, per-query scored chunk. Rank is 1-based and
// assigned after similarity ordering, before any reranking. RerankScore is
// set only when a reranker actually scored the result.
type SearchResult struct {
	Chunk         string
	Context       string
	Similarity    float64
	OriginalIndex int
	Rank          int
	RerankScore   *float64
}
