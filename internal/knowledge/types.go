// Package knowledge wraps the external vector index behind a retriever
// with score filtering and language routing. Retrieval is an enhancement:
// when the index is unreachable the retriever degrades to empty results
// instead of failing the request.
package knowledge

import "context"

// Hit is a retrieved question/answer pair with its similarity score.
// Hits are ephemeral; they are produced per request and never persisted
type Hit struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float32 `json:"score"`
	Category string  `json:"category,omitempty"`
}

// FAQ is a curated entry to be indexed
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}

// Embedder produces a vector for a piece of text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the nearest-neighbor store behind the retriever
type Index interface {
	Query(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float32, category string) ([]Hit, error)
	EnsureCollection(ctx context.Context, collection string, dimension uint64) error
	Upsert(ctx context.Context, collection string, faqs []FAQ, vectors [][]float32) error
}
