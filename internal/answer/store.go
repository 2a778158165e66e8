// Package answer is a development-time implementation of the answer API's
// wire contract: retrieval over locally ingested documentation plus answer
// generation through an OpenAI-compatible endpoint. It lets the widget run
// without the externally owned service.
package answer

import "context"

// Document is one indexed documentation chunk.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// Result is one scored retrieval hit.
type Result struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]any
}

// Store indexes documentation chunks and answers similarity queries.
type Store interface {
	Add(ctx context.Context, docs []Document) error
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Result, error)
}
