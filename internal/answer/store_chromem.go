package answer

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"

	"docs-chat/internal/config"
)

const chromemCompress = false

// ChromemStore keeps the documentation index in an embedded chromem-go
// database, persistent or in-memory.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	dbPath     string
	inMemory   bool
	encryptKey string
}

func NewChromemStore(cfg *config.RAGConfig) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.DBPath, chromemCompress)
		if err != nil {
			return nil, fmt.Errorf("opening vector database: %v", err)
		}
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %v", err)
	}

	return &ChromemStore{
		db:         db,
		collection: collection,
		dbPath:     cfg.DBPath,
		inMemory:   cfg.InMemory,
		encryptKey: cfg.EncryptionKey,
	}, nil
}

func (s *ChromemStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	chromemDocs := make([]chromem.Document, len(docs))
	for i, d := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        d.ID,
			Content:   d.Content,
			Metadata:  d.Metadata,
			Embedding: d.Embedding,
		}
	}
	if err := s.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %v", err)
	}
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Result, error) {
	// The collection refuses queries asking for more results than it holds.
	if count := s.collection.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	hits, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       topK,
	})
	if err != nil {
		return nil, fmt.Errorf("querying by similarity: %v", err)
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		md := make(map[string]any, len(hit.Metadata))
		for k, v := range hit.Metadata {
			md[k] = v
		}
		results[i] = Result{
			ID:       hit.ID,
			Score:    float64(hit.Similarity),
			Text:     hit.Content,
			Metadata: md,
		}
	}
	return results, nil
}

// Export writes an encrypted snapshot of an in-memory collection next to
// the configured database path.
func (s *ChromemStore) Export(ctx context.Context) error {
	if s.encryptKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	path := s.dbPath + "/" + s.collection.Name + ".chromem"
	if err := s.db.ExportToFile(path, chromemCompress, s.encryptKey, s.collection.Name); err != nil {
		return fmt.Errorf("exporting collection: %v", err)
	}
	return nil
}
