package answer

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docs-chat/internal/config"
)

const vectorSize = 768

type documentRow struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            int64             `bun:"id,pk,autoincrement"`
	ChunkKey      string            `bun:"chunk_key,notnull"`
	Content       string            `bun:"content,notnull"`
	Embedding     []float32         `bun:"embedding,notnull,type:vector(768)"`
	Metadata      map[string]string `bun:"metadata,type:jsonb"`
	Score         float64           `bun:"score,scanonly"`
}

// PGStore keeps the documentation index in Postgres with pgvector.
type PGStore struct {
	db *bun.DB
}

func NewPGStore(cfg *config.RAGConfig) (*PGStore, error) {
	var sqldb *sql.DB
	var err error
	if cfg.DatabaseKey != "" {
		sqldb = sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(cfg.DatabaseURL+"?sslmode=disable"),
			pgdriver.WithPassword(cfg.DatabaseKey),
		))
	} else {
		sqldb, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &PGStore{db: db}, nil
}

// Init creates the documents table when missing.
func (s *PGStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*documentRow)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Drop removes the documents table.
func (s *PGStore) Drop(ctx context.Context) error {
	_, err := s.db.NewDropTable().Model((*documentRow)(nil)).IfExists().Exec(ctx)
	return err
}

func (s *PGStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]documentRow, len(docs))
	for i, d := range docs {
		if len(d.Embedding) != vectorSize {
			return fmt.Errorf("document %s: embedding size %d, want %d", d.ID, len(d.Embedding), vectorSize)
		}
		rows[i] = documentRow{
			ChunkKey:  d.ID,
			Content:   d.Content,
			Embedding: d.Embedding,
			Metadata:  d.Metadata,
		}
	}
	_, err := s.db.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (s *PGStore) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Result, error) {
	var rows []documentRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("chunk_key", "content", "metadata").
		ColumnExpr("1 - (embedding <=> ?) AS score", queryEmbedding).
		OrderExpr("embedding <=> ?", queryEmbedding).
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(rows))
	for i, row := range rows {
		md := make(map[string]any, len(row.Metadata))
		for k, v := range row.Metadata {
			md[k] = v
		}
		results[i] = Result{
			ID:       row.ChunkKey,
			Score:    row.Score,
			Text:     row.Content,
			Metadata: md,
		}
	}
	return results, nil
}

func (s *PGStore) Close() error {
	return s.db.Close()
}
