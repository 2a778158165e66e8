package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docs-chat/internal/config"
)

// sessionRow mirrors the session table the auth provider maintains in the
// hosted Postgres database. Read-only here.
type sessionRow struct {
	bun.BaseModel `bun:"table:session,alias:s"`
	ID            string    `bun:"id,pk"`
	Token         string    `bun:"token,notnull"`
	UserID        string    `bun:"userId,notnull"`
	ExpiresAt     time.Time `bun:"expiresAt,notnull"`
}

type userRow struct {
	bun.BaseModel `bun:"table:user,alias:u"`
	ID            string `bun:"id,pk"`
	Email         string `bun:"email,notnull"`
}

// Store looks up auth sessions in the provider's Postgres tables.
type Store struct {
	db *bun.DB
}

func NewStore(cfg config.AuthConfig) (*Store, error) {
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
	return &Store{db: db}, nil
}

// VerifySession resolves a session token to a live auth session. Returns
// nil without an error when the token is unknown or expired.
func (s *Store) VerifySession(ctx context.Context, token string) (*Session, error) {
	var row sessionRow
	err := s.db.NewSelect().
		Model(&row).
		Where("token = ?", token).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(row.ExpiresAt) {
		return nil, nil
	}

	var user userRow
	err = s.db.NewSelect().
		Model(&user).
		Where("id = ?", row.UserID).
		Limit(1).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return &Session{
		UserID:    row.UserID,
		Email:     user.Email,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// TokenGate is a Gate backed by a Store and a fixed bearer token, the shape
// a host embeds when it already holds the user's session cookie value.
type TokenGate struct {
	Store   *Store
	Token   string
	OnLogin func()
}

func (g *TokenGate) Session() *Session {
	if g.Token == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session, err := g.Store.VerifySession(ctx, g.Token)
	if err != nil {
		log.Warn().Err(err).Msg("Auth session lookup failed")
		return nil
	}
	return session
}

func (g *TokenGate) OpenLoginModal() {
	if g.OnLogin != nil {
		g.OnLogin()
	}
}
