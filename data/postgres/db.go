// Package postgres is the PostgreSQL backend for the registry and device token
// stores. Fuzzy search relies on the pg_trgm extension.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store implements interfaces.MedicineStore and interfaces.TokenStore on one *sql.DB.
type Store struct {
	db         *sql.DB
	tableName  string
	medicines  string // quoted table identifiers
	packages   string
	tokens     string
	importLock int64
}

// New wraps an open database. tableName is the registry table; packages and
// device tokens live in tables derived from it.
func New(db *sql.DB, tableName string) *Store {
	h := fnv.New64a()
	_, _ = h.Write([]byte("registry-import:" + tableName))

	return &Store{
		db:         db,
		tableName:  tableName,
		medicines:  pgxIdent(tableName),
		packages:   pgxIdent(tableName + "_packages"),
		tokens:     pgxIdent("device_tokens"),
		importLock: int64(h.Sum64()),
	}
}

// Open connects through the pgx database/sql driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// DB exposes the underlying handle for migrations and shutdown.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func pgxIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
