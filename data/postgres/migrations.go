package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eskulia/eskulia-api/logging"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// migrations are Go functions rather than SQL files because the registry
// table name is configurable.
func (s *Store) migrations() []*goose.Migration {
	exec := func(statements ...string) *goose.GoFunc {
		return &goose.GoFunc{RunTx: func(ctx context.Context, tx *sql.Tx) error {
			for _, stmt := range statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration statement failed: %w", err)
				}
			}
			return nil
		}}
	}

	trgmIndex := pgxIdent(s.tableName + "_name_trgm_idx")
	tokenOwnerIndex := pgxIdent("device_tokens_owner_active_idx")

	return []*goose.Migration{
		goose.NewGoMigration(1,
			exec(
				`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
				`CREATE TABLE IF NOT EXISTS `+s.medicines+` (
					identifier           TEXT PRIMARY KEY,
					name                 TEXT NOT NULL,
					common_name          TEXT NOT NULL DEFAULT '',
					preparation_type     TEXT NOT NULL DEFAULT '',
					administration_route TEXT NOT NULL DEFAULT '',
					strength             TEXT NOT NULL DEFAULT '',
					pharmaceutical_form  TEXT NOT NULL DEFAULT '',
					atc_code             TEXT NOT NULL DEFAULT '',
					responsible_entity   TEXT NOT NULL DEFAULT '',
					active_substance     TEXT NOT NULL DEFAULT '',
					packaging            TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE TABLE IF NOT EXISTS `+s.packages+` (
					identifier  TEXT NOT NULL REFERENCES `+s.medicines+` (identifier) ON DELETE CASCADE,
					line        INTEGER NOT NULL,
					description TEXT NOT NULL,
					PRIMARY KEY (identifier, line)
				)`,
				`CREATE INDEX IF NOT EXISTS `+trgmIndex+` ON `+s.medicines+` USING GIN (name gin_trgm_ops)`,
			),
			exec(
				`DROP TABLE IF EXISTS `+s.packages,
				`DROP TABLE IF EXISTS `+s.medicines,
			),
		),
		goose.NewGoMigration(2,
			exec(
				`CREATE TABLE IF NOT EXISTS `+s.tokens+` (
					id         BIGSERIAL PRIMARY KEY,
					owner_id   BIGINT NOT NULL,
					token      TEXT NOT NULL,
					platform   TEXT NOT NULL,
					active     BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					UNIQUE (owner_id, token)
				)`,
				`CREATE INDEX IF NOT EXISTS `+tokenOwnerIndex+` ON `+s.tokens+` (owner_id) WHERE active`,
			),
			exec(`DROP TABLE IF EXISTS `+s.tokens),
		),
	}
}

// Migrate applies pending schema migrations. The version table is per registry table.
func (s *Store) Migrate(ctx context.Context) error {
	store, err := database.NewStore(database.DialectPostgres, s.tableName+"_schema_version")
	if err != nil {
		return fmt.Errorf("migration store: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectCustom, s.db, nil,
		goose.WithStore(store),
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(s.migrations()...),
	)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	for _, r := range results {
		logging.Info("Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
