package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/arunsharma1203/grievance/internal/store"
	"github.com/arunsharma1203/grievance/internal/store/sqlstore"
)

const uniqueViolation = "23505"

// Dialect describes PostgreSQL for the shared SQL store.
var Dialect = sqlstore.Dialect{
	Name:       "postgres",
	Numbered:   true,
	IsConflict: isUniqueViolation,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS grievances (
            id               TEXT PRIMARY KEY,
            username         TEXT NOT NULL,
            text             TEXT NOT NULL,
            reply            TEXT,
            audio_url        TEXT,
            telegram_file_id TEXT,
            created_at       TIMESTAMPTZ NOT NULL,
            replied_at       TIMESTAMPTZ,
            CONSTRAINT grievances_reply_pair CHECK ((reply IS NULL) = (replied_at IS NULL)),
            CONSTRAINT grievances_single_media CHECK (audio_url IS NULL OR telegram_file_id IS NULL)
        )`,
		`CREATE INDEX IF NOT EXISTS grievances_created_at_idx ON grievances (created_at)`,
		`CREATE TABLE IF NOT EXISTS moods (
            id         BIGSERIAL PRIMARY KEY,
            username   TEXT NOT NULL,
            value      INTEGER NOT NULL CHECK (value BETWEEN 0 AND 10),
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS moods_username_created_at_idx ON moods (username, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS diary_notes (
            id               TEXT PRIMARY KEY,
            username         TEXT,
            title            TEXT,
            body             TEXT NOT NULL,
            audio_url        TEXT,
            telegram_file_id TEXT,
            created_at       TIMESTAMPTZ NOT NULL,
            CONSTRAINT diary_notes_single_media CHECK (audio_url IS NULL OR telegram_file_id IS NULL)
        )`,
		`CREATE INDEX IF NOT EXISTS diary_notes_created_at_idx ON diary_notes (created_at DESC)`,
	},
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres-backed store.
func NewWithDB(db *sql.DB) store.Store { return sqlstore.New(db, Dialect) }

// Migrate creates the tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error { return sqlstore.Migrate(ctx, db, Dialect) }
