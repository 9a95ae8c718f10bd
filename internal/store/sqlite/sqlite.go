package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/arunsharma1203/grievance/internal/store"
	"github.com/arunsharma1203/grievance/internal/store/sqlstore"
)

// Dialect describes SQLite for the shared SQL store. Timestamps are stored as
// unix nanoseconds so ordering is exact.
var Dialect = sqlstore.Dialect{
	Name:       "sqlite",
	EncodeTime: func(t time.Time) any { return t.UnixNano() },
	IsConflict: isConstraintConflict,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS grievances (
            id               TEXT PRIMARY KEY,
            username         TEXT NOT NULL,
            text             TEXT NOT NULL,
            reply            TEXT,
            audio_url        TEXT,
            telegram_file_id TEXT,
            created_at       INTEGER NOT NULL,
            replied_at       INTEGER,
            CHECK ((reply IS NULL) = (replied_at IS NULL)),
            CHECK (audio_url IS NULL OR telegram_file_id IS NULL)
        )`,
		`CREATE INDEX IF NOT EXISTS grievances_created_at_idx ON grievances (created_at)`,
		`CREATE TABLE IF NOT EXISTS moods (
            id         INTEGER PRIMARY KEY AUTOINCREMENT,
            username   TEXT NOT NULL,
            value      INTEGER NOT NULL CHECK (value BETWEEN 0 AND 10),
            created_at INTEGER NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS moods_username_created_at_idx ON moods (username, created_at)`,
		`CREATE TABLE IF NOT EXISTS diary_notes (
            id               TEXT PRIMARY KEY,
            username         TEXT,
            title            TEXT,
            body             TEXT NOT NULL,
            audio_url        TEXT,
            telegram_file_id TEXT,
            created_at       INTEGER NOT NULL,
            CHECK (audio_url IS NULL OR telegram_file_id IS NULL)
        )`,
		`CREATE INDEX IF NOT EXISTS diary_notes_created_at_idx ON diary_notes (created_at)`,
	},
}

func isConstraintConflict(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

// PathFromURL strips the optional "sqlite://" / "file:" prefixes from a DATABASE_URL.
func PathFromURL(url string) string {
	p := strings.TrimPrefix(url, "sqlite://")
	p = strings.TrimPrefix(p, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

// Open opens (or creates) a SQLite database at path with WAL journaling.
// Writers are serialised through a single connection; SQLite allows one writer anyway.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a SQLite-backed store.
func NewWithDB(db *sql.DB) store.Store { return sqlstore.New(db, Dialect) }

// Migrate creates the tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error { return sqlstore.Migrate(ctx, db, Dialect) }
