// Package sqlstore implements store.Store over database/sql. Driver packages
// (internal/store/postgres, internal/store/sqlite) supply a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect captures the differences between SQL backends.
type Dialect struct {
	Name string
	// Numbered switches "?" placeholders to "$1", "$2", ...
	Numbered bool
	// EncodeTime converts a timestamp into the driver's column representation.
	EncodeTime func(time.Time) any
	// IsConflict reports whether err is a unique/primary key violation.
	IsConflict func(error) bool
	// Schema lists idempotent DDL statements.
	Schema []string
}

// Rebind rewrites "?" placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (d Dialect) encodeTime(t time.Time) any {
	t = t.UTC()
	if d.EncodeTime == nil {
		return t
	}
	return d.EncodeTime(t)
}

func (d Dialect) encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return d.encodeTime(*t)
}

// Migrate applies the dialect schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range d.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s migrate: %w", d.Name, err)
		}
	}
	return nil
}

// timeCol scans TIMESTAMP values (postgres) and unix-nanosecond integers (sqlite).
type timeCol struct {
	t     time.Time
	valid bool
}

func (c *timeCol) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.t, c.valid = time.Time{}, false
	case time.Time:
		c.t, c.valid = v.UTC(), true
	case int64:
		c.t, c.valid = time.Unix(0, v).UTC(), true
	default:
		return fmt.Errorf("unsupported time column type %T", src)
	}
	return nil
}

func (c timeCol) ptr() *time.Time {
	if !c.valid {
		return nil
	}
	t := c.t
	return &t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullStringPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
