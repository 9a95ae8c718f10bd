package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arunsharma1203/grievance/internal/store"
	"github.com/arunsharma1203/grievance/internal/store/storetest"
)

func makeSQLiteStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "grievance.db"))
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("sqlite migrate: %v", err)
	}
	// migrations are idempotent
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("sqlite migrate twice: %v", err)
	}
	s := NewWithDB(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Compliance(t *testing.T) {
	storetest.Run(t, makeSQLiteStore)
}

func TestPathFromURL(t *testing.T) {
	cases := map[string]string{
		"data/grievance.db":                "data/grievance.db",
		"sqlite://data/grievance.db":       "data/grievance.db",
		"file:/tmp/g.db?_pragma=foo(1)":    "/tmp/g.db",
		"sqlite:///var/lib/grievance/g.db": "/var/lib/grievance/g.db",
	}
	for in, want := range cases {
		if got := PathFromURL(in); got != want {
			t.Errorf("PathFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
