package sqlstore

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestRebind(t *testing.T) {
	q := "UPDATE hotels SET name = ?, location = ? WHERE id = ?"
	if got := SQLite.rebind(q); got != q {
		t.Fatalf("sqlite should keep ? placeholders, got %q", got)
	}
	want := "UPDATE hotels SET name = $1, location = $2 WHERE id = $3"
	if got := Postgres.rebind(q); got != want {
		t.Fatalf("postgres rebind: got %q, want %q", got, want)
	}
}

func TestDialectFor(t *testing.T) {
	cases := map[string]string{
		"":           "sqlite",
		"SQLite":     "sqlite",
		"mysql":      "mysql",
		"postgresql": "postgres",
		"pgx":        "postgres",
	}
	for in, want := range cases {
		d, err := DialectFor(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if d.Name != want {
			t.Fatalf("%q: got %s, want %s", in, d.Name, want)
		}
	}
	if _, err := DialectFor("oracle"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestPrepareDSN(t *testing.T) {
	dir := t.TempDir()
	dsn, err := SQLite.prepareDSN(filepath.Join(dir, "nested", "hotels.db"))
	if err != nil {
		t.Fatalf("sqlite dsn: %v", err)
	}
	if !strings.HasSuffix(dsn, "?_pragma=foreign_keys(1)") {
		t.Fatalf("expected foreign key pragma, got %q", dsn)
	}

	dsn, err = SQLite.prepareDSN(":memory:?cache=shared")
	if err != nil {
		t.Fatalf("memory dsn: %v", err)
	}
	if dsn != ":memory:?cache=shared&_pragma=foreign_keys(1)" {
		t.Fatalf("unexpected memory dsn %q", dsn)
	}

	dsn, err = MySQL.prepareDSN("root:root@tcp(localhost:3306)/hotels")
	if err != nil {
		t.Fatalf("mysql dsn: %v", err)
	}
	if !strings.Contains(dsn, "clientFoundRows=true") {
		t.Fatalf("expected clientFoundRows in %q", dsn)
	}
}

func TestGuestValidationDoesNotPopulateHotelCache(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "hotels.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer s.Close()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}

	if _, err := s.DB().Exec("INSERT INTO hotels (name, location) VALUES (?, ?)", "Raw", "Inserted Directly"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Guests.Create(ctx, "Lee", 1); err != nil {
		t.Fatalf("create guest: %v", err)
	}
	if n := s.Hotels.ids.Len(); n != 0 {
		t.Fatalf("referential check cached %d hotels", n)
	}
	if n := s.Guests.ids.Len(); n != 1 {
		t.Fatalf("expected the new guest cached, got %d", n)
	}
}
