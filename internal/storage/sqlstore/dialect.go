package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialect captures what differs between the supported engines: the
// database/sql driver name, the table DDL, placeholder style and how the
// generated primary key comes back from an INSERT.
type Dialect struct {
	Name   string
	Driver string

	createHotels string
	createGuests string

	dollarParams bool // $1, $2 instead of ?
	returningID  bool // INSERT ... RETURNING id instead of LastInsertId
}

var (
	SQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite",
		createHotels: `CREATE TABLE IF NOT EXISTS hotels (
  id       INTEGER PRIMARY KEY,
  name     TEXT,
  location TEXT)`,
		createGuests: `CREATE TABLE IF NOT EXISTS guests (
  id       INTEGER PRIMARY KEY,
  name     TEXT,
  hotel_id INT,
  FOREIGN KEY (hotel_id) REFERENCES hotels(id))`,
	}
	MySQL = Dialect{
		Name:   "mysql",
		Driver: "mysql",
		createHotels: `CREATE TABLE IF NOT EXISTS hotels (
  id       BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  name     TEXT,
  location TEXT)`,
		createGuests: `CREATE TABLE IF NOT EXISTS guests (
  id       BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  name     TEXT,
  hotel_id BIGINT,
  FOREIGN KEY (hotel_id) REFERENCES hotels(id))`,
	}
	Postgres = Dialect{
		Name:   "postgres",
		Driver: "pgx",
		createHotels: `CREATE TABLE IF NOT EXISTS hotels (
  id       BIGSERIAL PRIMARY KEY,
  name     TEXT,
  location TEXT)`,
		createGuests: `CREATE TABLE IF NOT EXISTS guests (
  id       BIGSERIAL PRIMARY KEY,
  name     TEXT,
  hotel_id BIGINT REFERENCES hotels(id))`,
		dollarParams: true,
		returningID:  true,
	}
)

// DialectFor maps a DB_DRIVER value to its dialect.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported driver %q", name)
}

// rebind rewrites ? placeholders for engines that number their parameters.
func (d Dialect) rebind(query string) string {
	if !d.dollarParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insert runs an INSERT and returns the generated primary key.
func (d Dialect) insert(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	if d.returningID {
		var id int64
		err := db.QueryRowContext(ctx, d.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := db.ExecContext(ctx, d.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// prepareDSN adjusts a user supplied DSN so the engine behaves the way the
// stores expect.
func (d Dialect) prepareDSN(dsn string) (string, error) {
	switch d.Name {
	case "sqlite":
		if dsn == "" {
			dsn = "hotels.db"
		}
		path := dsn
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		path = strings.TrimPrefix(path, "file:")
		if path != ":memory:" && path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
				return "", fmt.Errorf("create dirs: %w", err)
			}
		}
		// sqlite leaves foreign keys unenforced unless asked per connection
		if !strings.Contains(dsn, "foreign_keys") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_pragma=foreign_keys(1)"
		}
		return dsn, nil
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		// report matched rather than changed rows so an update that rewrites
		// identical values is not mistaken for a missing row
		cfg.ClientFoundRows = true
		return cfg.FormatDSN(), nil
	}
	return dsn, nil
}
