// Package sqlstore persists hotels and guests in a SQL database. Each store
// owns the identity cache for its entity type, so two lookups of the same
// primary key return the same pointer for as long as the store lives.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"hotelbook/internal/adapters/observability"
	"hotelbook/internal/domain"
	"hotelbook/internal/identity"
)

type Store struct {
	db      *sql.DB
	dialect Dialect

	Hotels *HotelStore
	Guests *GuestStore
}

// Open connects to the database named by driver and dsn. The pool is capped
// at one connection: the tool works over a single persistent connection
// with every statement auto-committed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	dsn, err = d.prepareDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.Name, err)
	}
	log.Debug().Str("driver", d.Name).Msg("database connection ok")
	return New(db, d), nil
}

// New wires the hotel and guest stores over an open database.
func New(db *sql.DB, d Dialect) *Store {
	hs := &HotelStore{db: db, d: d, ids: identity.New[domain.Hotel]()}
	gs := &GuestStore{db: db, d: d, ids: identity.New[domain.Guest](), hotels: hs}
	hs.guests = gs
	return &Store{db: db, dialect: d, Hotels: hs, Guests: gs}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates both tables if they are missing, parent first.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.Hotels.CreateTable(ctx); err != nil {
		return err
	}
	return s.Guests.CreateTable(ctx)
}

// ResetSchema drops and recreates both tables, leaving them empty.
func (s *Store) ResetSchema(ctx context.Context) error {
	if err := s.Guests.DropTable(ctx); err != nil {
		return err
	}
	if err := s.Hotels.DropTable(ctx); err != nil {
		return err
	}
	return s.EnsureSchema(ctx)
}

func observe(entity, op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidation):
		result = "invalid"
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	observability.ObserveStore(entity, op, result)
}

func identityEvent(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
