package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hotelbook/internal/adapters/observability"
	"hotelbook/internal/domain"
	"hotelbook/internal/identity"
)

// HotelStore implements domain.HotelRepository.
type HotelStore struct {
	db     *sql.DB
	d      Dialect
	ids    *identity.Map[domain.Hotel]
	guests *GuestStore
}

var _ domain.HotelRepository = (*HotelStore)(nil)

func (s *HotelStore) CreateTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.d.createHotels); err != nil {
		return fmt.Errorf("create hotels table: %w", err)
	}
	return nil
}

// DropTable drops the hotels table and forgets every cached hotel.
func (s *HotelStore) DropTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, dropHotelsSQL); err != nil {
		return fmt.Errorf("drop hotels table: %w", err)
	}
	s.ids.Reset()
	return nil
}

func (s *HotelStore) Create(ctx context.Context, name, location string) (_ *domain.Hotel, err error) {
	defer func() { observe("hotel", "create", err) }()

	if err := domain.ValidateHotel(name, location); err != nil {
		return nil, err
	}
	id, err := s.d.insert(ctx, s.db, insertHotelSQL, name, location)
	if err != nil {
		return nil, fmt.Errorf("insert hotel: %w", err)
	}
	h := &domain.Hotel{ID: id, Name: name, Location: location}
	s.ids.Put(id, h)
	return h, nil
}

// Update overwrites h's row and then h itself. Nothing is written when the
// new values fail validation.
func (s *HotelStore) Update(ctx context.Context, h *domain.Hotel, name, location string) (_ *domain.Hotel, err error) {
	defer func() { observe("hotel", "update", err) }()

	if h == nil || !h.Persisted() {
		return nil, domain.ErrNotFound
	}
	if err := domain.ValidateHotel(name, location); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, s.d.rebind(updateHotelSQL), name, location, h.ID)
	if err != nil {
		return nil, fmt.Errorf("update hotel %d: %w", h.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update hotel %d: %w", h.ID, err)
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}
	h.Name, h.Location = name, location
	// a stale instance must not displace the cached one for its id
	if cur, ok := s.ids.Get(h.ID); ok && cur != h {
		cur.Name, cur.Location = name, location
	}
	return h, nil
}

// Delete removes h's row, evicts it from the identity cache and resets
// h.ID. Deleting an unpersisted hotel, including a second delete of the
// same instance, returns domain.ErrNotFound.
func (s *HotelStore) Delete(ctx context.Context, h *domain.Hotel) (err error) {
	defer func() { observe("hotel", "delete", err) }()

	if h == nil || !h.Persisted() {
		return domain.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, s.d.rebind(deleteHotelSQL), h.ID)
	if err != nil {
		return fmt.Errorf("delete hotel %d: %w", h.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete hotel %d: %w", h.ID, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	s.ids.Remove(h.ID)
	observability.ObserveIdentity("hotel", "evict")
	h.ID = 0
	return nil
}

func (s *HotelStore) List(ctx context.Context) ([]*domain.Hotel, error) {
	return s.query(ctx, selectHotelsSQL+orderByIDClause)
}

func (s *HotelStore) FindByID(ctx context.Context, id int64) (*domain.Hotel, error) {
	return s.first(s.query(ctx, selectHotelsSQL+byIDClause, id))
}

func (s *HotelStore) FindByName(ctx context.Context, name string) (*domain.Hotel, error) {
	return s.first(s.query(ctx, selectHotelsSQL+byNameClause, name))
}

// FindByIDs loads the hotels stored under ids in primary key order. Ids with
// no row are skipped.
func (s *HotelStore) FindByIDs(ctx context.Context, ids []int64) ([]*domain.Hotel, error) {
	if len(ids) == 0 {
		return []*domain.Hotel{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.query(ctx, selectHotelsSQL+byIDsClause(len(ids)), args...)
}

// Guests queries the guests currently booked at h. The result is never
// cached on h.
func (s *HotelStore) Guests(ctx context.Context, h *domain.Hotel) ([]*domain.Guest, error) {
	if h == nil || !h.Persisted() {
		return []*domain.Guest{}, nil
	}
	return s.guests.query(ctx, selectGuestsSQL+byHotelClause, h.ID)
}

func (s *HotelStore) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.d.rebind(hotelExistsSQL), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check hotel %d: %w", id, err)
	}
	return true, nil
}

func (s *HotelStore) query(ctx context.Context, q string, args ...any) ([]*domain.Hotel, error) {
	rows, err := s.db.QueryContext(ctx, s.d.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("select hotels: %w", err)
	}
	defer rows.Close()

	out := []*domain.Hotel{}
	for rows.Next() {
		var id int64
		var name, location sql.NullString
		if err := rows.Scan(&id, &name, &location); err != nil {
			return nil, fmt.Errorf("scan hotel: %w", err)
		}
		out = append(out, s.fromRow(id, name.String, location.String))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select hotels: %w", err)
	}
	return out, nil
}

// fromRow hands out the cached instance for id, refreshed from the row, so
// earlier references see the stored state.
func (s *HotelStore) fromRow(id int64, name, location string) *domain.Hotel {
	h, hit := s.ids.Resolve(id,
		func() *domain.Hotel { return &domain.Hotel{ID: id, Name: name, Location: location} },
		func(h *domain.Hotel) { h.Name, h.Location = name, location },
	)
	observability.ObserveIdentity("hotel", identityEvent(hit))
	return h
}

func (s *HotelStore) first(hs []*domain.Hotel, err error) (*domain.Hotel, error) {
	if err != nil || len(hs) == 0 {
		return nil, err
	}
	return hs[0], nil
}
