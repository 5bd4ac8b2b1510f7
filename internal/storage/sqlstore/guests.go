package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"

	"hotelbook/internal/adapters/observability"
	"hotelbook/internal/domain"
	"hotelbook/internal/identity"
)

// GuestStore implements domain.GuestRepository.
type GuestStore struct {
	db     *sql.DB
	d      Dialect
	ids    *identity.Map[domain.Guest]
	hotels domain.HotelRepository
}

var _ domain.GuestRepository = (*GuestStore)(nil)

// CreateTable creates the guests table with its foreign key to hotels. The
// hotels table must exist first on engines that check the reference.
func (s *GuestStore) CreateTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.d.createGuests); err != nil {
		return fmt.Errorf("create guests table: %w", err)
	}
	return nil
}

func (s *GuestStore) DropTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, dropGuestsSQL); err != nil {
		return fmt.Errorf("drop guests table: %w", err)
	}
	s.ids.Reset()
	return nil
}

func (s *GuestStore) Create(ctx context.Context, name string, hotelID int64) (_ *domain.Guest, err error) {
	defer func() { observe("guest", "create", err) }()

	if err := s.validate(ctx, name, hotelID); err != nil {
		return nil, err
	}
	id, err := s.d.insert(ctx, s.db, insertGuestSQL, name, hotelID)
	if err != nil {
		return nil, fmt.Errorf("insert guest: %w", err)
	}
	g := &domain.Guest{ID: id, Name: name, HotelID: hotelID}
	s.ids.Put(id, g)
	return g, nil
}

func (s *GuestStore) Update(ctx context.Context, g *domain.Guest, name string, hotelID int64) (_ *domain.Guest, err error) {
	defer func() { observe("guest", "update", err) }()

	if g == nil || !g.Persisted() {
		return nil, domain.ErrNotFound
	}
	if err := s.validate(ctx, name, hotelID); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, s.d.rebind(updateGuestSQL), name, hotelID, g.ID)
	if err != nil {
		return nil, fmt.Errorf("update guest %d: %w", g.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update guest %d: %w", g.ID, err)
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}
	g.Name, g.HotelID = name, hotelID
	if cur, ok := s.ids.Get(g.ID); ok && cur != g {
		cur.Name, cur.HotelID = name, hotelID
	}
	return g, nil
}

func (s *GuestStore) Delete(ctx context.Context, g *domain.Guest) (err error) {
	defer func() { observe("guest", "delete", err) }()

	if g == nil || !g.Persisted() {
		return domain.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, s.d.rebind(deleteGuestSQL), g.ID)
	if err != nil {
		return fmt.Errorf("delete guest %d: %w", g.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete guest %d: %w", g.ID, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	s.ids.Remove(g.ID)
	observability.ObserveIdentity("guest", "evict")
	g.ID = 0
	return nil
}

func (s *GuestStore) List(ctx context.Context) ([]*domain.Guest, error) {
	return s.query(ctx, selectGuestsSQL+orderByIDClause)
}

func (s *GuestStore) FindByID(ctx context.Context, id int64) (*domain.Guest, error) {
	return s.first(s.query(ctx, selectGuestsSQL+byIDClause, id))
}

func (s *GuestStore) FindByName(ctx context.Context, name string) (*domain.Guest, error) {
	return s.first(s.query(ctx, selectGuestsSQL+byNameClause, name))
}

// FindByIDs loads the guests stored under ids in primary key order. Ids with
// no row are skipped.
func (s *GuestStore) FindByIDs(ctx context.Context, ids []int64) ([]*domain.Guest, error) {
	if len(ids) == 0 {
		return []*domain.Guest{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.query(ctx, selectGuestsSQL+byIDsClause(len(ids)), args...)
}

// FindByNameLength returns the guests whose name has at most maxLength
// characters. It filters the full List result in memory.
func (s *GuestStore) FindByNameLength(ctx context.Context, maxLength int) ([]*domain.Guest, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Guest, 0, len(all))
	for _, g := range all {
		if utf8.RuneCountInString(g.Name) <= maxLength {
			out = append(out, g)
		}
	}
	return out, nil
}

// validate runs the attribute checks and then the referential check. The
// check goes through HotelRepository.Exists and leaves the hotel identity
// cache untouched.
func (s *GuestStore) validate(ctx context.Context, name string, hotelID int64) error {
	if err := domain.ValidateGuest(name, hotelID); err != nil {
		return err
	}
	ok, err := s.hotels.Exists(ctx, hotelID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.DanglingHotel(hotelID)
	}
	return nil
}

func (s *GuestStore) query(ctx context.Context, q string, args ...any) ([]*domain.Guest, error) {
	rows, err := s.db.QueryContext(ctx, s.d.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("select guests: %w", err)
	}
	defer rows.Close()

	out := []*domain.Guest{}
	for rows.Next() {
		var id int64
		var name sql.NullString
		var hotelID sql.NullInt64
		if err := rows.Scan(&id, &name, &hotelID); err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		out = append(out, s.fromRow(id, name.String, hotelID.Int64))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select guests: %w", err)
	}
	return out, nil
}

func (s *GuestStore) fromRow(id int64, name string, hotelID int64) *domain.Guest {
	g, hit := s.ids.Resolve(id,
		func() *domain.Guest { return &domain.Guest{ID: id, Name: name, HotelID: hotelID} },
		func(g *domain.Guest) { g.Name, g.HotelID = name, hotelID },
	)
	observability.ObserveIdentity("guest", identityEvent(hit))
	return g
}

func (s *GuestStore) first(gs []*domain.Guest, err error) (*domain.Guest, error) {
	if err != nil || len(gs) == 0 {
		return nil, err
	}
	return gs[0], nil
}
