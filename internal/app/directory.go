package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"hotelbook/internal/domain"
)

// Directory is the entry point the CLI, the menu and the HTTP server call.
// Every operation holds one mutex for its whole duration, so the identity
// caches and the storage commit change together even when the HTTP server
// runs handlers concurrently.
type Directory struct {
	mu     sync.Mutex
	hotels domain.HotelRepository
	guests domain.GuestRepository

	cache    domain.Cache // optional
	cacheTTL time.Duration
	sf       singleflight.Group
}

func NewDirectory(h domain.HotelRepository, g domain.GuestRepository, c domain.Cache, ttl time.Duration) *Directory {
	return &Directory{hotels: h, guests: g, cache: c, cacheTTL: ttl}
}

// View runs fn while holding the directory lock. Entities handed out by the
// Directory are the live identity-cached instances that later operations
// refresh in place, so concurrent callers read their fields (for example to
// encode them) inside View.
func (d *Directory) View(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// EnsureSchema creates the hotels and guests tables when missing.
func (d *Directory) EnsureSchema(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.hotels.CreateTable(ctx); err != nil {
		return err
	}
	return d.guests.CreateTable(ctx)
}

// Reset drops and recreates both tables. With seed set it loads the demo
// hotels and guests.
func (d *Directory) Reset(ctx context.Context, seed bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.guests.DropTable(ctx); err != nil {
		return err
	}
	if err := d.hotels.DropTable(ctx); err != nil {
		return err
	}
	if err := d.hotels.CreateTable(ctx); err != nil {
		return err
	}
	if err := d.guests.CreateTable(ctx); err != nil {
		return err
	}
	d.invalidateSearch(ctx, hotelEntity)
	d.invalidateSearch(ctx, guestEntity)
	log.Info().Bool("seed", seed).Msg("database reset")
	if !seed {
		return nil
	}

	lafayette, err := d.hotels.Create(ctx, "The Lafayette", "50st and Lafayette, New York, NY")
	if err != nil {
		return err
	}
	sprinkle, err := d.hotels.Create(ctx, "The Sprinkle", "281 East Harlem 148st, New York")
	if err != nil {
		return err
	}
	if _, err := d.guests.Create(ctx, "Lee", lafayette.ID); err != nil {
		return err
	}
	_, err = d.guests.Create(ctx, "Sasha", sprinkle.ID)
	return err
}

// ---- hotels ----

func (d *Directory) CreateHotel(ctx context.Context, name, location string) (*domain.Hotel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h, err := d.hotels.Create(ctx, name, location)
	if err != nil {
		return nil, err
	}
	d.invalidateSearch(ctx, hotelEntity)
	log.Info().Int64("id", h.ID).Str("name", h.Name).Msg("hotel created")
	return h, nil
}

// UpdateHotel overwrites the hotel stored under id. A missing hotel is
// domain.ErrNotFound.
func (d *Directory) UpdateHotel(ctx context.Context, id int64, name, location string) (*domain.Hotel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h, err := d.hotels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, domain.ErrNotFound
	}
	if _, err := d.hotels.Update(ctx, h, name, location); err != nil {
		return nil, err
	}
	d.invalidateSearch(ctx, hotelEntity)
	log.Info().Int64("id", h.ID).Msg("hotel updated")
	return h, nil
}

// DeleteHotel removes the hotel stored under id and returns the detached
// instance.
func (d *Directory) DeleteHotel(ctx context.Context, id int64) (*domain.Hotel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h, err := d.hotels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, domain.ErrNotFound
	}
	if err := d.hotels.Delete(ctx, h); err != nil {
		return nil, err
	}
	d.invalidateSearch(ctx, hotelEntity)
	log.Info().Int64("id", id).Msg("hotel deleted")
	return h, nil
}

// ---- guests ----

func (d *Directory) CreateGuest(ctx context.Context, name string, hotelID int64) (*domain.Guest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, err := d.guests.Create(ctx, name, hotelID)
	if err != nil {
		return nil, err
	}
	d.invalidateSearch(ctx, guestEntity)
	log.Info().Int64("id", g.ID).Int64("hotel_id", g.HotelID).Msg("guest created")
	return g, nil
}

func (d *Directory) UpdateGuest(ctx context.Context, id int64, name string, hotelID int64) (*domain.Guest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, err := d.guests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, domain.ErrNotFound
	}
	if _, err := d.guests.Update(ctx, g, name, hotelID); err != nil {
		return nil, err
	}
	d.invalidateSearch(ctx, guestEntity)
	log.Info().Int64("id", g.ID).Int64("hotel_id", g.HotelID).Msg("guest updated")
	return g, nil
}

func (d *Directory) DeleteGuest(ctx context.Context, id int64) (*domain.Guest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, err := d.guests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, domain.ErrNotFound
	}
	if err := d.guests.Delete(ctx, g); err != nil {
		return nil, err
	}
	d.invalidateSearch(ctx, guestEntity)
	log.Info().Int64("id", id).Msg("guest deleted")
	return g, nil
}
