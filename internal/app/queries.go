package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"hotelbook/internal/domain"
	"hotelbook/internal/search"
)

const (
	hotelEntity = "hotel"
	guestEntity = "guest"
)

func (d *Directory) Hotels(ctx context.Context) ([]*domain.Hotel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hotels.List(ctx)
}

// Hotel returns nil without error when no hotel has that id.
func (d *Directory) Hotel(ctx context.Context, id int64) (*domain.Hotel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hotels.FindByID(ctx, id)
}

func (d *Directory) HotelByName(ctx context.Context, name string) (*domain.Hotel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hotels.FindByName(ctx, name)
}

// HotelGuests returns the hotel stored under id and its guests. The hotel is
// nil when the id is unknown.
func (d *Directory) HotelGuests(ctx context.Context, id int64) (*domain.Hotel, []*domain.Guest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h, err := d.hotels.FindByID(ctx, id)
	if err != nil || h == nil {
		return nil, nil, err
	}
	gs, err := d.hotels.Guests(ctx, h)
	if err != nil {
		return nil, nil, err
	}
	return h, gs, nil
}

func (d *Directory) Guests(ctx context.Context) ([]*domain.Guest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.guests.List(ctx)
}

func (d *Directory) Guest(ctx context.Context, id int64) (*domain.Guest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.guests.FindByID(ctx, id)
}

func (d *Directory) GuestByName(ctx context.Context, name string) (*domain.Guest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.guests.FindByName(ctx, name)
}

func (d *Directory) GuestsByNameLength(ctx context.Context, maxLength int) ([]*domain.Guest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.guests.FindByNameLength(ctx, maxLength)
}

// SearchHotels matches query as a regular expression against hotel names.
func (d *Directory) SearchHotels(ctx context.Context, query string) ([]*domain.Hotel, error) {
	v, err, _ := d.sf.Do(hotelEntity+":"+query, func() (any, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		return cachedSearch(ctx, d, hotelEntity, query, d.hotels.List, d.hotels.FindByIDs, func(h *domain.Hotel) int64 { return h.ID })
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Hotel), nil
}

func (d *Directory) SearchGuests(ctx context.Context, query string) ([]*domain.Guest, error) {
	v, err, _ := d.sf.Do(guestEntity+":"+query, func() (any, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		return cachedSearch(ctx, d, guestEntity, query, d.guests.List, d.guests.FindByIDs, func(g *domain.Guest) int64 { return g.ID })
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Guest), nil
}

// ---- search result cache ----
//
// The cache stores the ids a query matched, never the entities. A hit loads
// just those rows by primary key, so it skips the table scan and the regex
// pass while still handing out identity-cached instances. Keys embed a
// per-entity generation that every write bumps.

func cachedSearch[T search.Named](
	ctx context.Context,
	d *Directory,
	entity, query string,
	list func(context.Context) ([]T, error),
	byIDs func(context.Context, []int64) ([]T, error),
	idOf func(T) int64,
) ([]T, error) {
	if d.cache == nil {
		all, err := list(ctx)
		if err != nil {
			return nil, err
		}
		return search.FuzzyMatch(query, all)
	}

	key := fmt.Sprintf("search:%s:%d:%s", entity, d.generation(ctx, entity), query)
	var ids []int64
	if ok, _ := d.cache.Get(ctx, key, &ids); ok {
		hit, err := byIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(hit) == len(ids) {
			return hit, nil
		}
		// a row went away without a generation bump (e.g. another process)
		if err := d.cache.Del(ctx, key); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("search cache del failed")
		}
	}

	all, err := list(ctx)
	if err != nil {
		return nil, err
	}
	matched, err := search.FuzzyMatch(query, all)
	if err != nil {
		return nil, err
	}
	ids = make([]int64, len(matched))
	for i, e := range matched {
		ids[i] = idOf(e)
	}
	if err := d.cache.Set(ctx, key, ids, int(d.cacheTTL.Seconds())); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("search cache set failed")
	}
	return matched, nil
}

func generationKey(entity string) string { return "search:" + entity + ":gen" }

func (d *Directory) generation(ctx context.Context, entity string) int64 {
	var gen int64
	if d.cache != nil {
		_, _ = d.cache.Get(ctx, generationKey(entity), &gen)
	}
	return gen
}

func (d *Directory) invalidateSearch(ctx context.Context, entity string) {
	if d.cache == nil {
		return
	}
	next := d.generation(ctx, entity) + 1
	if err := d.cache.Set(ctx, generationKey(entity), next, 0); err != nil {
		log.Warn().Err(err).Str("entity", entity).Msg("search cache invalidation failed")
	}
}
