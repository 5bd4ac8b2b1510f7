package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "hotelbook/internal/adapters/redis"
	"hotelbook/internal/app"
	"hotelbook/internal/domain"
	"hotelbook/internal/search"
	"hotelbook/internal/storage/sqlstore"
)

// ---- fixtures ----

func newDirectory(t *testing.T, cache domain.Cache) (*app.Directory, *sqlstore.Store) {
	t.Helper()
	ctx := context.Background()
	s, err := sqlstore.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "hotels.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	d := app.NewDirectory(s.Hotels, s.Guests, cache, 10*time.Minute)
	if err := d.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return d, s
}

// countingCache counts result hits, ignoring generation lookups.
type countingCache struct {
	mu   sync.Mutex
	next domain.Cache
	hits int
	dels int
}

func (c *countingCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	ok, err := c.next.Get(ctx, key, dst)
	if ok && !strings.HasSuffix(key, ":gen") {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
	}
	return ok, err
}
func (c *countingCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	return c.next.Set(ctx, key, v, ttlSec)
}
func (c *countingCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	c.dels++
	c.mu.Unlock()
	return c.next.Del(ctx, key)
}

func (c *countingCache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

func (c *countingCache) Dels() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dels
}

// countingHotels counts full table scans.
type countingHotels struct {
	domain.HotelRepository
	lists atomic.Int64
}

func (c *countingHotels) List(ctx context.Context) ([]*domain.Hotel, error) {
	c.lists.Add(1)
	return c.HotelRepository.List(ctx)
}

func newCachedDirectory(t *testing.T) (*app.Directory, *sqlstore.Store, *countingHotels, *countingCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rc.Close() })
	cache := &countingCache{next: rc}

	_, s := newDirectory(t, nil)
	hotels := &countingHotels{HotelRepository: s.Hotels}
	return app.NewDirectory(hotels, s.Guests, cache, 10*time.Minute), s, hotels, cache
}

// ---- tests ----

func TestDirectory_HotelLifecycle(t *testing.T) {
	d, _ := newDirectory(t, nil)
	ctx := context.Background()

	h, err := d.CreateHotel(ctx, "Sonder", "828 Brittle Road")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := d.HotelByName(ctx, "Sonder")
	if err != nil || got != h {
		t.Fatalf("expected cached instance, got %+v err=%v", got, err)
	}

	updated, err := d.UpdateHotel(ctx, h.ID, "Sonder Two", "829 Brittle Road")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated != h || h.Name != "Sonder Two" {
		t.Fatalf("update should mutate the cached instance: %+v", h)
	}

	id := h.ID
	deleted, err := d.DeleteHotel(ctx, id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != h || h.ID != 0 {
		t.Fatalf("expected detached instance, got %+v", deleted)
	}
	if again, _ := d.Hotel(ctx, id); again != nil {
		t.Fatalf("expected no hotel after delete, got %+v", again)
	}
	if _, err := d.DeleteHotel(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := d.UpdateHotel(ctx, id, "x", "y"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update of missing hotel, got %v", err)
	}
}

func TestDirectory_GuestLifecycle(t *testing.T) {
	d, _ := newDirectory(t, nil)
	ctx := context.Background()

	h, err := d.CreateHotel(ctx, "The Churchill", "Winston Churchill Land")
	if err != nil {
		t.Fatalf("create hotel: %v", err)
	}
	if _, err := d.CreateGuest(ctx, "Raha", h.ID+1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	raha, err := d.CreateGuest(ctx, "Raha", h.ID)
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	if _, err := d.CreateGuest(ctx, "Tal", h.ID); err != nil {
		t.Fatalf("create guest: %v", err)
	}

	hotel, guests, err := d.HotelGuests(ctx, h.ID)
	if err != nil || hotel != h {
		t.Fatalf("hotel guests: %+v err=%v", hotel, err)
	}
	if len(guests) != 2 || guests[0] != raha {
		t.Fatalf("unexpected guests: %+v", guests)
	}

	short, err := d.GuestsByNameLength(ctx, 3)
	if err != nil || len(short) != 1 || short[0].Name != "Tal" {
		t.Fatalf("name length: %+v err=%v", short, err)
	}

	if missing, gs, err := d.HotelGuests(ctx, 999); err != nil || missing != nil || gs != nil {
		t.Fatalf("expected nothing for unknown hotel, got %+v %+v %v", missing, gs, err)
	}

	if _, err := d.UpdateGuest(ctx, raha.ID, "Raha K", h.ID); err != nil {
		t.Fatalf("update guest: %v", err)
	}
	if byName, _ := d.GuestByName(ctx, "Raha K"); byName != raha {
		t.Fatalf("expected cached guest after rename, got %+v", byName)
	}
	if _, err := d.DeleteGuest(ctx, raha.ID); err != nil {
		t.Fatalf("delete guest: %v", err)
	}
	if all, _ := d.Guests(ctx); len(all) != 1 {
		t.Fatalf("expected one guest left, got %d", len(all))
	}
}

func TestDirectory_ResetWithSeed(t *testing.T) {
	d, _ := newDirectory(t, nil)
	ctx := context.Background()

	if _, err := d.CreateHotel(ctx, "Leftover", "Nowhere"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := d.Reset(ctx, true); err != nil {
		t.Fatalf("reset: %v", err)
	}
	hotels, err := d.Hotels(ctx)
	if err != nil {
		t.Fatalf("hotels: %v", err)
	}
	if len(hotels) != 2 || hotels[0].Name != "The Lafayette" || hotels[1].Name != "The Sprinkle" {
		t.Fatalf("unexpected seed hotels: %+v", hotels)
	}
	guests, _ := d.Guests(ctx)
	if len(guests) != 2 || guests[0].Name != "Lee" || guests[1].HotelID != hotels[1].ID {
		t.Fatalf("unexpected seed guests: %+v", guests)
	}
}

func TestDirectory_SearchWithoutCache(t *testing.T) {
	d, _ := newDirectory(t, nil)
	ctx := context.Background()

	sandy, _ := d.CreateHotel(ctx, "Sandy", "1 Beach Road")
	_, _ = d.CreateHotel(ctx, "Oak", "2 Forest Way")

	got, err := d.SearchHotels(ctx, "an")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0] != sandy {
		t.Fatalf("expected only Sandy, got %+v", got)
	}

	if _, err := d.SearchHotels(ctx, ""); !errors.Is(err, search.ErrEmptyPattern) {
		t.Fatalf("expected empty pattern error, got %v", err)
	}
	var pe *search.PatternError
	if _, err := d.SearchGuests(ctx, "[a-"); !errors.As(err, &pe) {
		t.Fatalf("expected pattern error, got %v", err)
	}
}

func TestDirectory_SearchCacheHitAndInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rc.Close() })
	cache := &countingCache{next: rc}

	d, _ := newDirectory(t, cache)
	ctx := context.Background()

	sandy, _ := d.CreateHotel(ctx, "Sandy", "1 Beach Road")
	_, _ = d.CreateHotel(ctx, "Oak", "2 Forest Way")

	first, err := d.SearchHotels(ctx, "an")
	if err != nil || len(first) != 1 {
		t.Fatalf("first search: %+v err=%v", first, err)
	}
	hitsBefore := cache.Hits()

	second, err := d.SearchHotels(ctx, "an")
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if cache.Hits() <= hitsBefore {
		t.Fatalf("expected a cache hit on the repeated search")
	}
	if len(second) != 1 || second[0] != sandy {
		t.Fatalf("cached search must resolve to the live instance, got %+v", second)
	}

	// a write bumps the generation, so the next search sees the new hotel
	grand, err := d.CreateHotel(ctx, "Grand Plaza", "3 Main Street")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	third, err := d.SearchHotels(ctx, "an")
	if err != nil {
		t.Fatalf("third search: %v", err)
	}
	if len(third) != 2 || third[0] != sandy || third[1] != grand {
		t.Fatalf("expected Sandy and Grand Plaza, got %+v", third)
	}

	// renaming out of the match set is visible too
	if _, err := d.UpdateHotel(ctx, sandy.ID, "Pier", "1 Beach Road"); err != nil {
		t.Fatalf("update: %v", err)
	}
	fourth, _ := d.SearchHotels(ctx, "an")
	if len(fourth) != 1 || fourth[0] != grand {
		t.Fatalf("expected only Grand Plaza, got %+v", fourth)
	}
}

func TestDirectory_ConcurrentCallsAreSerialised(t *testing.T) {
	d, _ := newDirectory(t, nil)
	ctx := context.Background()
	h, err := d.CreateHotel(ctx, "Hub", "Center")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := d.CreateGuest(ctx, "Guest", h.ID)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := d.SearchGuests(ctx, "Gu")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent call failed: %v", err)
		}
	}
	if _, gs, _ := d.HotelGuests(ctx, h.ID); len(gs) != 10 {
		t.Fatalf("expected 10 guests, got %d", len(gs))
	}
}

func TestDirectory_SearchCacheHitSkipsScan(t *testing.T) {
	d, _, hotels, cache := newCachedDirectory(t)
	ctx := context.Background()

	sandy, err := d.CreateHotel(ctx, "Sandy", "1 Beach Road")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _ = d.CreateHotel(ctx, "Oak", "2 Forest Way")

	if _, err := d.SearchHotels(ctx, "an"); err != nil {
		t.Fatalf("first search: %v", err)
	}
	scans := hotels.lists.Load()
	if scans != 1 {
		t.Fatalf("expected one scan on a miss, got %d", scans)
	}

	for i := 0; i < 3; i++ {
		got, err := d.SearchHotels(ctx, "an")
		if err != nil {
			t.Fatalf("repeat search: %v", err)
		}
		if len(got) != 1 || got[0] != sandy {
			t.Fatalf("expected the live Sandy instance, got %+v", got)
		}
	}
	if n := hotels.lists.Load(); n != scans {
		t.Fatalf("cache hits must not list the table, got %d scans", n)
	}
	if cache.Hits() < 3 {
		t.Fatalf("expected 3 cache hits, got %d", cache.Hits())
	}
}

func TestDirectory_SearchCacheDropsEntryWithMissingRows(t *testing.T) {
	d, s, hotels, cache := newCachedDirectory(t)
	ctx := context.Background()

	sandy, _ := d.CreateHotel(ctx, "Sandy", "1 Beach Road")
	grand, _ := d.CreateHotel(ctx, "Grand Plaza", "3 Main Street")
	if got, _ := d.SearchHotels(ctx, "an"); len(got) != 2 {
		t.Fatalf("expected two matches, got %+v", got)
	}

	// removed behind the directory's back, so no generation bump
	if _, err := s.DB().Exec("DELETE FROM hotels WHERE id = ?", grand.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := d.SearchHotels(ctx, "an")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0] != sandy {
		t.Fatalf("expected only Sandy, got %+v", got)
	}
	if cache.Dels() != 1 {
		t.Fatalf("expected the outdated entry to be deleted, got %d dels", cache.Dels())
	}
	if hotels.lists.Load() != 2 {
		t.Fatalf("expected a rescan after the outdated hit, got %d", hotels.lists.Load())
	}

	// the rewritten entry serves the next search without a scan
	if again, _ := d.SearchHotels(ctx, "an"); len(again) != 1 || again[0] != sandy {
		t.Fatalf("unexpected result %+v", again)
	}
	if hotels.lists.Load() != 2 {
		t.Fatalf("expected no further scan, got %d", hotels.lists.Load())
	}
}
