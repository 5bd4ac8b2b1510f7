package domain

import "context"

// Repository holds the operations hotels and guests share. Lookups that
// match nothing return a nil entity and a nil error.
type Repository[T any] interface {
	List(ctx context.Context) ([]*T, error)
	FindByID(ctx context.Context, id int64) (*T, error)
	FindByName(ctx context.Context, name string) (*T, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*T, error)
	Delete(ctx context.Context, e *T) error

	CreateTable(ctx context.Context) error
	DropTable(ctx context.Context) error
}

type HotelRepository interface {
	Repository[Hotel]

	Create(ctx context.Context, name, location string) (*Hotel, error)
	Update(ctx context.Context, h *Hotel, name, location string) (*Hotel, error)
	Guests(ctx context.Context, h *Hotel) ([]*Guest, error)

	// Exists is the referential check used by guest validation. It must not
	// populate the identity cache.
	Exists(ctx context.Context, id int64) (bool, error)
}

type GuestRepository interface {
	Repository[Guest]

	Create(ctx context.Context, name string, hotelID int64) (*Guest, error)
	Update(ctx context.Context, g *Guest, name string, hotelID int64) (*Guest, error)
	FindByNameLength(ctx context.Context, maxLength int) ([]*Guest, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
