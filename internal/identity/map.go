// Package identity keeps one live instance per stored row so that every
// lookup of a primary key hands out the same pointer.
package identity

// Map is an identity cache keyed by primary key. It has no eviction and is
// not safe for concurrent use; callers serialise access.
type Map[T any] struct {
	items map[int64]*T
}

func New[T any]() *Map[T] {
	return &Map[T]{items: make(map[int64]*T)}
}

func (m *Map[T]) Get(id int64) (*T, bool) {
	v, ok := m.items[id]
	return v, ok
}

func (m *Map[T]) Put(id int64, v *T) { m.items[id] = v }

func (m *Map[T]) Remove(id int64) { delete(m.items, id) }

func (m *Map[T]) Len() int { return len(m.items) }

// Reset drops every entry. Instances already handed out keep their state.
func (m *Map[T]) Reset() { m.items = make(map[int64]*T) }

// Resolve returns the cached instance for id after applying refresh to it,
// or registers and returns the instance produced by build. hit reports
// which path was taken.
func (m *Map[T]) Resolve(id int64, build func() *T, refresh func(*T)) (v *T, hit bool) {
	if cur, ok := m.items[id]; ok {
		refresh(cur)
		return cur, true
	}
	v = build()
	m.items[id] = v
	return v, false
}
