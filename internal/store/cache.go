// Package store holds the client's cached view of server-owned
// collections.
//
// The server is the source of truth; each store is a read-through,
// write-through mirror. Mutations are optimistic: the cache changes
// immediately, the request goes out, and the entry is either replaced by
// the server's canonical copy or rolled back to the pre-call snapshot.
// Every entry carries a monotonically increasing local revision so a
// response that arrives after the entry moved on is recognized as stale
// and dropped instead of clobbering newer state.
package store

import (
	"sync"

	"github.com/google/uuid"
)

// localIDPrefix marks optimistic entries that have no server id yet
const localIDPrefix = "local-"

// newLocalID mints a temporary id for an optimistic create
func newLocalID() string {
	return localIDPrefix + uuid.NewString()
}

// IsLocalID reports whether an id is a client-side placeholder
func IsLocalID(id string) bool {
	return len(id) > len(localIDPrefix) && id[:len(localIDPrefix)] == localIDPrefix
}

type entry[T any] struct {
	value    T
	revision uint64
}

// cache is a revisioned, insertion-ordered map of entities.
// All methods are safe for concurrent use.
type cache[T any] struct {
	mu      sync.Mutex
	idOf    func(T) string
	entries map[string]*entry[T]
	order   []string
	rev     uint64
}

func newCache[T any](idOf func(T) string) *cache[T] {
	return &cache[T]{
		idOf:    idOf,
		entries: make(map[string]*entry[T]),
	}
}

// Snapshot returns the cached values in insertion order
func (c *cache[T]) Snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		if e, ok := c.entries[id]; ok {
			out = append(out, e.value)
		}
	}
	return out
}

// Get returns the cached value for id
func (c *cache[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		return e.value, true
	}
	var zero T
	return zero, false
}

// Len returns the number of cached entries
func (c *cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ReplaceAll swaps the whole cache for the server's collection
func (c *cache[T]) ReplaceAll(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry[T], len(items))
	c.order = c.order[:0]
	for _, item := range items {
		id := c.idOf(item)
		c.rev++
		c.entries[id] = &entry[T]{value: item, revision: c.rev}
		c.order = append(c.order, id)
	}
}

// Merge upserts items without dropping entries absent from the input
func (c *cache[T]) Merge(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range items {
		id := c.idOf(item)
		c.rev++
		if e, ok := c.entries[id]; ok {
			e.value = item
			e.revision = c.rev
			continue
		}
		c.entries[id] = &entry[T]{value: item, revision: c.rev}
		c.order = append(c.order, id)
	}
}

// Put applies an optimistic value and returns its revision.
// The returned revision is the caller's claim check: reconciliation and
// rollback only apply while the entry is still at that revision.
func (c *cache[T]) Put(v T) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.idOf(v)
	c.rev++
	if e, ok := c.entries[id]; ok {
		e.value = v
		e.revision = c.rev
	} else {
		c.entries[id] = &entry[T]{value: v, revision: c.rev}
		c.order = append(c.order, id)
	}
	return c.rev
}

// Commit replaces the optimistic entry at id with the server's canonical
// copy, possibly under a new id (a confirmed create trades its temporary
// local id for the generated one). Returns false, leaving the cache
// untouched, when the entry has moved past rev: the response is stale.
func (c *cache[T]) Commit(id string, rev uint64, canonical T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok || e.revision != rev {
		return false
	}

	newID := c.idOf(canonical)
	c.rev++
	if newID == id {
		e.value = canonical
		e.revision = c.rev
		return true
	}

	delete(c.entries, id)
	// A concurrent refresh may have landed the canonical entry under its
	// server id already; drop that slot so the rename leaves one copy.
	if _, exists := c.entries[newID]; exists {
		c.dropFromOrder(newID)
	}
	c.entries[newID] = &entry[T]{value: canonical, revision: c.rev}
	for i, oid := range c.order {
		if oid == id {
			c.order[i] = newID
			break
		}
	}
	return true
}

// Revert rolls an optimistic mutation back to the pre-call snapshot.
// hadPrev distinguishes an optimistic update (restore prev) from an
// optimistic create (remove the placeholder). A no-op when the entry
// already moved past rev.
func (c *cache[T]) Revert(id string, rev uint64, prev T, hadPrev bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok || e.revision != rev {
		return false
	}

	if hadPrev {
		c.rev++
		e.value = prev
		e.revision = c.rev
		return true
	}

	delete(c.entries, id)
	c.dropFromOrder(id)
	return true
}

// Take removes an entry optimistically, handing back what is needed to
// restore it in place if the delete fails.
func (c *cache[T]) Take(id string) (T, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		var zero T
		return zero, 0, false
	}

	idx := 0
	for i, oid := range c.order {
		if oid == id {
			idx = i
			break
		}
	}
	delete(c.entries, id)
	c.dropFromOrder(id)
	return e.value, idx, true
}

// Restore reinserts a taken entry at its old position.
// Skipped when the id reappeared in the meantime.
func (c *cache[T]) Restore(v T, idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.idOf(v)
	if _, ok := c.entries[id]; ok {
		return
	}

	c.rev++
	c.entries[id] = &entry[T]{value: v, revision: c.rev}
	if idx > len(c.order) {
		idx = len(c.order)
	}
	c.order = append(c.order[:idx], append([]string{id}, c.order[idx:]...)...)
}

// Purge drops an entry unconditionally. Used when the server reports the
// entity gone: there is no older state worth restoring.
func (c *cache[T]) Purge(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; !ok {
		return
	}
	delete(c.entries, id)
	c.dropFromOrder(id)
}

// Reset clears the cache entirely
func (c *cache[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[T])
	c.order = nil
}

func (c *cache[T]) dropFromOrder(id string) {
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
