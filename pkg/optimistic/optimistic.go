// Package optimistic is a keyed client-side cache whose writes can be applied
// speculatively and undone if the backend rejects them.
package optimistic

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrMissing is returned by Begin and Do when the key is not cached.
var ErrMissing = errors.New("optimistic: key not cached")

type entry[V any] struct {
	v V
}

// Store is a mutex-guarded cache. Updates to an existing key keep its entry,
// so a transaction can tell whether the key was deleted or re-added since Begin.
type Store[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*entry[V]
}

// New returns an empty store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{items: make(map[K]*entry[V])}
}

func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.v, true
}

func (s *Store[K, V]) Put(key K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[key]; ok {
		e.v = v
		return
	}
	s.items[key] = &entry[V]{v: v}
}

// Delete removes key and reports whether it was present.
func (s *Store[K, V]) Delete(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	delete(s.items, key)
	return ok
}

func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Values returns a copy of every cached value ordered by less.
func (s *Store[K, V]) Values(less func(a, b V) bool) []V {
	s.mu.RLock()
	out := make([]V, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e.v)
	}
	s.mu.RUnlock()
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

// Reconcile makes incoming the cached set. Keys absent from incoming are dropped;
// keys already cached are combined with merge(cached, fresh).
func (s *Store[K, V]) Reconcile(incoming []V, keyOf func(V) K, merge func(cached, fresh V) V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[K]struct{}, len(incoming))
	for _, v := range incoming {
		k := keyOf(v)
		seen[k] = struct{}{}
		if e, ok := s.items[k]; ok {
			if merge != nil {
				v = merge(e.v, v)
			}
			e.v = v
			continue
		}
		s.items[k] = &entry[V]{v: v}
	}
	for k := range s.items {
		if _, ok := seen[k]; !ok {
			delete(s.items, k)
		}
	}
}

// Txn is one speculative write. Before is the snapshot, After the applied value.
type Txn[K comparable, V any] struct {
	Key    K
	Before V
	After  V

	s    *Store[K, V]
	e    *entry[V]
	done bool
}

// Begin snapshots key, applies mutate to the cached value and returns the transaction.
func (s *Store[K, V]) Begin(key K, mutate func(V) V) (*Txn[K, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return nil, ErrMissing
	}
	t := &Txn[K, V]{Key: key, Before: e.v, s: s, e: e}
	e.v = mutate(e.v)
	t.After = e.v
	return t, nil
}

// Commit keeps the speculative value.
func (t *Txn[K, V]) Commit() {
	t.s.mu.Lock()
	t.done = true
	t.s.mu.Unlock()
}

// Rollback restores the snapshot. A key deleted or replaced since Begin is left
// alone; the return value reports whether the snapshot was restored.
func (t *Txn[K, V]) Rollback() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	if cur, ok := t.s.items[t.Key]; !ok || cur != t.e {
		return false
	}
	t.e.v = t.Before
	return true
}

// Do applies mutate to key, runs remote and commits on success or rolls back on error.
func (s *Store[K, V]) Do(ctx context.Context, key K, mutate func(V) V, remote func(context.Context) error) error {
	t, err := s.Begin(key, mutate)
	if err != nil {
		return err
	}
	if err := remote(ctx); err != nil {
		t.Rollback()
		return err
	}
	t.Commit()
	return nil
}
