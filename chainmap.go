// Package chainmap provides a generic hash map backed by a slice of
// separately chained buckets that is safe for concurrent use.
//
// Size, IsEmpty, Put, Get, Remove and Stats serialize on a single map-wide
// mutex and are linearizable with respect to each other. ContainsKey and
// ContainsValue do not take the lock. They read the table through atomic
// loads, so they never fault while another goroutine splices a chain or
// swaps the table, but they may report a stale answer.
//
// The table only grows. When the ratio of entries to buckets exceeds the
// load factor after an insert, the table doubles. See ResizePolicy for how
// entries are placed afterwards.
package chainmap

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alextanhongpin/chainmap/internal"
)

const (
	// DefaultCapacity is the number of buckets allocated by Default.
	DefaultCapacity = 16

	// DefaultLoadFactor is the load factor used by Default.
	DefaultLoadFactor = 0.75
)

// Map is a concurrent hash map with separate chaining.
type Map[K comparable, V any] struct {
	mu         sync.Mutex
	table      atomic.Pointer[table[K, V]]
	count      atomic.Int64
	resizes    int
	loadFactor float64
	nilable    bool
	hasher     Hasher[K]
	equal      func(a, b V) bool
	opts       options
	ctx        context.Context
}

// Stats is a consistent snapshot of the map layout.
type Stats struct {
	Entries      int
	Buckets      int
	UsedBuckets  int
	LongestChain int
	Resizes      int
	Load         float64
}

// New returns a map with capacity buckets. The table doubles whenever
// entries/buckets exceeds loadFactor.
func New[K comparable, V any](capacity int, loadFactor float64, opts ...Option) (*Map[K, V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if loadFactor <= 0 || math.IsNaN(loadFactor) || math.IsInf(loadFactor, 0) {
		return nil, ErrInvalidLoadFactor
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	m := &Map[K, V]{
		loadFactor: loadFactor,
		nilable:    internal.Nilable(reflect.TypeFor[K]()),
		hasher:     hasherFrom[K](o.hasher),
		equal:      equalFrom[V](o.equal),
		opts:       o,
		ctx:        o.context(),
	}
	m.table.Store(newTable[K, V](capacity))

	return m, nil
}

// Default returns a map with DefaultCapacity buckets and DefaultLoadFactor.
func Default[K comparable, V any](opts ...Option) *Map[K, V] {
	m, err := New[K, V](DefaultCapacity, DefaultLoadFactor, opts...)
	if err != nil {
		panic(err)
	}

	return m
}

// Size returns the number of entries.
func (m *Map[K, V]) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return int(m.count.Load())
}

// IsEmpty reports whether the map holds no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.Size() == 0
}

// Put maps key to value. If the key was already present its value is
// replaced in place and the previous value is returned with ok set.
func (m *Map[K, V]) Put(key K, value V) (old V, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table.Load()
	i := m.index(key, t.len())
	if e := t.find(i, key); e != nil {
		return *e.value.Swap(&value), true
	}

	t.push(i, newEntry(key, value))
	m.count.Add(1)

	if m.overloaded(t) {
		m.grow(t)
	} else {
		m.recordEntries()
	}

	return old, false
}

// Get returns the value for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table.Load()
	if e := t.find(m.index(key, t.len()), key); e != nil {
		return e.load(), true
	}

	var v V
	return v, false
}

// ContainsKey reports whether key is present. It does not take the lock and
// may miss a concurrent Put or still see a concurrent Remove.
func (m *Map[K, V]) ContainsKey(key K) bool {
	t := m.table.Load()
	return t.find(m.index(key, t.len()), key) != nil
}

// Remove deletes key and returns its value. Removing a key whose bucket is
// empty reports not found.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table.Load()
	if e := t.unlink(m.index(key, t.len()), key); e != nil {
		m.count.Add(-1)
		m.recordEntries()

		return e.load(), true
	}

	var v V
	return v, false
}

// ContainsValue reports whether any entry holds value. It scans every
// chain without the lock; a concurrent mutation may make the answer stale.
func (m *Map[K, V]) ContainsValue(value V) bool {
	if m.count.Load() == 0 {
		return false
	}

	t := m.table.Load()
	for i := range t.buckets {
		for e := t.head(i); e != nil; e = e.next.Load() {
			if m.equal(e.load(), value) {
				return true
			}
		}
	}

	return false
}

// Stats returns a snapshot of the table layout.
func (m *Map[K, V]) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table.Load()
	s := Stats{
		Entries: int(m.count.Load()),
		Buckets: t.len(),
		Resizes: m.resizes,
	}
	s.Load = float64(s.Entries) / float64(s.Buckets)

	for i := range t.buckets {
		var n int
		for e := t.head(i); e != nil; e = e.next.Load() {
			n++
		}
		if n > 0 {
			s.UsedBuckets++
		}
		s.LongestChain = max(s.LongestChain, n)
	}

	return s
}

// Snapshot returns a deep copy of every entry reachable by its key. Values
// are copied with copystructure so the result shares no memory with the map.
// Values holding unexported struct fields cannot be copied faithfully and
// fail with ErrNotCopyable.
func (m *Map[K, V]) Snapshot() (map[K]V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table.Load()
	n := t.len()
	out := make(map[K]V, m.count.Load())
	for i := range t.buckets {
		for e := t.head(i); e != nil; e = e.next.Load() {
			// Left behind by ResizeExtend.
			if m.index(e.key, n) != i {
				continue
			}

			v, err := internal.Copy(e.load())
			if err != nil {
				return nil, fmt.Errorf("%w: key %v: %w", ErrNotCopyable, e.key, err)
			}
			out[e.key] = v
		}
	}

	return out, nil
}

func (m *Map[K, V]) index(key K, n int) int {
	return indexFor(m.hash(key), n)
}

func (m *Map[K, V]) overloaded(t *table[K, V]) bool {
	return float64(m.count.Load())/float64(t.len()) > m.loadFactor
}

// grow doubles the table. Called with the lock held.
func (m *Map[K, V]) grow(t *table[K, V]) {
	start := time.Now()
	n := 2 * t.len()

	var nt *table[K, V]
	switch m.opts.policy {
	case ResizeExtend:
		nt = t.extend(n)
	default:
		nt = t.redistribute(n, func(k K) int {
			return m.index(k, n)
		})
	}

	m.table.Store(nt)
	m.resizes++
	m.recordResize(t.len(), n, time.Since(start))
}
