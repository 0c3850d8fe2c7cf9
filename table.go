package chainmap

import "sync/atomic"

// entry is a chain node. The key never changes; value and next are swapped
// atomically so lock-free readers never observe a torn write.
type entry[K comparable, V any] struct {
	key   K
	value atomic.Pointer[V]
	next  atomic.Pointer[entry[K, V]]
}

func newEntry[K comparable, V any](k K, v V) *entry[K, V] {
	e := &entry[K, V]{key: k}
	e.value.Store(&v)
	return e
}

func (e *entry[K, V]) load() V {
	return *e.value.Load()
}

type table[K comparable, V any] struct {
	buckets []atomic.Pointer[entry[K, V]]
}

func newTable[K comparable, V any](n int) *table[K, V] {
	return &table[K, V]{
		buckets: make([]atomic.Pointer[entry[K, V]], n),
	}
}

func (t *table[K, V]) len() int {
	return len(t.buckets)
}

func (t *table[K, V]) head(i int) *entry[K, V] {
	return t.buckets[i].Load()
}

// find walks the chain at bucket i. Safe without the lock.
func (t *table[K, V]) find(i int, k K) *entry[K, V] {
	for e := t.head(i); e != nil; e = e.next.Load() {
		if e.key == k {
			return e
		}
	}

	return nil
}

// push links e as the new head of bucket i.
func (t *table[K, V]) push(i int, e *entry[K, V]) {
	e.next.Store(t.head(i))
	t.buckets[i].Store(e)
}

// unlink splices the entry for k out of bucket i. The removed entry keeps
// its next pointer so a reader standing on it can still finish the walk.
func (t *table[K, V]) unlink(i int, k K) *entry[K, V] {
	var prev *entry[K, V]
	for e := t.head(i); e != nil; e = e.next.Load() {
		if e.key == k {
			next := e.next.Load()
			if prev == nil {
				t.buckets[i].Store(next)
			} else {
				prev.next.Store(next)
			}

			return e
		}
		prev = e
	}

	return nil
}

// extend returns a table of length n whose first buckets alias the heads of
// t. No entry moves.
func (t *table[K, V]) extend(n int) *table[K, V] {
	nt := newTable[K, V](n)
	for i := range t.buckets {
		nt.buckets[i].Store(t.head(i))
	}

	return nt
}

// redistribute returns a table of length n with every entry copied into the
// bucket given by index. Copies are fresh entries so readers still walking t
// see unchanged chains. Relative chain order is kept: all entries landing in
// one new bucket come from the same old bucket.
func (t *table[K, V]) redistribute(n int, index func(K) int) *table[K, V] {
	nt := newTable[K, V](n)
	tails := make([]*entry[K, V], n)
	for i := range t.buckets {
		for e := t.head(i); e != nil; e = e.next.Load() {
			c := &entry[K, V]{key: e.key}
			c.value.Store(e.value.Load())

			j := index(e.key)
			if tails[j] == nil {
				nt.buckets[j].Store(c)
			} else {
				tails[j].next.Store(c)
			}
			tails[j] = c
		}
	}

	return nt
}
