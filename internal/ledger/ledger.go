// Package ledger implements the shared resource ledgers consumed by the
// order item processors: keyed counter stores with atomic check-and-reserve
// semantics. Every ledger serializes conflicting access per key, so
// reservations against the same product or customer never interleave while
// operations on distinct keys proceed in parallel. No ledger operation
// partially applies and no tracked quantity ever goes negative.
package ledger

import "sync"

// records is a concurrency-safe map of per-key ledger records. Slot creation
// is guarded by a single mutex; every record carries its own lock so a
// check-then-mutate sequence holds exclusive access to exactly one key.
type records[T any] struct {
	mu sync.Mutex
	m  map[string]*record[T]
}

type record[T any] struct {
	mu  sync.Mutex
	val T
}

func (r *records[T]) slot(key string) *record[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		r.m = make(map[string]*record[T])
	}
	rec, ok := r.m[key]
	if !ok {
		rec = &record[T]{}
		r.m[key] = rec
	}
	return rec
}

// withKey runs fn with exclusive access to the record for key. The record is
// created zero-valued on first use.
func (r *records[T]) withKey(key string, fn func(*T) error) error {
	rec := r.slot(key)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return fn(&rec.val)
}
