// Package stats provides the shared per-key aggregation table.
package stats

import (
	"math/bits"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultShards is the shard count used when none is given.
const DefaultShards = 64

// Table maps keys to statistics. Updates are safe for concurrent use: each
// key hashes to one shard and every read-modify-write of that key happens
// under the shard's lock, so updates to keys in different shards never
// contend.
type Table struct {
	shards []shard
	mask   uint64
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*Statistic
	_       [48]byte // keep neighbouring locks off the same cache line
}

// NewTable creates a table with n shards rounded up to a power of two.
// n <= 0 selects DefaultShards.
func NewTable(n int) *Table {
	if n <= 0 {
		n = DefaultShards
	}
	n = 1 << bits.Len(uint(n-1))
	t := &Table{
		shards: make([]shard, n),
		mask:   uint64(n - 1),
	}
	for i := range t.shards {
		t.shards[i].entries = make(map[string]*Statistic)
	}
	return t
}

// Update inserts {value, value, value, 1} for an absent key or folds value
// into the existing entry.
func (t *Table) Update(key string, value float64) {
	sh := &t.shards[xxhash.Sum64String(key)&t.mask]
	sh.mu.Lock()
	if st, ok := sh.entries[key]; ok {
		st.Add(value)
	} else {
		s := NewStatistic(value)
		sh.entries[key] = &s
	}
	sh.mu.Unlock()
}

// UpdateBytes is Update for a key that aliases a scan buffer. The lookup does
// not allocate; the key is copied into an owned string only when it is
// inserted for the first time.
func (t *Table) UpdateBytes(key []byte, value float64) {
	sh := &t.shards[xxhash.Sum64(key)&t.mask]
	sh.mu.Lock()
	if st, ok := sh.entries[string(key)]; ok {
		st.Add(value)
	} else {
		s := NewStatistic(value)
		sh.entries[string(key)] = &s
	}
	sh.mu.Unlock()
}

// Get returns a copy of the statistic for key.
func (t *Table) Get(key string) (Statistic, bool) {
	sh := &t.shards[xxhash.Sum64String(key)&t.mask]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	st, ok := sh.entries[key]
	if !ok {
		return Statistic{}, false
	}
	return *st, true
}

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	n := 0
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Keys returns all keys in ascending byte order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, t.Len())
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		for k := range sh.entries {
			keys = append(keys, k)
		}
		sh.mu.Unlock()
	}
	slices.Sort(keys)
	return keys
}

// Snapshot copies the table into a plain map.
func (t *Table) Snapshot() map[string]Statistic {
	out := make(map[string]Statistic, t.Len())
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		for k, st := range sh.entries {
			out[k] = *st
		}
		sh.mu.Unlock()
	}
	return out
}
