package search

import (
	"sync/atomic"

	"github.com/nucleuschess/nucleus/board"
)

// Bound records which side of the search window a stored score is valid
// against (spec §4.6).
type Bound uint8

const (
	BoundLower Bound = 1 << iota
	BoundUpper
)

const BoundExact = BoundLower | BoundUpper

// bucketSize is the number of entries sharing an index, so a write to one
// key never has to evict a completely unrelated one as aggressively as a
// single-slot table would (spec §4.6: "typically 3-4").
const bucketSize = 4

// entry is one transposition-table slot. A single aligned
// atomic.CompareAndSwapInt32 on gate arbitrates concurrent readers and
// writers of the slot without a mutex: a reader that loses the race simply
// treats the slot as a miss, and a writer that loses it skips the update
// this time. Grounded on CounterGo's transEntry gate design
// (pkg/engine/transtable.go), generalized from one slot per index to a
// bucket of slots per index.
type entry struct {
	gate  int32
	key32 uint32
	move  int32
	date  uint16
	score int16
	depth int8
	bound uint8
}

func roundPowerOfTwo(size int) int {
	var x = 1
	for (x << 1) <= size {
		x <<= 1
	}
	return x
}

// Table is a bucketed lockless transposition table (spec §4.6).
type Table struct {
	megabytes int
	entries   []entry
	buckets   uint32
	date      uint16
}

// entrySize is the approximate per-slot footprint used only to size the
// table from a megabyte budget; it need not be exact.
const entrySize = 24

func NewTable(megabytes int) *Table {
	var totalEntries = roundPowerOfTwo(1024 * 1024 * megabytes / entrySize)
	var buckets = uint32(roundPowerOfTwo(totalEntries / bucketSize))
	if buckets == 0 {
		buckets = 1
	}
	return &Table{
		megabytes: megabytes,
		entries:   make([]entry, int(buckets)*bucketSize),
		buckets:   buckets,
	}
}

func (t *Table) Size() int { return t.megabytes }

// AgeNextSearch advances the generation counter used by Insert's
// replacement policy (spec §4.6's `age_next_search()`).
func (t *Table) AgeNextSearch() {
	t.date = (t.date + 1) & 0x7ff
}

func (t *Table) Clear() {
	t.date = 0
	for i := range t.entries {
		t.entries[i] = entry{}
	}
}

// Prefetch is a documented no-op. Go exposes no portable cache-prefetch
// builtin (unlike the intrinsic the reference engine would issue here), so
// this exists purely as a named call site matching spec §4.6's
// `prefetch(hash)` step; callers are free to call it on the speculative
// hash before they need the read.
func (t *Table) Prefetch(hash uint64) {}

func (t *Table) bucketIndex(hash uint64) uint32 {
	return uint32(hash) & (t.buckets - 1)
}

// Find returns the matching entry for hash, if present (spec §4.6:
// `find(hash) -> Option<Entry>`).
func (t *Table) Find(hash uint64) (depth, score int, bound Bound, move board.Move, ok bool) {
	var key32 = uint32(hash >> 32)
	var base = t.bucketIndex(hash) * bucketSize
	for i := uint32(0); i < bucketSize; i++ {
		var e = &t.entries[base+i]
		if atomic.CompareAndSwapInt32(&e.gate, 0, 1) {
			if e.key32 == key32 && e.bound != 0 {
				depth = int(e.depth)
				score = int(e.score)
				bound = Bound(e.bound)
				move = board.Move(e.move)
				ok = true
			}
			atomic.StoreInt32(&e.gate, 0)
			if ok {
				return
			}
		}
	}
	return
}

// Insert stores an entry for hash (spec §4.6: `insert(entry)`), choosing a
// victim slot within the bucket by preferring (a) a same-key overwrite,
// (b) an older generation, (c) the shallowest depth.
func (t *Table) Insert(hash uint64, depth, score int, bound Bound, move board.Move) {
	var key32 = uint32(hash >> 32)
	var base = t.bucketIndex(hash) * bucketSize
	var bucket = t.entries[base : base+bucketSize]

	var victim = -1
	for i := range bucket {
		if bucket[i].key32 == key32 {
			victim = i
			break
		}
	}
	if victim < 0 {
		for i := range bucket {
			if bucket[i].date != t.date {
				victim = i
				break
			}
		}
	}
	if victim < 0 {
		victim = 0
		for i := 1; i < len(bucket); i++ {
			if bucket[i].depth < bucket[victim].depth {
				victim = i
			}
		}
	}

	var e = &bucket[victim]
	if atomic.CompareAndSwapInt32(&e.gate, 0, 1) {
		var replace = e.key32 != key32 || depth >= int(e.depth)-3 || bound == BoundExact
		if replace {
			e.key32 = key32
			e.score = int16(score)
			e.depth = int8(depth)
			e.bound = uint8(bound)
			e.move = int32(move)
			e.date = t.date
		}
		atomic.StoreInt32(&e.gate, 0)
	}
}
