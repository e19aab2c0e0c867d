package engine

import (
	"sync/atomic"

	"github.com/hailam/stratus/internal/board"
)

// Bound classifies the score stored in a table entry relative to the search
// window that produced it.
type Bound uint8

const (
	BoundNone  Bound = iota
	BoundUpper       // failed low: value is an upper bound
	BoundLower       // failed high: value is a lower bound
	BoundExact       // PV node: value is exact
)

// TTEntry is the unpacked view of one transposition table slot.
type TTEntry struct {
	Move  board.Move
	Value Eval // ply-rebased; callers convert with FromTT
	Eval  Eval // raw static eval, Infinity when unknown
	Depth uint8
	Bound Bound
}

// A slot is two words. data packs the payload; check holds key^data so a
// torn read (the two words written by different racing stores) fails the
// checksum and is treated as a miss. Writes and reads are single atomic
// word operations, never locked.
//
// data layout: move[0:16] value[16:32] eval[32:48] depth[48:56]
// bound[56:58] generation[58:64]
type ttSlot struct {
	check atomic.Uint64
	data  atomic.Uint64
}

const slotsPerBucket = 3

// A bucket is scanned linearly on probe and write. Three 16-byte slots
// plus padding keep each bucket inside one cache line.
type ttBucket struct {
	slots [slotsPerBucket]ttSlot
	_     [16]byte
}

// TT is the shared transposition table. It is safe for concurrent use by
// any number of search workers without locks; racing writes may clobber
// each other and readers may observe torn entries, both of which the
// checksum turns into plain misses.
type TT struct {
	buckets []ttBucket
	mask    uint64
	gen     uint64 // current generation, 6 bits used
}

// NewTT allocates a table of approximately mb megabytes.
func NewTT(mb int) *TT {
	tt := &TT{}
	tt.Resize(mb)
	return tt
}

// Resize reallocates the table. The bucket count is rounded down to a
// power of two so indexing is a single mask.
func (tt *TT) Resize(mb int) {
	if mb < 1 {
		mb = 1
	}
	bucketSize := uint64(64)
	n := uint64(mb) * 1024 * 1024 / bucketSize
	for n&(n-1) != 0 {
		n &= n - 1
	}
	tt.buckets = make([]ttBucket, n)
	tt.mask = n - 1
	tt.gen = 0
}

// Clear drops every entry.
func (tt *TT) Clear() {
	for i := range tt.buckets {
		for j := range tt.buckets[i].slots {
			tt.buckets[i].slots[j].check.Store(0)
			tt.buckets[i].slots[j].data.Store(0)
		}
	}
	tt.gen = 0
}

// NewSearch advances the generation counter. Entries from older searches
// become preferred replacement victims.
func (tt *TT) NewSearch() {
	tt.gen = (tt.gen + 1) & 63
}

func packEntry(m board.Move, value, eval Eval, depth uint8, bound Bound, gen uint64) uint64 {
	return uint64(uint16(m)) |
		uint64(uint16(value))<<16 |
		uint64(uint16(eval))<<32 |
		uint64(depth)<<48 |
		uint64(bound)<<56 |
		gen<<58
}

func unpackEntry(data uint64) TTEntry {
	return TTEntry{
		Move:  board.Move(uint16(data)),
		Value: Eval(int16(data >> 16)),
		Eval:  Eval(int16(data >> 32)),
		Depth: uint8(data >> 48),
		Bound: Bound(data >> 56 & 3),
	}
}

func entryGen(data uint64) uint64 {
	return data >> 58
}

// Get probes the bucket for key and returns the matching entry, if any.
func (tt *TT) Get(key uint64) (TTEntry, bool) {
	bucket := &tt.buckets[key&tt.mask]
	for i := range bucket.slots {
		data := bucket.slots[i].data.Load()
		if data == 0 {
			continue
		}
		if bucket.slots[i].check.Load()^data == key {
			return unpackEntry(data), true
		}
	}
	return TTEntry{}, false
}

// Write stores a search result. The victim slot is chosen as: the slot
// already holding this key, else an empty slot, else the slot with the
// lowest depth preferring older generations. Mate scores are rebased by
// ply before packing.
func (tt *TT) Write(key uint64, bound Bound, ply, depth int, m board.Move, eval, value Eval) {
	bucket := &tt.buckets[key&tt.mask]

	victim := 0
	victimScore := 1 << 30
	for i := range bucket.slots {
		data := bucket.slots[i].data.Load()
		if data == 0 {
			victim = i
			break
		}
		if bucket.slots[i].check.Load()^data == key {
			victim = i
			// Keep the stored move when the new result has none.
			if m == board.NoMove {
				m = unpackEntry(data).Move
			}
			break
		}
		age := (64 + tt.gen - entryGen(data)) & 63
		score := int(unpackEntry(data).Depth) - 2*int(age)
		if score < victimScore {
			victimScore = score
			victim = i
		}
	}

	if depth < 0 {
		depth = 0
	}
	if depth > 255 {
		depth = 255
	}
	data := packEntry(m, value.ToTT(ply), eval, uint8(depth), bound, tt.gen)
	slot := &bucket.slots[victim]
	slot.check.Store(key ^ data)
	slot.data.Store(data)
}

// Prefetch pulls the bucket for key toward the cache. Called speculatively
// while making a move, before the child node probes.
func (tt *TT) Prefetch(key uint64) {
	_ = tt.buckets[key&tt.mask].slots[0].data.Load()
}

// Hashfull estimates table occupancy in permille, sampling the first
// thousand buckets for entries of the current generation.
func (tt *TT) Hashfull() int {
	sample := 1000
	if sample > len(tt.buckets) {
		sample = len(tt.buckets)
	}
	used := 0
	total := 0
	for i := 0; i < sample; i++ {
		for j := range tt.buckets[i].slots {
			total++
			data := tt.buckets[i].slots[j].data.Load()
			if data != 0 && entryGen(data) == tt.gen {
				used++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return used * 1000 / total
}

// canUseTTValue reports whether a stored bound justifies a cutoff against
// the current window.
func canUseTTValue(bound Bound, v, alpha, beta Eval) bool {
	switch bound {
	case BoundExact:
		return true
	case BoundLower:
		return v >= beta
	case BoundUpper:
		return v <= alpha
	}
	return false
}
