package negamax

import (
	"math"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/Mansstromer/Othello-bot-2/board"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

const entrySize = 12

const bottom2ByteMask = (1 << 16) - 1
const depthMask = (1 << 6) - 1

// 12 bytes (entrySize). We don't store the full position hash; the bottom
// 2 bytes are determined by the entry's bucket in the array, so storing the
// top 6 is enough to reconstruct it. The generation counter is 16 bits wide
// so it cannot plausibly wrap around within one process and make an ancient
// entry look current again.
type TableEntry struct {
	top4bytes    uint32
	midbytes     uint16
	score        int16
	flagAndDepth uint8
	play         int8
	generation   uint16
}

// fullHash reconstructs the 64-bit hash for this entry, given the bucket
// index idx it was stored at.
func (t TableEntry) fullHash(idx uint64) uint64 {
	return uint64(t.top4bytes)<<32 + uint64(t.midbytes)<<16 + (idx & bottom2ByteMask)
}

func (t TableEntry) flag() uint8 {
	return t.flagAndDepth >> 6
}

func (t TableEntry) depth() uint8 {
	return t.flagAndDepth & depthMask
}

func (t TableEntry) valid() bool {
	// a table flag is 1, 2, or 3.
	return t.flag() != 0
}

func (t TableEntry) move() board.Move {
	return board.Move(t.play)
}

// TranspositionTable memoizes search results in a fixed power-of-two array
// indexed by the bottom bits of the position hash. It is accessed by a
// single search goroutine only and needs no locking.
//
// Replacement is depth-preferred with aging: an entry written during the
// current search generation is never displaced by a shallower one, while
// entries left over from older generations are always fair game.
type TranspositionTable struct {
	table        []TableEntry
	created      atomic.Uint64
	lookups      atomic.Uint64
	hits         atomic.Uint64
	sizePowerOf2 int
	sizeMask     uint64
	generation   uint16
	// Fingerprint of the evaluation weights the stored scores were computed
	// under. Scores mean nothing across weight changes, so a mismatch on
	// Reset clears the table.
	weightsFingerprint uint64
	// "type 2" collisions. A type 2 collision happens when two positions
	// share the same bucket. A type 1 collision happens when two positions
	// share the same full 64-bit hash; we have no cheap way to detect those,
	// but they should be far rarer.
	t2collisions atomic.Uint64
}

func (t *TranspositionTable) lookup(hash uint64) TableEntry {
	t.lookups.Add(1)
	idx := hash & t.sizeMask
	entry := t.table[idx]
	if entry.fullHash(idx) != hash {
		if entry.valid() {
			// There is another unrelated node in this bucket.
			t.t2collisions.Add(1)
		}
		return TableEntry{}
	}
	t.hits.Add(1)
	// Otherwise, assume the same hash is the same position. This fails
	// very, very rarely, but it could happen.
	return entry
}

func (t *TranspositionTable) store(hash uint64, entry TableEntry) {
	idx := hash & t.sizeMask
	existing := t.table[idx]
	if existing.valid() && existing.generation == t.generation &&
		entry.depth() < existing.depth() {
		// Keep the deeper, still-relevant entry.
		return
	}
	entry.top4bytes = uint32(hash >> 32)
	entry.midbytes = uint16(hash >> 16)
	entry.generation = t.generation
	t.table[idx] = entry
	t.created.Add(1)
}

// NewSearch ages out the previous search's entries for replacement purposes.
// The entries themselves stay readable: a transposition reached again under
// the same weights is still worth its cached score.
func (t *TranspositionTable) NewSearch() {
	t.generation++
}

// Reset sizes the table to a fraction of system memory (with a floor of 2^16
// entries, the minimum for the 6-byte hash proxy to work) and clears it if
// the evaluation weights changed or the requested size did. Otherwise the
// existing entries are kept; reuse across searches is the point of the table.
func (t *TranspositionTable) Reset(fractionOfMemory float64, weightsFingerprint uint64) {
	desiredNElems := fractionOfMemory * (float64(memory.TotalMemory()) / float64(entrySize))
	sizePowerOf2 := 16
	if desiredNElems > 1<<16 {
		// biggest power of 2 lower than desired.
		sizePowerOf2 = int(math.Log2(desiredNElems))
	}

	numElems := 1 << sizePowerOf2
	sameShape := t.table != nil && len(t.table) == numElems
	sameWeights := t.weightsFingerprint == weightsFingerprint

	if sameShape && sameWeights {
		return
	}
	t.sizePowerOf2 = sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	if sameShape {
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}
	t.weightsFingerprint = weightsFingerprint
	t.generation = 0

	log.Info().Int("num-elems", numElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Bool("weights-changed", !sameWeights).
		Msg("transposition-table-size")

	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
}
