package evaluate

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
)

// Weights are the tunable parameters of the evaluation function. They have
// no structural effect on the search; two engines with different weights can
// coexist, each holding its own Evaluator.
//
// The default values keep the sum of every term over a full board well below
// the terminal score offset (see Terminal); Evaluate also clamps its total
// into the heuristic range, so a proven game outcome dominates any estimate
// regardless of how the weights are tuned.
type Weights struct {
	Mobility      int // per legal move of difference
	Corner        int // per occupied corner
	XSquare       int // per X-square held while its corner is empty (negative)
	PieceCount    int // per disc of difference
	Stability     int // per stable disc of difference
	Frontier      int // per frontier disc of difference (negative)
	PositionScale int // multiplier on the positional table
	Parity        int // endgame move-parity bonus
}

func DefaultWeights() Weights {
	return Weights{
		Mobility:      15,
		Corner:        120,
		XSquare:       -60,
		PieceCount:    1,
		Stability:     25,
		Frontier:      -8,
		PositionScale: 1,
		Parity:        15,
	}
}

// Fingerprint hashes the weight values. Transposition table entries are only
// meaningful for the weights that produced them, so the table keeps the
// fingerprint of the weights it was filled under and clears itself when it
// changes.
func (w Weights) Fingerprint() uint64 {
	buf := make([]byte, 0, 8*8)
	for _, v := range []int{
		w.Mobility, w.Corner, w.XSquare, w.PieceCount,
		w.Stability, w.Frontier, w.PositionScale, w.Parity,
	} {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(v)))
	}
	return xxhash.Sum64(buf)
}

// positionWeights values every square; corners and edges high, the squares
// next to corners low. X-squares get an additional context-aware penalty in
// Evaluate, on top of their entry here.
var positionWeights = [64]int{
	120, -20, 20, 10, 10, 20, -20, 120,
	-20, -40, -5, -5, -5, -5, -40, -20,
	20, -5, 15, 5, 5, 15, -5, 20,
	10, -5, 5, 3, 3, 5, -5, 10,
	10, -5, 5, 3, 3, 5, -5, 10,
	20, -5, 15, 5, 5, 15, -5, 20,
	-20, -40, -5, -5, -5, -5, -40, -20,
	120, -20, 20, 10, 10, 20, -20, 120,
}
