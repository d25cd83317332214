// Package evaluate scores Othello positions heuristically. The score is a
// pure function of the board and the requested perspective; the search relies
// on that purity to cache results through its transposition table.
package evaluate

import (
	"math"
	"math/bits"

	"github.com/Mansstromer/Othello-bot-2/board"
)

// WinScore is the base magnitude of a proven game outcome. Terminal scores
// are WinScore plus the disc differential, so they always dominate heuristic
// estimates while still preferring bigger wins.
const WinScore = 10000

type Evaluator struct {
	weights       Weights
	fingerprint   uint64
	logisticScale float64
}

func NewEvaluator(w Weights) *Evaluator {
	return &Evaluator{
		weights:       w,
		fingerprint:   w.Fingerprint(),
		logisticScale: 40,
	}
}

func (e *Evaluator) Weights() Weights {
	return e.weights
}

// Fingerprint identifies the weight configuration; see Weights.Fingerprint.
func (e *Evaluator) Fingerprint() uint64 {
	return e.fingerprint
}

// xSquareCorners pairs each X-square with the corner it exposes.
var xSquareCorners = [4][2]board.Move{
	{9, 0},   // B2 -> A1
	{14, 7},  // G2 -> H1
	{49, 56}, // B7 -> A8
	{54, 63}, // G7 -> H8
}

// Evaluate scores b from the given perspective; higher is better for that
// color. Terms: mobility difference, corner control, context-aware X-square
// penalties, stability, frontier discs, the positional table, endgame
// parity, and the disc count difference.
func (e *Evaluator) Evaluate(b board.Board, perspective board.Color) int16 {
	own := b.Discs(perspective)
	opp := b.Discs(perspective.Other())
	w := e.weights

	score := 0

	ownMobility := len(b.WithTurn(perspective).LegalMoves())
	oppMobility := len(b.WithTurn(perspective.Other()).LegalMoves())
	score += (ownMobility - oppMobility) * w.Mobility

	ownCorners := bits.OnesCount64(own & board.Corners)
	oppCorners := bits.OnesCount64(opp & board.Corners)
	score += (ownCorners - oppCorners) * w.Corner

	score += e.xSquarePenalty(b, own) - e.xSquarePenalty(b, opp)

	score += (stableDiscs(own) - stableDiscs(opp)) * w.Stability

	empty := ^b.Occupied()
	ownFrontier := bits.OnesCount64(own & board.Neighbors(empty))
	oppFrontier := bits.OnesCount64(opp & board.Neighbors(empty))
	score += (ownFrontier - oppFrontier) * w.Frontier

	score += positionalValue(own, opp) * w.PositionScale

	score += e.parityBonus(b, perspective)

	score += (bits.OnesCount64(own) - bits.OnesCount64(opp)) * w.PieceCount

	// The heuristic must stay out of the terminal score range no matter how
	// the weights are tuned; a proven outcome always outranks an estimate.
	if score >= WinScore {
		score = WinScore - 1
	} else if score <= -WinScore {
		score = -(WinScore - 1)
	}
	return int16(score)
}

// Terminal scores a finished game from the given perspective. An exactly
// even board scores 0.
func (e *Evaluator) Terminal(b board.Board, perspective board.Color) int16 {
	diff := b.DiscCount(perspective) - b.DiscCount(perspective.Other())
	switch {
	case diff > 0:
		return int16(WinScore + diff)
	case diff < 0:
		return int16(-WinScore + diff)
	default:
		return 0
	}
}

// xSquarePenalty charges for each X-square in discs whose adjacent corner is
// still empty. An X-square next to a taken corner is harmless.
func (e *Evaluator) xSquarePenalty(b board.Board, discs uint64) int {
	occupied := b.Occupied()
	penalty := 0
	for _, pair := range xSquareCorners {
		x, corner := pair[0], pair[1]
		if discs&(1<<uint(x)) != 0 && occupied&(1<<uint(corner)) == 0 {
			penalty += e.weights.XSquare
		}
	}
	return penalty
}

// parityBonus rewards having the move when the empty-square count is odd
// near the end of the game; whoever moves last tends to keep their discs.
func (e *Evaluator) parityBonus(b board.Board, perspective board.Color) int {
	empties := b.EmptyCount()
	if empties >= 20 {
		return 0
	}
	parity := empties % 2
	if b.OnTurn() == perspective {
		return parity * e.weights.Parity
	}
	return -parity * e.weights.Parity
}

// stableDiscs approximates the number of discs that can no longer be
// flipped: corners, grown outward through discs of the same color adjacent
// to already-stable ones.
func stableDiscs(discs uint64) int {
	stable := discs & board.Corners
	for {
		grown := stable | discs&board.Neighbors(stable)
		if grown == stable {
			break
		}
		stable = grown
	}
	return bits.OnesCount64(stable)
}

func positionalValue(own, opp uint64) int {
	value := 0
	for bb := own; bb != 0; bb &= bb - 1 {
		value += positionWeights[bits.TrailingZeros64(bb)]
	}
	for bb := opp; bb != 0; bb &= bb - 1 {
		value -= positionWeights[bits.TrailingZeros64(bb)]
	}
	return value
}

// A Summary is a user-facing read of a position: the raw score plus a
// logistic mapping of it onto a rough win probability.
type Summary struct {
	Score          int16
	WinProbability float64
	Leader         string
}

// Summarize scores b for perspective and converts the score into a win
// probability with a logistic curve.
func (e *Evaluator) Summarize(b board.Board, perspective board.Color) Summary {
	var score int16
	if b.IsTerminal() {
		score = e.Terminal(b, perspective)
	} else {
		score = e.Evaluate(b, perspective)
	}
	scaled := float64(score) / e.logisticScale
	scaled = math.Max(math.Min(scaled, 60), -60)
	s := Summary{
		Score:          score,
		WinProbability: 1.0 / (1.0 + math.Exp(-scaled)),
	}
	switch {
	case score > 0:
		s.Leader = perspective.String()
	case score < 0:
		s.Leader = perspective.Other().String()
	default:
		s.Leader = "even"
	}
	return s
}
