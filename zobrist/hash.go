package zobrist

import (
	"math/bits"

	"lukechampine.com/frand"

	"github.com/Mansstromer/Othello-bot-2/board"
)

const bignum = 1<<63 - 2

// Zobrist generates 64-bit hashes for Othello positions.
// https://en.wikipedia.org/wiki/Zobrist_hashing
//
// Each (square, color) pair gets a random key and the side to move gets one
// more; a position's hash is the XOR of the keys for every disc on the board,
// plus the side key when White is on turn. The chance that two distinct
// positions reached in one search share a hash is on the order of
// nodes^2 / 2^64 (a few in a trillion for realistic node counts) and is
// accepted rather than detected.
type Zobrist struct {
	posTable  [64][2]uint64
	whiteTurn uint64
}

func (z *Zobrist) Initialize() {
	for sq := 0; sq < 64; sq++ {
		for c := 0; c < 2; c++ {
			z.posTable[sq][c] = frand.Uint64n(bignum) + 1
		}
	}
	z.whiteTurn = frand.Uint64n(bignum) + 1
}

// Hash computes the full hash of a position from scratch.
func (z *Zobrist) Hash(b board.Board) uint64 {
	var key uint64
	for c := board.Black; c <= board.White; c++ {
		discs := b.Discs(c)
		for discs != 0 {
			sq := bits.TrailingZeros64(discs)
			key ^= z.posTable[sq][c]
			discs &= discs - 1
		}
	}
	if b.OnTurn() == board.White {
		key ^= z.whiteTurn
	}
	return key
}

// AddMove incrementally updates key for mover playing m and flipping the
// discs in flips. The result equals Hash of the child position.
func (z *Zobrist) AddMove(key uint64, m board.Move, flips uint64, mover board.Color) uint64 {
	opp := mover.Other()
	key ^= z.posTable[m][mover]
	for flips != 0 {
		sq := bits.TrailingZeros64(flips)
		key ^= z.posTable[sq][opp] ^ z.posTable[sq][mover]
		flips &= flips - 1
	}
	return key ^ z.whiteTurn
}

// AddPass updates key for a forced pass: only the side to move changes.
func (z *Zobrist) AddPass(key uint64) uint64 {
	return key ^ z.whiteTurn
}
