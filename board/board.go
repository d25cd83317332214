// Package board implements a bitboard representation of the Othello board.
//
// Squares are numbered 0-63 in row-major order:
//
//	  A  B  C  D  E  F  G  H
//	1 0  1  2  3  4  5  6  7
//	2 8  9  ...           15
//	...
//	8 56 ...              63
//
// Two 64-bit occupancy sets, one per color, describe the discs; bit N set
// means a disc sits on square N.
package board

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

type Color uint8

const (
	Black Color = iota
	White
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

func (c Color) Other() Color {
	return 1 - c
}

const (
	allSquares = ^uint64(0)
	notAFile   = 0xFEFEFEFEFEFEFEFE
	notHFile   = 0x7F7F7F7F7F7F7F7F

	// Corners are the four corner squares (A1, H1, A8, H8).
	Corners uint64 = 0x8100000000000081
	// XSquares are the squares diagonally adjacent to corners
	// (B2, G2, B7, G7).
	XSquares uint64 = 0x0042000000004200
)

// A direction is one of the 8 rays a capture line can run along. The mask is
// applied before shifting so that discs on the A or H file cannot wrap to the
// other side of the board.
type direction struct {
	shift uint
	left  bool
	mask  uint64
}

var directions = [8]direction{
	{8, true, allSquares},  // S
	{9, true, notHFile},    // SE
	{1, true, notHFile},    // E
	{7, false, notHFile},   // NE
	{8, false, allSquares}, // N
	{9, false, notAFile},   // NW
	{1, false, notAFile},   // W
	{7, true, notAFile},    // SW
}

func (d direction) ray(bb uint64) uint64 {
	bb &= d.mask
	if d.left {
		return bb << d.shift
	}
	return bb >> d.shift
}

var ErrIllegalMove = errors.New("illegal move")

// A Board is a single Othello position: one occupancy set per color, plus
// whose turn it is. Boards are small values; Play returns a new Board and
// never mutates its receiver, so search branches stay independent.
type Board struct {
	black  uint64
	white  uint64
	onTurn Color
}

// StartingPosition returns the standard Othello starting position, with the
// four center squares occupied and Black to move.
func StartingPosition() Board {
	return Board{
		black:  1<<28 | 1<<35, // E4, D5
		white:  1<<27 | 1<<36, // D4, E5
		onTurn: Black,
	}
}

// NewBoard builds a board from raw occupancy sets. It errors if any square
// is claimed by both colors.
func NewBoard(black, white uint64, onTurn Color) (Board, error) {
	if black&white != 0 {
		return Board{}, fmt.Errorf("overlapping occupancy sets: %x", black&white)
	}
	return Board{black: black, white: white, onTurn: onTurn}, nil
}

func (b Board) OnTurn() Color {
	return b.onTurn
}

func (b Board) Discs(c Color) uint64 {
	if c == Black {
		return b.black
	}
	return b.white
}

func (b Board) DiscCount(c Color) int {
	return bits.OnesCount64(b.Discs(c))
}

func (b Board) Occupied() uint64 {
	return b.black | b.white
}

func (b Board) EmptyCount() int {
	return 64 - bits.OnesCount64(b.Occupied())
}

func (b Board) ownOpp() (uint64, uint64) {
	if b.onTurn == Black {
		return b.black, b.white
	}
	return b.white, b.black
}

// legalMask computes the set of legal squares for the side to move with
// bit-parallel ray fills: starting from the mover's discs, extend runs of
// opponent discs direction by direction; one more step into an empty square
// marks that square legal.
func (b Board) legalMask() uint64 {
	own, opp := b.ownOpp()
	empty := ^(own | opp)
	var legal uint64
	for _, d := range directions {
		run := d.ray(own) & opp
		// A capture run is at most 6 discs long on an 8x8 board.
		for i := 0; i < 5; i++ {
			run |= d.ray(run) & opp
		}
		legal |= d.ray(run) & empty
	}
	return legal
}

// LegalMoves returns the legal moves for the side to move in ascending
// square order. An empty slice means the side to move must pass (or the
// game is over, if the opponent is also stuck).
func (b Board) LegalMoves() []Move {
	mask := b.legalMask()
	moves := make([]Move, 0, bits.OnesCount64(mask))
	for mask != 0 {
		sq := bits.TrailingZeros64(mask)
		moves = append(moves, Move(sq))
		mask &= mask - 1
	}
	return moves
}

func (b Board) HasLegalMove() bool {
	return b.legalMask() != 0
}

func (b Board) IsLegal(m Move) bool {
	return m >= 0 && m < 64 && b.legalMask()&m.bit() != 0
}

// FlipSet returns the set of opponent discs that playing m would flip.
// It does not check legality; a move is legal iff its flip set is nonempty
// and the square is empty.
func (b Board) FlipSet(m Move) uint64 {
	own, opp := b.ownOpp()
	var flips uint64
	for _, d := range directions {
		run := d.ray(m.bit()) & opp
		for i := 0; i < 5; i++ {
			run |= d.ray(run) & opp
		}
		if d.ray(run)&own != 0 {
			flips |= run
		}
	}
	return flips
}

// Play applies a move for the side to move and returns the resulting board.
// Playing a square that is not legal, or passing while a legal move exists,
// is a contract violation and returns ErrIllegalMove wrapped with detail.
func (b Board) Play(m Move) (Board, error) {
	if m == Pass {
		if b.HasLegalMove() {
			return b, fmt.Errorf("%w: cannot pass with legal moves available", ErrIllegalMove)
		}
		return b.PassTurn(), nil
	}
	if !b.IsLegal(m) {
		return b, fmt.Errorf("%w: %v for %v", ErrIllegalMove, m, b.onTurn)
	}
	flips := b.FlipSet(m)
	own, opp := b.ownOpp()
	own |= m.bit() | flips
	opp &^= flips
	nb := Board{onTurn: b.onTurn.Other()}
	if b.onTurn == Black {
		nb.black, nb.white = own, opp
	} else {
		nb.white, nb.black = own, opp
	}
	return nb, nil
}

// WithTurn returns the same disc layout with c to move. Used by evaluation
// to measure either side's mobility on one layout.
func (b Board) WithTurn(c Color) Board {
	b.onTurn = c
	return b
}

// Neighbors returns the union of the 8-neighborhoods of every square in bb.
func Neighbors(bb uint64) uint64 {
	var out uint64
	for _, d := range directions {
		out |= d.ray(bb)
	}
	return out
}

// PassTurn flips the side to move without touching the discs.
func (b Board) PassTurn() Board {
	b.onTurn = b.onTurn.Other()
	return b
}

// IsTerminal reports whether neither side has a legal move.
func (b Board) IsTerminal() bool {
	return !b.HasLegalMove() && !b.PassTurn().HasLegalMove()
}

// Winner returns the color holding more discs. The second return value is
// false for a draw. Only meaningful on terminal boards.
func (b Board) Winner() (Color, bool) {
	bc, wc := b.DiscCount(Black), b.DiscCount(White)
	switch {
	case bc > wc:
		return Black, true
	case wc > bc:
		return White, true
	default:
		return Black, false
	}
}

// ToDisplayText renders the board as text, viewed with row 1 on top.
func (b Board) ToDisplayText() string {
	return b.ToDisplayTextMarked(0)
}

// ToDisplayTextMarked renders the board with the squares in marks shown in
// lowercase, used by the shell to highlight the discs a move just flipped.
func (b Board) ToDisplayTextMarked(marks uint64) string {
	var sb strings.Builder
	sb.WriteString("  A B C D E F G H\n")
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "%d ", row+1)
		for col := 0; col < 8; col++ {
			bit := uint64(1) << uint(row*8+col)
			var ch byte
			switch {
			case b.black&bit != 0:
				ch = 'B'
			case b.white&bit != 0:
				ch = 'W'
			default:
				ch = '.'
			}
			if marks&bit != 0 && ch != '.' {
				ch += 'a' - 'A'
			}
			sb.WriteByte(ch)
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%v to move; black %d white %d\n",
		b.onTurn, b.DiscCount(Black), b.DiscCount(White))
	return sb.String()
}
