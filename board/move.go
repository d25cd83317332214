package board

import (
	"errors"
	"fmt"
	"strings"
)

// A Move is a square index from 0 to 63, row-major (A1 = 0, H1 = 7,
// A8 = 56, H8 = 63), or Pass when the side to move has no legal move.
type Move int8

const Pass Move = -1

var ErrBadNotation = errors.New("bad square notation")

// Named squares, for readability in tests and move tables.
const (
	A1 Move = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
)

func (m Move) Row() int {
	return int(m) / 8
}

func (m Move) Col() int {
	return int(m) % 8
}

func (m Move) bit() uint64 {
	return 1 << uint(m)
}

// String returns the algebraic notation for this move (column letter A-H
// followed by row number 1-8), or "pass".
func (m Move) String() string {
	if m == Pass {
		return "pass"
	}
	return fmt.Sprintf("%c%d", 'A'+m.Col(), m.Row()+1)
}

// FromAlgebraic parses notation like "D3" (case-insensitive) into a Move.
// The string "pass" parses to the Pass sentinel.
func FromAlgebraic(notation string) (Move, error) {
	notation = strings.TrimSpace(strings.ToUpper(notation))
	if notation == "PASS" {
		return Pass, nil
	}
	if len(notation) != 2 {
		return Pass, fmt.Errorf("%w: %q (expected something like D3)", ErrBadNotation, notation)
	}
	col := int(notation[0] - 'A')
	row := int(notation[1] - '1')
	if col < 0 || col > 7 || row < 0 || row > 7 {
		return Pass, fmt.Errorf("%w: %q", ErrBadNotation, notation)
	}
	return Move(row*8 + col), nil
}
