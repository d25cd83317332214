// Package game wraps a board with just enough bookkeeping to play a full
// game: move history, forced-pass detection, and winner determination.
package game

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Mansstromer/Othello-bot-2/board"
)

type Game struct {
	board     board.Board
	history   []board.Move
	lastFlips uint64
}

// NewGame starts from the standard opening position, Black to move.
func NewGame() *Game {
	return &Game{board: board.StartingPosition()}
}

// NewGameFromPosition starts from an arbitrary position, for analysis.
func NewGameFromPosition(b board.Board) *Game {
	return &Game{board: b}
}

func (g *Game) Board() board.Board {
	return g.board
}

func (g *Game) OnTurn() board.Color {
	return g.board.OnTurn()
}

// PlayMove applies a move (or a pass) for the side to move. Illegal moves
// are rejected with board.ErrIllegalMove; the game state is unchanged.
func (g *Game) PlayMove(m board.Move) error {
	var flips uint64
	if m != board.Pass {
		flips = g.board.FlipSet(m) | 1<<uint(m)
	}
	nb, err := g.board.Play(m)
	if err != nil {
		return fmt.Errorf("play move %v: %w", m, err)
	}
	g.board = nb
	g.lastFlips = flips
	g.history = append(g.history, m)
	log.Debug().Str("move", m.String()).
		Int("black", g.board.DiscCount(board.Black)).
		Int("white", g.board.DiscCount(board.White)).
		Msg("played-move")
	return nil
}

// MustPass reports whether the side to move has to pass: no legal move for
// them, but the game is not over.
func (g *Game) MustPass() bool {
	return !g.board.HasLegalMove() && !g.board.IsTerminal()
}

// Playing reports whether the game is still going.
func (g *Game) Playing() bool {
	return !g.board.IsTerminal()
}

// Winner returns the winner of a finished game; the second value is false
// for a draw.
func (g *Game) Winner() (board.Color, bool) {
	return g.board.Winner()
}

func (g *Game) History() []board.Move {
	return g.history
}

// LastFlips is the set of squares the last move placed or flipped, for
// display highlighting.
func (g *Game) LastFlips() uint64 {
	return g.lastFlips
}

// ToDisplayText renders the current board with the last move's flips
// highlighted.
func (g *Game) ToDisplayText() string {
	return g.board.ToDisplayTextMarked(g.lastFlips)
}
