package game

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/Mansstromer/Othello-bot-2/board"
)

func TestNewGame(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	is.Equal(g.OnTurn(), board.Black)
	is.True(g.Playing())
	is.Equal(len(g.History()), 0)
}

func TestPlayMoveAndHistory(t *testing.T) {
	is := is.New(t)
	g := NewGame()

	d3, err := board.FromAlgebraic("D3")
	is.NoErr(err)
	is.NoErr(g.PlayMove(d3))
	is.Equal(g.OnTurn(), board.White)
	is.Equal(g.History(), []board.Move{d3})
	// the placed disc and its flip are highlighted.
	is.Equal(g.LastFlips(), uint64(1<<19|1<<27))

	err = g.PlayMove(d3) // same square again is illegal
	is.True(errors.Is(err, board.ErrIllegalMove))
	is.Equal(len(g.History()), 1)
}

func TestMustPass(t *testing.T) {
	is := is.New(t)
	b, err := board.NewBoard(1<<2, 1<<0|1<<1, board.Black)
	is.NoErr(err)
	g := NewGameFromPosition(b)
	is.True(g.MustPass())
	is.NoErr(g.PlayMove(board.Pass))
	is.Equal(g.OnTurn(), board.White)
	is.True(!g.MustPass())
}

func TestWinner(t *testing.T) {
	is := is.New(t)
	b, err := board.NewBoard(1<<0|1<<1, 1<<63, board.Black)
	is.NoErr(err)
	g := NewGameFromPosition(b)
	is.True(!g.Playing())
	winner, decisive := g.Winner()
	is.True(decisive)
	is.Equal(winner, board.Black)
}
