package negamax

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/Mansstromer/Othello-bot-2/board"
	"github.com/Mansstromer/Othello-bot-2/evaluate"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func setUpSolver(t *testing.T) *Solver {
	t.Helper()
	s := &Solver{}
	err := s.Init(evaluate.NewEvaluator(evaluate.DefaultWeights()))
	if err != nil {
		t.Fatal(err)
	}
	s.SetTTMemFraction(0) // minimum-size table; plenty for tests
	return s
}

// mustBoard builds a position or fails the test.
func mustBoard(t *testing.T, black, white uint64, onTurn board.Color) board.Board {
	t.Helper()
	b, err := board.NewBoard(black, white, onTurn)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBestMoveOpening(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t)

	result, err := s.BestMove(context.Background(), board.StartingPosition(), 2*time.Second)
	is.NoErr(err)
	is.True(result.Depth >= 1)
	want := map[string]bool{"D3": true, "C4": true, "F5": true, "E6": true}
	is.True(want[result.Move.String()])
	is.True(result.Score > -HugeNumber && result.Score < HugeNumber)
}

func TestBestMoveReportsPass(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t)

	// Black: C1. White: A1, B1. Black is stuck but White can still play, so
	// this is a pass, not an error and not game over.
	pos := mustBoard(t, 1<<2, 1<<0|1<<1, board.Black)
	is.True(!pos.IsTerminal())

	result, err := s.BestMove(context.Background(), pos, time.Second)
	is.NoErr(err)
	is.Equal(result.Move, board.Pass)

	// the pass leaves the discs alone and hands White the turn.
	nb, err := pos.Play(board.Pass)
	is.NoErr(err)
	is.Equal(nb.OnTurn(), board.White)
	is.Equal(nb.Discs(board.Black), pos.Discs(board.Black))
	is.Equal(nb.Discs(board.White), pos.Discs(board.White))
}

func TestBestMoveSingleLegalMove(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t)

	// Black: C1. White: D1. E1 is Black's only move.
	pos := mustBoard(t, 1<<2, 1<<3, board.Black)
	is.Equal(len(pos.LegalMoves()), 1)

	result, err := s.BestMove(context.Background(), pos, time.Second)
	is.NoErr(err)
	is.Equal(result.Move.String(), "E1")
	is.Equal(result.Depth, 0) // no search needed
}

func TestBestMoveDeadlineFallback(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t)

	// A zero budget must still produce a legal move: the best one by static
	// ordering, with no completed depth.
	result, err := s.BestMove(context.Background(), board.StartingPosition(), 0)
	is.NoErr(err)
	is.Equal(result.Depth, 0)
	is.True(board.StartingPosition().IsLegal(result.Move))
	// all four opening moves are the same tier, so generation order wins.
	is.Equal(result.Move.String(), "D3")
}

// A position two real plies from a 64-0 wipeout: Black fills H1, White must
// pass, Black fills H8.
func forcedWinPosition(t *testing.T) board.Board {
	black := ^uint64(0) &^ (1<<6 | 1<<7 | 1<<62 | 1<<63)
	white := uint64(1<<6 | 1<<62)
	return mustBoard(t, black, white, board.Black)
}

func TestSolveFindsForcedWin(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t)

	pos := forcedWinPosition(t)
	is.Equal(len(pos.LegalMoves()), 2)

	result, err := s.Solve(context.Background(), pos, 3)
	is.NoErr(err)
	is.Equal(result.Depth, 3)
	is.Equal(result.Score, int16(evaluate.WinScore+64))
}

func TestDeeperSearchKeepsForcedWin(t *testing.T) {
	is := is.New(t)
	pos := forcedWinPosition(t)
	// once the win is within the horizon, deeper searches must not lose it.
	for _, plies := range []int{3, 4, 5} {
		s := setUpSolver(t)
		result, err := s.Solve(context.Background(), pos, plies)
		is.NoErr(err)
		is.True(result.Score >= int16(evaluate.WinScore))
	}
}

// Searching the same position twice with one solver must work: the second
// search finds the first one's root entry in the retained table and still has
// to produce a move, not just a cached score.
func TestRepeatedSearchSameSolver(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t)
	pos := board.StartingPosition()

	first, err := s.Solve(context.Background(), pos, 4)
	is.NoErr(err)
	second, err := s.Solve(context.Background(), pos, 4)
	is.NoErr(err)
	is.Equal(second.Move, first.Move)
	is.Equal(second.Score, first.Score)

	// the shell's best-then-move flow reuses the solver the same way.
	result, err := s.BestMove(context.Background(), pos, time.Second)
	is.NoErr(err)
	is.True(pos.IsLegal(result.Move))
}

func TestSolveIsDeterministic(t *testing.T) {
	is := is.New(t)
	pos := board.StartingPosition()

	first, err := setUpSolver(t).Solve(context.Background(), pos, 5)
	is.NoErr(err)
	second, err := setUpSolver(t).Solve(context.Background(), pos, 5)
	is.NoErr(err)
	is.Equal(first.Move, second.Move)
	is.Equal(first.Score, second.Score)
}

// plainNegamax is a reference search: no pruning, no table, no ordering.
// Alpha-beta and the transposition table are pure optimizations, so the
// solver must agree with it exactly at equal depth.
func plainNegamax(ev *evaluate.Evaluator, b board.Board, depth int) int16 {
	if b.IsTerminal() {
		return ev.Terminal(b, b.OnTurn())
	}
	if depth == 0 {
		return ev.Evaluate(b, b.OnTurn())
	}
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return -plainNegamax(ev, b.PassTurn(), depth)
	}
	best := -HugeNumber
	for _, m := range moves {
		nb, err := b.Play(m)
		if err != nil {
			panic(err)
		}
		if v := -plainNegamax(ev, nb, depth-1); v > best {
			best = v
		}
	}
	return best
}

func TestPruningDoesNotChangeTheValue(t *testing.T) {
	is := is.New(t)

	positions := []board.Board{
		board.StartingPosition(),
		forcedWinPosition(t),
	}
	// a couple of early-midgame positions reached by fixed openings
	b := board.StartingPosition()
	for _, notation := range []string{"D3", "C5", "F6", "F5"} {
		m, err := board.FromAlgebraic(notation)
		is.NoErr(err)
		b, err = b.Play(m)
		is.NoErr(err)
		positions = append(positions, b)
	}

	for _, pos := range positions {
		s := setUpSolver(t)
		result, err := s.Solve(context.Background(), pos, 3)
		is.NoErr(err)
		is.Equal(result.Score, plainNegamax(s.Evaluator(), pos, 3))
	}
}

func TestSolveOnPassPosition(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t)
	pos := mustBoard(t, 1<<2, 1<<0|1<<1, board.Black)
	result, err := s.Solve(context.Background(), pos, 4)
	is.NoErr(err)
	is.Equal(result.Move, board.Pass)
}

func TestOrderMoves(t *testing.T) {
	is := is.New(t)
	corner := board.Move(0)  // A1
	xsquare := board.Move(9) // B2
	edge := board.Move(3)    // D1
	mid := board.Move(19)    // D3

	ordered := orderMoves([]board.Move{xsquare, mid, edge, corner}, board.Pass)
	is.Equal(ordered[0], corner)
	is.Equal(ordered[len(ordered)-1], xsquare)
	// ties keep input order.
	is.Equal(ordered[1], mid)
	is.Equal(ordered[2], edge)

	// the hash move jumps the queue.
	ordered = orderMoves([]board.Move{xsquare, mid, edge, corner}, mid)
	is.Equal(ordered[0], mid)
	is.Equal(ordered[1], corner)
}
