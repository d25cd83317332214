// Package negamax is the search core of the engine: negamax with alpha-beta
// pruning over the board's move tree, a transposition table keyed on Zobrist
// hashes, static move ordering, and an iterative deepening driver that
// answers within a wall-clock budget.
package negamax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Mansstromer/Othello-bot-2/board"
	"github.com/Mansstromer/Othello-bot-2/evaluate"
	"github.com/Mansstromer/Othello-bot-2/zobrist"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    childNodes := orderMoves(childNodes)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
(* Initial call for Player A's root node *)
negamax(rootNode, depth, −∞, +∞, 1)
**/

const HugeNumber = int16(32767)

// MaxPlies caps iterative deepening; an Othello game is at most 60 plies
// but searches beyond this depth stop paying for themselves.
const MaxPlies = 20

// Static ordering tiers; corners first, X-squares last. The hash move, when
// present, outranks everything.
const (
	cornerTier     = int16(2)
	regularTier    = int16(1)
	xSquareTier    = int16(0)
	HashMoveOffset = int16(1000)
)

var ErrNotInitialized = errors.New("solver not initialized")

// A SearchResult is one answered position: the move to play, its score from
// the mover's perspective, and the deepest fully-completed search depth.
// Depth 0 means the move was chosen without a completed search (single legal
// move, or deadline expired before depth 1 finished).
type SearchResult struct {
	Move  board.Move
	Score int16
	Depth int
	Nodes uint64
}

// Credit: MIT-licensed https://github.com/algerbrex/blunder/blob/main/engine/search.go
type PVLine struct {
	Moves []board.Move
	score int16
}

// Clear the principal variation line.
func (pvLine *PVLine) Clear() {
	pvLine.Moves = nil
}

// Update the principal variation line with a new best move,
// and a new line of best play after the best move.
func (pvLine *PVLine) Update(move board.Move, newPVLine PVLine, score int16) {
	pvLine.Clear()
	pvLine.Moves = append(pvLine.Moves, move)
	pvLine.Moves = append(pvLine.Moves, newPVLine.Moves...)
	pvLine.score = score
}

// Convert the principal variation line to a string.
func (pvLine PVLine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %d;", pvLine.score)
	for i := 0; i < len(pvLine.Moves); i++ {
		fmt.Fprintf(&sb, " %d: %v;", i+1, pvLine.Moves[i])
	}
	return sb.String()
}

type rootMove struct {
	play     board.Move
	estimate int16
}

// Solver searches a single position at a time. It is single-threaded by
// design: the only goroutine it spawns is a ticker that logs search speed.
type Solver struct {
	zobrist   *zobrist.Zobrist
	evaluator *evaluate.Evaluator
	ttable    *TranspositionTable

	rootPosition board.Board
	initialMoves []rootMove

	iterativeDeepeningOptim bool
	transpositionTableOptim bool

	principalVariation PVLine
	bestPVValue        int16

	currentIDDepth int
	requestedPlies int
	nodes          atomic.Uint64

	ttMemFraction float64

	logStream io.Writer
}

// Init readies the solver with an evaluator. The transposition table is
// sized lazily on the first search.
func (s *Solver) Init(ev *evaluate.Evaluator) error {
	if ev == nil {
		return errors.New("nil evaluator")
	}
	s.evaluator = ev
	s.zobrist = &zobrist.Zobrist{}
	s.zobrist.Initialize()
	s.ttable = &TranspositionTable{}
	s.iterativeDeepeningOptim = true
	s.transpositionTableOptim = true
	s.ttMemFraction = 0.25
	return nil
}

func (s *Solver) SetIterativeDeepening(id bool) {
	s.iterativeDeepeningOptim = id
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt
}

// SetTTMemFraction controls how much of system memory the transposition
// table may claim. Mostly for tests, which want tiny tables.
func (s *Solver) SetTTMemFraction(f float64) {
	s.ttMemFraction = f
}

func (s *Solver) SetLogStream(l io.Writer) {
	s.logStream = l
}

func (s *Solver) Evaluator() *evaluate.Evaluator {
	return s.evaluator
}

// staticEstimate is the cheap proxy for move quality used before any search
// information exists: corners are almost always good, X-squares almost
// always bad while their corner is open, everything else is in between.
func staticEstimate(m board.Move) int16 {
	bit := uint64(1) << uint(m)
	switch {
	case bit&board.Corners != 0:
		return cornerTier
	case bit&board.XSquares != 0:
		return xSquareTier
	default:
		return regularTier
	}
}

// orderMoves sorts candidate moves by descending estimate; the stored hash
// move, if any, goes first. The sort is stable so numeric ties keep
// generation (ascending square) order, which keeps the whole search
// deterministic for identical inputs.
func orderMoves(moves []board.Move, ttMove board.Move) []board.Move {
	ordered := make([]board.Move, len(moves))
	copy(ordered, moves)
	estimate := func(m board.Move) int16 {
		est := staticEstimate(m)
		if m == ttMove {
			est += HashMoveOffset
		}
		return est
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return estimate(ordered[i]) > estimate(ordered[j])
	})
	return ordered
}

func (s *Solver) prepareRoot(pos board.Board, moves []board.Move) {
	s.rootPosition = pos
	ordered := orderMoves(moves, board.Pass)
	s.initialMoves = make([]rootMove, len(ordered))
	for i, m := range ordered {
		s.initialMoves[i] = rootMove{play: m, estimate: staticEstimate(m)}
	}
	s.nodes.Store(0)
	s.principalVariation = PVLine{}
	if s.transpositionTableOptim {
		s.ttable.Reset(s.ttMemFraction, s.evaluator.Fingerprint())
		s.ttable.NewSearch()
	}
}

func (s *Solver) negamax(ctx context.Context, b board.Board, nodeKey uint64,
	depth int, α, β int16, pv *PVLine) (int16, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	onTurn := b.OnTurn()
	alphaOrig := α
	ttMove := board.Pass
	// A forced pass keeps the depth, so depth alone can't identify the root.
	atRoot := s.currentIDDepth == depth && b == s.rootPosition

	if s.transpositionTableOptim {
		ttEntry := s.ttable.lookup(nodeKey)
		if ttEntry.valid() {
			// The root must produce a move, not just a score, so it never
			// takes the score-only shortcut; a retained entry from an earlier
			// search of this position would otherwise leave the line empty.
			if !atRoot && int(ttEntry.depth()) >= depth {
				score := ttEntry.score
				switch ttEntry.flag() {
				case TTExact:
					return score, nil
				case TTLower:
					α = max(α, score)
				case TTUpper:
					β = min(β, score)
				}
				if α >= β {
					return score, nil
				}
			}
			// search hash move first.
			ttMove = ttEntry.move()
		}
	}

	if b.IsTerminal() {
		return s.evaluator.Terminal(b, onTurn), nil
	}
	if depth == 0 {
		return s.evaluator.Evaluate(b, onTurn), nil
	}

	childPV := PVLine{}
	moves := b.LegalMoves()
	if len(moves) == 0 {
		// Forced pass. The turn flips but no disc moves; a pass is not a
		// real ply, so it does not consume depth. Two passes in a row are
		// impossible here since that position is terminal.
		s.nodes.Add(1)
		value, err := s.negamax(ctx, b.PassTurn(), s.zobrist.AddPass(nodeKey),
			depth, -β, -α, &childPV)
		if err != nil {
			return 0, err
		}
		pv.Update(board.Pass, childPV, -value)
		return -value, nil
	}

	var ordered []board.Move
	if atRoot {
		// Root moves keep their order from the previous iteration; the best
		// line found at depth d-1 is searched first at depth d.
		ordered = make([]board.Move, len(s.initialMoves))
		for i, rm := range s.initialMoves {
			ordered[i] = rm.play
		}
	} else {
		ordered = orderMoves(moves, ttMove)
	}

	bestValue := -HugeNumber
	bestMove := board.Pass
	indent := 2 * (s.currentIDDepth - depth)
	if s.logStream != nil {
		fmt.Fprintf(s.logStream, "  %vplays:\n", strings.Repeat(" ", indent))
	}
	for i, child := range ordered {
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "  %v- play: %v\n", strings.Repeat(" ", indent), child)
		}
		flips := b.FlipSet(child)
		cb, err := b.Play(child)
		if err != nil {
			// Candidates come from LegalMoves; this is an invariant break.
			return 0, fmt.Errorf("apply candidate %v: %w", child, err)
		}
		s.nodes.Add(1)
		childKey := s.zobrist.AddMove(nodeKey, child, flips, onTurn)
		value, err := s.negamax(ctx, cb, childKey, depth-1, -β, -α, &childPV)
		if err != nil {
			return value, err
		}
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "  %v  value: %v\n", strings.Repeat(" ", indent), -value)
		}
		if -value > bestValue {
			bestValue = -value
			bestMove = child
			pv.Update(child, childPV, bestValue)
		}
		if atRoot {
			s.initialMoves[i].estimate = -value
		}
		α = max(α, bestValue)
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "  %v  α: %v\n", strings.Repeat(" ", indent), α)
			fmt.Fprintf(s.logStream, "  %v  β: %v\n", strings.Repeat(" ", indent), β)
		}
		if bestValue >= β {
			break // beta cut-off
		}
		childPV.Clear() // clear the child node's pv for the next child node
	}

	if s.transpositionTableOptim {
		var flag uint8
		if bestValue <= alphaOrig {
			flag = TTUpper
		} else if bestValue >= β {
			flag = TTLower
		} else {
			flag = TTExact
		}
		s.ttable.store(nodeKey, TableEntry{
			score:        bestValue,
			flagAndDepth: flag<<6 + uint8(depth),
			play:         int8(bestMove),
		})
	}
	return bestValue, nil
}

// iterativelyDeepen runs full-window searches at depth 1, 2, ... plies,
// checking the deadline before each new depth. Only fully completed depths
// update the returned result; an iteration aborted mid-depth is discarded.
func (s *Solver) iterativelyDeepen(ctx context.Context, deadline time.Time, plies int) (SearchResult, error) {
	var best SearchResult
	initialHashKey := s.zobrist.Hash(s.rootPosition)

	start := 1
	if !s.iterativeDeepeningOptim {
		start = plies
	}
	for p := start; p <= plies; p++ {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
		log.Debug().Int("plies", p).Msg("deepening-iteratively")
		s.currentIDDepth = p
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "- ply: %d\n", p)
		}
		pv := PVLine{}
		val, err := s.negamax(ctx, s.rootPosition, initialHashKey, p, -HugeNumber, HugeNumber, &pv)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				// Ran out of clock mid-depth; the previous depth's result
				// stands.
				break
			}
			return best, err
		}
		// Sort top layer of moves by value for the next time around.
		sort.SliceStable(s.initialMoves, func(i, j int) bool {
			return s.initialMoves[i].estimate > s.initialMoves[j].estimate
		})
		s.principalVariation = pv
		s.bestPVValue = val
		best = SearchResult{
			Move:  pv.Moves[0],
			Score: val,
			Depth: p,
			Nodes: s.nodes.Load(),
		}
		log.Debug().Int16("val", val).Int("ply", p).Str("pv", pv.String()).Msg("best-val")
	}
	return best, nil
}

// BestMove is the engine's decision entry point: iterative deepening from
// pos under a wall-clock budget. It always answers with a legal move when
// one exists, falling back to the best statically-ordered move if not even
// depth 1 completed. With no legal move it reports a pass, which is a normal
// game state, not an error.
func (s *Solver) BestMove(ctx context.Context, pos board.Board, timeLimit time.Duration) (SearchResult, error) {
	if s.evaluator == nil {
		return SearchResult{}, ErrNotInitialized
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		log.Debug().Bool("game-over", pos.IsTerminal()).Msg("no-legal-moves")
		return SearchResult{Move: board.Pass}, nil
	}
	if len(moves) == 1 {
		// No decision to make.
		return SearchResult{Move: moves[0]}, nil
	}
	s.requestedPlies = MaxPlies
	s.prepareRoot(pos, moves)

	deadline := time.Now().Add(timeLimit)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	tstart := time.Now()
	var result SearchResult

	g := &errgroup.Group{}
	done := make(chan bool)
	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})
	g.Go(func() error {
		var err error
		result, err = s.iterativelyDeepen(ctx, deadline, s.requestedPlies)
		done <- true
		return err
	})
	err := g.Wait()
	if err != nil {
		return result, err
	}

	if result.Depth == 0 {
		// Deadline expired before depth 1 completed. Fall back to static
		// ordering; we still owe the caller a legal move.
		result = SearchResult{Move: orderMoves(moves, board.Pass)[0], Nodes: s.nodes.Load()}
	}
	log.Info().
		Str("move", result.Move.String()).
		Int16("score", result.Score).
		Int("depth", result.Depth).
		Uint64("nodes", result.Nodes).
		Uint64("ttable-created", s.ttable.created.Load()).
		Uint64("ttable-lookups", s.ttable.lookups.Load()).
		Uint64("ttable-hits", s.ttable.hits.Load()).
		Uint64("ttable-t2collisions", s.ttable.t2collisions.Load()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("search-returning")
	return result, nil
}

// Solve searches pos to exactly plies deep with no time pressure, still
// deepening iteratively so the transposition table warms up move ordering.
func (s *Solver) Solve(ctx context.Context, pos board.Board, plies int) (SearchResult, error) {
	if s.evaluator == nil {
		return SearchResult{}, ErrNotInitialized
	}
	if plies < 1 || plies > MaxPlies {
		return SearchResult{}, fmt.Errorf("plies must be between 1 and %d", MaxPlies)
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return SearchResult{Move: board.Pass}, nil
	}
	s.requestedPlies = plies
	s.prepareRoot(pos, moves)
	return s.iterativelyDeepen(ctx, time.Time{}, plies)
}

// PrincipalVariation returns the best line found by the last search.
func (s *Solver) PrincipalVariation() PVLine {
	return s.principalVariation
}
