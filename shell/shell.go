// Package shell is the interactive terminal front end: it reads moves in
// algebraic notation, prints the board, and lets the engine answer. It is a
// thin adapter over the game and search packages; no game logic lives here.
package shell

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/Mansstromer/Othello-bot-2/board"
	"github.com/Mansstromer/Othello-bot-2/config"
	"github.com/Mansstromer/Othello-bot-2/evaluate"
	"github.com/Mansstromer/Othello-bot-2/game"
	"github.com/Mansstromer/Othello-bot-2/negamax"
)

const helpText = `Commands:
  new                start a new game (you play Black, engine plays White)
  show               print the current board
  gen                list legal moves for the side to move
  play <square>      play a move, e.g. "play D3"; "play pass" when stuck
  best               let the engine search the position without playing
  move               let the engine search and play for the side to move
  solve <plies>      fixed-depth search, no clock
  eval               print the evaluation summary for the side to move
  set time <secs>    set the engine's wall-clock budget per move
  set engine <c>     engine plays "black", "white", or "off"
  set <weight> <v>   change an evaluation weight: mobility, corner,
                     x-square, piece-count, stability, frontier,
                     position-scale, parity
  help               this text
  exit               leave
`

type ShellController struct {
	l    *readline.Instance
	outw io.Writer
	cfg  *config.Config

	game      *game.Game
	solver    *negamax.Solver
	evaluator *evaluate.Evaluator

	engineOn    bool
	engineColor board.Color
	timeLimit   time.Duration
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func NewShellController(cfg *config.Config) (*ShellController, error) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mothello>\033[0m ",
		HistoryFile:     "/tmp/readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}

	ev := evaluate.NewEvaluator(cfg.Weights())
	solver := &negamax.Solver{}
	if err := solver.Init(ev); err != nil {
		return nil, err
	}
	solver.SetTTMemFraction(cfg.TTMemFraction)

	return &ShellController{
		l:           l,
		outw:        l.Stdout(),
		cfg:         cfg,
		game:        game.NewGame(),
		solver:      solver,
		evaluator:   ev,
		engineOn:    true,
		engineColor: board.White,
		timeLimit:   time.Duration(cfg.TimeLimitSeconds * float64(time.Second)),
	}, nil
}

func (sc *ShellController) out() io.Writer {
	return sc.outw
}

// Loop runs the REPL until exit or EOF.
func (sc *ShellController) Loop() {
	defer sc.l.Close()
	showMessage(sc.game.ToDisplayText(), sc.out())
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if done := sc.execute(line); done {
			break
		}
	}
}

// execute dispatches one command line; it returns true on exit.
func (sc *ShellController) execute(line string) bool {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "exit", "quit":
		return true
	case "help":
		showMessage(helpText, sc.out())
	case "new":
		sc.game = game.NewGame()
		showMessage(sc.game.ToDisplayText(), sc.out())
	case "show":
		showMessage(sc.game.ToDisplayText(), sc.out())
	case "gen":
		sc.showLegalMoves()
	case "play":
		sc.handlePlay(args)
	case "best":
		sc.handleBest()
	case "move":
		sc.handleEngineMove()
	case "solve":
		sc.handleSolve(args)
	case "eval":
		sc.handleEval()
	case "set":
		sc.handleSet(args)
	default:
		showMessage("unknown command "+cmd+"; try help", sc.out())
	}
	return false
}

func (sc *ShellController) showLegalMoves() {
	moves := sc.game.Board().LegalMoves()
	if len(moves) == 0 {
		showMessage("no legal moves; pass", sc.out())
		return
	}
	notations := lo.Map(moves, func(m board.Move, _ int) string {
		return m.String()
	})
	showMessage(strings.Join(notations, " "), sc.out())
}

func (sc *ShellController) handlePlay(args []string) {
	if len(args) != 1 {
		showMessage("need a square, e.g. play D3", sc.out())
		return
	}
	m, err := board.FromAlgebraic(args[0])
	if err != nil {
		showMessage(err.Error(), sc.out())
		return
	}
	if err := sc.game.PlayMove(m); err != nil {
		showMessage(err.Error(), sc.out())
		return
	}
	showMessage(sc.game.ToDisplayText(), sc.out())
	sc.engineRespond()
	sc.announceIfOver()
}

func (sc *ShellController) handleBest() {
	if !sc.game.Playing() {
		showMessage("game is over", sc.out())
		return
	}
	result, err := sc.solver.BestMove(context.Background(), sc.game.Board(), sc.timeLimit)
	if err != nil {
		showMessage(err.Error(), sc.out())
		return
	}
	sc.showResult(result)
}

func (sc *ShellController) handleEngineMove() {
	if !sc.game.Playing() {
		showMessage("game is over", sc.out())
		return
	}
	result, err := sc.solver.BestMove(context.Background(), sc.game.Board(), sc.timeLimit)
	if err != nil {
		showMessage(err.Error(), sc.out())
		return
	}
	sc.showResult(result)
	if err := sc.game.PlayMove(result.Move); err != nil {
		showMessage(err.Error(), sc.out())
		return
	}
	showMessage(sc.game.ToDisplayText(), sc.out())
	sc.announceIfOver()
}

func (sc *ShellController) handleSolve(args []string) {
	plies := 8
	if len(args) == 1 {
		p, err := strconv.Atoi(args[0])
		if err != nil {
			showMessage("solve needs a ply count", sc.out())
			return
		}
		plies = p
	}
	result, err := sc.solver.Solve(context.Background(), sc.game.Board(), plies)
	if err != nil {
		showMessage(err.Error(), sc.out())
		return
	}
	sc.showResult(result)
	showMessage(sc.solver.PrincipalVariation().String(), sc.out())
}

func (sc *ShellController) handleEval() {
	summary := sc.evaluator.Summarize(sc.game.Board(), sc.game.OnTurn())
	showMessage(fmt.Sprintf("score %d for %v; win probability %.1f%%; leader: %s",
		summary.Score, sc.game.OnTurn(), summary.WinProbability*100, summary.Leader), sc.out())
}

func (sc *ShellController) handleSet(args []string) {
	if len(args) != 2 {
		showMessage("usage: set time <secs> | set engine <black|white|off> | set <weight> <int>", sc.out())
		return
	}
	switch strings.ToLower(args[0]) {
	case "time":
		secs, err := strconv.ParseFloat(args[1], 64)
		if err != nil || secs <= 0 {
			showMessage("time must be a positive number of seconds", sc.out())
			return
		}
		sc.timeLimit = time.Duration(secs * float64(time.Second))
		showMessage(fmt.Sprintf("time limit set to %v", sc.timeLimit), sc.out())
	case "engine":
		switch strings.ToLower(args[1]) {
		case "black":
			sc.engineOn, sc.engineColor = true, board.Black
		case "white":
			sc.engineOn, sc.engineColor = true, board.White
		case "off":
			sc.engineOn = false
		default:
			showMessage("engine must be black, white, or off", sc.out())
			return
		}
		showMessage("ok", sc.out())
	default:
		sc.setWeight(args[0], args[1])
	}
}

// setWeight changes one evaluation weight and rebuilds the engine around the
// new weight set. The transposition table notices the weight change through
// its fingerprint and clears itself on the next search.
func (sc *ShellController) setWeight(name, value string) {
	targets := map[string]*int{
		"mobility":       &sc.cfg.MobilityWeight,
		"corner":         &sc.cfg.CornerWeight,
		"x-square":       &sc.cfg.XSquarePenalty,
		"piece-count":    &sc.cfg.PieceCountWeight,
		"stability":      &sc.cfg.StabilityWeight,
		"frontier":       &sc.cfg.FrontierWeight,
		"position-scale": &sc.cfg.PositionScale,
		"parity":         &sc.cfg.ParityWeight,
	}
	target, ok := targets[strings.ToLower(name)]
	if !ok {
		showMessage("unknown option "+name, sc.out())
		return
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		showMessage("weight must be an integer", sc.out())
		return
	}
	*target = v
	sc.evaluator = evaluate.NewEvaluator(sc.cfg.Weights())
	solver := &negamax.Solver{}
	if err := solver.Init(sc.evaluator); err != nil {
		showMessage(err.Error(), sc.out())
		return
	}
	solver.SetTTMemFraction(sc.cfg.TTMemFraction)
	sc.solver = solver
	showMessage(fmt.Sprintf("%s weight set to %d", strings.ToLower(name), v), sc.out())
}

// engineRespond lets the engine take its turns, announcing forced passes on
// either side, until it is the human's move again (or the game ends).
func (sc *ShellController) engineRespond() {
	for sc.engineOn && sc.game.Playing() {
		if sc.game.OnTurn() != sc.engineColor {
			if !sc.game.MustPass() {
				return
			}
			showMessage(fmt.Sprintf("%v has no move and passes", sc.game.OnTurn()), sc.out())
			if err := sc.game.PlayMove(board.Pass); err != nil {
				showMessage(err.Error(), sc.out())
				return
			}
			continue
		}
		result, err := sc.solver.BestMove(context.Background(), sc.game.Board(), sc.timeLimit)
		if err != nil {
			log.Err(err).Msg("engine-search-failed")
			showMessage(err.Error(), sc.out())
			return
		}
		if result.Move == board.Pass {
			showMessage(fmt.Sprintf("%v has no move and passes", sc.engineColor), sc.out())
		} else {
			sc.showResult(result)
		}
		if err := sc.game.PlayMove(result.Move); err != nil {
			showMessage(err.Error(), sc.out())
			return
		}
		showMessage(sc.game.ToDisplayText(), sc.out())
	}
}

func (sc *ShellController) showResult(result negamax.SearchResult) {
	showMessage(fmt.Sprintf("engine plays %v (score %d, depth %d, %d nodes)",
		result.Move, result.Score, result.Depth, result.Nodes), sc.out())
}

func (sc *ShellController) announceIfOver() {
	if sc.game.Playing() {
		return
	}
	winner, decisive := sc.game.Winner()
	b := sc.game.Board()
	score := fmt.Sprintf("%d-%d", b.DiscCount(board.Black), b.DiscCount(board.White))
	if !decisive {
		showMessage("game over: draw "+score, sc.out())
		return
	}
	showMessage(fmt.Sprintf("game over: %v wins %s", winner, score), sc.out())
}
