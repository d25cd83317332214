package shell

import (
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/Mansstromer/Othello-bot-2/board"
	"github.com/Mansstromer/Othello-bot-2/config"
	"github.com/Mansstromer/Othello-bot-2/evaluate"
	"github.com/Mansstromer/Othello-bot-2/game"
	"github.com/Mansstromer/Othello-bot-2/negamax"
)

// testController builds a controller wired to a buffer instead of a
// readline instance, with the engine turned off so commands don't trigger
// searches unless a test asks for one.
func testController(t *testing.T) (*ShellController, *strings.Builder) {
	t.Helper()
	out := &strings.Builder{}
	ev := evaluate.NewEvaluator(evaluate.DefaultWeights())
	solver := &negamax.Solver{}
	if err := solver.Init(ev); err != nil {
		t.Fatal(err)
	}
	solver.SetTTMemFraction(0)
	return &ShellController{
		outw:      out,
		cfg:       &config.Config{},
		game:      game.NewGame(),
		solver:    solver,
		evaluator: ev,
		timeLimit: time.Second,
	}, out
}

func TestGenCommand(t *testing.T) {
	is := is.New(t)
	sc, out := testController(t)
	is.Equal(sc.execute("gen"), false)
	is.Equal(strings.TrimSpace(out.String()), "D3 C4 F5 E6")
}

func TestPlayCommand(t *testing.T) {
	is := is.New(t)
	sc, out := testController(t)
	sc.execute("play D3")
	is.Equal(sc.game.OnTurn(), board.White)
	is.True(strings.Contains(out.String(), "white to move"))

	out.Reset()
	sc.execute("play A1")
	is.True(strings.Contains(out.String(), "illegal move"))
	is.Equal(sc.game.OnTurn(), board.White)

	out.Reset()
	sc.execute("play Q9")
	is.True(strings.Contains(out.String(), "bad square notation"))
}

func TestSetCommand(t *testing.T) {
	is := is.New(t)
	sc, out := testController(t)
	sc.execute("set time 1.5")
	is.Equal(sc.timeLimit, 1500*time.Millisecond)

	sc.execute("set engine black")
	is.True(sc.engineOn)
	is.Equal(sc.engineColor, board.Black)

	out.Reset()
	sc.execute("set engine purple")
	is.True(strings.Contains(out.String(), "black, white, or off"))
}

func TestSetWeight(t *testing.T) {
	is := is.New(t)
	sc, out := testController(t)
	oldFingerprint := sc.evaluator.Fingerprint()

	sc.execute("set corner 200")
	is.Equal(sc.cfg.CornerWeight, 200)
	is.Equal(sc.evaluator.Weights().Corner, 200)
	is.True(sc.evaluator.Fingerprint() != oldFingerprint)
	is.True(strings.Contains(out.String(), "corner weight set to 200"))

	out.Reset()
	sc.execute("set corner many")
	is.True(strings.Contains(out.String(), "weight must be an integer"))

	out.Reset()
	sc.execute("set tempo 3")
	is.True(strings.Contains(out.String(), "unknown option"))
}

func TestEvalCommand(t *testing.T) {
	is := is.New(t)
	sc, out := testController(t)
	sc.execute("eval")
	is.True(strings.Contains(out.String(), "score 0"))
	is.True(strings.Contains(out.String(), "even"))
}

func TestExit(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	is.Equal(sc.execute("exit"), true)
	is.Equal(sc.execute("quit"), true)
	is.Equal(sc.execute("help"), false)
}
