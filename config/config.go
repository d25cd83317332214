package config

import (
	"github.com/namsral/flag"

	"github.com/Mansstromer/Othello-bot-2/evaluate"
)

// Config holds the engine's tunables. The evaluation weights are plain
// numbers with no structural effect on the search; everything here can also
// be set through OTHELLO_-prefixed environment variables.
type Config struct {
	TimeLimitSeconds float64
	TTMemFraction    float64
	Debug            bool

	MobilityWeight   int
	CornerWeight     int
	XSquarePenalty   int
	PieceCountWeight int
	StabilityWeight  int
	FrontierWeight   int
	PositionScale    int
	ParityWeight     int
}

func (c *Config) Load(args []string) error {
	defaults := evaluate.DefaultWeights()
	fs := flag.NewFlagSetWithEnvPrefix("othello", "OTHELLO", flag.ContinueOnError)
	fs.Float64Var(&c.TimeLimitSeconds, "time-limit-seconds", 5.0, "wall-clock budget per engine move")
	fs.Float64Var(&c.TTMemFraction, "tt-mem-fraction", 0.25, "fraction of system memory for the transposition table")
	fs.BoolVar(&c.Debug, "debug", false, "debug logging on")
	fs.IntVar(&c.MobilityWeight, "mobility-weight", defaults.Mobility, "evaluation weight per legal move of difference")
	fs.IntVar(&c.CornerWeight, "corner-weight", defaults.Corner, "evaluation weight per occupied corner")
	fs.IntVar(&c.XSquarePenalty, "x-square-penalty", defaults.XSquare, "evaluation penalty per X-square next to an open corner")
	fs.IntVar(&c.PieceCountWeight, "piece-count-weight", defaults.PieceCount, "evaluation weight per disc of difference")
	fs.IntVar(&c.StabilityWeight, "stability-weight", defaults.Stability, "evaluation weight per stable disc")
	fs.IntVar(&c.FrontierWeight, "frontier-weight", defaults.Frontier, "evaluation weight per frontier disc")
	fs.IntVar(&c.PositionScale, "position-scale", defaults.PositionScale, "multiplier on the positional square table")
	fs.IntVar(&c.ParityWeight, "parity-weight", defaults.Parity, "endgame move-parity bonus")
	return fs.Parse(args)
}

// Weights assembles the evaluation weight structure from the loaded values.
func (c *Config) Weights() evaluate.Weights {
	return evaluate.Weights{
		Mobility:      c.MobilityWeight,
		Corner:        c.CornerWeight,
		XSquare:       c.XSquarePenalty,
		PieceCount:    c.PieceCountWeight,
		Stability:     c.StabilityWeight,
		Frontier:      c.FrontierWeight,
		PositionScale: c.PositionScale,
		Parity:        c.ParityWeight,
	}
}
