package search

import "math"

// Options holds every UCI-tunable knob plus the precomputed LMR table.
// Grounded on CounterGo's pkg/engine/options.go; extended with SyzygyPath
// and EvalFile (spec.md §6 names both as setoption targets) and with named
// toggles for each pruning technique CounterGo gates behind a single
// ExperimentSettings flag, since this spec calls each one out individually
// (spec §4.7).
type Options struct {
	Hash       int
	Threads    int
	SyzygyPath string
	EvalFile   string

	AspirationWindows bool
	NullMovePruning   bool
	ReverseFutility   bool
	Probcut           bool
	SingularExt       bool
	Lmp               bool
	Futility          bool
	See               bool
	CheckExt          bool

	reductions [64][64]int
}

// NewOptions returns defaults matching CounterGo's NewOptions: every
// pruning technique enabled, single-threaded, 16MB hash.
func NewOptions() Options {
	var o = Options{
		Hash:              16,
		Threads:           1,
		AspirationWindows: true,
		NullMovePruning:   true,
		ReverseFutility:   true,
		Probcut:           true,
		SingularExt:       true,
		Lmp:               true,
		Futility:          true,
		See:               true,
		CheckExt:          true,
	}
	o.initLmr()
	return o
}

// Lmr returns the late-move-reduction amount for a given remaining depth
// and move index, clamped to the precomputed table's range.
func (o *Options) Lmr(depth, movesSearched int) int {
	return o.reductions[min(depth, 63)][min(movesSearched, 63)]
}

func (o *Options) initLmr() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			o.reductions[d][m] = int(lmrFormula(float64(d), float64(m)))
		}
	}
}

// lmrFormula is CounterGo's LmrMult (pkg/engine/options.go): a log(depth)
// * log(moveCount) curve linearly interpolated between two corner points.
func lmrFormula(d, m float64) float64 {
	return lirp(math.Log(d)*math.Log(m), math.Log(5)*math.Log(22), math.Log(63)*math.Log(63), 3, 8)
}

func lirp(x, x1, x2, y1, y2 float64) float64 {
	return y1 + (y2-y1)*(x-x1)/(x2-x1)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
