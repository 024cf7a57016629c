package search

import "github.com/nucleuschess/nucleus/board"

const stackSize = 256
const maxHeight = stackSize - 1

// pvLine is a fixed-capacity principal-variation buffer, rebuilt bottom-up
// as alpha is raised. Grounded on CounterGo's pv type (pkg/engine/engine.go).
type pvLine struct {
	moves [stackSize]board.Move
	size  int
}

func (pv *pvLine) clear() { pv.size = 0 }

func (pv *pvLine) assign(m board.Move, child *pvLine) {
	pv.size = 1
	pv.moves[0] = m
	if child.size > 0 {
		pv.size += child.size
		copy(pv.moves[1:], child.moves[:child.size])
	}
}

func (pv *pvLine) toSlice() []board.Move {
	var out = make([]board.Move, pv.size)
	copy(out, pv.moves[:pv.size])
	return out
}

// stackEntry is one ply's worth of scratch state, indexed by search height.
// Grounded on CounterGo's per-height thread.stack entry
// (pkg/engine/engine.go), extended with the Atomic board value (our
// Forward returns a new value rather than mutating in place, unlike
// CounterGo's Position.MakeMove(child *Position)).
type stackEntry struct {
	board          board.Board
	rawMoves       [board.MaxMoves]board.Move
	moveList       [board.MaxMoves]orderedMove
	quietsSearched [board.MaxMoves]board.Move
	pv             pvLine
	staticEval     int
	killer1        board.Move
	killer2        board.Move
}
