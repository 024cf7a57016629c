package search

import (
	"github.com/nucleuschess/nucleus/board"
	"github.com/nucleuschess/nucleus/nnue"
)

// thread is one search worker's private state: its own board/accumulator/
// history view plus shared references to the engine's immutable and
// lockless-shared state. Grounded on CounterGo's thread struct
// (pkg/engine/engine.go), restructured for a value-type Board (our
// Forward returns a new Board rather than mutating one in place) and for
// an explicit NNUE accumulator stack instead of an IUpdatableEvaluator
// interface.
type thread struct {
	engine     *Engine
	nnueState  *nnue.State
	history    *historyTables
	correction *correctionTable
	evalCache  *evalCache

	stack     [stackSize]stackEntry
	rootDepth int
	nodes     int64
}

func newThread(e *Engine, net *nnue.Network) *thread {
	return &thread{
		engine:     e,
		nnueState:  nnue.NewState(net),
		history:    newHistoryTables(),
		correction: newCorrectionTable(),
		evalCache:  newEvalCache(16),
	}
}

func (t *thread) clearTables() {
	t.history.clear()
	t.correction.clear()
	t.evalCache.clear()
}

// errSearchTimeout unwinds the recursion on a cooperative stop, caught by
// the per-thread search-depth loop. Grounded on CounterGo's
// pkg/engine/lazysmp.go errSearchTimeout panic/recover idiom.
type searchTimeoutError struct{}

func (searchTimeoutError) Error() string { return "search: time limit reached" }

var errSearchTimeout error = searchTimeoutError{}

// incNodes counts one visited node and polls the stop condition every 256
// nodes (spec §5: "poll a single stop flag between nodes, every N nodes").
func (t *thread) incNodes() {
	t.nodes++
	if t.nodes&255 == 0 {
		if t.engine.Options.Threads == 1 {
			t.engine.timeManager.OnNodesChanged(int(t.engine.totalNodes() + t.nodes))
		}
		if t.engine.timeManager.IsDone() {
			panic(errSearchTimeout)
		}
	}
}

// makeMove plays move (or a null move, if move is MoveEmpty) from height
// into height+1, pushing the NNUE accumulator stack to match. Returns false
// if the move was illegal (own king did not survive and the enemy king did
// not die with it).
func (t *thread) makeMove(move board.Move, height int) bool {
	var cur = &t.stack[height].board
	var child board.Board
	if move == board.MoveEmpty {
		child = cur.ForwardNull()
	} else {
		var ok bool
		child, ok = cur.Forward(move)
		if !ok {
			return false
		}
	}
	t.stack[height+1].board = child
	t.nnueState.Push(cur, &t.stack[height+1].board, move)
	t.incNodes()
	return true
}

func (t *thread) unmakeMove() {
	t.nnueState.Pop()
}

func (t *thread) clearPV(height int) {
	t.stack[height].pv.clear()
}

func (t *thread) assignPV(height int, m board.Move) {
	t.stack[height].pv.assign(m, &t.stack[height+1].pv)
}

func (t *thread) updateKiller(move board.Move, height int) {
	if t.stack[height].killer1 != move {
		t.stack[height].killer2 = t.stack[height].killer1
		t.stack[height].killer1 = move
	}
}

// getHistoryContext derives the continuation-history indices from the
// moves played one and two plies before height. Grounded on CounterGo's
// thread.getHistoryContext (pkg/engine/history.go).
func (t *thread) getHistoryContext(height int) historyContext {
	var b = &t.stack[height].board
	var side = b.STM
	var cont1 = -1
	if prev1 := b.LastMove; prev1 != board.MoveEmpty {
		cont1 = pieceSquareIndex(side.Other(), prev1)
	}
	var cont2 = -1
	if height > 0 {
		if prev2 := t.stack[height-1].board.LastMove; prev2 != board.MoveEmpty {
			cont2 = pieceSquareIndex(side, prev2)
		}
	}
	return historyContext{tables: t.history, sideToMove: side, cont1: cont1, cont2: cont2}
}

func (t *thread) initMoveIterator(height int, transMove board.Move) moveIterator {
	var mi = moveIterator{
		b:         &t.stack[height].board,
		raw:       t.stack[height].rawMoves[:0],
		buffer:    t.stack[height].moveList[:],
		history:   t.getHistoryContext(height),
		transMove: transMove,
		killer1:   t.stack[height].killer1,
		killer2:   t.stack[height].killer2,
	}
	if height == 0 {
		mi.restrict = t.engine.rootFilter
	}
	mi.init()
	return mi
}

func (t *thread) initMoveIteratorQS(height int) moveIteratorQS {
	var mi = moveIteratorQS{
		b:      &t.stack[height].board,
		raw:    t.stack[height].rawMoves[:0],
		buffer: t.stack[height].moveList[:],
	}
	mi.init()
	return mi
}

// isDraw reports the "trivial draws" spec §4.7 step 2 names: the 50-move
// rule and bare-king-plus-at-most-one-minor material on both sides (the
// Atomic analog of insufficient mating material — rooks, queens and a
// second minor can always engineer a king-adjacent blast).
func isDraw(b *board.Board) bool {
	if b.HalfmoveClock > 100 {
		return true
	}
	var heavy = b.Planes[board.White][board.Pawn] | b.Planes[board.Black][board.Pawn] |
		b.Planes[board.White][board.Rook] | b.Planes[board.Black][board.Rook] |
		b.Planes[board.White][board.Queen] | b.Planes[board.Black][board.Queen]
	var minors = b.Planes[board.White][board.Knight] | b.Planes[board.Black][board.Knight] |
		b.Planes[board.White][board.Bishop] | b.Planes[board.Black][board.Bishop]
	return heavy == 0 && !board.MoreThanOne(minors)
}

// isRepeat checks for an upcoming repetition cycle: first within the live
// search stack, then against the game-history keys supplied at the root
// (spec §4.7 step 2: "upcoming repetition cycle can upgrade alpha to
// draw"). Grounded on CounterGo's thread.isRepeat (pkg/engine/search.go).
func (t *thread) isRepeat(height int) bool {
	var b = &t.stack[height].board
	if b.HalfmoveClock == 0 || b.LastMove == board.MoveEmpty {
		return false
	}
	for i := height - 1; i >= 0; i-- {
		var prior = &t.stack[i].board
		if prior.Hash == b.Hash {
			return true
		}
		if prior.HalfmoveClock == 0 || prior.LastMove == board.MoveEmpty {
			return false
		}
	}
	return t.engine.historyKeys[b.Hash] >= 2
}

func isLateEndgame(b *board.Board, side board.Color) bool {
	var rooksQueens = b.Planes[side][board.Rook] | b.Planes[side][board.Queen]
	if rooksQueens != 0 {
		return false
	}
	var minors = b.Planes[side][board.Knight] | b.Planes[side][board.Bishop]
	return !board.MoreThanOne(minors)
}
