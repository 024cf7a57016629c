package search

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nucleuschess/nucleus/board"
	"github.com/nucleuschess/nucleus/nnue"
)

// Tablebase is the probe contract a loaded endgame tablebase must satisfy
// (spec §4.8). wdl is from the side-to-move's perspective: positive a win,
// negative a loss, zero a draw. The tablebase package's decoder internals
// are out of scope here; Engine only ever calls through this interface.
type Tablebase interface {
	ProbeWDL(b *board.Board) (wdl int, ok bool)
	ProbeDTZ(b *board.Board) (wdl, dtz int, ok bool)
}

// Info is one iteration's worth of UCI-facing progress (spec §6 `info`).
type Info struct {
	Depth int
	Score Score
	Nodes int64
	Time  time.Duration
	PV    []board.Move
}

// Result is Search's return value: the move to play, its ponder reply if
// the principal variation ran at least two moves deep, and the Info line
// the final iteration reported.
type Result struct {
	BestMove board.Move
	Ponder   board.Move
	Info     Info
}

// SearchParams is Search's input: the position to search from (after the
// game's moves have already been replayed onto it), the time/depth/node
// budget, an optional root-move restriction, and the repetition keys of
// the moves played so far this game (spec §6's `position ... moves ...`).
type SearchParams struct {
	Board       board.Board
	Limits      Limits
	SearchMoves []board.Move
	HistoryKeys map[uint64]int
}

// Engine bundles the shared, lockless-shared and per-worker state of a
// multi-threaded Lazy-SMP search. Grounded on CounterGo's Engine
// (pkg/engine/engine.go); its channel/WaitGroup worker pool
// (pkg/engine/lazysmp.go) is replaced here by one golang.org/x/sync/errgroup
// goroutine per worker, each running its own iterative-deepening loop and
// cross-pollinating through the shared lockless transposition table.
type Engine struct {
	Options   Options
	Network   *nnue.Network
	Tablebase Tablebase
	Progress  func(Info)

	transTable  *Table
	historyKeys map[uint64]int
	rootFilter  []board.Move

	threads     []*thread
	timeManager *timeManager
}

func NewEngine(net *nnue.Network) *Engine {
	var e = &Engine{Options: NewOptions(), Network: net}
	e.Prepare()
	return e
}

// SetNetwork swaps the network every worker evaluates with (spec §6's
// `setoption name EvalFile value ...`) and forces Prepare to rebuild the
// worker pool on its next call, since each thread's nnue.State was built
// against the old *nnue.Network.
func (e *Engine) SetNetwork(net *nnue.Network) {
	e.Network = net
	e.threads = nil
}

// Prepare (re)allocates the transposition table and worker pool to match
// the current Options. Grounded on CounterGo's Engine.Prepare
// (pkg/engine/engine.go) lazy-reallocate-on-change pattern.
func (e *Engine) Prepare() {
	if e.transTable == nil || e.transTable.Size() != e.Options.Hash {
		e.transTable = NewTable(e.Options.Hash)
	}
	if len(e.threads) != e.Options.Threads {
		e.threads = make([]*thread, e.Options.Threads)
		for i := range e.threads {
			e.threads[i] = newThread(e, e.Network)
		}
	}
}

// Clear resets the transposition table and every worker's history,
// correction and eval-cache tables (spec §6's `ucinewgame`).
func (e *Engine) Clear() {
	e.Prepare()
	e.transTable.Clear()
	for _, t := range e.threads {
		t.clearTables()
	}
}

func (e *Engine) totalNodes() int64 {
	var total int64
	for _, t := range e.threads {
		total += t.nodes
	}
	return total
}

// Search runs iterative deepening to the requested limits, reporting each
// completed iteration through e.Progress (if set) from the first worker,
// and returns the final result. The search stops cooperatively as soon as
// ctx is cancelled or the internal time manager's soft/hard deadline or
// node/depth limit is reached.
func (e *Engine) Search(ctx context.Context, params SearchParams) Result {
	e.Prepare()
	e.transTable.AgeNextSearch()

	if params.HistoryKeys != nil {
		e.historyKeys = params.HistoryKeys
	} else {
		e.historyKeys = map[uint64]int{}
	}
	e.rootFilter = params.SearchMoves
	if e.Tablebase != nil {
		e.rootFilter = narrowToTablebase(e.Tablebase, &params.Board, e.rootFilter)
	}

	var start = time.Now()
	var searchCtx, tm = newTimeManager(ctx, start, params.Limits, &params.Board)
	e.timeManager = tm
	defer tm.Close()

	var rootMoves = genRootMoves(&params.Board, e.rootFilter)
	var result = Result{}
	if len(rootMoves) == 0 {
		return result
	}
	result.BestMove = rootMoves[0]

	for _, t := range e.threads {
		t.stack[0].board = params.Board
		t.nnueState.Reset(&params.Board)
		t.nodes = 0
	}

	var maxDepth = maxHeight
	if params.Limits.Depth > 0 && params.Limits.Depth < maxDepth {
		maxDepth = params.Limits.Depth
	}

	var mu sync.Mutex
	var g, gctx = errgroup.WithContext(searchCtx)
	for i, th := range e.threads {
		var t, workerIndex = th, i
		g.Go(func() error {
			e.runIterativeDeepening(gctx, t, workerIndex, maxDepth, start, &mu, &result)
			return nil
		})
	}
	g.Wait()

	return result
}

// runIterativeDeepening is one worker's Lazy-SMP loop: search successively
// deeper, and whenever this worker completes an iteration, publish it as
// the shared result (the last iteration to finish before a stop always
// belongs to the deepest or equal-deepest worker, since all workers search
// the same depth sequence give or take the odd-worker depth skew below).
// Grounded on CounterGo's iterativeDeepening/searchDepth
// (pkg/engine/lazysmp.go), replacing its channel handoff with a mutex-
// guarded shared Result and recover-based timeout unwinding.
func (e *Engine) runIterativeDeepening(ctx context.Context, t *thread, workerIndex, maxDepth int, start time.Time, mu *sync.Mutex, result *Result) {
	defer func() {
		if r := recover(); r != nil {
			if r != errSearchTimeout {
				panic(r)
			}
		}
	}()

	var prevScore int
	for depth := 1; depth <= maxDepth; depth++ {
		var workerDepth = depth
		if workerIndex > 0 && workerIndex%2 == 1 && depth > 4 {
			workerDepth++
		}

		var score = aspirationWindow(t, workerDepth, prevScore)
		if t.engine.timeManager.IsDone() && depth > 1 {
			return
		}
		prevScore = score

		var pv = t.stack[0].pv.toSlice()
		if len(pv) == 0 {
			continue
		}
		pv = filterRootMove(pv, e.rootFilter)
		if len(pv) == 0 {
			continue
		}

		mu.Lock()
		result.BestMove = pv[0]
		if len(pv) > 1 {
			result.Ponder = pv[1]
		} else {
			result.Ponder = board.MoveEmpty
		}
		result.Info = Info{
			Depth: workerDepth,
			Score: newScore(score),
			Nodes: e.totalNodes(),
			Time:  time.Since(start),
			PV:    pv,
		}
		if e.Progress != nil && workerIndex == 0 {
			e.Progress(result.Info)
		}
		mu.Unlock()

		e.timeManager.OnIterationComplete(workerDepth, score)
		if e.timeManager.IsDone() {
			return
		}
	}
}

// filterRootMove guards against reporting a move the UCI `searchmoves`
// restriction excluded: with tablebase narrowing and searchmoves combined,
// the PV's first move should always already satisfy the filter, but a
// post-hoc check costs nothing and keeps the contract honest.
func filterRootMove(pv []board.Move, filter []board.Move) []board.Move {
	if len(filter) == 0 {
		return pv
	}
	for _, m := range filter {
		if m == pv[0] {
			return pv
		}
	}
	return nil
}

// narrowToTablebase restricts the root move list to the moves whose
// tablebase WDL result is best for the side to move, when a tablebase is
// loaded and the root position is small enough to be covered. Only
// ProbeWDL is consulted; DTZ is not, so every move sharing the best WDL
// result is kept, with no preference for the fastest one. Returns filter
// unchanged if any probe fails.
func narrowToTablebase(tb Tablebase, b *board.Board, filter []board.Move) []board.Move {
	if !tablebaseApplies(b) {
		return filter
	}
	var bestWDL = -2
	var bestMoves []board.Move
	var buf [board.MaxMoves]board.Move
	for _, m := range b.GenerateMoves(board.ModeAll, buf[:0]) {
		if len(filter) > 0 && !containsMove(filter, m) {
			continue
		}
		nb, ok := b.Forward(m)
		if !ok {
			continue
		}
		wdl, ok := tb.ProbeWDL(&nb)
		if !ok {
			return filter
		}
		var rel = -wdl
		if rel > bestWDL {
			bestWDL = rel
			bestMoves = bestMoves[:0]
		}
		if rel == bestWDL {
			bestMoves = append(bestMoves, m)
		}
	}
	if len(bestMoves) == 0 {
		return filter
	}
	return bestMoves
}

func containsMove(ml []board.Move, m board.Move) bool {
	for _, x := range ml {
		if x == m {
			return true
		}
	}
	return false
}

// genRootMoves returns every legal move from b, restricted to filter when
// filter is non-empty (spec §6's `go searchmoves ...`).
func genRootMoves(b *board.Board, filter []board.Move) []board.Move {
	var buf [board.MaxMoves]board.Move
	var all = b.GenerateMoves(board.ModeAll, buf[:0])
	if len(filter) == 0 {
		var out = make([]board.Move, len(all))
		copy(out, all)
		return out
	}
	var out []board.Move
	for _, m := range all {
		if containsMove(filter, m) {
			out = append(out, m)
		}
	}
	return out
}
