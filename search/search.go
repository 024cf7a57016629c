package search

import (
	"github.com/nucleuschess/nucleus/board"
	"github.com/nucleuschess/nucleus/nnue"
)

const pawnValue = 100

// aspirationWindow drives one iterative-deepening iteration's root search,
// narrowing the window around the previous iteration's score and widening
// it on failure. Grounded on CounterGo's aspirationWindow (pkg/engine/search.go).
func aspirationWindow(t *thread, depth, prevScore int) int {
	t.rootDepth = depth
	if t.engine.Options.AspirationWindows &&
		depth >= 5 && !(prevScore <= valueLoss || prevScore >= valueWin) {
		const window = 25
		var alpha = board.Max(-valueInfinity, prevScore-window)
		var beta = board.Min(valueInfinity, prevScore+window)
		var score = searchRoot(t, alpha, beta, depth)
		if score > alpha && score < beta {
			return score
		}
		if score >= beta {
			beta = valueInfinity
		}
		if score <= alpha {
			alpha = -valueInfinity
		}
		score = searchRoot(t, alpha, beta, depth)
		if score > alpha && score < beta {
			return score
		}
	}
	return searchRoot(t, -valueInfinity, valueInfinity, depth)
}

func searchRoot(t *thread, alpha, beta, depth int) int {
	const height = 0
	return t.pvSearch(alpha, beta, depth, height, board.MoveEmpty)
}

// pvSearch is the principal variation search: the full alpha-beta pruning
// ladder from spec §4.7's pv_search. Grounded line-for-line on CounterGo's
// thread.alphaBeta (pkg/engine/search.go), adapted for a value-type Board,
// the NNUE accumulator stack, the eval cache/correction tables, the
// Atomic immediate-mate move override, and (when configured) a tablebase
// probe.
func (t *thread) pvSearch(alpha, beta, depth, height int, skipMove board.Move) int {
	if depth <= 0 {
		return t.quiescence(alpha, beta, height)
	}
	t.clearPV(height)

	var rootNode = height == 0
	var pvNode = beta != alpha+1
	var b = &t.stack[height].board
	var isCheck = b.IsCheck()
	var ttMoveIsSingular = false

	if !rootNode {
		if height >= maxHeight {
			return t.staticEval(b)
		}
		if t.isRepeat(height) {
			return valueDraw
		}
		if isDraw(b) {
			return valueDraw
		}
		// mate distance pruning
		if winIn(height+1) <= alpha {
			return alpha
		}
		if lossIn(height+2) >= beta && !isCheck {
			return beta
		}
	}

	if b.Planes[b.STM][board.King] == 0 {
		return lossIn(height)
	}
	if b.Planes[b.STM.Other()][board.King] == 0 {
		return winIn(height)
	}

	var (
		ttDepth, ttValue int
		ttBound          Bound
		ttMove           board.Move
		ttHit            bool
	)
	if skipMove == board.MoveEmpty {
		ttDepth, ttValue, ttBound, ttMove, ttHit = t.engine.transTable.Find(b.Hash)
	}
	if ttHit {
		ttValue = scoreFromTT(ttValue, height)
		if ttDepth >= depth && !pvNode && b.LastMove != board.MoveEmpty {
			if ttValue >= beta && (ttBound&BoundLower) != 0 {
				if ttMove != board.MoveEmpty && !ttMove.IsCaptureOrPromotion() {
					t.updateKiller(ttMove, height)
				}
				return ttValue
			}
			if ttValue <= alpha && (ttBound&BoundUpper) != 0 {
				return ttValue
			}
		}
	}

	// Root tablebase probing narrows move selection rather than returning a
	// score (spec §4.8); that happens once in Engine.Search before the
	// iterative deepening loop starts, not on every re-visit of the root.
	if !rootNode && t.engine.Tablebase != nil && tablebaseApplies(b) {
		if wdl, ok := t.engine.Tablebase.ProbeWDL(b); ok {
			switch {
			case wdl > 0:
				return winIn(height)
			case wdl < 0:
				return lossIn(height)
			default:
				return valueDraw
			}
		}
	}

	// internal iterative reduction
	if !ttHit && depth >= 4 && skipMove == board.MoveEmpty {
		depth--
	}

	var rawEval, corrected, corrIdx = t.evaluateCorrected(b, height, pvNode)
	t.stack[height].staticEval = corrected
	var staticEval = corrected
	var improving = height < 2 || staticEval > t.stack[height-2].staticEval

	var options = &t.engine.Options
	if height+2 <= maxHeight {
		t.stack[height+2].killer1 = board.MoveEmpty
		t.stack[height+2].killer2 = board.MoveEmpty
	}

	if !rootNode && skipMove == board.MoveEmpty {

		// razoring: hopeless static eval at shallow depth drops straight to
		// quiescence rather than spending a full ply on it.
		if depth <= 2 && !pvNode && !isCheck {
			var margin = staticEval + 200*depth
			if margin <= alpha {
				var qScore = t.quiescence(alpha, alpha+1, height)
				if qScore <= alpha {
					return qScore
				}
			}
		}

		// reverse futility pruning
		if options.ReverseFutility && !pvNode && depth <= 8 && !isCheck {
			var score = staticEval - pawnValue*depth
			if score >= beta {
				return staticEval
			}
		}

		// null-move pruning
		if options.NullMovePruning && !pvNode && depth >= 2 && !isCheck &&
			b.LastMove != board.MoveEmpty &&
			(height <= 1 || t.stack[height-1].board.LastMove != board.MoveEmpty) &&
			beta < valueWin &&
			!(ttHit && ttValue < beta && (ttBound&BoundUpper) != 0) &&
			!isLateEndgame(b, b.STM) &&
			staticEval >= beta {
			var reduction = 4 + depth/6 + board.Min(2, (staticEval-beta)/200)
			t.makeMove(board.MoveEmpty, height)
			var score = -t.pvSearch(-beta, -(beta - 1), depth-reduction, height+1, board.MoveEmpty)
			t.unmakeMove()
			if score >= beta {
				if score >= valueWin {
					score = beta
				}
				return score
			}
		}

		// ProbCut
		var probcutBeta = board.Min(valueWin-1, beta+150)
		if options.Probcut && !pvNode && depth >= 5 && !isCheck &&
			beta > valueLoss && beta < valueWin &&
			!(ttHit && ttDepth >= depth-4 && ttValue < probcutBeta && (ttBound&BoundUpper) != 0) {

			var mi = t.initMoveIteratorQS(height)
			for mi.reset(); ; {
				var move = mi.next()
				if move == board.MoveEmpty {
					break
				}
				if !b.SeeGE(move, 0) {
					continue
				}
				if !t.makeMove(move, height) {
					continue
				}
				var score = -t.quiescence(-probcutBeta, -probcutBeta+1, height+1)
				if score >= probcutBeta {
					score = -t.pvSearch(-probcutBeta, -probcutBeta+1, depth-4, height+1, board.MoveEmpty)
				}
				t.unmakeMove()
				if score >= probcutBeta {
					return score
				}
			}
		}

		// singular extension
		if options.SingularExt && depth >= 8 &&
			ttHit && ttMove != board.MoveEmpty &&
			(ttBound&BoundLower) != 0 && ttDepth >= depth-3 &&
			ttValue > valueLoss && ttValue < valueWin {
			var singularBeta = board.Max(-valueInfinity, ttValue-depth)
			var score = t.pvSearch(singularBeta-1, singularBeta, depth/2, height, ttMove)
			ttMoveIsSingular = score < singularBeta
		}
	}

	var hc = t.getHistoryContext(height)
	var mi = t.initMoveIterator(height, ttMove)
	var killer1 = t.stack[height].killer1
	var killer2 = t.stack[height].killer2

	var movesSearched = 0
	var hasLegalMove = false
	var quietsSeen = 0

	var quietsSearched = t.stack[height].quietsSearched[:0]
	var bestMove board.Move

	var lmp = 5 + (depth-1)*depth
	if !improving {
		lmp /= 2
	}

	var best = -valueInfinity
	var oldAlpha = alpha

	for mi.reset(); ; {
		var move = mi.next()
		if move == board.MoveEmpty {
			break
		}
		if move == skipMove {
			continue
		}

		// Atomic immediate-mate override: a move that blasts the enemy
		// king off the board wins outright, so there is nothing to prune
		// or reduce about it (spec §4.7 step 10).
		if b.IsAtomicKingBlastCapture(move) {
			if !t.makeMove(move, height) {
				continue
			}
			t.unmakeMove()
			hasLegalMove = true
			var score = winIn(height + 1)
			if score > best {
				best = score
				bestMove = move
			}
			if score > alpha {
				alpha = score
				t.assignPV(height, move)
			}
			break
		}

		var isNoisy = move.IsCaptureOrPromotion()
		if !isNoisy {
			quietsSeen++
		}

		if depth <= 8 && best > valueLoss && hasLegalMove && !isCheck && !rootNode {
			if options.Lmp && !(isNoisy || move == killer1 || move == killer2) && quietsSeen > lmp {
				continue
			}
			if options.Futility && !(isNoisy || move == killer1 || move == killer2) &&
				staticEval+100+pawnValue*depth <= alpha {
				continue
			}
			if options.See {
				var seeMargin int
				if isNoisy {
					seeMargin = board.Max(depth, (staticEval+pawnValue-alpha)/pawnValue)
				} else {
					seeMargin = depth / 2
				}
				if !b.SeeGE(move, -seeMargin) {
					continue
				}
			}
		}

		if !t.makeMove(move, height) {
			continue
		}
		hasLegalMove = true
		movesSearched++

		var child = &t.stack[height+1].board
		var extension, reduction int

		if options.CheckExt && child.IsCheck() && depth >= 3 {
			extension = 1
		}
		if move == ttMove && ttMoveIsSingular {
			extension = 1
		}

		if depth >= 3 && movesSearched > 1 && !isNoisy {
			reduction = options.Lmr(depth, movesSearched)
			if move == killer1 || move == killer2 {
				reduction--
			}
			if !isCheck {
				var history = hc.ReadTotal(move)
				reduction -= board.Max(-2, board.Min(2, history/5000))
				if !improving {
					reduction++
				}
			}
			if pvNode {
				reduction -= 2
			}
			if isCheck || child.IsCheck() {
				reduction--
			}
			reduction = board.Max(reduction, 0) + extension
			reduction = board.Max(0, board.Min(depth-2, reduction))
		}

		if !isNoisy {
			quietsSearched = append(quietsSearched, move)
		}

		var newDepth = depth - 1 + extension

		var score = alpha + 1
		if reduction > 0 {
			score = -t.pvSearch(-(alpha + 1), -alpha, newDepth-reduction, height+1, board.MoveEmpty)
		}
		if score > alpha && beta != alpha+1 && movesSearched > 1 && newDepth > 0 {
			score = -t.pvSearch(-(alpha + 1), -alpha, newDepth, height+1, board.MoveEmpty)
		}
		if score > alpha {
			score = -t.pvSearch(-beta, -alpha, newDepth, height+1, board.MoveEmpty)
		}

		t.unmakeMove()

		if score > best {
			best = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}

	if !hasLegalMove {
		if !isCheck && skipMove == board.MoveEmpty {
			return valueDraw
		}
		return lossIn(height)
	}

	if alpha > oldAlpha && bestMove != board.MoveEmpty && !bestMove.IsCaptureOrPromotion() {
		hc.Update(quietsSearched, bestMove, depth)
		t.updateKiller(bestMove, height)
	}

	if skipMove == board.MoveEmpty {
		var bound Bound
		if best > oldAlpha {
			bound |= BoundLower
		}
		if best < beta {
			bound |= BoundUpper
		}
		if !(rootNode && bound == BoundUpper) {
			t.engine.transTable.Insert(b.Hash, depth, scoreToTT(best, height), bound, bestMove)
		}
		if best > valueLoss && best < valueWin {
			t.correction.Update(corrIdx, rawEval, best, depth)
		}
	}

	return best
}

// quiescence resolves tactical noise at the horizon: stand-pat, noisy and
// check-giving moves only, SEE-gated, with a bounded promotion and
// blast-threat extension. Grounded on CounterGo's thread.quiescence
// (pkg/engine/search.go).
func (t *thread) quiescence(alpha, beta, height int) int {
	t.clearPV(height)
	var b = &t.stack[height].board
	if b.Planes[b.STM][board.King] == 0 {
		return lossIn(height)
	}
	if b.Planes[b.STM.Other()][board.King] == 0 {
		return winIn(height)
	}
	if isDraw(b) {
		return valueDraw
	}
	if height >= maxHeight {
		return t.staticEval(b)
	}
	if t.isRepeat(height) {
		return valueDraw
	}

	var _, ttValue, ttBound, _, ttHit = t.engine.transTable.Find(b.Hash)
	if ttHit {
		ttValue = scoreFromTT(ttValue, height)
		if ttBound == BoundExact ||
			(ttBound == BoundLower && ttValue >= beta) ||
			(ttBound == BoundUpper && ttValue <= alpha) {
			return ttValue
		}
	}

	var isCheck = b.IsCheck()
	var best = -valueInfinity
	if !isCheck {
		var eval = t.staticEval(b)
		best = board.Max(best, eval)
		if eval > alpha {
			alpha = eval
			if alpha >= beta {
				return alpha
			}
		}
	}

	var mi = t.initMoveIteratorQS(height)
	var hasLegalMove = false
	for mi.reset(); ; {
		var move = mi.next()
		if move == board.MoveEmpty {
			break
		}
		if !isCheck && !b.SeeGE(move, 0) {
			continue
		}
		if !t.makeMove(move, height) {
			continue
		}
		hasLegalMove = true
		var score = -t.quiescence(-beta, -alpha, height+1)
		t.unmakeMove()
		best = board.Max(best, score)
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}

	// Blast-threat quiescence: walk a small bounded set of quiets that step
	// into the enemy king ring or give check and whose resulting position
	// can blast the enemy king next move (spec §4.7's q_search).
	if !isCheck && alpha < beta {
		var walked = 0
		const maxBlastThreatMoves = 4
		var quiets = b.GenerateMoves(board.ModeQuietAndCheck, t.stack[height].rawMoves[:0])
		for _, move := range quiets {
			if walked >= maxBlastThreatMoves {
				break
			}
			nb, ok := b.Forward(move)
			if !ok {
				continue
			}
			var givesCheckOrKingRingStep = nb.IsCheck() || board.KingAttackTable[nb.KingSquare(b.STM.Other())]&board.SquareMask[move.To()] != 0
			if !givesCheckOrKingRingStep || !nb.HasAtomicBlastCapture() {
				continue
			}
			walked++
			if !t.makeMove(move, height) {
				continue
			}
			hasLegalMove = true
			var score = -t.quiescence(-beta, -alpha, height+1)
			t.unmakeMove()
			best = board.Max(best, score)
			if score > alpha {
				alpha = score
				t.assignPV(height, move)
				if alpha >= beta {
					break
				}
			}
		}
	}

	if isCheck && !hasLegalMove {
		return lossIn(height)
	}
	return best
}

// staticEval runs the NNUE accumulator and converts its centipawn output
// to the engine's internal score unit, without eval-cache/correction
// bookkeeping — used where no height-keyed correction slot is meaningful
// (leaf cutoffs, quiescence stand-pat).
func (t *thread) staticEval(b *board.Board) int {
	return nnue.ToInternalScore(t.nnueState.Evaluate(b))
}

// evaluateCorrected is pvSearch's static eval path: consult the eval cache,
// then nudge the raw NNUE score by the correction table keyed on the
// activation quarter-hash and pawn-hash quarter (spec §4.5). The eval cache
// is only consulted at non-PV nodes; PV nodes always recompute, matching
// spec §4.5's "PV nodes always recompute" rule since a PV line's static
// eval feeds the reported score and shouldn't drift from whatever some
// earlier, unrelated node happened to cache. Returns the raw internal-unit
// score, the corrected score, and the feature index used so the caller can
// later report the search's actual result back into the correction table
// without re-running the network.
func (t *thread) evaluateCorrected(b *board.Board, height int, pvNode bool) (raw, corrected int, idx uint16) {
	var act uint16
	if !pvNode {
		if cachedRaw, cachedAct, ok := t.evalCache.probe(b.Hash); ok {
			raw, act = cachedRaw, cachedAct
			idx = featureIndex(act, b.PawnHash)
			return raw, t.correction.Adjust(idx, raw), idx
		}
	}
	var cp int
	cp, act = t.nnueState.EvaluateWithActivation(b)
	raw = nnue.ToInternalScore(cp)
	if !pvNode {
		t.evalCache.store(b.Hash, raw, act)
	}
	idx = featureIndex(act, b.PawnHash)
	return raw, t.correction.Adjust(idx, raw), idx
}

// tablebaseApplies reports whether a position is small enough for the
// configured tablebase to plausibly cover, letting pvSearch skip the probe
// call entirely for early-middlegame positions (spec §4.8 names the
// material-signature lookup; the piece-count gate here is the usual Syzygy
// convention of only probing when few enough pieces remain).
func tablebaseApplies(b *board.Board) bool {
	var count = 0
	for color := board.White; color <= board.Black; color++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			count += board.PopCount(b.Planes[color][pt])
		}
	}
	return count <= 7
}
