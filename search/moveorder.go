package search

import "github.com/nucleuschess/nucleus/board"

// sortTableKeyImportant tiers the move-ordering score space so the TT
// move, good captures, and killers always sort above any history score
// (spec §4.7 step 9's staged orderer). Grounded on CounterGo's
// pkg/engine/moveiterator.go constant of the same name and value.
const sortTableKeyImportant = 100000

type orderedMove struct {
	Move board.Move
	Key  int32
}

// pieceOrderValue maps NoPiece..King to 0..6, matching CounterGo's
// sortPieceValues table (Empty=0, Pawn=1, ..., King=6).
func pieceOrderValue(pt board.PieceType) int {
	return int(pt) + 1
}

func mvvlva(m board.Move) int {
	return 8*(pieceOrderValue(m.CapturedPiece())+pieceOrderValue(m.Promotion())) -
		pieceOrderValue(m.MovingPiece())
}

func sortMoves(moves []orderedMove) {
	for i := 1; i < len(moves); i++ {
		var j, t = i, moves[i]
		for ; j > 0 && moves[j-1].Key < t.Key; j-- {
			moves[j] = moves[j-1]
		}
		moves[j] = t
	}
}

func moveToTop(ml []orderedMove) {
	var best = 0
	for i := 1; i < len(ml); i++ {
		if ml[i].Key > ml[best].Key {
			best = i
		}
	}
	if best != 0 {
		ml[0], ml[best] = ml[best], ml[0]
	}
}

// moveIteratorQS drives quiescence's move selection: all legal moves when
// in check, noisy moves otherwise, ordered by MVV-LVA. Grounded on
// CounterGo's moveIteratorQS (pkg/engine/moveiterator.go).
type moveIteratorQS struct {
	b      *board.Board
	raw    []board.Move
	buffer []orderedMove
	count  int
	index  int
}

func (mi *moveIteratorQS) init() {
	var moves []board.Move
	if mi.b.IsCheck() {
		moves = mi.b.GenerateMoves(board.ModeAll, mi.raw[:0])
	} else {
		moves = mi.b.GenerateCaptures(mi.raw[:0])
	}
	mi.count = len(moves)
	for i, m := range moves {
		var score int
		if m.IsCaptureOrPromotion() {
			score = 29000 + mvvlva(m)
		}
		mi.buffer[i] = orderedMove{Move: m, Key: int32(score)}
	}
	sortMoves(mi.buffer[:mi.count])
}

func (mi *moveIteratorQS) reset() { mi.index = 0 }

func (mi *moveIteratorQS) next() board.Move {
	if mi.index >= mi.count {
		return board.MoveEmpty
	}
	var m = mi.buffer[mi.index].Move
	mi.index++
	return m
}

// moveIterator drives the main search's staged move ordering: TT move,
// SEE-good noisy moves, killers, quiet history. Grounded on CounterGo's
// moveIterator (pkg/engine/moveiterator.go).
type moveIterator struct {
	b         *board.Board
	raw       []board.Move
	buffer    []orderedMove
	history   historyContext
	transMove board.Move
	killer1   board.Move
	killer2   board.Move
	restrict  []board.Move
	count     int
	index     int
}

func (mi *moveIterator) allowed(m board.Move) bool {
	if len(mi.restrict) == 0 {
		return true
	}
	for _, r := range mi.restrict {
		if r == m {
			return true
		}
	}
	return false
}

func (mi *moveIterator) init() {
	var moves = mi.b.GenerateMoves(board.ModeAll, mi.raw[:0])
	mi.count = 0
	for _, m := range moves {
		if !mi.allowed(m) {
			continue
		}
		var score int
		switch {
		case m == mi.transMove:
			score = sortTableKeyImportant + 2000
		case m.IsCaptureOrPromotion():
			if mi.b.SeeGE(m, 0) {
				score = sortTableKeyImportant + 1000 + mvvlva(m)
			} else {
				score = mvvlva(m)
			}
		case m == mi.killer1:
			score = sortTableKeyImportant + 1
		case m == mi.killer2:
			score = sortTableKeyImportant
		default:
			score = mi.history.ReadTotal(m)
		}
		mi.buffer[mi.count] = orderedMove{Move: m, Key: int32(score)}
		mi.count++
	}
}

func (mi *moveIterator) reset() { mi.index = 0 }

// next only fully sorts the remaining slice once past the first two slots,
// matching CounterGo's lazy-selection-sort trick: most cutoffs happen on
// one of the first couple of moves, so a full sort there is wasted work.
func (mi *moveIterator) next() board.Move {
	if mi.index >= mi.count {
		return board.MoveEmpty
	}
	const sortMovesIndex = 1
	if mi.index <= sortMovesIndex {
		if mi.index == sortMovesIndex {
			sortMoves(mi.buffer[mi.index:mi.count])
		} else {
			moveToTop(mi.buffer[mi.index:mi.count])
		}
	}
	var m = mi.buffer[mi.index].Move
	mi.index++
	return m
}
