package search

import "github.com/nucleuschess/nucleus/board"

const historyMax = 1 << 14

// historyTables holds one worker's quiet-move ordering heuristics: a main
// from/to history plus two plies of continuation ("counter-move" and
// "follow-up") history. Grounded on CounterGo's pkg/engine/history.go,
// generalized from that package's Position/Move types to board.Board/
// board.Move.
type historyTables struct {
	main [1 << 13]int16
	cont [1 << 10][1 << 10]int16
}

func newHistoryTables() *historyTables {
	return &historyTables{}
}

func (h *historyTables) clear() {
	for i := range h.main {
		h.main[i] = 0
	}
	for i := range h.cont {
		for j := range h.cont[i] {
			h.cont[i][j] = 0
		}
	}
}

// historyContext binds a historyTables to the side to move and the
// continuation indices derived from the previous one and two plies, so
// ReadTotal/Update need not re-derive them per move.
type historyContext struct {
	tables     *historyTables
	sideToMove board.Color
	cont1      int
	cont2      int
}

func (h historyContext) ReadTotal(m board.Move) int {
	var score = int(h.tables.main[sideFromToIndex(h.sideToMove, m)])
	var pieceToIndex = pieceSquareIndex(h.sideToMove, m)
	if h.cont1 >= 0 {
		score += int(h.tables.cont[h.cont1][pieceToIndex])
	}
	if h.cont2 >= 0 {
		score += int(h.tables.cont[h.cont2][pieceToIndex])
	}
	return score
}

// Update rewards bestMove (the node's best quiet move, as the caller
// passes it) and penalizes every quiet move tried before it,
// stopping at the first rewarded move exactly as CounterGo does.
func (h historyContext) Update(quietsSearched []board.Move, bestMove board.Move, depth int) {
	var bonus = board.Min(depth*depth, 400)
	for _, m := range quietsSearched {
		var good = m == bestMove

		var fromTo = sideFromToIndex(h.sideToMove, m)
		updateHistory(&h.tables.main[fromTo], bonus, good)
		var pieceToIndex = pieceSquareIndex(h.sideToMove, m)
		if h.cont1 >= 0 {
			updateHistory(&h.tables.cont[h.cont1][pieceToIndex], bonus, good)
		}
		if h.cont2 >= 0 {
			updateHistory(&h.tables.cont[h.cont2][pieceToIndex], bonus, good)
		}

		if good {
			break
		}
	}
}

// updateHistory nudges v toward +-historyMax by an exponential moving
// average, the same update CounterGo's history.go uses.
func updateHistory(v *int16, bonus int, good bool) {
	var target int
	if good {
		target = historyMax
	} else {
		target = -historyMax
	}
	*v += int16((target - int(*v)) * bonus / 512)
}

func pieceSquareIndex(side board.Color, m board.Move) int {
	var result = (int(m.MovingPiece()) << 6) | m.To()
	if side == board.Black {
		result |= 1 << 9
	}
	return result
}

func sideFromToIndex(side board.Color, m board.Move) int {
	var result = (m.From() << 6) | m.To()
	if side == board.Black {
		result |= 1 << 12
	}
	return result
}
