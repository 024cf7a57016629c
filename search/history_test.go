package search

import (
	"github.com/nucleuschess/nucleus/board"
	"testing"
)

func TestHistoryUpdateRewardsBestMovePenalizesRest(t *testing.T) {
	var tables = newHistoryTables()
	var ctx = historyContext{tables: tables, sideToMove: board.White, cont1: -1, cont2: -1}

	var b = board.StartingPosition()
	var buf [board.MaxMoves]board.Move
	var legal = b.GenerateMoves(board.ModeAll, buf[:0])
	if len(legal) < 2 {
		t.Fatal("expected multiple legal moves from the starting position")
	}
	var tried = legal[:2]
	var best = tried[1]

	var before = ctx.ReadTotal(best)
	ctx.Update(tried, best, 6)
	var after = ctx.ReadTotal(best)
	if after <= before {
		t.Fatalf("ReadTotal(best) = %d after update, want an increase from %d", after, before)
	}

	var otherBefore = 0
	var other = tried[0]
	var otherAfter = ctx.ReadTotal(other)
	if otherAfter >= otherBefore {
		t.Fatalf("ReadTotal(other) = %d after update, want a decrease below %d", otherAfter, otherBefore)
	}
}

func TestHistoryContinuationPliesAddToTotal(t *testing.T) {
	var tables = newHistoryTables()
	var b = board.StartingPosition()
	var buf [board.MaxMoves]board.Move
	var legal = b.GenerateMoves(board.ModeAll, buf[:0])
	var m = legal[0]

	var noCont = historyContext{tables: tables, sideToMove: board.White, cont1: -1, cont2: -1}
	var withCont = historyContext{tables: tables, sideToMove: board.White, cont1: 3, cont2: -1}

	tables.cont[3][pieceSquareIndex(board.White, m)] = 500

	if got := noCont.ReadTotal(m); got != 0 {
		t.Fatalf("ReadTotal with no continuation plies = %d, want 0 on a fresh table", got)
	}
	if got := withCont.ReadTotal(m); got != 500 {
		t.Fatalf("ReadTotal with cont1 set = %d, want 500", got)
	}
}

func TestHistoryClearRemovesEntries(t *testing.T) {
	var tables = newHistoryTables()
	var ctx = historyContext{tables: tables, sideToMove: board.White, cont1: -1, cont2: -1}

	var b = board.StartingPosition()
	var buf [board.MaxMoves]board.Move
	var legal = b.GenerateMoves(board.ModeAll, buf[:0])
	ctx.Update(legal[:1], legal[0], 10)
	tables.clear()

	if got := ctx.ReadTotal(legal[0]); got != 0 {
		t.Fatalf("ReadTotal = %d after clear, want 0", got)
	}
}
