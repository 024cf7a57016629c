package search

import (
	"testing"

	"github.com/nucleuschess/nucleus/board"
)

func TestMoveIteratorRestrictFiltersGeneratedMoves(t *testing.T) {
	var b = board.StartingPosition()
	var buf [board.MaxMoves]board.Move
	var legal = b.GenerateMoves(board.ModeAll, buf[:0])
	if len(legal) < 2 {
		t.Fatal("expected multiple legal moves from the starting position")
	}
	var kept = legal[0]

	var raw [board.MaxMoves]board.Move
	var ordered [board.MaxMoves]orderedMove
	var mi = moveIterator{
		b:        &b,
		raw:      raw[:0],
		buffer:   ordered[:],
		history:  historyContext{tables: newHistoryTables(), cont1: -1, cont2: -1},
		restrict: []board.Move{kept},
	}
	mi.init()

	if mi.count != 1 {
		t.Fatalf("count = %d, want 1 after restricting to a single move", mi.count)
	}
	if mi.buffer[0].Move != kept {
		t.Fatalf("buffer[0].Move = %v, want %v", mi.buffer[0].Move, kept)
	}
}

func TestMoveIteratorNoRestrictKeepsAllMoves(t *testing.T) {
	var b = board.StartingPosition()
	var buf [board.MaxMoves]board.Move
	var legal = b.GenerateMoves(board.ModeAll, buf[:0])

	var raw [board.MaxMoves]board.Move
	var ordered [board.MaxMoves]orderedMove
	var mi = moveIterator{b: &b, raw: raw[:0], buffer: ordered[:], history: historyContext{tables: newHistoryTables(), cont1: -1, cont2: -1}}
	mi.init()

	if mi.count != len(legal) {
		t.Fatalf("count = %d, want %d", mi.count, len(legal))
	}
}

func TestMoveIteratorTransMoveSortsFirst(t *testing.T) {
	var b = board.StartingPosition()
	var buf [board.MaxMoves]board.Move
	var legal = b.GenerateMoves(board.ModeAll, buf[:0])
	var transMove = legal[len(legal)-1]

	var raw [board.MaxMoves]board.Move
	var ordered [board.MaxMoves]orderedMove
	var mi = moveIterator{b: &b, raw: raw[:0], buffer: ordered[:], transMove: transMove, history: historyContext{tables: newHistoryTables(), cont1: -1, cont2: -1}}
	mi.init()

	if got := mi.next(); got != transMove {
		t.Fatalf("first move = %v, want the TT move %v", got, transMove)
	}
}
