package search

import (
	"context"
	"testing"

	"github.com/nucleuschess/nucleus/board"
	"github.com/nucleuschess/nucleus/nnue"
)

func TestEngineSearchReturnsLegalMoveFromStartingPosition(t *testing.T) {
	var e = NewEngine(nnue.DefaultNetwork)
	var b = board.StartingPosition()

	var result = e.Search(context.Background(), SearchParams{
		Board:  b,
		Limits: Limits{MoveTime: 50},
	})

	if result.BestMove == board.MoveEmpty {
		t.Fatal("expected a non-empty best move from the starting position")
	}

	var buf [board.MaxMoves]board.Move
	var legal = b.GenerateMoves(board.ModeAll, buf[:0])
	if !containsMove(legal, result.BestMove) {
		t.Fatalf("BestMove %v is not among the legal moves from the starting position", result.BestMove)
	}
}

func TestEngineSearchHonorsSearchMovesRestriction(t *testing.T) {
	var e = NewEngine(nnue.DefaultNetwork)
	var b = board.StartingPosition()

	var buf [board.MaxMoves]board.Move
	var legal = b.GenerateMoves(board.ModeAll, buf[:0])
	var only = legal[0]

	var result = e.Search(context.Background(), SearchParams{
		Board:       b,
		Limits:      Limits{MoveTime: 50},
		SearchMoves: []board.Move{only},
	})

	if result.BestMove != only {
		t.Fatalf("BestMove = %v, want the single searchmoves-restricted move %v", result.BestMove, only)
	}
}

func TestEngineClearResetsTranspositionTable(t *testing.T) {
	var e = NewEngine(nnue.DefaultNetwork)
	var b = board.StartingPosition()
	e.Search(context.Background(), SearchParams{Board: b, Limits: Limits{MoveTime: 50}})

	if e.totalNodes() == 0 {
		t.Fatal("expected the search to have visited at least one node")
	}

	e.Clear()
	if _, _, _, _, ok := e.transTable.Find(b.Hash); ok {
		t.Fatal("expected Clear to remove the starting position from the transposition table")
	}
}
