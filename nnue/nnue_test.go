package nnue

import (
	"testing"

	"github.com/nucleuschess/nucleus/board"
)

func TestIncrementalMatchesScratchRebuild(t *testing.T) {
	var net = DefaultNetwork
	var b = board.StartingPosition()

	var state = NewState(net)
	state.Reset(&b)

	var moves = b.GenerateMoves(board.ModeAll, nil)
	if len(moves) == 0 {
		t.Fatal("no legal moves from start position")
	}
	var m = moves[0]
	var nb, ok = b.Forward(m)
	if !ok {
		t.Fatalf("move %s rejected", m)
	}
	state.Push(&b, &nb, m)

	var scratch Accumulator
	net.RefreshAccumulator(&scratch, board.White, &nb)
	net.RefreshAccumulator(&scratch, board.Black, &nb)

	var got = state.acc.Current()
	for i := 0; i < Layer1Size; i++ {
		if got.Values[board.White][i] != scratch.Values[board.White][i] {
			t.Fatalf("white accumulator diverges at index %d: incremental=%d scratch=%d",
				i, got.Values[board.White][i], scratch.Values[board.White][i])
		}
		if got.Values[board.Black][i] != scratch.Values[board.Black][i] {
			t.Fatalf("black accumulator diverges at index %d: incremental=%d scratch=%d",
				i, got.Values[board.Black][i], scratch.Values[board.Black][i])
		}
	}
}

func TestRefreshTableMatchesScratchRebuild(t *testing.T) {
	var net = DefaultNetwork
	var b = board.StartingPosition()
	var rt = NewRefreshTable()

	var viaTable Accumulator
	rt.Refresh(net, &viaTable, board.White, &b)

	var scratch Accumulator
	net.RefreshAccumulator(&scratch, board.White, &b)

	if viaTable.Values[board.White] != scratch.Values[board.White] {
		t.Fatalf("refresh-table accumulator differs from scratch rebuild")
	}
}

func TestFeatureIndexWithinBounds(t *testing.T) {
	for _, perspective := range [...]board.Color{board.White, board.Black} {
		for _, color := range [...]board.Color{board.White, board.Black} {
			for pt := board.Pawn; pt <= board.King; pt++ {
				for sq := 0; sq < 64; sq++ {
					for king := 0; king < 64; king++ {
						var idx = FeatureIndex(perspective, color, pt, sq, king)
						if idx < 0 || idx >= InputSize {
							t.Fatalf("feature index %d out of bounds [0,%d)", idx, InputSize)
						}
					}
				}
			}
		}
	}
}
