package nnue

import "github.com/nucleuschess/nucleus/board"

// RefreshTableEntry caches the accumulator half produced the last time a
// given (bucket, perspective) pair was refreshed, along with the piece
// bitboards that produced it, so a later refresh only has to replay the
// XOR-difference rather than rebuild from nothing. Grounded on sfnnue's
// AccumulatorCache "Finny table" (nnue_accumulator.go).
type RefreshTableEntry struct {
	Values [Layer1Size]int16
	Planes [2][board.PieceTypeCount]uint64
	valid  bool
}

// RefreshTable holds one entry per (king bucket, perspective). Owned by a
// search worker; never shared across goroutines (spec §5 lists it among
// per-worker state alongside the accumulator stack).
type RefreshTable struct {
	entries [InputBuckets][2]RefreshTableEntry
}

func NewRefreshTable() *RefreshTable {
	return &RefreshTable{}
}

// Refresh rebuilds acc's perspective half using the cached entry for
// perspective's current king bucket, replaying only the piece diff between
// the cached and current bitboards (spec §4.4). Falls back to a full
// rebuild the first time a bucket is touched.
func (rt *RefreshTable) Refresh(n *Network, acc *Accumulator, perspective board.Color, b *board.Board) {
	var kingSq = b.KingSquare(perspective)
	var entry = &rt.entries[Bucket(kingSq)][perspective]

	if !entry.valid {
		n.RefreshAccumulator(acc, perspective, b)
		entry.Values = acc.Values[perspective]
		entry.Planes = b.Planes
		entry.valid = true
		return
	}

	acc.Values[perspective] = entry.Values
	for color := board.White; color <= board.Black; color++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			var removed = entry.Planes[color][pt] &^ b.Planes[color][pt]
			var added = b.Planes[color][pt] &^ entry.Planes[color][pt]
			for removed != 0 {
				var sq = board.FirstOne(removed)
				removed &= removed - 1
				n.subFeature(acc, perspective, FeatureIndex(perspective, color, pt, sq, kingSq))
			}
			for added != 0 {
				var sq = board.FirstOne(added)
				added &= added - 1
				n.addFeature(acc, perspective, FeatureIndex(perspective, color, pt, sq, kingSq))
			}
		}
	}

	acc.Computed[perspective] = true
	acc.KingSq[perspective] = kingSq
	entry.Values = acc.Values[perspective]
	entry.Planes = b.Planes
}
