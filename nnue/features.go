package nnue

import "github.com/nucleuschess/nucleus/board"

// FeatureIndex computes idx(perspective, piece_color, pt, sq, king) as
// defined by spec §4.4:
//
//	idx = bucket(perspective, king) * FeaturesPerPerspective
//	    + (piece_color == perspective ? 0 : 1) * 384
//	    + pt * 64
//	    + feature_square_index(sq, perspective)
//
// FeaturesPerPerspective (768) is the per-bucket stride; InputSize is the
// total width across all InputBuckets and is only ever used to size
// Network.FeatureWeights.
//
// feature_square_index mirrors the file for both perspectives and
// additionally mirrors the rank for the black perspective, so each side
// always "sees" the board from its own back rank.
func FeatureIndex(perspective, pieceColor board.Color, pt board.PieceType, sq, kingSq int) int {
	var featureSq = featureSquareIndex(sq, perspective)
	var colorOffset = 0
	if pieceColor != perspective {
		colorOffset = 384
	}
	return Bucket(kingSq)*FeaturesPerPerspective + colorOffset + int(pt)*64 + featureSq
}

func featureSquareIndex(sq int, perspective board.Color) int {
	var idx = sq ^ 7
	if perspective == board.Black {
		idx ^= 0x38
	}
	return idx
}

// MaxSubs/MaxAdds bound a single ply's feature diff (spec §3's NnueUpdates:
// "max 16 subs, 4 adds").
const (
	MaxSubs = 16
	MaxAdds = 4
)

// Updates is a per-ply, per-perspective diff of feature indices to
// deactivate and activate, plus a refresh flag signalling the king crossed
// a bucket boundary for that perspective and the accumulator must be
// rebuilt from the refresh table instead of patched incrementally.
type Updates struct {
	Sub     [2][MaxSubs]int
	SubN    [2]int
	Add     [2][MaxAdds]int
	AddN    [2]int
	Refresh [2]bool
}

func (u *Updates) addSub(perspective board.Color, idx int) {
	u.Sub[perspective][u.SubN[perspective]] = idx
	u.SubN[perspective]++
}

func (u *Updates) addAdd(perspective board.Color, idx int) {
	u.Add[perspective][u.AddN[perspective]] = idx
	u.AddN[perspective]++
}

// BuildUpdates computes the feature diff for a move given the board before
// and after it was played. kingBefore/kingAfter are the king squares of
// each color before and after the move, used to decide bucket crossings
// per perspective independently (DESIGN.md open question: only the
// perspective whose own king actually moved across a bucket boundary is
// marked for refresh; a castling move that moves only one king never
// forces the other perspective to refresh).
func BuildUpdates(before, after *board.Board, m board.Move) Updates {
	var u Updates

	for _, perspective := range [...]board.Color{board.White, board.Black} {
		var ownKingBefore = before.KingSquare(perspective)
		var ownKingAfter = after.KingSquare(perspective)
		if ownKingBefore != board.SquareNone && ownKingAfter != board.SquareNone &&
			CrossesBucket(ownKingBefore, ownKingAfter) {
			u.Refresh[perspective] = true
			continue
		}

		var king = ownKingAfter
		if king == board.SquareNone {
			king = ownKingBefore
		}

		for color := board.White; color <= board.Black; color++ {
			for pt := board.Pawn; pt <= board.King; pt++ {
				var removed = before.Planes[color][pt] &^ after.Planes[color][pt]
				var added = after.Planes[color][pt] &^ before.Planes[color][pt]
				for removed != 0 {
					var sq = board.FirstOne(removed)
					removed &= removed - 1
					u.addSub(perspective, FeatureIndex(perspective, color, pt, sq, king))
				}
				for added != 0 {
					var sq = board.FirstOne(added)
					added &= added - 1
					u.addAdd(perspective, FeatureIndex(perspective, color, pt, sq, king))
				}
			}
		}
	}

	return u
}
