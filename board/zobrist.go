package board

import "math/rand"

// Zobrist key tables. Grounded on CounterGo common/position.go's
// computeKey/initKeys, extended with the split per-color half-hash and the
// pawn-only hash spec §3 requires for sided_hash / pawn_hash.
var (
	pieceKeys     [2][PieceTypeCount][64]uint64
	sideKey       uint64
	castlingKeys  [16]uint64
	enPassantKeys [8]uint64
)

func init() {
	var rnd = rand.New(rand.NewSource(20180911))
	for side := 0; side < 2; side++ {
		for pt := 0; pt < PieceTypeCount; pt++ {
			for sq := 0; sq < 64; sq++ {
				pieceKeys[side][pt][sq] = rnd.Uint64()
			}
		}
	}
	sideKey = rnd.Uint64()
	for i := range castlingKeys {
		castlingKeys[i] = rnd.Uint64()
	}
	for i := range enPassantKeys {
		enPassantKeys[i] = rnd.Uint64()
	}
}

// PieceKey returns the Zobrist key contribution of a piece of the given
// color and type sitting on sq.
func PieceKey(color Color, pt PieceType, sq int) uint64 {
	return pieceKeys[color][pt][sq]
}
