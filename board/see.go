package board

// Piece values in centipawns for static exchange evaluation (spec §4.3).
// Kings are valueless here: they never enter an SEE material sum as an
// ordinary piece, only as a mate override.
var seeValue = [PieceTypeCount]int{
	Pawn:   100,
	Knight: 450,
	Bishop: 450,
	Rook:   650,
	Queen:  1250,
	King:   0,
}

// MateScore is the SEE-level stand-in for "this move wins/loses the game
// by exploding a king", used only to satisfy see_ge/see_gt's ordering
// contract against arbitrary thresholds; the search package's own mate
// scoring is independent of this value.
const MateScore = 32000

// SeeGE reports whether the static exchange evaluation of m is at least
// threshold (spec §4.3). SeeGT is its strict counterpart.
//
// Grounded on CounterGo's ported SeeGE (pkg/engine/see.go), restructured
// for Atomic: a normal chess SEE walks a swap-list of recaptures on the
// destination square, but in Atomic the first capture destroys the
// destination piece and everything else in its blast ring, so nothing is
// left standing to recapture. The exchange is therefore evaluated as a
// single ply rather than a swap-list.
func (b *Board) SeeGE(m Move, threshold int) bool {
	return b.seeValue(m) >= threshold
}

func (b *Board) SeeGT(m Move, threshold int) bool {
	return b.SeeGE(m, threshold+1)
}

func (b *Board) seeValue(m Move) int {
	if !m.IsCapture() {
		return b.seeQuiet(m)
	}

	var to = m.To()
	var mover = b.STM
	var blastCenter = to
	if m.IsEnPassant() {
		blastCenter = m.EnPassantCaptureSquare()
	}
	var blastMask = KingAttackTable[blastCenter] | SquareMask[blastCenter]

	if b.Planes[mover.Other()][King]&blastMask != 0 {
		return MateScore
	}
	if b.Planes[mover][King]&blastMask != 0 {
		return -MateScore
	}

	var captured = m.CapturedPiece()
	if m.IsEnPassant() {
		captured = Pawn
	}
	var score = seeValue[captured]

	for color := White; color <= Black; color++ {
		for pt := Knight; pt <= Queen; pt++ {
			var bb = b.Planes[color][pt] & blastMask
			if color == mover.Other() && pt == captured && SquareMask[to]&blastMask != 0 && !m.IsEnPassant() {
				bb &^= SquareMask[to]
			}
			var count = PopCount(bb)
			if count == 0 {
				continue
			}
			if color == mover.Other() {
				score += count * seeValue[pt]
			} else {
				score -= count * seeValue[pt]
			}
		}
	}

	var capturingPiece = m.MovingPiece()
	if promo := m.Promotion(); promo != NoPiece {
		capturingPiece = promo
	}
	score -= seeValue[capturingPiece]

	return score - 1
}

// seeQuiet implements the reference's quiet-move (and castling) SEE
// branch: only the least-valuable enemy attacker of the destination
// square matters, since kings never attack and a recapture there would
// itself explode. The reference clamps this to <=0 even when the analysis
// suggests a gain (DESIGN.md open question #4) — ported exactly.
func (b *Board) seeQuiet(m Move) int {
	var nb, ok = b.Forward(m)
	if !ok {
		return -MateScore
	}
	var mover = b.STM
	var to = m.To()
	var attackerType, hasAttacker = leastValuableAttacker(&nb, to, mover.Other())
	if !hasAttacker {
		return 0
	}

	var blastMask = KingAttackTable[to] | SquareMask[to]
	if nb.Planes[mover.Other()][King]&blastMask != 0 {
		return MateScore
	}
	if nb.Planes[mover][King]&blastMask != 0 {
		return -MateScore
	}

	var movedPiece = m.MovingPiece()
	if promo := m.Promotion(); promo != NoPiece {
		movedPiece = promo
	}
	var result = seeValue[attackerType] - seeValue[movedPiece]

	for color := White; color <= Black; color++ {
		for pt := Knight; pt <= Queen; pt++ {
			var bb = nb.Planes[color][pt] & blastMask
			bb &^= SquareMask[to]
			var count = PopCount(bb)
			if count == 0 {
				continue
			}
			if color == mover.Other() {
				result += count * seeValue[pt]
			} else {
				result -= count * seeValue[pt]
			}
		}
	}

	if result > 0 {
		result = 0
	}
	return result
}

// leastValuableAttacker returns the cheapest piece type of `by` attacking
// sq, ignoring kings (kings never attack, spec §4.3).
func leastValuableAttacker(b *Board, sq int, by Color) (PieceType, bool) {
	var attackers = b.AttackersTo(sq, by)
	if attackers == 0 {
		return NoPiece, false
	}
	for pt := Pawn; pt <= Queen; pt++ {
		if b.Planes[by][pt]&attackers != 0 {
			return pt, true
		}
	}
	return NoPiece, false
}
