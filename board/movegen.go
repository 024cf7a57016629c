package board

// MoveGenMode selects which move class GenerateMoves produces (spec §4.2).
// noisy_and_check is captures (excluding under-promotion captures, which
// are quiet by historical convention), queen promotions, and any move that
// gives check; quiet_and_check is everything else, including quiet checks.
type MoveGenMode int

const (
	ModeAll MoveGenMode = iota
	ModeNoisyAndCheck
	ModeQuietAndCheck
)

// GenerateMoves appends every legal move of the requested class to buf and
// returns the extended slice. Pseudo-legal candidates are produced from the
// attack tables and then filtered by actually playing them through Forward,
// since Atomic's win/loss-by-explosion legality rule (spec §4.1) is cheaper
// to apply post-hoc than to special-case during generation; "gives check"
// is likewise read off the resulting position rather than computed a priori.
func (b *Board) GenerateMoves(mode MoveGenMode, buf []Move) []Move {
	var pseudo [MaxMoves]Move
	for _, m := range b.appendPseudoLegal(pseudo[:0]) {
		nb, ok := b.Forward(m)
		if !ok {
			continue
		}
		if mode == ModeAll {
			buf = append(buf, m)
			continue
		}
		var underPromoCapture = m.IsCapture() && m.Promotion() != NoPiece && m.Promotion() != Queen
		var noisyKind = (m.IsCapture() && !underPromoCapture) || m.Promotion() == Queen
		var noisy = noisyKind || (nb.IsCheck() && !underPromoCapture)
		if (mode == ModeNoisyAndCheck && noisy) || (mode == ModeQuietAndCheck && !noisyKind) {
			buf = append(buf, m)
		}
	}
	return buf
}

// GenerateCaptures is a convenience wrapper returning the noisy_and_check
// class, used by quiescence and the blast-threat probe.
func (b *Board) GenerateCaptures(buf []Move) []Move {
	return b.GenerateMoves(ModeNoisyAndCheck, buf)
}

func (b *Board) appendPseudoLegal(out []Move) []Move {
	var us, them = b.STM, b.STM.Other()
	var occ = b.AllPieces()
	var theirs = b.Occ[them]
	var empty = ^occ

	var addMove = func(from, to int, piece PieceType) {
		captured := NoPiece
		isCap := SquareMask[to]&theirs != 0
		if isCap {
			pt, _, _ := b.PieceOn(to)
			captured = pt
		}
		if piece == Pawn && Rank(to) == promoRank(us) {
			for _, promo := range [...]PieceType{Queen, Rook, Bishop, Knight} {
				out = append(out, MakeMove(from, to, piece, captured, promo))
			}
			return
		}
		out = append(out, MakeMove(from, to, piece, captured, NoPiece))
	}

	// pawns
	var pawns = b.Planes[us][Pawn]
	for pawns != 0 {
		var from = FirstOne(pawns)
		pawns &= pawns - 1

		var caps = PawnAttacks(from, us) & theirs
		for caps != 0 {
			var to = FirstOne(caps)
			caps &= caps - 1
			addMove(from, to, Pawn)
		}
		if b.EP != SquareNone && PawnAttacks(from, us)&SquareMask[b.EP] != 0 {
			out = append(out, MakeEnPassant(from, b.EP, epVictimSquare(b.EP, us)))
		}

		var one = pawnPush(from, us)
		if one >= 0 && SquareMask[one]&empty != 0 {
			if Rank(one) == promoRank(us) {
				for _, promo := range [...]PieceType{Queen, Rook, Bishop, Knight} {
					out = append(out, MakeMove(from, one, Pawn, NoPiece, promo))
				}
			} else {
				out = append(out, MakeMove(from, one, Pawn, NoPiece, NoPiece))
				if Rank(from) == pawnStartRank(us) {
					var two = pawnPush(one, us)
					if two >= 0 && SquareMask[two]&empty != 0 {
						out = append(out, MakeMove(from, two, Pawn, NoPiece, NoPiece))
					}
				}
			}
		}
	}

	var genPiece = func(pt PieceType, attacks func(sq int, occ uint64) uint64) {
		var bb = b.Planes[us][pt]
		for bb != 0 {
			var from = FirstOne(bb)
			bb &= bb - 1
			var targets = attacks(from, occ)
			var caps = targets & theirs
			for caps != 0 {
				var to = FirstOne(caps)
				caps &= caps - 1
				addMove(from, to, pt)
			}
			var quiets = targets & empty
			for quiets != 0 {
				var to = FirstOne(quiets)
				quiets &= quiets - 1
				addMove(from, to, pt)
			}
		}
	}

	genPiece(Knight, func(sq int, _ uint64) uint64 { return KnightAttackTable[sq] })
	genPiece(Bishop, BishopAttacks)
	genPiece(Rook, RookAttacks)
	genPiece(Queen, QueenAttacks)

	// Kings cannot capture in Atomic (spec §1): only quiet king steps and
	// castling are generated here, never a king-into-enemy-piece move.
	var kingBB = b.Planes[us][King]
	if kingBB != 0 {
		var from = FirstOne(kingBB)
		var quiets = KingAttackTable[from] & empty
		for quiets != 0 {
			var to = FirstOne(quiets)
			quiets &= quiets - 1
			out = append(out, MakeMove(from, to, King, NoPiece, NoPiece))
		}
	}

	out = b.appendCastling(out)

	return out
}

func (b *Board) appendCastling(out []Move) []Move {
	if b.IsCheck() {
		return out
	}
	var us = b.STM
	var occ = b.AllPieces()
	var them = us.Other()

	if us == White {
		if b.Castling&CastleWhiteKing != 0 &&
			occ&(SquareMask[sqF1]|SquareMask[sqG1]) == 0 &&
			!b.IsAttacked(sqF1, them) && !b.IsAttacked(sqG1, them) {
			out = append(out, MakeMove(sqE1, sqG1, King, NoPiece, NoPiece))
		}
		if b.Castling&CastleWhiteQueen != 0 &&
			occ&(SquareMask[sqD1]|SquareMask[sqC1]|SquareMask[MakeSquare(FileB, Rank1)]) == 0 &&
			!b.IsAttacked(sqD1, them) && !b.IsAttacked(sqC1, them) {
			out = append(out, MakeMove(sqE1, sqC1, King, NoPiece, NoPiece))
		}
	} else {
		if b.Castling&CastleBlackKing != 0 &&
			occ&(SquareMask[sqF8]|SquareMask[sqG8]) == 0 &&
			!b.IsAttacked(sqF8, them) && !b.IsAttacked(sqG8, them) {
			out = append(out, MakeMove(sqE8, sqG8, King, NoPiece, NoPiece))
		}
		if b.Castling&CastleBlackQueen != 0 &&
			occ&(SquareMask[sqD8]|SquareMask[sqC8]|SquareMask[MakeSquare(FileB, Rank8)]) == 0 &&
			!b.IsAttacked(sqD8, them) && !b.IsAttacked(sqC8, them) {
			out = append(out, MakeMove(sqE8, sqC8, King, NoPiece, NoPiece))
		}
	}
	return out
}

func promoRank(c Color) int {
	if c == White {
		return Rank8
	}
	return Rank1
}

func pawnStartRank(c Color) int {
	if c == White {
		return Rank2
	}
	return Rank7
}

// pawnPush returns the square one rank ahead of sq for color c, or -1 if
// off the board. Vertical pawn pushes change sq by +-8 regardless of the
// File/Rank relabelling, since the underlying bit layout's rank component
// is unaffected by the file-mirroring convention (types.go).
func pawnPush(sq int, c Color) int {
	if c == White {
		if Rank(sq) == Rank8 {
			return -1
		}
		return sq + 8
	}
	if Rank(sq) == Rank1 {
		return -1
	}
	return sq - 8
}

// epVictimSquare returns the square of the pawn being captured en passant,
// given the destination square of the capturing pawn.
func epVictimSquare(dest int, mover Color) int {
	if mover == White {
		return dest - 8
	}
	return dest + 8
}
