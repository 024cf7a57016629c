package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Board is the Atomic chess position: piece planes, hashing and the
// incidental state (side to move, castling, en-passant, clocks).
// Grounded on CounterGo's common.Position value-type/copy-on-move design
// (common/position.go, common/types.go), generalised with explosion
// semantics (spec §3-4.1).
type Board struct {
	Planes [2][PieceTypeCount]uint64
	Occ    [2]uint64

	STM      Color
	Castling int
	EP       int

	HalfmoveClock int
	PlyCount      int

	Hash      uint64
	PawnHash  uint64
	SidedHash [2]uint64

	LastMove Move
}

// Named home squares, expressed through MakeSquare so they respect the
// package's file convention regardless of internal bit layout.
var (
	sqA1 = MakeSquare(FileA, Rank1)
	sqE1 = MakeSquare(FileE, Rank1)
	sqG1 = MakeSquare(FileG, Rank1)
	sqF1 = MakeSquare(FileF, Rank1)
	sqH1 = MakeSquare(FileH, Rank1)
	sqD1 = MakeSquare(FileD, Rank1)
	sqC1 = MakeSquare(FileC, Rank1)
	sqA8 = MakeSquare(FileA, Rank8)
	sqE8 = MakeSquare(FileE, Rank8)
	sqG8 = MakeSquare(FileG, Rank8)
	sqF8 = MakeSquare(FileF, Rank8)
	sqH8 = MakeSquare(FileH, Rank8)
	sqD8 = MakeSquare(FileD, Rank8)
	sqC8 = MakeSquare(FileC, Rank8)
)

// StartingPosition returns the Atomic starting position, which is the
// standard chess starting array (spec does not alter the initial setup).
func StartingPosition() Board {
	b, err := ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Board) AllPieces() uint64 {
	return b.Occ[White] | b.Occ[Black]
}

func (b *Board) Colors(c Color) uint64 {
	return b.Occ[c]
}

// PieceOn returns the piece type and color occupying sq, or (NoPiece, White,
// false) if empty.
func (b *Board) PieceOn(sq int) (PieceType, Color, bool) {
	var mask = SquareMask[sq]
	if b.Occ[White]&mask == 0 && b.Occ[Black]&mask == 0 {
		return NoPiece, White, false
	}
	var color = White
	if b.Occ[Black]&mask != 0 {
		color = Black
	}
	for pt := Pawn; pt <= King; pt++ {
		if b.Planes[color][pt]&mask != 0 {
			return pt, color, true
		}
	}
	return NoPiece, White, false
}

func (b *Board) KingSquare(c Color) int {
	var bb = b.Planes[c][King]
	if bb == 0 {
		return SquareNone
	}
	return FirstOne(bb)
}

func (b *Board) addPiece(c Color, pt PieceType, sq int) {
	var mask = SquareMask[sq]
	b.Planes[c][pt] |= mask
	b.Occ[c] |= mask
	var k = PieceKey(c, pt, sq)
	b.Hash ^= k
	b.SidedHash[c] ^= k
	if pt == Pawn {
		b.PawnHash ^= k
	}
}

func (b *Board) removePiece(c Color, pt PieceType, sq int) {
	var mask = ^SquareMask[sq]
	b.Planes[c][pt] &= mask
	b.Occ[c] &= mask
	var k = PieceKey(c, pt, sq)
	b.Hash ^= k
	b.SidedHash[c] ^= k
	if pt == Pawn {
		b.PawnHash ^= k
	}
}

func (b *Board) movePieceOnBoard(c Color, pt PieceType, from, to int) {
	b.removePiece(c, pt, from)
	b.addPiece(c, pt, to)
}

// attackersTo returns every square set of pieces of `by` attacking sq given
// occupancy occ. Kings are deliberately excluded: in Atomic a king can never
// capture (spec §1), so it never "attacks" a square in the sense legality,
// check and SEE computations need (this is also what implements "kings may
// be adjacent" — see DESIGN.md open question #2).
func attackersTo(sq int, occ uint64, by Color, planes *[2][PieceTypeCount]uint64) uint64 {
	return PawnAttacks(sq, by.Other())&planes[by][Pawn] |
		KnightAttackTable[sq]&planes[by][Knight] |
		BishopAttacks(sq, occ)&(planes[by][Bishop]|planes[by][Queen]) |
		RookAttacks(sq, occ)&(planes[by][Rook]|planes[by][Queen])
}

func (b *Board) AttackersTo(sq int, by Color) uint64 {
	return attackersTo(sq, b.AllPieces(), by, &b.Planes)
}

func (b *Board) IsAttacked(sq int, by Color) bool {
	return b.AttackersTo(sq, by) != 0
}

// IsCheck reports whether the side to move's king is attacked.
func (b *Board) IsCheck() bool {
	var ks = b.KingSquare(b.STM)
	if ks == SquareNone {
		return false
	}
	return b.IsAttacked(ks, b.STM.Other())
}

func (b *Board) Phase() float64 {
	const maxPhase = 4*1 + 4*1 + 4*2 + 2*4 // knights+bishops+rooks+queens weight, matches common "phase" heuristics
	var weight = func(pt PieceType, w int) int {
		return PopCount(b.Planes[White][pt]|b.Planes[Black][pt]) * w
	}
	var phase = weight(Knight, 1) + weight(Bishop, 1) + weight(Rook, 2) + weight(Queen, 4)
	if phase > maxPhase {
		phase = maxPhase
	}
	return float64(phase) / float64(maxPhase)
}

// recomputeCastlingRights clears every right in old whose king or rook is
// no longer on its home square once blast resolution is done, since in
// Atomic a rook can also vanish by exploding without being the move's own
// from/to square.
func recomputeCastlingRights(nb *Board, old int) int {
	var cr = old
	if cr&CastleWhiteKing != 0 && (nb.Planes[White][Rook]&SquareMask[sqH1] == 0 || nb.Planes[White][King]&SquareMask[sqE1] == 0) {
		cr &^= CastleWhiteKing
	}
	if cr&CastleWhiteQueen != 0 && (nb.Planes[White][Rook]&SquareMask[sqA1] == 0 || nb.Planes[White][King]&SquareMask[sqE1] == 0) {
		cr &^= CastleWhiteQueen
	}
	if cr&CastleBlackKing != 0 && (nb.Planes[Black][Rook]&SquareMask[sqH8] == 0 || nb.Planes[Black][King]&SquareMask[sqE8] == 0) {
		cr &^= CastleBlackKing
	}
	if cr&CastleBlackQueen != 0 && (nb.Planes[Black][Rook]&SquareMask[sqA8] == 0 || nb.Planes[Black][King]&SquareMask[sqE8] == 0) {
		cr &^= CastleBlackQueen
	}
	return cr
}

// Forward applies move m and returns the successor position plus whether
// the move was legal (our king survived, or both kings died simultaneously
// — spec §4.1). It never mutates b.
func (b *Board) Forward(m Move) (Board, bool) {
	var nb = *b
	var mover = b.STM

	nb.LastMove = m
	nb.STM = mover.Other()
	nb.Hash ^= sideKey
	nb.PlyCount = b.PlyCount + 1

	var oldCR = b.Castling
	if b.EP != SquareNone {
		nb.Hash ^= enPassantKeys[File(b.EP)]
	}
	nb.EP = SquareNone

	var from, to = m.From(), m.To()
	var piece = m.MovingPiece()

	if m.MovingPiece() == Pawn || m.IsCapture() {
		nb.HalfmoveClock = 0
	} else {
		nb.HalfmoveClock = b.HalfmoveClock + 1
	}

	if m.IsCapture() {
		if m.IsEnPassant() {
			nb.removePiece(mover.Other(), Pawn, m.EnPassantCaptureSquare())
		} else {
			nb.removePiece(mover.Other(), m.CapturedPiece(), to)
		}
	}

	nb.removePiece(mover, piece, from)
	var finalPiece = piece
	if promo := m.Promotion(); promo != NoPiece {
		finalPiece = promo
	}
	nb.addPiece(mover, finalPiece, to)

	if piece == King {
		if mover == White && from == sqE1 && to == sqG1 {
			nb.movePieceOnBoard(White, Rook, sqH1, sqF1)
		} else if mover == White && from == sqE1 && to == sqC1 {
			nb.movePieceOnBoard(White, Rook, sqA1, sqD1)
		} else if mover == Black && from == sqE8 && to == sqG8 {
			nb.movePieceOnBoard(Black, Rook, sqH8, sqF8)
		} else if mover == Black && from == sqE8 && to == sqC8 {
			nb.movePieceOnBoard(Black, Rook, sqA8, sqD8)
		}
	}

	if m.IsCapture() {
		var blastCenter = to
		if m.IsEnPassant() {
			blastCenter = m.EnPassantCaptureSquare()
		}
		var blastMask = KingAttackTable[blastCenter] | SquareMask[blastCenter]
		for color := White; color <= Black; color++ {
			for pt := Knight; pt <= King; pt++ {
				var bb = nb.Planes[color][pt] & blastMask
				for bb != 0 {
					var sq = FirstOne(bb)
					bb &= bb - 1
					nb.removePiece(color, pt, sq)
				}
			}
		}
		// the capturing piece itself explodes off its destination square,
		// even if it is a pawn (pawns are otherwise immune to blasts).
		nb.removePiece(mover, finalPiece, to)
	}

	if piece == Pawn {
		if mover == White && to == from+16 {
			var epSq = from + 8
			if PawnAttacks(epSq, Black)&nb.Planes[Black][Pawn] != 0 {
				nb.EP = epSq
				nb.Hash ^= enPassantKeys[File(epSq)]
			}
		} else if mover == Black && to == from-16 {
			var epSq = from - 8
			if PawnAttacks(epSq, White)&nb.Planes[White][Pawn] != 0 {
				nb.EP = epSq
				nb.Hash ^= enPassantKeys[File(epSq)]
			}
		}
	}

	nb.Castling = recomputeCastlingRights(&nb, oldCR)
	if nb.Castling != oldCR {
		nb.Hash ^= castlingKeys[oldCR] ^ castlingKeys[nb.Castling]
	}

	if !nb.isLegalFor(mover) {
		return Board{}, false
	}
	return nb, true
}

// isLegalFor reports whether, after a move by `mover`, the resulting
// position is legal: mover's king survived, or both kings died (mover
// wins by simultaneous explosion — spec §4.1).
func (nb *Board) isLegalFor(mover Color) bool {
	var ourKingGone = nb.Planes[mover][King] == 0
	var theirKingGone = nb.Planes[mover.Other()][King] == 0
	if ourKingGone {
		return theirKingGone
	}
	if theirKingGone {
		return true
	}
	return !nb.IsAttacked(nb.KingSquare(mover), mover.Other())
}

// ForwardNull advances the position without moving a piece: used by
// null-move pruning. Clears ep, flips side, increments clocks.
func (b *Board) ForwardNull() Board {
	var nb = *b
	nb.STM = b.STM.Other()
	nb.Hash ^= sideKey
	nb.HalfmoveClock = b.HalfmoveClock + 1
	nb.PlyCount = b.PlyCount + 1
	if b.EP != SquareNone {
		nb.Hash ^= enPassantKeys[File(b.EP)]
	}
	nb.EP = SquareNone
	nb.LastMove = MoveEmpty
	return nb
}

// IsAtomicKingBlastCapture reports whether playing m would blast the
// opponent's king off the board (an immediate win).
func (b *Board) IsAtomicKingBlastCapture(m Move) bool {
	if !m.IsCapture() {
		return false
	}
	nb, ok := b.Forward(m)
	if !ok {
		return false
	}
	return nb.Planes[b.STM.Other()][King] == 0
}

// HasAtomicBlastCapture reports whether any legal capture from this
// position would blast the enemy king (used by quiescence's blast-threat
// extension, spec §4.7).
func (b *Board) HasAtomicBlastCapture() bool {
	var buf [MaxMoves]Move
	var n = b.GenerateCaptures(buf[:0])
	for _, m := range n {
		if b.IsAtomicKingBlastCapture(m) {
			return true
		}
	}
	return false
}

// InAtomicBlastCheck reports whether the side to move's king currently sits
// adjacent to the enemy king — the one Atomic-specific safety condition
// that changes how "check" must be read, since neither king can ever
// capture the other (see DESIGN.md open question #2). Exposed for callers
// (search pruning, quiescence) that want to special-case this rather than
// rely solely on attackersTo's king exclusion.
func (b *Board) InAtomicBlastCheck() bool {
	var wk, bk = b.KingSquare(White), b.KingSquare(Black)
	if wk == SquareNone || bk == SquareNone {
		return false
	}
	return KingAttackTable[wk]&SquareMask[bk] != 0
}

func (b *Board) String() string {
	return b.FEN()
}

// FEN serialises the position to Forsyth-Edwards notation (spec §6).
func (b *Board) FEN() string {
	var sb strings.Builder
	for rank := Rank8; rank >= Rank1; rank-- {
		var empty = 0
		for file := FileA; file <= FileH; file++ {
			var sq = MakeSquare(file, rank)
			pt, color, ok := b.PieceOn(sq)
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pieceLetter(pt, color))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank != Rank1 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')
	if b.STM == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	var cr = ""
	if b.Castling&CastleWhiteKing != 0 {
		cr += "K"
	}
	if b.Castling&CastleWhiteQueen != 0 {
		cr += "Q"
	}
	if b.Castling&CastleBlackKing != 0 {
		cr += "k"
	}
	if b.Castling&CastleBlackQueen != 0 {
		cr += "q"
	}
	if cr == "" {
		cr = "-"
	}
	sb.WriteString(cr)
	sb.WriteByte(' ')
	if b.EP == SquareNone {
		sb.WriteByte('-')
	} else {
		sb.WriteString(SquareName(b.EP))
	}
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b.HalfmoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b.PlyCount/2 + 1))
	return sb.String()
}

func pieceLetter(pt PieceType, c Color) string {
	var letters = "PNBRQK"
	var s = string(letters[pt])
	if c == Black {
		s = strings.ToLower(s)
	}
	return s
}

// ParseFEN parses a FEN string into a Board (spec §6). Missing halfmove and
// fullmove fields default to "0 1".
func ParseFEN(fen string) (Board, error) {
	var tokens = strings.Fields(fen)
	if len(tokens) < 4 {
		return Board{}, fmt.Errorf("board: invalid fen %q: need at least 4 fields", fen)
	}

	var b Board
	var rank = Rank8
	var file = FileA
	for _, ch := range tokens[0] {
		switch {
		case ch == '/':
			rank--
			file = FileA
		case ch >= '1' && ch <= '8':
			file += int(ch - '0')
		default:
			pt, color, ok := parsePieceLetter(ch)
			if !ok {
				return Board{}, fmt.Errorf("board: invalid fen %q: bad piece %q", fen, ch)
			}
			if file > FileH || rank < Rank1 {
				return Board{}, fmt.Errorf("board: invalid fen %q: board overflow", fen)
			}
			b.addPiece(color, pt, MakeSquare(file, rank))
			file++
		}
	}

	switch tokens[1] {
	case "w":
		b.STM = White
	case "b":
		b.STM = Black
		b.Hash ^= sideKey
	default:
		return Board{}, fmt.Errorf("board: invalid fen %q: bad side to move", fen)
	}

	if strings.Contains(tokens[2], "K") {
		b.Castling |= CastleWhiteKing
	}
	if strings.Contains(tokens[2], "Q") {
		b.Castling |= CastleWhiteQueen
	}
	if strings.Contains(tokens[2], "k") {
		b.Castling |= CastleBlackKing
	}
	if strings.Contains(tokens[2], "q") {
		b.Castling |= CastleBlackQueen
	}
	b.Hash ^= castlingKeys[b.Castling]

	b.EP = ParseSquare(tokens[3])
	if b.EP != SquareNone {
		b.Hash ^= enPassantKeys[File(b.EP)]
	}

	b.HalfmoveClock = 0
	b.PlyCount = 0
	if b.STM == Black {
		b.PlyCount = 1
	}
	if len(tokens) > 4 {
		if v, err := strconv.Atoi(tokens[4]); err == nil {
			b.HalfmoveClock = v
		}
	}
	if len(tokens) > 5 {
		if v, err := strconv.Atoi(tokens[5]); err == nil {
			b.PlyCount = (v - 1) * 2
			if b.STM == Black {
				b.PlyCount++
			}
		}
	}

	b.LastMove = MoveEmpty
	return b, nil
}

func parsePieceLetter(ch rune) (PieceType, Color, bool) {
	var color = White
	var lower = ch
	if ch >= 'a' && ch <= 'z' {
		color = Black
	} else {
		lower = ch - 'A' + 'a'
	}
	switch lower {
	case 'p':
		return Pawn, color, true
	case 'n':
		return Knight, color, true
	case 'b':
		return Bishop, color, true
	case 'r':
		return Rook, color, true
	case 'q':
		return Queen, color, true
	case 'k':
		return King, color, true
	}
	return NoPiece, color, false
}
