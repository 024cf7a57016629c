package nnue

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"strings"

	"github.com/nucleuschess/nucleus/board"
)

// PackedBoard is one 32-byte "marlinformat" training record (spec §6: `.bin`
// marlinformat packed-board records). Grounded on original_source's
// tools/marlinformat.h PackedBoard layout; this module only ever reads the
// format (spec.md §1: the writer/generator is out of scope), so only the
// decode direction is implemented — "provided for completeness/testing"
// per SPEC_FULL.md §8, to let a test feed labeled positions through the
// evaluator without a hand-written FEN for each one.
type PackedBoard struct {
	Occupancy      uint64
	Pieces         [16]byte
	StmEpSquare    byte
	HalfmoveClock  byte
	FullmoveNumber uint16
	Eval           int16
	WDL            Outcome
	Extra          byte
}

// Outcome is the game result a training record labels a position with,
// from White's perspective.
type Outcome uint8

const (
	WhiteLoss Outcome = 0
	Draw      Outcome = 1
	WhiteWin  Outcome = 2
)

const packedBoardSize = 32
const noEpSquare = 64
const unmovedRook = 6

// DecodePackedBoard reads one fixed-size record from r.
func DecodePackedBoard(r io.Reader) (PackedBoard, error) {
	var buf [packedBoardSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return PackedBoard{}, fmt.Errorf("marlinformat: %w", err)
	}
	return PackedBoard{
		Occupancy:      binary.LittleEndian.Uint64(buf[0:8]),
		Pieces:         [16]byte(buf[8:24]),
		StmEpSquare:    buf[24],
		HalfmoveClock:  buf[25],
		FullmoveNumber: binary.LittleEndian.Uint16(buf[26:28]),
		Eval:           int16(binary.LittleEndian.Uint16(buf[28:30])),
		WDL:            Outcome(buf[30]),
		Extra:          buf[31],
	}, nil
}

// pieceNibble returns the i-th occupied square's piece nibble, in the
// order its square appears scanning Occupancy from bit 0 up.
func (pb PackedBoard) pieceNibble(i int) byte {
	var cell = pb.Pieces[i/2]
	if i&1 == 0 {
		return cell & 0x0f
	}
	return (cell >> 4) & 0x0f
}

// ToBoard reconstructs the position a packed record describes. This
// module's square index (spec §3's `sq = rank*8 + (7-file)`) is the same
// convention marlinformat's pack() uses for its own `std_file`/`std_rank`,
// so occupancy bit i maps directly onto board square i with no reindexing.
// Castling rights are approximated from the unmoved-rook marker at the
// four standard corner squares; an unmoved rook away from a1/h1/a8/h8
// (a Chess960 start) is ignored, matching spec.md's standard-chess-only
// scope.
func (pb PackedBoard) ToBoard() (board.Board, error) {
	var placement [64]byte
	var occ = pb.Occupancy
	var i = 0
	for occ != 0 {
		var sq = bits.TrailingZeros64(occ)
		occ &= occ - 1
		placement[sq] = pb.pieceNibble(i)
		i++
	}

	var fen strings.Builder
	for rank := board.Rank8; rank >= board.Rank1; rank-- {
		var empty = 0
		for file := board.FileA; file <= board.FileH; file++ {
			var n = placement[board.MakeSquare(file, rank)]
			if n == 0 && !occupiedAt(pb.Occupancy, board.MakeSquare(file, rank)) {
				empty++
				continue
			}
			if empty > 0 {
				fmt.Fprintf(&fen, "%d", empty)
				empty = 0
			}
			fen.WriteString(pieceLetter(n))
		}
		if empty > 0 {
			fmt.Fprintf(&fen, "%d", empty)
		}
		if rank != board.Rank1 {
			fen.WriteByte('/')
		}
	}

	var whiteToMove = pb.StmEpSquare&0x80 == 0
	fen.WriteByte(' ')
	if whiteToMove {
		fen.WriteByte('w')
	} else {
		fen.WriteByte('b')
	}

	fen.WriteByte(' ')
	fen.WriteString(pb.castlingRights(placement))

	fen.WriteByte(' ')
	var epValue = int(pb.StmEpSquare & 0x7f)
	if epValue == noEpSquare {
		fen.WriteByte('-')
	} else {
		fen.WriteString(board.SquareName(epValue))
	}

	fmt.Fprintf(&fen, " %d %d", pb.HalfmoveClock, maxInt(1, int(pb.FullmoveNumber)))

	return board.ParseFEN(fen.String())
}

func occupiedAt(occupancy uint64, sq int) bool {
	return occupancy&(uint64(1)<<uint(sq)) != 0
}

func (pb PackedBoard) castlingRights(placement [64]byte) string {
	var sb strings.Builder
	if n := placement[board.MakeSquare(board.FileH, board.Rank1)]; isUnmovedRook(n, false) {
		sb.WriteByte('K')
	}
	if n := placement[board.MakeSquare(board.FileA, board.Rank1)]; isUnmovedRook(n, false) {
		sb.WriteByte('Q')
	}
	if n := placement[board.MakeSquare(board.FileH, board.Rank8)]; isUnmovedRook(n, true) {
		sb.WriteByte('k')
	}
	if n := placement[board.MakeSquare(board.FileA, board.Rank8)]; isUnmovedRook(n, true) {
		sb.WriteByte('q')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

func isUnmovedRook(nibble byte, black bool) bool {
	if nibble&0x0f&0x7 != unmovedRook {
		return false
	}
	var isBlack = nibble&0x8 != 0
	return isBlack == black
}

var packedPieceLetters = [7]string{"P", "N", "B", "R", "Q", "K", "R"}

// pieceLetter assumes the caller already confirmed the square is occupied
// (via occupiedAt) — nibble 0 is a legitimate encoding (a white pawn, base
// id 0), not an "empty square" sentinel.
func pieceLetter(nibble byte) string {
	var base = nibble & 0x7
	var letter = packedPieceLetters[base]
	if nibble&0x8 != 0 {
		return strings.ToLower(letter)
	}
	return letter
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
