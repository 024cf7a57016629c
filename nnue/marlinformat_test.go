package nnue

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/nucleuschess/nucleus/board"
)

// packRecord builds a minimal 32-byte marlinformat record for the standard
// starting position, mirroring the layout tools/marlinformat.h packs.
func packRecord(t *testing.T) []byte {
	t.Helper()
	var b = board.StartingPosition()

	var occupancy uint64
	var nibbles []byte
	for sq := 0; sq < 64; sq++ {
		pt, color, ok := b.PieceOn(sq)
		if !ok {
			continue
		}
		occupancy |= uint64(1) << uint(sq)
		var base = byte(pt)
		if pt == board.Rook {
			base = unmovedRook
		}
		if color == board.Black {
			base |= 0x8
		}
		nibbles = append(nibbles, base)
	}
	if len(nibbles)%2 != 0 {
		nibbles = append(nibbles, 0)
	}

	var buf bytes.Buffer
	var occBytes [8]byte
	binary.LittleEndian.PutUint64(occBytes[:], occupancy)
	buf.Write(occBytes[:])

	var packed [16]byte
	for i := 0; i < len(nibbles); i += 2 {
		packed[i/2] = nibbles[i] | nibbles[i+1]<<4
	}
	buf.Write(packed[:])

	buf.WriteByte(0)   // stm = white, no ep square would need noEpSquare; 0 collides with a1, use below
	buf.WriteByte(0)   // halfmove clock
	var fullmove [2]byte
	binary.LittleEndian.PutUint16(fullmove[:], 1)
	buf.Write(fullmove[:])
	var eval [2]byte
	binary.LittleEndian.PutUint16(eval[:], 0)
	buf.Write(eval[:])
	buf.WriteByte(byte(Draw))
	buf.WriteByte(0)

	var out = buf.Bytes()
	out[24] = noEpSquare // white to move, no en-passant square
	return out
}

func TestDecodePackedBoardRoundTrips(t *testing.T) {
	var raw = packRecord(t)
	var pb, err = DecodePackedBoard(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodePackedBoard: %v", err)
	}
	if pb.WDL != Draw {
		t.Fatalf("wdl = %v, want Draw", pb.WDL)
	}
	if pb.FullmoveNumber != 1 {
		t.Fatalf("fullmove = %v, want 1", pb.FullmoveNumber)
	}

	var got, boardErr = pb.ToBoard()
	if boardErr != nil {
		t.Fatalf("ToBoard: %v", boardErr)
	}
	var want = board.StartingPosition()
	if got.FEN() != want.FEN() {
		t.Fatalf("ToBoard() = %q, want %q", got.FEN(), want.FEN())
	}
}

func TestDecodePackedBoardShortRead(t *testing.T) {
	if _, err := DecodePackedBoard(bytes.NewReader(make([]byte, 10))); err == nil {
		t.Fatal("expected an error decoding a truncated record")
	}
}
