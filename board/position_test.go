package board

import "testing"

func TestStartingPositionMoveCount(t *testing.T) {
	var b = StartingPosition()
	var moves = b.GenerateMoves(ModeAll, nil)
	if len(moves) != 20 {
		t.Fatalf("expected 20 legal moves from the start position, got %d", len(moves))
	}
}

func TestForwardHashIsIncremental(t *testing.T) {
	var b = StartingPosition()
	var moves = b.GenerateMoves(ModeAll, nil)
	for _, m := range moves {
		nb, ok := b.Forward(m)
		if !ok {
			t.Fatalf("move %s from start position rejected as illegal", m)
		}
		fromFEN, err := ParseFEN(nb.FEN())
		if err != nil {
			t.Fatalf("re-parsing FEN for move %s: %v", m, err)
		}
		if fromFEN.Hash != nb.Hash {
			t.Errorf("move %s: incremental hash %x != hash recomputed from FEN %x", m, nb.Hash, fromFEN.Hash)
		}
	}
}

func TestKingCannotCapture(t *testing.T) {
	b, err := ParseFEN("8/8/8/3k4/3K4/8/8/8 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var moves = b.GenerateMoves(ModeAll, nil)
	for _, m := range moves {
		if m.MovingPiece() == King && m.IsCapture() {
			t.Fatalf("king move %s should never be a capture in Atomic", m)
		}
	}
}

func TestKingsMayBeAdjacent(t *testing.T) {
	b, err := ParseFEN("8/8/8/3kK3/8/8/8/8 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if b.IsCheck() {
		t.Fatalf("adjacent kings must not be considered check in Atomic")
	}
}

// TestEnPassantBlastCentersOnVictimSquare exercises spec §4.1's en-passant
// rule: the blast is centered on the captured pawn's square, not on the
// capturing pawn's destination.
func TestEnPassantBlastCentersOnVictimSquare(t *testing.T) {
	b, err := ParseFEN("8/8/8/3NpP2/3n4/8/8/4K2k w - e6 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var m = MakeEnPassant(ParseSquare("f5"), ParseSquare("e6"), ParseSquare("e5"))
	nb, ok := b.Forward(m)
	if !ok {
		t.Fatalf("expected en-passant capture to be legal")
	}
	// The capturing pawn itself explodes off e6.
	if nb.Planes[White][Pawn]&SquareMask[ParseSquare("e6")] != 0 {
		t.Errorf("capturing pawn should have exploded off e6")
	}
	// Knights adjacent to e5 (the victim square) should be destroyed.
	if nb.Planes[Black][Knight] != 0 {
		t.Errorf("knight within the e5-centered blast ring should have exploded")
	}
}

func TestOwnKingExplosionIsIllegal(t *testing.T) {
	b, err := ParseFEN("8/8/8/4n3/3KQ3/8/8/7k w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var m = MakeMove(ParseSquare("e4"), ParseSquare("e5"), Queen, Knight, NoPiece)
	if _, ok := b.Forward(m); ok {
		t.Fatalf("capturing next to one's own king must be illegal when it explodes that king")
	}
}

// TestCastlingRightsForfeitOnRookExplosion checks the Atomic-specific rule
// that a rook's home square being vacated by a blast (not just by direct
// capture or its own move) forfeits the castling right, per spec §4.1.
func TestCastlingRightsForfeitOnRookExplosion(t *testing.T) {
	b, err := ParseFEN("k7/8/8/8/8/8/4n3/4K1BR b K - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var m = MakeMove(ParseSquare("e2"), ParseSquare("g1"), Knight, Bishop, NoPiece)
	nb, ok := b.Forward(m)
	if !ok {
		t.Fatalf("expected knight capture on g1 to be legal")
	}
	if nb.Planes[White][Rook] != 0 {
		t.Fatalf("rook on h1 should have exploded from the g1-centered blast")
	}
	if nb.Castling&CastleWhiteKing != 0 {
		t.Errorf("white kingside castling right should be forfeit once the h1 rook is destroyed")
	}
}
