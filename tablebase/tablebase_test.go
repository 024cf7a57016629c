package tablebase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nucleuschess/nucleus/board"
)

func writeTable(t *testing.T, dir, name string, magic [4]byte) string {
	t.Helper()
	var path = filepath.Join(dir, name+fileExtension)
	var body = append(magic[:], make([]byte, 60)...)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	return path
}

func TestInitIndexesValidMagic(t *testing.T) {
	var dir = t.TempDir()
	writeTable(t, dir, "KQvK", wdlMagic[0])

	var tables = New()
	if err := tables.Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !tables.Loaded() {
		t.Fatal("expected at least one indexed table")
	}

	var b, _ = board.ParseFEN("8/8/8/4k3/8/8/4Q3/4K3 w - - 0 1")
	if _, ok := tables.IndexedFile(&b); !ok {
		t.Fatal("expected KQvK to be indexed for this material signature")
	}
}

func TestInitSkipsBadMagic(t *testing.T) {
	var dir = t.TempDir()
	writeTable(t, dir, "KQvK", [4]byte{0, 0, 0, 0})

	var tables = New()
	if err := tables.Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if tables.Loaded() {
		t.Fatal("expected no indexed tables for invalid magic")
	}
}

func TestProbeAlwaysHonestNotFound(t *testing.T) {
	var dir = t.TempDir()
	var path = writeTable(t, dir, "KQvK", wdlMagic[1])

	var tables = New()
	if err := tables.Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var header, err = readHeader(path)
	if err != nil {
		t.Fatalf("readHeader: %v", err)
	}
	if header != wdlMagic[1] {
		t.Fatalf("readHeader mismatch: %v", header)
	}

	var b, _ = board.ParseFEN("8/8/8/4k3/8/8/4Q3/4K3 w - - 0 1")
	if _, ok := tables.ProbeWDL(&b); ok {
		t.Fatal("ProbeWDL must never claim ok=true without a decoder")
	}
	if _, _, ok := tables.ProbeDTZ(&b); ok {
		t.Fatal("ProbeDTZ must never claim ok=true without a decoder")
	}
}

func TestInitEmptyPathIsNoop(t *testing.T) {
	var tables = New()
	if err := tables.Init(""); err != nil {
		t.Fatalf("Init(\"\"): %v", err)
	}
	if tables.Loaded() {
		t.Fatal("expected no tables loaded")
	}
}

func TestParseMaterialName(t *testing.T) {
	key, ok := parseMaterialName("KQvK")
	if !ok {
		t.Fatal("expected KQvK to parse")
	}
	if key == 0 {
		t.Fatal("expected a non-zero material key for KQvK")
	}
	if _, ok := parseMaterialName("notavalidname"); ok {
		t.Fatal("expected malformed stem to be rejected")
	}
}
