// Package tablebase implements the material-signature index and WDL/DTZ
// probe shim for Atomic-Syzygy endgame tables (spec §4.8). It never
// decodes a table's internal Huffman-coded body — that layout is
// specified by the Syzygy format itself, not by this codebase — so a
// probe against a table this package has indexed but cannot yet decode
// answers honestly with "not found" rather than a guess.
//
// Grounded on hailam-chessplay's internal/tablebase package (syzygy.go/
// download.go): the same directory-scan-by-extension and
// material-key-to-file indexing shape, adapted from that package's
// Lichess-API-backed probe body to this spec's local-file-only, decode-
// out-of-scope contract.
package tablebase

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nucleuschess/nucleus/board"
)

// fileExtension is the extension spec §6 names for Atomic WDL tables.
const fileExtension = ".atbw"

// magic constants published for the Atomic-Syzygy WDL format (spec §6:
// "the first four bytes are one of two published WDL magic constants").
var wdlMagic = [2][4]byte{
	{0x71, 0xe8, 0x23, 0x5d},
	{0x7a, 0xe8, 0x23, 0x5d},
}

// MaterialKey is the signature `(wP, wN, wB, wR, wQ, wK, bP, ..., bK)`
// packs into (spec §4.8), one nibble per piece count. Piece ordering
// follows spec §6: `WP, WN, WB, WR, WQ, WK, BP, BN, BB, BR, BQ, BK`.
type MaterialKey uint64

// KeyFor derives b's material signature.
func KeyFor(b *board.Board) MaterialKey {
	var key MaterialKey
	var shift uint
	for _, color := range [...]board.Color{board.White, board.Black} {
		for pt := board.Pawn; pt <= board.King; pt++ {
			var count = board.PopCount(b.Planes[color][pt])
			if count > 15 {
				count = 15
			}
			key |= MaterialKey(count) << shift
			shift += 4
		}
	}
	return key
}

// entry is one indexed table file: its material key and a handle kept
// open for the lifetime of the Tables index. Go's ecosystem has no mmap
// package represented anywhere in the retrieved corpus, so file access
// goes through the standard library's os.File/io.ReaderAt directly
// rather than a memory-mapped view — the honest stdlib substitute for
// spec §4.8's "mmapped file" when no third-party mmap library is
// available to ground on.
type entry struct {
	path string
	file *os.File
}

// Tables is the loaded tablebase index: a material-key lookup built once
// at Init and read-only thereafter (spec §5: "tablebase index (built
// during init before any worker starts; read-only thereafter)").
type Tables struct {
	mu    sync.RWMutex
	byKey map[MaterialKey]*entry
	dir   string
}

// New returns an empty index. Call Init to populate it; an empty Tables
// answers every probe with ok=false, which is exactly the "tablebase
// path missing or empty" behavior spec §7 calls for.
func New() *Tables {
	return &Tables{byKey: map[MaterialKey]*entry{}}
}

// Init scans dir for files named "<materialsignature>.atbw", verifies
// each one's magic header, and indexes it by the material signature its
// filename encodes. Files that fail the magic check or whose name does
// not parse are skipped silently, matching spec §7's "malformed
// input is diagnosed and skipped, not fatal" posture for this component.
func (t *Tables) Init(dir string) error {
	if dir == "" {
		return nil
	}
	var files, err = os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("tablebase: read dir %s: %w", dir, err)
	}

	var byKey = map[MaterialKey]*entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileExtension) {
			continue
		}
		var path = filepath.Join(dir, f.Name())
		key, ok := parseMaterialName(strings.TrimSuffix(f.Name(), fileExtension))
		if !ok {
			continue
		}
		file, err := os.Open(path)
		if err != nil {
			continue
		}
		if !hasValidMagic(file) {
			file.Close()
			continue
		}
		byKey[key] = &entry{path: path, file: file}
	}

	t.mu.Lock()
	for _, old := range t.byKey {
		old.file.Close()
	}
	t.byKey = byKey
	t.dir = dir
	t.mu.Unlock()
	return nil
}

func hasValidMagic(f *os.File) bool {
	var header [4]byte
	if _, err := f.ReadAt(header[:], 0); err != nil {
		return false
	}
	for _, magic := range wdlMagic {
		if header == magic {
			return true
		}
	}
	return false
}

// parseMaterialName decodes a filename stem of the canonical form
// "KQPvKR" ("v" separating sides, standard uppercase piece letters) into a
// MaterialKey. The left side is always read as White and the right side
// as Black; a stem that lists the stronger side first is therefore keyed
// with that side as White, whichever colour holds it. Files
// whose stem does not fit this shape are not tablebase files this index
// understands.
func parseMaterialName(stem string) (MaterialKey, bool) {
	var sides = strings.SplitN(stem, "v", 2)
	if len(sides) != 2 {
		return 0, false
	}
	var counts [2][6]int
	for side, letters := range sides {
		for _, ch := range letters {
			var pt, ok = pieceTypeForLetter(ch)
			if !ok {
				return 0, false
			}
			counts[side][pt]++
		}
	}
	var key MaterialKey
	var shift uint
	for side := 0; side < 2; side++ {
		for pt := 0; pt < 6; pt++ {
			key |= MaterialKey(counts[side][pt]) << shift
			shift += 4
		}
	}
	return key, true
}

func pieceTypeForLetter(ch rune) (int, bool) {
	switch ch {
	case 'P':
		return int(board.Pawn), true
	case 'N':
		return int(board.Knight), true
	case 'B':
		return int(board.Bishop), true
	case 'R':
		return int(board.Rook), true
	case 'Q':
		return int(board.Queen), true
	case 'K':
		return int(board.King), true
	}
	return 0, false
}

// MaxPieces is the largest total piece count this index has any file
// for, used to skip a probe cheaply for early-middlegame positions.
func (t *Tables) MaxPieces() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var max int
	for key := range t.byKey {
		var count = 0
		for shift := uint(0); shift < 48; shift += 4 {
			count += int((key >> shift) & 0xf)
		}
		if count > max {
			max = count
		}
	}
	return max
}

// Loaded reports whether Init found and validated at least one table.
func (t *Tables) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byKey) > 0
}

// ProbeWDL implements search.Tablebase. It locates the file indexed for
// b's material signature, but this package never decodes a table's
// Huffman-coded body — that layout is specified by the Syzygy format
// itself, not by this codebase (spec §4.8) — so even a hit against the
// index answers ok=false rather than a guessed WDL value. IndexedFile
// exposes the lookup itself for callers (diagnostics, a future decoder)
// that want to know an indexed file exists without probing it.
func (t *Tables) ProbeWDL(b *board.Board) (wdl int, ok bool) {
	return 0, false
}

// ProbeDTZ mirrors ProbeWDL with the same honest not-found contract.
func (t *Tables) ProbeDTZ(b *board.Board) (wdl, dtz int, ok bool) {
	return 0, 0, false
}

// IndexedFile reports the path Init indexed for b's material signature,
// if any, without attempting to decode it.
func (t *Tables) IndexedFile(b *board.Board) (path string, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, found := t.byKey[KeyFor(b)]
	if !found {
		return "", false
	}
	return e.path, true
}

// readHeader is exposed for tests that want to confirm the magic-byte
// check against a synthetic file without going through Init's directory
// scan.
func readHeader(path string) ([4]byte, error) {
	var f, err = os.Open(path)
	if err != nil {
		return [4]byte{}, err
	}
	defer f.Close()
	var r = bufio.NewReader(f)
	var header [4]byte
	_, err = r.Read(header[:])
	return header, err
}
