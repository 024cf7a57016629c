package search

import "testing"

func TestTableInsertFind(t *testing.T) {
	var tbl = NewTable(1)
	const hash = 0xdeadbeefcafebabe
	tbl.Insert(hash, 12, 57, BoundExact, 0)

	depth, score, bound, _, ok := tbl.Find(hash)
	if !ok {
		t.Fatal("expected a hit for the inserted hash")
	}
	if depth != 12 || score != 57 || bound != BoundExact {
		t.Fatalf("got depth=%d score=%d bound=%v, want 12 57 BoundExact", depth, score, bound)
	}
}

func TestTableFindMissOnUnknownHash(t *testing.T) {
	var tbl = NewTable(1)
	tbl.Insert(0x1111, 5, 10, BoundLower, 0)

	if _, _, _, _, ok := tbl.Find(0x2222); ok {
		t.Fatal("expected a miss for a hash never inserted")
	}
}

func TestTableClearRemovesEntries(t *testing.T) {
	var tbl = NewTable(1)
	tbl.Insert(0x1111, 5, 10, BoundLower, 0)
	tbl.Clear()

	if _, _, _, _, ok := tbl.Find(0x1111); ok {
		t.Fatal("expected Clear to remove all entries")
	}
}

func TestTableAgeNextSearchWraps(t *testing.T) {
	var tbl = NewTable(1)
	tbl.date = 0x7ff
	tbl.AgeNextSearch()
	if tbl.date != 0 {
		t.Fatalf("date = %d, want wraparound to 0", tbl.date)
	}
}
