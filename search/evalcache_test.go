package search

import "testing"

func TestEvalCacheStoreThenProbe(t *testing.T) {
	var c = newEvalCache(4)
	c.store(0xabcddead00000001, 123, 7)

	score, act, ok := c.probe(0xabcddead00000001)
	if !ok {
		t.Fatal("expected a hit for a stored hash")
	}
	if score != 123 || act != 7 {
		t.Fatalf("probe = (%d, %d), want (123, 7)", score, act)
	}
}

func TestEvalCacheProbeMissOnUnknownHash(t *testing.T) {
	var c = newEvalCache(4)
	c.store(0x1111, 10, 1)

	if _, _, ok := c.probe(0x2222); ok {
		t.Fatal("expected a miss for a hash never stored")
	}
}

func TestEvalCacheClearRemovesEntries(t *testing.T) {
	var c = newEvalCache(4)
	c.store(0x1111, 10, 1)
	c.clear()

	if _, _, ok := c.probe(0x1111); ok {
		t.Fatal("expected clear to remove all entries")
	}
}

func TestEvalCacheKeyCollisionOnSameSlotDifferentTag(t *testing.T) {
	var c = newEvalCache(4)
	// Same low bits (same slot, since mask is 0xf) but a different high-32
	// tag, so the second store evicts the first rather than updating it.
	c.store(0x0000000100000001, 10, 1)
	c.store(0x0000000200000001, 20, 2)

	score, _, ok := c.probe(0x0000000100000001)
	if ok {
		t.Fatalf("expected a miss after the slot was overwritten by a different tag, got score %d", score)
	}

	score, _, ok = c.probe(0x0000000200000001)
	if !ok {
		t.Fatal("expected a hit for the most recently stored entry in the slot")
	}
	if score != 20 {
		t.Fatalf("score = %d, want 20", score)
	}
}
