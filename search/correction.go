package search

import "github.com/nucleuschess/nucleus/board"

// correctionMax bounds how far a correction entry may nudge a static eval;
// correctionScale is the fixed-point scale the table's int16 cells are
// stored in (an eval-correction analog of history.go's historyMax/512
// scaling; CounterGo has no correction table to port directly since its
// hand evaluator has no learned bias to correct for).
const correctionMax = 1 << 12
const correctionScale = 256

// correctionTable nudges a static NNUE eval toward what search has actually
// found true scores to be at similar pawn structures, indexed by composing
// the eval cache's activation quarter-hash with the position's pawn-hash
// quarter (spec §4.5).
type correctionTable struct {
	table [1 << 16]int16
}

func newCorrectionTable() *correctionTable {
	return &correctionTable{}
}

func (c *correctionTable) clear() {
	for i := range c.table {
		c.table[i] = 0
	}
}

// featureIndex composes the eval cache's activation quarter-hash with the
// pawn-hash quarter into a single correction-table index (spec §4.5).
func featureIndex(actQuarter uint16, pawnHash uint64) uint16 {
	return actQuarter ^ uint16(pawnHash>>48)
}

func (c *correctionTable) Adjust(idx uint16, rawEval int) int {
	return rawEval + int(c.table[idx])/correctionScale
}

// Update moves the correction entry toward the gap between the raw static
// eval and the true score the search settled on for this node, scaled by
// depth the same way history.go's updateHistory scales its bonus by
// depth*depth.
func (c *correctionTable) Update(idx uint16, rawEval, trueScore, depth int) {
	var bonus = board.Min(depth*depth, 400)
	var target = (trueScore - rawEval) * correctionScale
	var slot = &c.table[idx]
	var newVal = int(*slot) + (target-int(*slot))*bonus/1024
	if newVal > correctionMax {
		newVal = correctionMax
	}
	if newVal < -correctionMax {
		newVal = -correctionMax
	}
	*slot = int16(newVal)
}
