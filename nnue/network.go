package nnue

import "github.com/nucleuschess/nucleus/board"

// Network holds the quantized feature-transformer and output-layer
// weights. Immutable after Load (spec §5: "Shared, read-mostly: NNUE
// weights"); every worker reads through the same *Network.
type Network struct {
	FeatureWeights [InputSize * Layer1Size]int16
	FeatureBiases  [Layer1Size]int16
	OutputWeights  [OutputBuckets][2 * Layer1Size]int16
	OutputBiases   [OutputBuckets]int32
}

// RefreshAccumulator rebuilds perspective's half of acc from scratch given
// the full board, equivalent to sfnnue's ComputeAccumulator.
func (n *Network) RefreshAccumulator(acc *Accumulator, perspective board.Color, b *board.Board) {
	var kingSq = b.KingSquare(perspective)
	copy(acc.Values[perspective][:], n.FeatureBiases[:])
	for color := board.White; color <= board.Black; color++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			var bb = b.Planes[color][pt]
			for bb != 0 {
				var sq = board.FirstOne(bb)
				bb &= bb - 1
				n.addFeature(acc, perspective, FeatureIndex(perspective, color, pt, sq, kingSq))
			}
		}
	}
	acc.Computed[perspective] = true
	acc.KingSq[perspective] = kingSq
}

func (n *Network) addFeature(acc *Accumulator, perspective board.Color, idx int) {
	var col = n.FeatureWeights[idx*Layer1Size : idx*Layer1Size+Layer1Size]
	var v = &acc.Values[perspective]
	for i := 0; i < Layer1Size; i++ {
		v[i] += col[i]
	}
}

func (n *Network) subFeature(acc *Accumulator, perspective board.Color, idx int) {
	var col = n.FeatureWeights[idx*Layer1Size : idx*Layer1Size+Layer1Size]
	var v = &acc.Values[perspective]
	for i := 0; i < Layer1Size; i++ {
		v[i] -= col[i]
	}
}

// ApplyUpdates derives dst (the stack's new top) from src: it first copies
// src's values into dst, then applies u's per-perspective diff, dispatching
// to the fused kernel matching the diff's shape (spec §4.4): sub-add for a
// quiet move or non-capturing promotion, sub-sub-add-add for castling,
// bulk-sub for any capture (en passant included: the capturer explodes, so
// a capture only removes features), sub-sub-add for a two-out/one-in
// diff, and a generic fallback otherwise. Grounded on sfnnue's
// ForwardUpdateIncremental/DoubleUpdateIncremental, generalized from its
// fixed two-move fusion to this spec's variable-shape diff.
func (n *Network) ApplyUpdates(src, dst *Accumulator, perspective board.Color, u *Updates) {
	dst.Values[perspective] = src.Values[perspective]

	var subs, adds = u.SubN[perspective], u.AddN[perspective]
	switch {
	case subs == 1 && adds == 1:
		n.subFeature(dst, perspective, u.Sub[perspective][0])
		n.addFeature(dst, perspective, u.Add[perspective][0])
	case subs == 2 && adds == 1:
		n.subFeature(dst, perspective, u.Sub[perspective][0])
		n.subFeature(dst, perspective, u.Sub[perspective][1])
		n.addFeature(dst, perspective, u.Add[perspective][0])
	case subs == 2 && adds == 2:
		n.subFeature(dst, perspective, u.Sub[perspective][0])
		n.subFeature(dst, perspective, u.Sub[perspective][1])
		n.addFeature(dst, perspective, u.Add[perspective][0])
		n.addFeature(dst, perspective, u.Add[perspective][1])
	case adds == 0:
		for i := 0; i < subs; i++ {
			n.subFeature(dst, perspective, u.Sub[perspective][i])
		}
	default:
		for i := 0; i < subs; i++ {
			n.subFeature(dst, perspective, u.Sub[perspective][i])
		}
		for i := 0; i < adds; i++ {
			n.addFeature(dst, perspective, u.Add[perspective][i])
		}
	}

	dst.Computed[perspective] = true
	dst.KingSq[perspective] = src.KingSq[perspective]
}

func clampCReLU(v int16) int32 {
	if v < 0 {
		return 0
	}
	if int32(v) > QA {
		return QA
	}
	return int32(v)
}

// Evaluate runs the quantized output layer over acc and returns a
// centipawn score from stm's point of view. Grounded on sfnnue's
// Transform's squared-CReLU pairwise product (nnue_feature_transformer.go),
// simplified to this spec's single-pass perspective-concatenated output
// layer (no PSQT bucket split — spec §4.4 has no PSQT term).
func (n *Network) Evaluate(acc *Accumulator, stm board.Color, outputBucket int) int {
	var weights = n.OutputWeights[outputBucket]
	var sum int64

	var other = stm.Other()
	for i := 0; i < Layer1Size; i++ {
		var a = clampCReLU(acc.Values[stm][i])
		sum += int64(a*a) * int64(weights[i]) / QA
	}
	for i := 0; i < Layer1Size; i++ {
		var a = clampCReLU(acc.Values[other][i])
		sum += int64(a*a) * int64(weights[Layer1Size+i]) / QA
	}

	sum /= QA
	sum += int64(n.OutputBiases[outputBucket])
	return int(sum * OutputScale / (QA * QB))
}

// EvaluateWithActivation returns the same score as Evaluate plus a 16-bit
// fold of which neurons fired past a quarter of their clipped range across
// both perspectives. Search's small eval cache stores this alongside the
// score, and composes it with the pawn-hash quarter to index the
// correction tables (spec §4.5: "a quarter-hash of the ReLU activation
// pattern of the perspective output").
func (n *Network) EvaluateWithActivation(acc *Accumulator, stm board.Color, outputBucket int) (int, uint16) {
	var score = n.Evaluate(acc, stm, outputBucket)
	var h uint16
	for _, perspective := range [...]board.Color{board.White, board.Black} {
		for i := 0; i < Layer1Size; i++ {
			if clampCReLU(acc.Values[perspective][i]) > QA/4 {
				h ^= uint16(i*7 + int(perspective)*13)
			}
		}
	}
	return score, h
}

// ToInternalScore converts a centipawn NNUE evaluation to the engine's
// internal score unit (spec §4.4).
func ToInternalScore(centipawns int) int {
	return centipawns * InternalScoreNumerator / InternalScoreDenominator
}

// OutputBucketFor selects the output bucket for a position by total piece
// count, the common "fewer pieces -> later-game bucket" scheme (spec §4.4
// names output buckets but leaves the exact partition to the network).
func OutputBucketFor(b *board.Board) int {
	var count = 0
	for color := board.White; color <= board.Black; color++ {
		for pt := board.Pawn; pt <= board.Queen; pt++ {
			count += board.PopCount(b.Planes[color][pt])
		}
	}
	var bucket = (32 - count) * OutputBuckets / 32
	if bucket >= OutputBuckets {
		bucket = OutputBuckets - 1
	}
	if bucket < 0 {
		bucket = 0
	}
	return bucket
}
