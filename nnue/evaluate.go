package nnue

import "github.com/nucleuschess/nucleus/board"

// State bundles one search worker's private NNUE machinery: the shared
// immutable network, its own accumulator stack, and its own refresh
// table. Never shared across goroutines (spec §5).
type State struct {
	net  *Network
	acc  *Stack
	refr *RefreshTable
}

func NewState(net *Network) *State {
	return &State{net: net, acc: NewStack(), refr: NewRefreshTable()}
}

// Reset rebuilds both perspectives of the bottom-of-stack accumulator from
// b, discarding any deeper ply state. Called at the root of a new search.
func (s *State) Reset(b *board.Board) {
	s.acc.Reset()
	var top = s.acc.Current()
	s.refr.Refresh(s.net, top, board.White, b)
	s.refr.Refresh(s.net, top, board.Black, b)
}

// Push advances the accumulator stack by one ply for the move that
// transformed `before` into `after`, applying the minimal sub/add diff per
// perspective, or a full bucket refresh where the move crossed that
// perspective's king bucket (spec §4.4).
func (s *State) Push(before, after *board.Board, m board.Move) {
	var u = BuildUpdates(before, after, m)
	var src = s.acc.Current()
	var dst = s.acc.Push()

	for _, perspective := range [...]board.Color{board.White, board.Black} {
		if u.Refresh[perspective] {
			s.refr.Refresh(s.net, dst, perspective, after)
			continue
		}
		s.net.ApplyUpdates(src, dst, perspective, &u)
	}
}

// Pop retreats the accumulator stack by one ply, mirroring a search
// worker's return from recursion after forward().
func (s *State) Pop() {
	s.acc.Pop()
}

// Evaluate returns the side-to-move-relative centipawn score for b using
// the current top-of-stack accumulator, which callers must keep in sync
// with b via Reset/Push/Pop.
func (s *State) Evaluate(b *board.Board) int {
	var bucket = OutputBucketFor(b)
	return s.net.Evaluate(s.acc.Current(), b.STM, bucket)
}

// EvaluateWithActivation is Evaluate plus the activation quarter-hash
// search's eval cache and correction tables key on (spec §4.5).
func (s *State) EvaluateWithActivation(b *board.Board) (int, uint16) {
	var bucket = OutputBucketFor(b)
	return s.net.EvaluateWithActivation(s.acc.Current(), b.STM, bucket)
}
