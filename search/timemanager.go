package search

import (
	"context"
	"time"

	"github.com/nucleuschess/nucleus/board"
)

// Limits mirrors the `go` command's UCI fields (spec §6).
type Limits struct {
	Depth          int
	Nodes          int
	MoveTime       int
	WhiteTime      int
	BlackTime      int
	WhiteIncrement int
	BlackIncrement int
	MovesToGo      int
	Infinite       bool
}

// timeManager derives soft/hard deadlines from Limits and cancels the
// search's context when either is reached. Grounded on CounterGo's
// simpleTimeManager (pkg/engine/simple_time_manager.go).
type timeManager struct {
	ctx       context.Context
	start     time.Time
	limits    Limits
	softLimit time.Duration
	hardLimit time.Duration
	cancel    context.CancelFunc
}

func newTimeManager(ctx context.Context, start time.Time, limits Limits, b *board.Board) (context.Context, *timeManager) {
	var tm = &timeManager{start: start, limits: limits}

	if limits.MoveTime > 0 {
		tm.hardLimit = time.Duration(limits.MoveTime) * time.Millisecond
	} else if limits.WhiteTime > 0 || limits.BlackTime > 0 {
		var main, inc time.Duration
		if b.STM == board.White {
			main = time.Duration(limits.WhiteTime) * time.Millisecond
			inc = time.Duration(limits.WhiteIncrement) * time.Millisecond
		} else {
			main = time.Duration(limits.BlackTime) * time.Millisecond
			inc = time.Duration(limits.BlackIncrement) * time.Millisecond
		}
		tm.softLimit, tm.hardLimit = calcLimits(main, inc, limits.MovesToGo)
	}

	var cancel context.CancelFunc
	if tm.hardLimit != 0 {
		ctx, cancel = context.WithDeadline(ctx, start.Add(tm.hardLimit))
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	tm.ctx = ctx
	tm.cancel = cancel
	return ctx, tm
}

func (tm *timeManager) IsDone() bool {
	select {
	case <-tm.ctx.Done():
		return true
	default:
		return false
	}
}

func (tm *timeManager) OnNodesChanged(nodes int) {
	if tm.limits.Nodes > 0 && nodes >= tm.limits.Nodes {
		tm.cancel()
	}
}

func (tm *timeManager) OnIterationComplete(depth, score int) {
	if tm.limits.Infinite {
		return
	}
	if tm.limits.Depth != 0 && depth >= tm.limits.Depth {
		tm.cancel()
		return
	}
	if score >= winIn(depth-5) || score <= lossIn(depth-5) {
		tm.cancel()
		return
	}
	if tm.softLimit != 0 && time.Since(tm.start) >= tm.softLimit {
		tm.cancel()
		return
	}
}

func (tm *timeManager) Close() { tm.cancel() }

func calcLimits(main, inc time.Duration, moves int) (soft, hard time.Duration) {
	const (
		defaultMovesToGo = 40
		moveOverhead     = 300 * time.Millisecond
		minTimeLimit     = 1 * time.Millisecond
	)

	main -= moveOverhead
	if main < minTimeLimit {
		main = minTimeLimit
	}

	if moves == 0 {
		var ideal = main/35 + inc/2
		soft = ideal * 7 / 10
		hard = ideal * 21 / 10
	} else {
		if moves > defaultMovesToGo {
			moves = defaultMovesToGo
		}
		soft = (main/time.Duration(moves+1) + inc) * 7 / 10
		hard = (main/time.Duration(moves+1) + inc) * 21 / 10
	}

	hard = clampDuration(hard, minTimeLimit, main)
	soft = clampDuration(soft, minTimeLimit, main)
	return
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
