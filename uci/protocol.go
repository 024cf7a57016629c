// Package uci implements the UCI command loop that drives search.Engine
// (spec §6). Grounded on CounterGo's uci/uciprotocol.go and uci/protocol.go:
// the same field-split command dispatch, the same done-channel/cancel guard
// against overlapping searches, and the same info-line formatting, adapted
// from common.Position/common.SearchParams to this module's board.Board and
// search.SearchParams, and with real ponder support where CounterGo's
// ponderhitCommand only ever returned "not implemented".
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nucleuschess/nucleus/board"
	"github.com/nucleuschess/nucleus/search"
)

const startposFen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Protocol is one UCI session: the engine it drives, its reported options
// and the position/search state a GUI's command stream accumulates.
// Grounded on CounterGo's uciProtocol struct (uci/uciprotocol.go).
type Protocol struct {
	name    string
	author  string
	version string
	options []Option
	engine  *search.Engine

	board       board.Board
	historyKeys map[uint64]int

	thinking int32
	cancel   context.CancelFunc
	done     chan struct{}

	pondering   bool
	ponderStart time.Time
	ponderReal  search.Limits
	ponderTimer *time.Timer
}

// New builds a Protocol over an already-configured search.Engine. options
// is the list reported in response to the `uci` command and consulted by
// `setoption` (spec §6).
func New(name, author, version string, engine *search.Engine, options []Option) *Protocol {
	var b, err = board.ParseFEN(startposFen)
	if err != nil {
		panic(err)
	}
	return &Protocol{
		name:        name,
		author:      author,
		version:     version,
		engine:      engine,
		options:     options,
		board:       b,
		historyKeys: map[uint64]int{},
	}
}

// Run reads UCI commands from r, one per line, until "quit" or EOF. Parse
// or command errors are printed to stdout as an "info string error ..."
// line and do not end the session,
// matching spec §7's "malformed command: report and continue" posture.
func (p *Protocol) Run(r io.Reader) {
	var scanner = bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		var line = scanner.Text()
		if strings.TrimSpace(line) == "quit" {
			return
		}
		if err := p.Handle(line); err != nil {
			fmt.Println("info string error", err)
		}
	}
}

// Handle dispatches a single command line.
func (p *Protocol) Handle(commandLine string) error {
	var fields = strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	var name = fields[0]
	var args = fields[1:]

	if atomic.LoadInt32(&p.thinking) == 1 {
		switch name {
		case "stop":
			p.cancel()
			return nil
		case "ponderhit":
			return p.ponderhitCommand(args)
		}
		return errors.New("search still running")
	}

	switch name {
	case "uci":
		return p.uciCommand(args)
	case "setoption":
		return p.setOptionCommand(args)
	case "isready":
		return p.isReadyCommand(args)
	case "position":
		return p.positionCommand(args)
	case "go":
		return p.goCommand(args)
	case "ucinewgame":
		return p.uciNewGameCommand(args)
	case "ponderhit":
		return errors.New("not pondering")
	}
	return fmt.Errorf("unknown command %q", name)
}

func (p *Protocol) uciCommand(fields []string) error {
	fmt.Printf("id name %s %s\n", p.name, p.version)
	fmt.Printf("id author %s\n", p.author)
	for _, o := range p.options {
		fmt.Println(o.UciString())
	}
	fmt.Println("uciok")
	return nil
}

// setOptionCommand parses "name <N...> value <V...>". Names and values may
// both span multiple fields (spec §6's SyzygyPath/EvalFile take paths that
// can contain spaces on some filesystems), so both sides are rejoined
// rather than taking a single token each like CounterGo's setOptionCommand
// does.
func (p *Protocol) setOptionCommand(fields []string) error {
	if len(fields) < 3 || fields[0] != "name" {
		return errors.New("invalid setoption arguments")
	}
	var valueIndex = -1
	for i, f := range fields {
		if f == "value" {
			valueIndex = i
			break
		}
	}
	var name string
	var value string
	if valueIndex == -1 {
		name = strings.Join(fields[1:], " ")
	} else {
		name = strings.Join(fields[1:valueIndex], " ")
		value = strings.Join(fields[valueIndex+1:], " ")
	}
	for _, o := range p.options {
		if strings.EqualFold(o.UciName(), name) {
			return o.Set(value)
		}
	}
	return fmt.Errorf("unhandled option %q", name)
}

func (p *Protocol) isReadyCommand(fields []string) error {
	p.engine.Prepare()
	fmt.Println("readyok")
	return nil
}

func (p *Protocol) positionCommand(fields []string) error {
	if len(fields) == 0 {
		return errors.New("invalid position command")
	}
	var movesIndex = indexOf(fields, "moves")
	var fen string
	switch fields[0] {
	case "startpos":
		fen = startposFen
	case "fen":
		if movesIndex == -1 {
			fen = strings.Join(fields[1:], " ")
		} else {
			fen = strings.Join(fields[1:movesIndex], " ")
		}
	default:
		return errors.New("unknown position command")
	}

	var b, err = board.ParseFEN(fen)
	if err != nil {
		return fmt.Errorf("invalid fen: %w", err)
	}

	var historyKeys = map[uint64]int{}
	historyKeys[b.Hash]++
	if movesIndex >= 0 {
		for _, lan := range fields[movesIndex+1:] {
			var m, ok = findMove(&b, lan)
			if !ok {
				return fmt.Errorf("illegal or malformed move %q", lan)
			}
			var nb, legal = b.Forward(m)
			if !legal {
				return fmt.Errorf("illegal move %q", lan)
			}
			b = nb
			historyKeys[b.Hash]++
		}
	}

	p.board = b
	p.historyKeys = historyKeys
	return nil
}

// findMove matches a LAN token (e.g. "e2e4", "e7e8q") against the board's
// legal moves. board has no LAN parser of its own, so this walks the legal
// move list and compares against Move.String(), the same format a GUI
// sends (spec §6's `position ... moves ...`).
func findMove(b *board.Board, lan string) (board.Move, bool) {
	var buf [board.MaxMoves]board.Move
	for _, m := range b.GenerateMoves(board.ModeAll, buf[:0]) {
		if m.String() == lan {
			return m, true
		}
	}
	return board.MoveEmpty, false
}

func (p *Protocol) goCommand(fields []string) error {
	var limits = parseLimits(fields)

	var searchLimits = limits
	if indexOf(fields, "ponder") != -1 {
		p.pondering = true
		p.ponderStart = time.Now()
		p.ponderReal = limits
		searchLimits.Infinite = true
	}

	var ctx, cancel = context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	atomic.StoreInt32(&p.thinking, 1)

	var params = search.SearchParams{
		Board:       p.board,
		Limits:      searchLimits,
		SearchMoves: parseSearchMoves(fields, &p.board),
		HistoryKeys: p.historyKeys,
	}
	p.engine.Progress = func(info search.Info) {
		fmt.Println(infoToUci(info))
	}

	go func() {
		var result = p.engine.Search(ctx, params)
		if p.ponderTimer != nil {
			p.ponderTimer.Stop()
			p.ponderTimer = nil
		}
		p.pondering = false
		fmt.Println(infoToUci(result.Info))
		if result.Ponder != board.MoveEmpty {
			fmt.Printf("bestmove %v ponder %v\n", result.BestMove, result.Ponder)
		} else {
			fmt.Printf("bestmove %v\n", result.BestMove)
		}
		atomic.StoreInt32(&p.thinking, 0)
		close(p.done)
	}()
	return nil
}

// ponderhitCommand converts a running "go ponder" search from its
// infinite-until-stop mode into a real time budget. The worker pool's own
// timeManager was started with Infinite:true, so it never self-stops; this
// schedules the cancellation the real clock would have triggered had the
// search started under normal limits at ponderhit, which is the moment the
// GUI confirms its guessed move was actually played. Grounded on the shape
// of CounterGo's stopCommand (cancel the running context); unlike
// CounterGo's ponderhitCommand, this one actually continues the search
// instead of returning "not implemented".
func (p *Protocol) ponderhitCommand(fields []string) error {
	if !p.pondering {
		return errors.New("not pondering")
	}
	p.pondering = false

	p.ponderTimer = newLimitsTimer(p.ponderReal, p.board.STM, p.cancel)
	return nil
}

func newLimitsTimer(limits search.Limits, stm board.Color, cancel context.CancelFunc) *time.Timer {
	var budget time.Duration
	switch {
	case limits.MoveTime > 0:
		budget = time.Duration(limits.MoveTime) * time.Millisecond
	case stm == board.White && limits.WhiteTime > 0:
		budget = time.Duration(limits.WhiteTime) * time.Millisecond / 20
	case stm == board.Black && limits.BlackTime > 0:
		budget = time.Duration(limits.BlackTime) * time.Millisecond / 20
	default:
		return nil
	}
	return time.AfterFunc(budget, cancel)
}

func (p *Protocol) uciNewGameCommand(fields []string) error {
	p.engine.Clear()
	p.historyKeys = map[uint64]int{}
	return nil
}

func infoToUci(info search.Info) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d", info.Depth)
	if info.Score.IsMate {
		fmt.Fprintf(&sb, " score mate %d", info.Score.Mate)
	} else {
		fmt.Fprintf(&sb, " score cp %d", info.Score.Centipawns)
	}
	var timeMs = info.Time.Milliseconds()
	var nps = info.Nodes * 1000 / (timeMs + 1)
	fmt.Fprintf(&sb, " nodes %d time %d nps %d", info.Nodes, timeMs, nps)
	if len(info.PV) != 0 {
		sb.WriteString(" pv")
		for _, m := range info.PV {
			sb.WriteString(" ")
			sb.WriteString(m.String())
		}
	}
	return sb.String()
}

func parseLimits(fields []string) (result search.Limits) {
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "ponder":
			// handled by goCommand before searchLimits is built; no Limits field needed.
		case "wtime":
			result.WhiteTime, _ = atoiAt(fields, &i)
		case "btime":
			result.BlackTime, _ = atoiAt(fields, &i)
		case "winc":
			result.WhiteIncrement, _ = atoiAt(fields, &i)
		case "binc":
			result.BlackIncrement, _ = atoiAt(fields, &i)
		case "movestogo":
			result.MovesToGo, _ = atoiAt(fields, &i)
		case "depth":
			result.Depth, _ = atoiAt(fields, &i)
		case "nodes":
			result.Nodes, _ = atoiAt(fields, &i)
		case "movetime":
			result.MoveTime, _ = atoiAt(fields, &i)
		case "infinite":
			result.Infinite = true
		case "searchmoves":
			// consumed separately by parseSearchMoves; skip to end.
			i = len(fields)
		}
	}
	return
}

func atoiAt(fields []string, i *int) (int, error) {
	if *i+1 >= len(fields) {
		return 0, errors.New("missing value")
	}
	*i++
	return strconv.Atoi(fields[*i])
}

// parseSearchMoves reads the trailing "searchmoves e2e4 g1f3 ..." clause
// (spec §6), resolving each LAN token against b's legal moves and silently
// dropping tokens that don't parse or aren't legal.
func parseSearchMoves(fields []string, b *board.Board) []board.Move {
	var idx = indexOf(fields, "searchmoves")
	if idx == -1 {
		return nil
	}
	var out []board.Move
	for _, lan := range fields[idx+1:] {
		if m, ok := findMove(b, lan); ok {
			out = append(out, m)
		}
	}
	return out
}

func indexOf(fields []string, value string) int {
	for i, f := range fields {
		if f == value {
			return i
		}
	}
	return -1
}
