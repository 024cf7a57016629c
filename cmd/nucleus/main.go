package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/nucleuschess/nucleus/nnue"
	"github.com/nucleuschess/nucleus/search"
	"github.com/nucleuschess/nucleus/tablebase"
	"github.com/nucleuschess/nucleus/uci"
)

const (
	name    = "Nucleus"
	author  = "Nucleus contributors"
	version = "dev"
)

var flgEval string

// loadNetwork opens path and validates it as a CBNF network (spec §6); on
// any failure it warns and falls back to nnue.DefaultNetwork rather than
// exiting, matching spec §7's "missing or invalid EvalFile: warn, continue
// with the built-in network" posture.
func loadNetwork(path string) *nnue.Network {
	if path == "" {
		return nnue.DefaultNetwork
	}
	var f, err = os.Open(path)
	if err != nil {
		log.Printf("nnue: %v, falling back to built-in network", err)
		return nnue.DefaultNetwork
	}
	defer f.Close()
	net, err := nnue.Load(f)
	if err != nil {
		log.Printf("nnue: %v, falling back to built-in network", err)
		return nnue.DefaultNetwork
	}
	return net
}

func main() {
	flag.StringVar(&flgEval, "eval", "", "path to a CBNF network file")
	flag.Parse()

	var eng = search.NewEngine(loadNetwork(flgEval))
	eng.Options.EvalFile = flgEval

	var tables = tablebase.New()

	var protocol = uci.New(name, author, version, eng, []uci.Option{
		&uci.IntOption{Name: "Hash", Min: 1, Max: 1 << 16, Value: &eng.Options.Hash},
		&uci.IntOption{Name: "Threads", Min: 1, Max: runtime.NumCPU(), Value: &eng.Options.Threads},
		&uci.StringOption{
			Name:    "SyzygyPath",
			Value:   &eng.Options.SyzygyPath,
			OnSet: func(path string) error {
				if err := tables.Init(path); err != nil {
					return fmt.Errorf("tablebase: %w", err)
				}
				if tables.Loaded() {
					eng.Tablebase = tables
				} else {
					eng.Tablebase = nil
				}
				return nil
			},
		},
		&uci.StringOption{
			Name:  "EvalFile",
			Value: &eng.Options.EvalFile,
			OnSet: func(path string) error {
				eng.SetNetwork(loadNetwork(path))
				return nil
			},
		},
		&uci.BoolOption{Name: "AspirationWindows", Value: &eng.Options.AspirationWindows},
		&uci.BoolOption{Name: "NullMovePruning", Value: &eng.Options.NullMovePruning},
		&uci.BoolOption{Name: "ReverseFutility", Value: &eng.Options.ReverseFutility},
		&uci.BoolOption{Name: "Probcut", Value: &eng.Options.Probcut},
		&uci.BoolOption{Name: "SingularExt", Value: &eng.Options.SingularExt},
		&uci.BoolOption{Name: "Lmp", Value: &eng.Options.Lmp},
		&uci.BoolOption{Name: "Futility", Value: &eng.Options.Futility},
		&uci.BoolOption{Name: "See", Value: &eng.Options.See},
		&uci.BoolOption{Name: "CheckExt", Value: &eng.Options.CheckExt},
	})

	protocol.Run(os.Stdin)
}
