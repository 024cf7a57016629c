package uci

import (
	"fmt"
	"strconv"
)

// Option is a single UCI-reported engine option (spec §6's `setoption name
// ... value ...`). Grounded on CounterGo's uci/option.go BoolOption/IntOption,
// extended with StringOption for path-valued options (SyzygyPath, EvalFile)
// CounterGo never needed.
type Option interface {
	UciName() string
	UciString() string
	Set(s string) error
}

type BoolOption struct {
	Name  string
	Value *bool
}

func (o *BoolOption) UciName() string { return o.Name }

func (o *BoolOption) UciString() string {
	return fmt.Sprintf("option name %v type check default %v", o.Name, *o.Value)
}

func (o *BoolOption) Set(s string) error {
	var v, err = strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("option %v: %w", o.Name, err)
	}
	*o.Value = v
	return nil
}

type IntOption struct {
	Name     string
	Min, Max int
	Value    *int
}

func (o *IntOption) UciName() string { return o.Name }

func (o *IntOption) UciString() string {
	return fmt.Sprintf("option name %v type spin default %v min %v max %v",
		o.Name, *o.Value, o.Min, o.Max)
}

func (o *IntOption) Set(s string) error {
	var v, err = strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("option %v: %w", o.Name, err)
	}
	if v < o.Min || v > o.Max {
		return fmt.Errorf("option %v: %v out of range [%v, %v]", o.Name, v, o.Min, o.Max)
	}
	*o.Value = v
	return nil
}

// StringOption is a free-form path or filename option (spec §6:
// `setoption name SyzygyPath value ...`, `setoption name EvalFile value ...`).
// Set's value may legitimately contain spaces; the protocol layer joins
// every field after "value" before calling Set, for every option type.
type StringOption struct {
	Name    string
	Default string
	Value   *string
	// OnSet, if non-nil, runs after Value is updated, letting the caller
	// react to the new value (e.g. re-running tablebase.Init).
	OnSet func(string) error
}

func (o *StringOption) UciName() string { return o.Name }

func (o *StringOption) UciString() string {
	return fmt.Sprintf("option name %v type string default %v", o.Name, o.Default)
}

func (o *StringOption) Set(s string) error {
	*o.Value = s
	if o.OnSet != nil {
		return o.OnSet(s)
	}
	return nil
}
