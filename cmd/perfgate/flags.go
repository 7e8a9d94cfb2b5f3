package main

import (
	"fmt"
	"strings"

	"perfgate/internal/adapter"
	"perfgate/internal/fold"
)

// adapterValue is a pflag.Value restricted to known adapter kinds.
type adapterValue struct{ kind adapter.Kind }

func (v *adapterValue) String() string { return string(v.kind) }
func (v *adapterValue) Type() string   { return "adapter" }

func (v *adapterValue) Set(s string) error {
	k, err := adapter.ParseKind(s)
	if err != nil {
		return err
	}
	v.kind = k
	return nil
}

// averageValue is a pflag.Value for mean or median.
type averageValue struct{ average adapter.Average }

func (v *averageValue) String() string { return string(v.average) }
func (v *averageValue) Type() string   { return "average" }

func (v *averageValue) Set(s string) error {
	a, err := adapter.ParseAverage(s)
	if err != nil {
		return err
	}
	v.average = a
	return nil
}

// foldValue is a pflag.Value for the fold operation; none leaves it unset.
type foldValue struct{ op *fold.Op }

func (v *foldValue) String() string {
	if v.op == nil {
		return ""
	}
	return string(*v.op)
}

func (v *foldValue) Type() string { return "fold" }

func (v *foldValue) Set(s string) error {
	op, err := fold.ParseOp(s)
	if err != nil {
		return err
	}
	v.op = op
	return nil
}

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

type formatValue struct{ format string }

func (v *formatValue) String() string { return v.format }
func (v *formatValue) Type() string   { return "format" }

func (v *formatValue) Set(s string) error {
	switch f := strings.ToLower(s); f {
	case formatText, formatJSON:
		v.format = f
		return nil
	}
	return fmt.Errorf("unknown format %q (want text or json)", s)
}
