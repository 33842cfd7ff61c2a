package object

import (
	"strings"

	"pyindex/internal/engine/pysyntax"
)

type FormalParamKind int

const (
	PosOnly FormalParamKind = iota
	Normal
	KwOnly
)

func (k FormalParamKind) String() string {
	switch k {
	case PosOnly:
		return "posonly"
	case Normal:
		return "normal"
	case KwOnly:
		return "kwonly"
	}
	return "unknown"
}

// FormalParam is a classified view of one named parameter. Variadic
// parameters are not included; see Vararg and KwargsName.
type FormalParam struct {
	Name       string
	HasDefault bool
	Kind       FormalParamKind
}

// FormalParams classifies the function's parameters in declaration order:
// positional-only, then normal, then keyword-only.
//
// Positional defaults bind to the trailing normal parameters first and spill
// over onto the trailing positional-only ones. A keyword-only parameter at
// index i counts as defaulted only when i > len(kwonly) - KwDefaults.
func (f *Function) FormalParams() []FormalParam {
	return classify(f.args)
}

func classify(args pysyntax.Arguments) []FormalParam {
	defCnt := args.Defaults
	normDefCnt := min(len(args.Args), defCnt)
	posonlyDefCnt := min(len(args.PosOnly), defCnt-normDefCnt)

	out := make([]FormalParam, 0, len(args.PosOnly)+len(args.Args)+len(args.KwOnly))
	for i, a := range args.PosOnly {
		out = append(out, FormalParam{
			Name:       a.Name,
			HasDefault: i >= len(args.PosOnly)-posonlyDefCnt,
			Kind:       PosOnly,
		})
	}
	for i, a := range args.Args {
		out = append(out, FormalParam{
			Name:       a.Name,
			HasDefault: i >= len(args.Args)-normDefCnt,
			Kind:       Normal,
		})
	}
	for i, a := range args.KwOnly {
		out = append(out, FormalParam{
			Name:       a.Name,
			HasDefault: i > len(args.KwOnly)-args.KwDefaults,
			Kind:       KwOnly,
		})
	}
	return out
}

// FormatArgs renders the parameter list as Python source, e.g.
// "a, /, b=1, *args, c, **kw". Defaults are printed as written.
func (f *Function) FormatArgs() string {
	args := f.args
	var parts []string
	param := func(a pysyntax.Arg) string {
		s := a.Name
		if a.Annotation != "" {
			s += ": " + a.Annotation
		}
		if a.HasDefault() {
			if a.Annotation != "" {
				s += " = " + a.Default
			} else {
				s += "=" + a.Default
			}
		}
		return s
	}

	for _, a := range args.PosOnly {
		parts = append(parts, param(a))
	}
	if len(args.PosOnly) > 0 {
		parts = append(parts, "/")
	}
	for _, a := range args.Args {
		parts = append(parts, param(a))
	}
	switch {
	case args.Vararg != nil:
		parts = append(parts, "*"+param(*args.Vararg))
	case len(args.KwOnly) > 0:
		parts = append(parts, "*")
	}
	for _, a := range args.KwOnly {
		parts = append(parts, param(a))
	}
	if args.Kwarg != nil {
		parts = append(parts, "**"+param(*args.Kwarg))
	}
	return strings.Join(parts, ", ")
}
