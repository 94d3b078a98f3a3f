package nanocalc

import (
	"strconv"
	"unicode"
)

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsectx) parsectx
}

// parsectx holds the state of one parse. It is also a ParseOption, which is
// how presets work.
type parsectx struct {
	// names counts the variable references seen this parse. Assignment
	// targets are counted only where they are also read.
	names map[string]int
	// assigned is the set of variables assigned this parse.
	assigned map[string]bool
	// funcs maps names to the functions they call. A nil Func means the name
	// is a variable.
	funcs map[string]Func
	// syms, if not nil, decides whether an unknown name followed by a
	// bracket is a variable times a term or a call to an unknown function.
	syms *SymbolTable
	// resv is a bracketed term parsed as the single argument of a niladic
	// function, waiting to become the right side of an implicit
	// multiplication: zero(x) -> zero() * x.
	resv *node
	// wseof holds the whitespace runes that end the expression.
	wseof string
	// ceof and seof allow a comma or semicolon, respectively, to end the
	// expression.
	ceof, seof bool
	// nodefaults is set once every builtin name has an entry in funcs.
	nodefaults bool
	// shared means funcs belongs to a preset and must be copied before any
	// change.
	shared bool
}

// setfuncs copies fns into the function table, copying the table first if it
// came from a preset.
func (p parsectx) setfuncs(fns map[string]Func) parsectx {
	if p.funcs == nil || p.shared {
		m := make(map[string]Func, len(p.funcs)+len(fns))
		for k, v := range p.funcs {
			m[k] = v
		}
		p.funcs = m
		p.shared = false
	}
	for k, v := range fns {
		p.funcs[k] = v
	}
	if !p.nodefaults {
		n := 0
		for k := range globalfuncs {
			if _, ok := p.funcs[k]; ok {
				n++
			}
		}
		p.nodefaults = n == len(globalfuncs)
	}
	return p
}

// funcsopt sets or disables functions.
type funcsopt map[string]Func

func (o funcsopt) parseOption(p parsectx) parsectx {
	return p.setfuncs(o)
}

// ParseFunc sets a function for parsing. To parse name as a variable instead,
// pass nil for fn.
func ParseFunc(name string, fn Func) ParseOption {
	return funcsopt{name: fn}
}

// ParseFuncs sets a group of functions for parsing. A nil Func makes its name
// parse as a variable.
func ParseFuncs(fns map[string]Func) ParseOption {
	// Copy so that later changes to fns don't leak into parsing.
	m := make(funcsopt, len(fns))
	for k, v := range fns {
		m[k] = v
	}
	return m
}

// DisableDefaultFuncs disables all builtin functions during parsing. Their
// names are parsed as variables instead.
func DisableDefaultFuncs() ParseOption {
	return disablefns
}

var disablefns = func() funcsopt {
	m := make(funcsopt, len(globalfuncs))
	for k := range globalfuncs {
		m[k] = nil
	}
	return m
}()

// SymbolsOption is both a ParseOption and a ContextOption.
type SymbolsOption interface {
	ParseOption
	ContextOption
}

type symsopt struct {
	t *SymbolTable
}

// WithSymbols uses a symbol table. While parsing, a name directly followed by
// an open bracket must be a function or a symbol in t. In a context, t holds
// the variables that expressions read and assign.
func WithSymbols(t *SymbolTable) SymbolsOption {
	return symsopt{t}
}

func (o symsopt) parseOption(p parsectx) parsectx {
	p.syms = o.t
	return p
}

type stopopt struct {
	ws   string
	c, s bool
}

// StopOn tells the parser to end the expression at any of the given runes.
// Each rune must be a comma, semicolon, or whitespace. Whitespace never ends
// an expression where a term is expected, such as after an operator, and
// separators inside function argument lists belong to the call.
//
// StopOn replaces any previous StopOn, including one in a preset. With no
// arguments, the parser reads to EOF.
func StopOn(chars ...rune) ParseOption {
	var o stopopt
	var ws []rune
	for _, r := range chars {
		switch {
		case r == ',':
			o.c = true
		case r == ';':
			o.s = true
		case unicode.IsSpace(r):
			if !containsRune(ws, r) {
				ws = append(ws, r)
			}
		default:
			panic("nanocalc: cannot stop on " + strconv.QuoteRune(r))
		}
	}
	o.ws = string(ws)
	return o
}

func containsRune(rs []rune, r rune) bool {
	for _, c := range rs {
		if c == r {
			return true
		}
	}
	return false
}

func (o stopopt) parseOption(p parsectx) parsectx {
	p.wseof, p.ceof, p.seof = o.ws, o.c, o.s
	return p
}

// ParsingPreset bundles options for reuse across many calls to Parse. A preset
// must come before any other option in a call, and it panics otherwise.
// Options after a preset apply on top of it without modifying it.
func ParsingPreset(opts ...ParseOption) ParseOption {
	var p parsectx
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	if p.funcs != nil {
		// Fill in the defaults once here rather than on every parse.
		for k, v := range globalfuncs {
			if _, ok := p.funcs[k]; !ok {
				p.funcs[k] = v
			}
		}
		p.nodefaults = true
	}
	return presetopt{p}
}

type presetopt struct {
	p parsectx
}

func (o presetopt) parseOption(p parsectx) parsectx {
	if p.funcs != nil || p.syms != nil || p.wseof != "" || p.ceof || p.seof {
		panic("nanocalc: preset applied to non-default parse config")
	}
	p.syms = o.p.syms
	p.wseof, p.ceof, p.seof = o.p.wseof, o.p.ceof, o.p.seof
	if o.p.funcs != nil {
		// Later options copy the table before changing it.
		p.funcs = o.p.funcs
		p.nodefaults = o.p.nodefaults
		p.shared = true
	}
	return p
}
