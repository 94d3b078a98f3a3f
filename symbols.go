package nanocalc

import (
	"math"
	"math/big"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/zephyrtronium/bigfloat"
)

// Symbol is a named value in a symbol table.
type Symbol struct {
	Name  string
	Value float64
	// Constant symbols cannot be redefined.
	Constant bool
}

// SymbolTable maps variable names to values. A SymbolTable is not safe for
// concurrent use.
type SymbolTable struct {
	syms map[string]*Symbol
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{syms: make(map[string]*Symbol)}
}

// constprec is the precision in bits used to compute constants before they
// are rounded to float64.
const constprec = 128

func bigconst(f func(z *big.Float) *big.Float) float64 {
	v, _ := f(new(big.Float).SetPrec(constprec)).Float64()
	return v
}

// Constants are the symbols added by AddConstants.
var Constants = []Symbol{
	{Name: "pi", Value: bigconst(bigfloat.Pi), Constant: true},
	{Name: "e", Value: bigconst(func(z *big.Float) *big.Float {
		one := new(big.Float).SetPrec(constprec).SetInt64(1)
		return bigfloat.Exp(z, one)
	}), Constant: true},
	{Name: "epsilon", Value: math.Nextafter(1, 2) - 1, Constant: true},
}

// AddConstants adds the predefined constants to t. Returns t for chaining.
func (t *SymbolTable) AddConstants() *SymbolTable {
	for _, c := range Constants {
		c := c
		t.syms[c.Name] = &c
	}
	return t
}

// Define sets the value of a variable, creating it if needed. Defining a
// constant is an error.
func (t *SymbolTable) Define(name string, value float64) error {
	if s := t.syms[name]; s != nil {
		if s.Constant {
			return &ConstantError{Name: name}
		}
		s.Value = value
		return nil
	}
	t.syms[name] = &Symbol{Name: name, Value: value}
	return nil
}

// Lookup returns the value of a symbol and whether it exists.
func (t *SymbolTable) Lookup(name string) (float64, bool) {
	s := t.syms[name]
	if s == nil {
		return 0, false
	}
	return s.Value, true
}

// Has returns whether the symbol exists.
func (t *SymbolTable) Has(name string) bool {
	return t.syms[name] != nil
}

// Len returns the number of symbols.
func (t *SymbolTable) Len() int {
	return len(t.syms)
}

// Symbols returns copies of all symbols sorted by name.
func (t *SymbolTable) Symbols() []Symbol {
	names := make([]string, 0, len(t.syms))
	for k := range t.syms {
		names = append(names, k)
	}
	sortstrs(names)
	r := make([]Symbol, len(names))
	for i, k := range names {
		r[i] = *t.syms[k]
	}
	return r
}

// Clone creates an independent copy of t.
func (t *SymbolTable) Clone() *SymbolTable {
	n := &SymbolTable{syms: make(map[string]*Symbol, len(t.syms))}
	for k, v := range t.syms {
		s := *v
		n.syms[k] = &s
	}
	return n
}

// IsName returns whether s can name a variable: a letter or underscore
// followed by letters, digits, and underscores, other than a word operator or
// a spelling of infinity.
func IsName(s string) bool {
	if s == "" || isWordOp(s) || s == "inf" || s == "Inf" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r != '_' && !unicode.IsLetter(r) {
		return false
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ConstantError is an error from an attempt to change a constant.
type ConstantError struct {
	// Name is the constant's name.
	Name string
}

func (err *ConstantError) Error() string {
	return "cannot assign to constant " + strconv.Quote(err.Name)
}
