package nanocalc

import (
	"math"
	"strconv"
)

// Func is a function from reals to reals. Functions may but generally should
// not look up variables.
type Func interface {
	// Call evaluates the function. The function arguments are passed in invoc,
	// which has a length for which CanCall returned true. Call may modify the
	// elements of invoc.
	Call(ctx *Context, invoc []float64) (float64, error)

	// CanCall returns whether the function can be called with n arguments.
	// This controls how the expression parser handles instances of this
	// function:
	//
	// 	1.	If a bracketed list of n > 0 expressions follows a function, the
	//		parser treats it as an argument list if CanCall(n). (If n is 1 and
	//		!CanCall(1) and CanCall(0), then the list is a multiplication;
	//		otherwise, it is rejected.)
	//
	// 	2.	If a bare term follows a function and CanCall(1), then the parser
	//		treats the term as an argument to the function. E.g., "exp x" is
	//		parsed as "exp(x)". (If !CanCall(1), then it is a multiplication.)
	CanCall(n int) bool
}

// Selector is a Func which evaluates only some of its arguments. The evaluator
// evaluates the first argument, passes it to Select, and evaluates only the
// argument at the returned index as the result. Call is used only by callers
// that have already evaluated every argument.
type Selector interface {
	Func
	Select(first float64) int
}

// arityFunc is implemented by functions that can describe their arity.
type arityFunc interface {
	// Arity returns the minimum and maximum numbers of arguments. A negative
	// maximum means no limit.
	Arity() (min, max int)
}

// arity describes the numbers of arguments fn accepts, or returns the empty
// string if fn doesn't say.
func arity(fn Func) string {
	a, ok := fn.(arityFunc)
	if !ok {
		return ""
	}
	min, max := a.Arity()
	switch {
	case max < 0:
		return "at least " + strconv.Itoa(min)
	case min == max:
		return strconv.Itoa(min)
	default:
		return strconv.Itoa(min) + " to " + strconv.Itoa(max)
	}
}

var globalfuncs = map[string]Func{
	// trigonometry, in radians
	"sin":      Monadic(math.Sin),
	"cos":      Monadic(math.Cos),
	"tan":      Monadic(math.Tan),
	"asin":     Monadic(math.Asin),
	"acos":     Monadic(math.Acos),
	"atan":     Monadic(math.Atan),
	"atan2":    Dyadic(math.Atan2),
	"sinh":     Monadic(math.Sinh),
	"cosh":     Monadic(math.Cosh),
	"tanh":     Monadic(math.Tanh),
	"asinh":    Monadic(math.Asinh),
	"acosh":    Monadic(math.Acosh),
	"atanh":    Monadic(math.Atanh),
	"sec":      Monadic(func(x float64) float64 { return 1 / math.Cos(x) }),
	"csc":      Monadic(func(x float64) float64 { return 1 / math.Sin(x) }),
	"cot":      Monadic(func(x float64) float64 { return math.Cos(x) / math.Sin(x) }),
	"hyp":      Dyadic(math.Hypot),
	"rad2deg":  Monadic(func(x float64) float64 { return x * 180 / math.Pi }),
	"deg2rad":  Monadic(func(x float64) float64 { return x * math.Pi / 180 }),
	"deg2grad": Monadic(func(x float64) float64 { return x * 10 / 9 }),
	"grad2deg": Monadic(func(x float64) float64 { return x * 9 / 10 }),

	// general
	"abs":    Monadic(math.Abs),
	"min":    Variadic(1, minimum),
	"max":    Variadic(1, maximum),
	"avg":    Variadic(1, func(v []float64) float64 { return sum(v) / float64(len(v)) }),
	"sum":    Variadic(1, sum),
	"ceil":   Monadic(math.Ceil),
	"floor":  Monadic(math.Floor),
	"round":  Monadic(math.Round),
	"roundn": Dyadic(roundn),
	"trunc":  Monadic(math.Trunc),
	"frac":   Monadic(func(x float64) float64 { return x - math.Trunc(x) }),
	"sgn":    Monadic(sgn),
	"exp":    Monadic(math.Exp),
	"sqrt":   Monadic(math.Sqrt),
	"root":   Dyadic(root),
	"log":    Monadic(math.Log),
	"ln":     Monadic(math.Log),
	"log10":  Monadic(math.Log10),
	"log2":   Monadic(math.Log2),
	"logn":   Dyadic(func(x, n float64) float64 { return math.Log(x) / math.Log(n) }),
	"clamp":  Nary(3, func(v []float64) float64 { return clamp(v[0], v[1], v[2]) }),

	// logic
	"if":      ifFunc{},
	"inrange": Nary(3, func(v []float64) float64 { return truth(v[0] <= v[1] && v[1] <= v[2]) }),
	"shl":     Dyadic(func(x, n float64) float64 { return shift(x, n) }),
	"shr":     Dyadic(func(x, n float64) float64 { return shift(x, -n) }),
}

// Builtins returns the names of the default functions.
func Builtins() []string {
	names := make([]string, 0, len(globalfuncs))
	for k := range globalfuncs {
		names = append(names, k)
	}
	sortstrs(names)
	return names
}

// IsBuiltin returns whether name is a default function.
func IsBuiltin(name string) bool {
	return globalfuncs[name] != nil
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

func minimum(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maximum(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Max(m, x)
	}
	return m
}

func sgn(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return x
	}
}

// roundn rounds x to n decimal places.
func roundn(x, n float64) float64 {
	p := math.Pow(10, math.Trunc(n))
	return math.Round(x*p) / p
}

// root computes the real n-th root of x. Negative x has a real root only for
// odd integer n.
func root(x, n float64) float64 {
	if x < 0 && n == math.Trunc(n) && math.Mod(n, 2) != 0 {
		return -math.Pow(-x, 1/n)
	}
	return math.Pow(x, 1/n)
}

func clamp(lo, x, hi float64) float64 {
	switch {
	case x < lo:
		return lo
	case x > hi:
		return hi
	default:
		return x
	}
}

// shift shifts the integer part of x left by the integer part of n, or right
// if n is negative.
func shift(x, n float64) float64 {
	v, k := int64(x), int64(n)
	if k >= 0 {
		return float64(v << uint64(k))
	}
	return float64(v >> uint64(-k))
}

// domain checks a function result for NaN produced from arguments that are
// not NaN, which means an argument was outside the function's domain.
func domain(r float64, invoc []float64) error {
	if !math.IsNaN(r) {
		return nil
	}
	for _, x := range invoc {
		if math.IsNaN(x) {
			return nil
		}
	}
	if len(invoc) == 0 {
		return &DomainError{X: math.NaN()}
	}
	return &DomainError{X: invoc[0], Arg: 1}
}

type monadic struct {
	f func(float64) float64
}

func (m monadic) Call(ctx *Context, invoc []float64) (float64, error) {
	r := m.f(invoc[0])
	return r, domain(r, invoc)
}

func (m monadic) CanCall(n int) bool {
	return n == 1
}

func (m monadic) Arity() (int, int) {
	return 1, 1
}

// Monadic wraps a function of one variable into a Func. If f returns NaN for
// an argument that is not NaN, the call fails with a DomainError.
func Monadic(f func(float64) float64) Func {
	return monadic{f}
}

type dyadic struct {
	f func(x, y float64) float64
}

func (d dyadic) Call(ctx *Context, invoc []float64) (float64, error) {
	r := d.f(invoc[0], invoc[1])
	return r, domain(r, invoc)
}

func (d dyadic) CanCall(n int) bool {
	return n == 2
}

func (d dyadic) Arity() (int, int) {
	return 2, 2
}

// Dyadic wraps a function of two variables into a Func. Like Monadic, NaN
// results from arguments that are not NaN are DomainErrors.
func Dyadic(f func(x, y float64) float64) Func {
	return dyadic{f}
}

type nary struct {
	min, max int
	f        func([]float64) float64
}

func (v nary) Call(ctx *Context, invoc []float64) (float64, error) {
	r := v.f(invoc)
	return r, domain(r, invoc)
}

func (v nary) CanCall(n int) bool {
	return n >= v.min && (v.max < 0 || n <= v.max)
}

func (v nary) Arity() (int, int) {
	return v.min, v.max
}

// Nary wraps a function of exactly n variables into a Func.
func Nary(n int, f func([]float64) float64) Func {
	return nary{min: n, max: n, f: f}
}

// Variadic wraps a function of at least min variables into a Func.
func Variadic(min int, f func([]float64) float64) Func {
	return nary{min: min, max: -1, f: f}
}

type niladic struct {
	f func() float64
}

func (n niladic) Call(ctx *Context, invoc []float64) (float64, error) {
	return n.f(), nil
}

func (n niladic) CanCall(k int) bool {
	return k == 0
}

func (n niladic) Arity() (int, int) {
	return 0, 0
}

// Niladic wraps a function of zero variables, generally a function which
// computes a constant, into a Func. Unlike Monadic, the wrapped function is
// expected never to fail.
func Niladic(f func() float64) Func {
	return niladic{f}
}

// ifFunc is if(cond, then, else).
type ifFunc struct{}

func (ifFunc) Select(cond float64) int {
	if cond != 0 {
		return 1
	}
	return 2
}

func (f ifFunc) Call(ctx *Context, invoc []float64) (float64, error) {
	return invoc[f.Select(invoc[0])], nil
}

func (ifFunc) CanCall(n int) bool {
	return n == 3
}

func (ifFunc) Arity() (int, int) {
	return 3, 3
}

// DomainError is an error returned when a function is called on arguments
// outside its domain.
type DomainError struct {
	// X is the out-of-domain argument.
	X float64
	// Arg is the 1-based index of the argument, or 0 if unknown.
	Arg int
	// Func is a name identifying the function.
	Func string
}

func (err *DomainError) Error() string {
	r := strconv.FormatFloat(err.X, 'g', -1, 64) + " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}
