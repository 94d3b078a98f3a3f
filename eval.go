package nanocalc

import (
	"io"
	"math"
	"strconv"
	"strings"
)

// Context is a context for evaluating expressions. It is not safe to use a
// Context concurrently.
type Context struct {
	stack []float64
	syms  *SymbolTable
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	varopt struct {
		name string
		val  float64
	}
	varsopt map[string]float64
)

func (varopt) ctxOption()  {}
func (varsopt) ctxOption() {}
func (symsopt) ctxOption() {}

// SetVar sets the value of a variable in the context.
func SetVar(name string, val float64) ContextOption {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables in the context.
func SetVars(vars map[string]float64) ContextOption {
	return varsopt(vars)
}

// NewContext creates a new evaluation context. Unless WithSymbols is given,
// the context uses its own symbol table holding the predefined constants.
// Panics if an option sets a constant.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{}
	for _, opt := range opts {
		if o, ok := opt.(symsopt); ok {
			ctx.syms = o.t
		}
	}
	if ctx.syms == nil {
		ctx.syms = NewSymbolTable().AddConstants()
	}
	ctx.apply(opts)
	return &ctx
}

func (ctx *Context) apply(opts []ContextOption) {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		var err error
		switch opt := opt.(type) {
		case varopt:
			err = ctx.syms.Define(opt.name, opt.val)
		case varsopt:
			for k, v := range opt {
				if err = ctx.syms.Define(k, v); err != nil {
					break
				}
			}
		case symsopt:
			// Already done. Do nothing.
		default:
			panic("nanocalc: unknown option type")
		}
		if err != nil {
			panic("nanocalc: " + err.Error())
		}
	}
}

// Eval evaluates an expression and returns the result. Assignments in the
// expression change the context's symbols even if evaluation later fails.
func (ctx *Context) Eval(e *Expr) (float64, error) {
	if len(ctx.stack) != 0 {
		panic("nanocalc: Eval during Eval")
	}
	err := e.n.eval(ctx)
	if err != nil {
		ctx.stack = ctx.stack[:0]
		return 0, err
	}
	if len(ctx.stack) != 1 {
		panic("nanocalc: inconsistent stack: " + strconv.Itoa(len(ctx.stack)) + " items (bad AST?)")
	}
	r := ctx.stack[0]
	ctx.stack = ctx.stack[:0]
	return r, nil
}

// Set sets the value of a variable. Calling Set while the context is being
// used to evaluate an expression panics.
func (ctx *Context) Set(name string, value float64) error {
	if len(ctx.stack) > 1 {
		panic("nanocalc: Set on in-use context")
	}
	return ctx.syms.Define(name, value)
}

// Lookup returns the value of a variable and whether it exists.
func (ctx *Context) Lookup(name string) (float64, bool) {
	return ctx.syms.Lookup(name)
}

// Symbols returns the symbol table the context evaluates with.
func (ctx *Context) Symbols() *SymbolTable {
	return ctx.syms
}

// Clone creates a copy of a context with its own copy of the symbol table and
// applies options to it.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{syms: ctx.syms.Clone()}
	for _, opt := range opts {
		if o, ok := opt.(symsopt); ok {
			n.syms = o.t
		}
	}
	n.apply(opts)
	return &n
}

// push pushes a value onto the stack.
func (ctx *Context) push(v float64) {
	ctx.stack = append(ctx.stack, v)
}

// pop removes the top from the stack and returns it.
func (ctx *Context) pop() float64 {
	r := ctx.stack[len(ctx.stack)-1]
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
	return r
}

// top is a shortcut to get the top element of the stack.
func (ctx *Context) top() *float64 {
	return &ctx.stack[len(ctx.stack)-1]
}

// eval pushes the node's value to the context's stack.
func (n *node) eval(ctx *Context) error {
	switch n.kind {
	case nodeNum:
		ctx.push(n.num)
	case nodeName:
		v, ok := ctx.syms.Lookup(n.name)
		if !ok {
			return &NameError{Name: n.name}
		}
		ctx.push(v)
	case nodeAssign:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		if err := ctx.syms.Define(n.name, *ctx.top()); err != nil {
			return err
		}
	case nodeCall:
		return n.call(ctx)
	case nodeArg:
		panic("nanocalc: eval on nodeArg")
	case nodeNeg:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		v := ctx.top()
		*v = -*v
	case nodeNop:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
	case nodeNot:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		v := ctx.top()
		*v = truth(*v == 0)
	default:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		if err := n.right.eval(ctx); err != nil {
			return err
		}
		r := ctx.pop()
		l := ctx.top()
		v, err := binary(n.kind, *l, r)
		if err != nil {
			return err
		}
		*l = v
	}
	return nil
}

// call evaluates a function call node.
func (n *node) call(ctx *Context) error {
	if sel, ok := n.fn.(Selector); ok {
		// Evaluate only the condition and the selected argument.
		if err := n.right.left.eval(ctx); err != nil {
			return err
		}
		k := sel.Select(ctx.pop())
		l := n.right
		for i := 0; i < k; i++ {
			l = l.right
		}
		return l.left.eval(ctx)
	}
	k := len(ctx.stack)
	for l := n.right; l != nil; l = l.right {
		if err := l.left.eval(ctx); err != nil {
			return err
		}
	}
	invoc := ctx.stack[k:len(ctx.stack):len(ctx.stack)]
	r, err := n.fn.Call(ctx, invoc)
	if err != nil {
		if d, ok := err.(*DomainError); ok && d.Func == "" {
			d.Func = n.name
		}
		return err
	}
	ctx.stack = ctx.stack[:k]
	ctx.push(r)
	return nil
}

// truth converts a boolean to 1 or 0.
func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// binary applies a binary operator. Division of a nonzero number by zero
// gives an infinity, but 0/0 and inf/inf are domain errors.
func binary(op nodeKind, l, r float64) (float64, error) {
	switch op {
	case nodeAdd:
		return l + r, nil
	case nodeSub:
		return l - r, nil
	case nodeMul:
		return l * r, nil
	case nodeDiv:
		// Guard against invalid divisions, 0/0 or inf/inf.
		if l == 0 && r == 0 || math.IsInf(l, 0) && math.IsInf(r, 0) {
			return 0, &DomainError{X: r, Arg: 2, Func: "/"}
		}
		return l / r, nil
	case nodeMod:
		if r == 0 || math.IsInf(l, 0) {
			return 0, &DomainError{X: r, Arg: 2, Func: "%"}
		}
		return math.Mod(l, r), nil
	case nodePow:
		// A negative base needs an integer exponent.
		if l < 0 && r != math.Trunc(r) {
			return 0, &DomainError{X: l, Arg: 1, Func: "^"}
		}
		return math.Pow(l, r), nil
	case nodeLt:
		return truth(l < r), nil
	case nodeLe:
		return truth(l <= r), nil
	case nodeGt:
		return truth(l > r), nil
	case nodeGe:
		return truth(l >= r), nil
	case nodeEq:
		return truth(l == r), nil
	case nodeNe:
		return truth(l != r), nil
	case nodeAnd:
		return truth(l != 0 && r != 0), nil
	case nodeOr:
		return truth(l != 0 || r != 0), nil
	case nodeXor:
		return truth((l != 0) != (r != 0)), nil
	case nodeNand:
		return truth(!(l != 0 && r != 0)), nil
	case nodeNor:
		return truth(!(l != 0 || r != 0)), nil
	default:
		panic("nanocalc: invalid AST node " + op.String())
	}
}

// Eval is a shortcut to parse an expression and return its result using the
// default functions.
func Eval(src io.RuneScanner, opts ...ContextOption) (float64, error) {
	ctx := NewContext(opts...)
	var popts []ParseOption
	for _, opt := range opts {
		if o, ok := opt.(symsopt); ok {
			popts = append(popts, o)
		}
	}
	a, err := Parse(src, popts...)
	if err != nil {
		return 0, err
	}
	return ctx.Eval(a)
}

// EvalString is a shortcut to parse and evaluate a string expression.
func EvalString(src string, opts ...ContextOption) (float64, error) {
	return Eval(strings.NewReader(src), opts...)
}

// NameError is an error from a lookup for a variable that is missing from the
// evaluation context.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}
