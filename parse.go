package nanocalc

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Expr = num | name | Call | Assign | Unary | Binary | '(' Expr ')' | '[' Expr ']' | '{' Expr '}'
// Call = funcname | funcname Expr | funcname ArgList
// ArgList = '(' Expr { (',' | ';') Expr } ')' | '[' Expr { (',' | ';') Expr } ']' | '{' Expr { (',' | ';') Expr } '}'
// Assign = name ':=' Expr | name '<-' Expr
// Unary = ('-' | '+' | 'not') Expr
// Binary = Expr binop Expr | Expr Expr
//
// From least to most binding, the binary operators are
//	:= <-                     (right-associative)
//	or xor nor
//	and nand
//	< <= > >= == != =
//	+ -
//	* / % × ÷ and juxtaposition
//	^                         (right-associative)
// Unary operators bind less tightly than ^ and more than anything else, so
// -2^2 is -(2^2).

// Expr is a parsed expression that can be evaluated with a context.
type Expr struct {
	// n is the root node of the expression.
	n *node
	// names is the list of variable names read in the expression.
	names []string
	// assigns is the list of variable names assigned in the expression.
	assigns []string
}

// Parse parses an expression so it can be evaluated with a context. The given
// options are applied in order.
func Parse(src io.RuneScanner, opts ...ParseOption) (*Expr, error) {
	scan := lex(src)
	p := parsectx{
		names:    make(map[string]int),
		assigned: make(map[string]bool),
	}
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	if p.funcs == nil {
		p.funcs = globalfuncs
	} else if !p.nodefaults {
		// Only set default functions that aren't already set.
		for k, v := range globalfuncs {
			if _, ok := p.funcs[k]; !ok {
				p.funcs[k] = v
			}
		}
	}
	n, err := parseterm(scan, &p, exprprec)
	if err != nil {
		return nil, err
	}
	if n == nil {
		// An expression consisting only of a close bracket or separator.
		tok := scan.must()
		if tok.kind == tokenSep {
			return nil, &EmptyExpressionError{Col: tok.pos, End: tok.text}
		}
		return nil, itShouldNotHaveEndedThisWay(tok, -1)
	}
	switch tok := scan.must(); tok.kind {
	case tokenEOF:
	case tokenSep:
		switch {
		case p.ceof && tok.text == ",":
		case p.seof && tok.text == ";":
		default:
			return nil, itShouldNotHaveEndedThisWay(tok, -1)
		}
	default:
		return nil, itShouldNotHaveEndedThisWay(tok, -1)
	}
	ex := Expr{
		n:       n,
		names:   make([]string, 0, len(p.names)),
		assigns: make([]string, 0, len(p.assigned)),
	}
	for k := range p.names {
		ex.names = append(ex.names, k)
	}
	for k := range p.assigned {
		ex.assigns = append(ex.assigns, k)
	}
	sortstrs(ex.names)
	sortstrs(ex.assigns)
	return &ex, nil
}

// ParseString is a shortcut to parse an expression from a string.
func ParseString(src string, opts ...ParseOption) (*Expr, error) {
	return Parse(strings.NewReader(src), opts...)
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

// emptyAt creates an error for a missing operand, positioned at the pushed
// token that ended the empty subexpression.
func emptyAt(scan *lexer) error {
	end := scan.must()
	scan.push(end)
	return &EmptyExpressionError{Col: end.pos, End: end.text}
}

// parseterm parses a single term. If there is no error, then parseterm pushes
// the last token it scans, including EOF. If the input is an empty
// subexpression, the result is nil with no error; callers must create an error
// in contexts where empty subexpressions are illegal.
func parseterm(scan *lexer, p *parsectx, until operator) (*node, error) {
	n, err := parselhs(scan, p, until)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	return parserest(scan, p, until, n)
}

// parserest parses the operators and terms following n, which is already
// parsed, until reaching an operator that binds less than until.
func parserest(scan *lexer, p *parsectx, until operator, n *node) (*node, error) {
	for {
		if p.resv != nil {
			// A niladic function followed by a bracketed term. The parsing
			// here is as if we encountered an open bracket, except that the
			// contents are already parsed and valid. If the multiplication
			// doesn't bind here, the reserved term stays for the caller.
			if !juxtaposes(until) {
				return n, nil
			}
			r := p.resv
			p.resv = nil
			rhs, err := parserest(scan, p, termprec, r)
			if err != nil {
				return nil, err
			}
			n = &node{kind: nodeMul, left: n, right: rhs}
			continue
		}
		tok, err := scan.next(p.wseof)
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenNum, tokenIdent, tokenOpen:
			// (parsed) x -> (parsed) * (x)
			// (parsed) x^(expr) -> (parsed) * (x^(expr))
			// a^(parsed) x -> (a^(parsed)) * (x)
			// 2 (expr) -> (2) * (expr)
			// Adjacent terms associate like *, so w x y = (w*x)*y.
			scan.push(tok)
			if !juxtaposes(until) {
				return n, nil
			}
			rhs, err := parseterm(scan, p, termprec)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				return nil, emptyAt(scan)
			}
			n = &node{kind: nodeMul, left: n, right: rhs}
		case tokenOp:
			// Binary operator.
			prec := binop(tok.text)
			if prec.op == nodeNone {
				return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
			}
			if !prec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			rhs, err := parseterm(scan, p, prec)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				return nil, emptyAt(scan)
			}
			n = &node{kind: prec.op, left: n, right: rhs}
		case tokenAssign:
			prec := assignprec
			if !prec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			if n.kind != nodeName {
				return nil, &AssignError{Col: tok.pos, Target: n.String()}
			}
			rhs, err := parseterm(scan, p, prec)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				return nil, emptyAt(scan)
			}
			// The target was counted as a read when parselhs scanned it.
			if p.names[n.name]--; p.names[n.name] <= 0 {
				delete(p.names, n.name)
			}
			p.assigned[n.name] = true
			n = &node{kind: nodeAssign, name: n.name, left: rhs}
		case tokenClose, tokenSep, tokenEOF:
			// End of expression.
			scan.push(tok)
			return n, nil
		default:
			panic("nanocalc: unknown token: " + tok.String())
		}
	}
}

// juxtaposes reports whether an implicit multiplication continues a term
// being parsed at until. A bare function argument takes every adjacent term.
func juxtaposes(until operator) bool {
	return until == argprec || termprec.moreBinding(until)
}

// parselhs parses the first component of a term. I.e., operators are unary,
// any encountered token must be valid as the start of a subexpression, and
// whitespace normally lexed as EOF is ignored.
func parselhs(scan *lexer, p *parsectx, until operator) (*node, error) {
	// Don't use EOF whitespace for LHS.
	tok, err := scan.next("")
	if err != nil {
		return nil, err
	}
	var n *node
	switch tok.kind {
	case tokenNum:
		if s := tok.text[0]; s == '+' || s == '-' {
			// A signed literal is a unary operator on the unsigned literal,
			// so that -2^2 is -(2^2) as with any other operand.
			scan.push(lexToken{text: tok.text[1:], kind: tokenNum, pos: tok.pos + 1})
			return parseunary(scan, p, until, lexToken{text: tok.text[:1], kind: tokenOp, pos: tok.pos})
		}
		v, err := parsenum(tok)
		if err != nil {
			return nil, err
		}
		n = &node{kind: nodeNum, name: tok.text, num: v}
	case tokenIdent:
		fn := p.funcs[tok.text]
		if fn == nil {
			if err := checkname(scan, p, tok); err != nil {
				return nil, err
			}
			p.names[tok.text]++
			n = &node{kind: nodeName, name: tok.text}
		} else {
			rhs, exp, err := parsecall(scan, p, until, fn, tok.text)
			if err != nil {
				return nil, err
			}
			// If fn is niladic and the call is like fn(a), then the result
			// from parsecall is nil, nil, and p.resv is non-nil.
			n = &node{kind: nodeCall, name: tok.text, fn: fn, right: rhs}
			if exp != nil {
				exp.left = n
				n = exp
			}
		}
	case tokenOp:
		return parseunary(scan, p, until, tok)
	case tokenAssign:
		return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
	case tokenOpen:
		match := rightbracket(tok.text)
		rhs, err := parseterm(scan, p, exprprec)
		if err != nil {
			return nil, err
		}
		end := scan.must()
		if end.kind != tokenClose || end.text != closebrackets[match] {
			return nil, itShouldNotHaveEndedThisWay(end, match)
		}
		if rhs == nil {
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		n = rhs
	case tokenClose:
		// This might be part of niladic func(), so just let the caller decide
		// what to do.
		scan.push(tok)
		return nil, nil
	case tokenSep:
		switch tok.text {
		case ",":
			if p.ceof {
				scan.push(tok)
				return nil, nil
			}
		case ";":
			if p.seof {
				scan.push(tok)
				return nil, nil
			}
		default:
			panic("nanocalc: invalid separator " + strconv.Quote(tok.text))
		}
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenEOF:
		return nil, &EmptyExpressionError{Col: tok.pos, End: ""}
	default:
		panic("nanocalc: unknown token: " + tok.String())
	}
	return n, nil
}

// parseunary parses the operand of the unary operator tok.
func parseunary(scan *lexer, p *parsectx, until operator, tok lexToken) (*node, error) {
	prec := unop(tok.text)
	if prec.op == nodeNone {
		return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
	}
	if !prec.moreBinding(until) {
		// x^-y -> x^(-y)
		// Just use the new operator's precedence to simplify.
		prec.prec, prec.right = until.prec, until.right
	}
	rhs, err := parseterm(scan, p, prec)
	if err != nil {
		return nil, err
	}
	if rhs == nil {
		return nil, emptyAt(scan)
	}
	return &node{kind: prec.op, left: rhs}, nil
}

// parsenum converts a number token to its value. Numbers too large in
// magnitude become infinite, and numbers too small become zero.
func parsenum(tok lexToken) (float64, error) {
	switch tok.text {
	case "∞", "inf", "Inf":
		return math.Inf(1), nil
	}
	v, err := strconv.ParseFloat(tok.text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, &LexError{Text: tok.text, Kind: "number", Col: tok.pos}
	}
	return v, nil
}

// checkname reports an unknown function when tok, which is not a function
// name, is directly followed by an open bracket and is not a known symbol.
// Without a symbol table, such names are always variables.
func checkname(scan *lexer, p *parsectx, tok lexToken) error {
	if p.syms == nil || p.syms.Has(tok.text) || p.assigned[tok.text] {
		return nil
	}
	next, err := scan.next(p.wseof)
	if err != nil {
		return err
	}
	scan.push(next)
	if next.kind == tokenOpen && next.pos == tok.pos+utf8.RuneCountInString(tok.text) {
		return &UnknownFuncError{Col: tok.pos, Func: tok.text}
	}
	return nil
}

// parsecall parses the arguments to a call of a given Func. The second result,
// if non-nil, is a node that the function call is lhs to.
func parsecall(scan *lexer, p *parsectx, until operator, fn Func, name string) (*node, *node, error) {
	// We respect whitespace here so that pi\nx doesn't string
	// together expressions.
	tok, err := scan.next(p.wseof)
	if err != nil {
		return nil, nil, err
	}
	switch tok.kind {
	case tokenOp:
		// Check for e.g. ^2 in cos^2 x. Must be an exponentiation or higher.
		// Note that the fact that exponentiation is important here:
		// func^x^y(z) parses as [func(z)]^(x^y).
		if prec := binop(tok.text); prec.moreBinding(powprec) {
			up, err := parseterm(scan, p, powprec)
			if err != nil {
				return nil, nil, err
			}
			if up == nil {
				return nil, nil, emptyAt(scan)
			}
			if p.resv != nil {
				// The exponent ended with a niladic call followed by a
				// bracketed term, as in one^zero(x).
				exp := &node{kind: nodePow, right: up}
				switch {
				case fn.CanCall(1):
					r := p.resv
					p.resv = nil
					return &node{kind: nodeArg, left: r}, exp, nil
				case fn.CanCall(0):
					// zero^zero(x) -> (zero^zero) * x; the caller takes the
					// reserved term.
					return nil, exp, nil
				default:
					p.resv = nil
					return nil, nil, &CallError{Col: tok.pos, Func: name, Len: 1, Want: arity(fn)}
				}
			}
			args, ee, err := parsecall(scan, p, until, fn, name)
			if err != nil {
				return nil, nil, err
			}
			if ee != nil {
				// The precedence we parsed is right-associative and higher
				// than any other. With the current rules, there should never
				// be an additional exponent here.
				panic("nanocalc: parsed second call exponent: " + ee.String())
			}
			// The caller fills in up.left.
			exp := &node{kind: nodePow, right: up}
			return args, exp, nil
		}
		// Other than exponentiations, finding an operator is the same as
		// finding a number or identifier.
		fallthrough
	case tokenNum, tokenIdent:
		switch {
		case fn.CanCall(1):
			// Single argument. exp x -> exp(x)
			scan.push(tok)
			if argprec.moreBinding(until) {
				until = argprec
			}
			rhs, err := parseterm(scan, p, until)
			if err != nil {
				return nil, nil, err
			}
			if rhs == nil {
				return nil, nil, emptyAt(scan)
			}
			return &node{kind: nodeArg, left: rhs}, nil, nil
		case fn.CanCall(0):
			// No argument. pi x -> (pi) * (x)
			scan.push(tok)
		default:
			// Any other number of arguments requires brackets.
			return nil, nil, &CallError{Col: tok.pos, Func: name, Len: 1, Want: arity(fn)}
		}
	case tokenOpen:
		match := rightbracket(tok.text)
		n, len, err := parsearglist(scan, p, tok.text)
		if err != nil {
			return nil, nil, err
		}
		end := scan.must()
		if end.kind != tokenClose {
			panic("nanocalc: parsearglist ended on " + end.String() + " instead of close bracket")
		}
		if end.text != closebrackets[match] {
			return nil, nil, &BracketError{Col: end.pos, Left: tok.text, Right: end.text}
		}
		if !fn.CanCall(len) {
			if p.resv != nil && fn.CanCall(0) {
				// If fn is niladic, convert from fn(a) to fn()*a.
				return nil, nil, nil
			}
			p.resv = nil
			return nil, nil, &CallError{Col: tok.pos, Func: name, Len: len, Want: arity(fn)}
		}
		p.resv = nil
		return n, nil, nil
	case tokenAssign:
		return nil, nil, &AssignError{Col: tok.pos, Target: name}
	case tokenClose, tokenSep, tokenEOF:
		if !fn.CanCall(0) {
			return nil, nil, &CallError{Col: tok.pos, Func: name, Want: arity(fn)}
		}
		scan.push(tok)
	default:
		panic("nanocalc: unknown token: " + tok.String())
	}
	return nil, nil, nil
}

// parsearglist parses a bracketed list of zero or more args.
func parsearglist(scan *lexer, p *parsectx, open string) (*node, int, error) {
	var n node
	l := &n
	len := 0
	pb := ""
	for {
		rhs, err := parseterm(scan, p, exprprec)
		if err != nil {
			// As a special case, reporting mismatched brackets is more helpful
			// than empty expression, if that's what we'd do here.
			if ee, _ := err.(*EmptyExpressionError); ee != nil && ee.End == "" {
				err = &BracketError{Col: ee.Col, Left: open}
			}
			return nil, 0, err
		}
		end := scan.must()
		switch end.kind {
		case tokenClose:
			// Caller checks that brackets match.
			scan.push(end)
			if rhs == nil {
				// No expression parsed.
				// func() is allowed, but func(a,) isn't.
				if len != 0 {
					return nil, 0, &EmptyExpressionError{Col: end.pos, End: end.text}
				}
				return nil, 0, nil
			}
			l.right = &node{kind: nodeArg, name: pb, left: rhs}
			if len == 0 {
				// func(a). If func is niladic, then this is an implicit
				// multiplication. Reserve the rhs so that the parser can
				// convert from a function call.
				p.resv = rhs
			}
			return n.right, len + 1, nil
		case tokenSep:
			if rhs == nil {
				return nil, 0, &SeparatorError{Col: end.pos, Sep: end.text}
			}
			len++
			l.right = &node{kind: nodeArg, name: pb, left: rhs}
			l = l.right
			pb = end.text
		case tokenEOF:
			return nil, 0, &BracketError{Col: end.pos, Left: open, Right: ""}
		default:
			panic("nanocalc: parseexpr ended on non-end token " + end.String())
		}
	}
}

// rightbracket gets the closing bracket index for an opening bracket.
func rightbracket(left string) int {
	r, sz := utf8.DecodeRuneInString(left)
	k := strings.IndexRune(OpenBrackets, r)
	if k < 0 || sz != len(left) {
		panic("nanocalc: invalid bracket " + strconv.Quote(left))
	}
	return k
}

// leftbracket gets the opening bracket matching right. If right is no bracket,
// then the result is the empty string.
func leftbracket(right int) string {
	if right == -1 {
		return ""
	}
	return openbrackets[right]
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression. match is the bracket rune index that
// the expression should have matched, or -1 if none.
func itShouldNotHaveEndedThisWay(tok lexToken, match int) error {
	switch tok.kind {
	case tokenEOF:
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: ""}
	case tokenClose:
		// A bracket could be the wrong bracket for the opening brace or any
		// bracket at the end of an input.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: tok.text}
	case tokenSep:
		// Separator outside a function call.
		return &SeparatorError{Col: tok.pos, Sep: tok.text}
	default:
		panic("nanocalc: it really should not have ended this way: " + tok.String())
	}
}

// Vars returns the variable names read when evaluating the expression.
func (e *Expr) Vars() []string {
	return append(([]string)(nil), e.names...)
}

// Assigns returns the variable names the expression assigns.
func (e *Expr) Assigns() []string {
	return append(([]string)(nil), e.assigns...)
}

// String creates a string representation of the parsed expression, with
// alternating round and square brackets grouping each term.
func (e *Expr) String() string {
	var b strings.Builder
	e.n.fmt(&b, false, true)
	return b.String()
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "or":
		return operator{-8, false, nodeOr}
	case "xor":
		return operator{-8, false, nodeXor}
	case "nor":
		return operator{-8, false, nodeNor}
	case "and":
		return operator{-6, false, nodeAnd}
	case "nand":
		return operator{-6, false, nodeNand}
	case "<":
		return operator{-4, false, nodeLt}
	case "<=":
		return operator{-4, false, nodeLe}
	case ">":
		return operator{-4, false, nodeGt}
	case ">=":
		return operator{-4, false, nodeGe}
	case "==", "=":
		return operator{-4, false, nodeEq}
	case "!=":
		return operator{-4, false, nodeNe}
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*", "×":
		return operator{5, false, nodeMul}
	case "/", "÷":
		return operator{5, false, nodeDiv}
	case "%":
		return operator{5, false, nodeMod}
	case "^":
		return operator{15, true, nodePow}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{10, true, nodeNop}
	case "-":
		return operator{10, true, nodeNeg}
	case "not":
		return operator{10, true, nodeNot}
	default:
		return operator{}
	}
}

var (
	// termprec is the precedence of implicit multiplication by adjacent
	// terms. It should match that of multiplication.
	termprec = operator{5, false, nodeMul}
	// argprec is the precedence of a bare function argument, as in sin 2x.
	// It takes adjacent terms but not explicit multiplications.
	argprec = operator{5, true, nodeArg}
	// powprec is the precedence of exponentiation.
	powprec = binop("^")
	// assignprec is the precedence of := and <-.
	assignprec = operator{-10, true, nodeAssign}
	// exprprec is the precedence required to parse an entire subexpression.
	exprprec = operator{-128, true, nodeNone}
)
