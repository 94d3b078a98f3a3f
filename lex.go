package nanocalc

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type lexToken struct {
	text string
	kind tokenKind
	pos  int
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

type tokenKind int

const (
	tokenNone tokenKind = iota
	// tokenEOF indicates the end of the input.
	tokenEOF
	// tokenNum is a number, possibly signed.
	tokenNum
	// tokenIdent is a variable or function name.
	tokenIdent
	// tokenOp is an operator, including word operators like and.
	tokenOp
	// tokenAssign is an assignment operator, := or <-.
	tokenAssign
	// tokenOpen is an open bracket, e.g. (.
	tokenOpen
	// tokenClose is a close bracket, e.g. ).
	tokenClose
	// tokenSep is a function arguments separator, either , or ;.
	tokenSep
)

var tokenKindNames = [...]string{
	tokenNone:   "None",
	tokenEOF:    "EOF",
	tokenNum:    "Num",
	tokenIdent:  "Ident",
	tokenOp:     "Op",
	tokenAssign: "Assign",
	tokenOpen:   "Open",
	tokenClose:  "Close",
	tokenSep:    "Sep",
}

func (k tokenKind) String() string {
	if k < 0 || int(k) >= len(tokenKindNames) {
		return "tokenKind(" + strconv.Itoa(int(k)) + ")"
	}
	return tokenKindNames[k]
}

// Operators contains the runes which are operators on their own. The
// comparison operators and the assignment operators := and <- are scanned
// from combinations of these and other runes.
const Operators = "+-*/%^×÷<>="

// WordOperators lists the identifiers which are scanned as operators.
var WordOperators = []string{"and", "or", "xor", "not", "nand", "nor"}

// OpenBrackets and CloseBrackets contain the runes which group expressions.
// The parser checks that a bracket in byte position k in OpenBrackets is
// matched with the bracket in byte position k in ClosedBrackets.
const (
	OpenBrackets  = "([{"
	CloseBrackets = ")]}"
)

func byteidcs(s string) []string {
	v := make([]string, len(s))
	for i, r := range s {
		v[i] = string(r)
	}
	return v
}

var (
	operstrs      = byteidcs(Operators)
	openbrackets  = byteidcs(OpenBrackets)
	closebrackets = byteidcs(CloseBrackets)
)

func isWordOp(s string) bool {
	for _, w := range WordOperators {
		if s == w {
			return true
		}
	}
	return false
}

type lexer struct {
	src io.RuneScanner
	buf strings.Builder
	// back holds runes that were read ahead and given back, last first.
	back []rune
	rune int
	p    lexToken
	// prev is the kind of the last token scanned from the source. A sign
	// that follows an operand is an operator rather than part of a number.
	prev tokenKind
	eof  bool
}

func lex(src io.RuneScanner) *lexer {
	return &lexer{
		src:  src,
		rune: 1,
	}
}

// push unreads a token so that it is the next token returned from next. Panics
// if there is already a pushed token.
func (l *lexer) push(tok lexToken) {
	if l.p.kind != tokenNone {
		panic("nanocalc: double push")
	}
	l.p = tok
}

// must scans the pushed token. Panics if there is no pushed token.
func (l *lexer) must() lexToken {
	tok := l.p
	if tok.kind == tokenNone {
		panic("nanocalc: no pushed token")
	}
	l.p = lexToken{}
	return tok
}

// readRune reads a rune and updates the lexer's position info.
func (l *lexer) readRune() (rune, error) {
	if n := len(l.back); n > 0 {
		r := l.back[n-1]
		l.back = l.back[:n-1]
		l.rune++
		return r, nil
	}
	r, sz, err := l.src.ReadRune()
	if sz > 0 {
		l.rune++
	}
	return r, err
}

// unreadRune gives a rune back so that the next readRune returns it.
func (l *lexer) unreadRune(r rune) {
	l.back = append(l.back, r)
	l.rune--
}

// peekRune reports whether the next rune satisfies f without consuming it.
func (l *lexer) peekRune(f func(rune) bool) bool {
	r, err := l.readRune()
	if err != nil {
		return false
	}
	l.unreadRune(r)
	return f(r)
}

// accept consumes the next rune if it is r.
func (l *lexer) accept(r rune) bool {
	c, err := l.readRune()
	if err != nil {
		return false
	}
	if c != r {
		l.unreadRune(c)
		return false
	}
	return true
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isNumStart(r rune) bool {
	return isDigit(r) || r == '.'
}

// operand reports whether a token of kind k ends an operand.
func operand(k tokenKind) bool {
	return k == tokenNum || k == tokenIdent || k == tokenClose
}

// next scans the next token from the input. The first time EOF is encountered
// before any non-whitespace characters, the result is an EOF token with a nil
// error. Subsequent times, if the EOF token is not pushed, the result is an
// empty token with io.EOF.
func (l *lexer) next(wseof string) (lexToken, error) {
	if l.p.kind != tokenNone {
		tok := l.p
		l.p = lexToken{}
		return tok, nil
	}
	if l.eof {
		return lexToken{}, io.EOF
	}
	tok, err := l.scan(wseof)
	l.prev = tok.kind
	return tok, err
}

func (l *lexer) scan(wseof string) (lexToken, error) {
	defer l.buf.Reset()
	tok := lexToken{pos: l.rune}
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				tok.kind = tokenEOF
				l.eof = true
				return tok, nil
			}
			return tok, err
		}
		switch {
		case unicode.IsSpace(r):
			if strings.ContainsRune(wseof, r) {
				tok.kind = tokenEOF
				l.eof = true
				return tok, nil
			}
			tok.pos++
			continue
		case isNumStart(r):
			l.unreadRune(r)
			if err := l.scanNum(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenNum
			return tok, nil
		case (r == '+' || r == '-') && !operand(l.prev) && l.peekRune(isNumStart):
			// A sign where an operand is expected belongs to the number.
			l.buf.WriteRune(r)
			if err := l.scanNum(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenNum
			return tok, nil
		case r == '_', unicode.IsLetter(r):
			l.unreadRune(r)
			if err := l.scanIdent(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			switch {
			case tok.text == "inf", tok.text == "Inf":
				// inf looks like an identifier, so check for it here.
				tok.kind = tokenNum
			case isWordOp(tok.text):
				tok.kind = tokenOp
			default:
				tok.kind = tokenIdent
			}
			return tok, nil
		case r == ',':
			tok.text = ","
			tok.kind = tokenSep
			return tok, nil
		case r == ';':
			tok.text = ";"
			tok.kind = tokenSep
			return tok, nil
		case r == '∞':
			tok.text = "∞"
			tok.kind = tokenNum
			return tok, nil
		case r == '<':
			switch {
			case l.accept('='):
				tok.text, tok.kind = "<=", tokenOp
			case l.accept('-'):
				tok.text, tok.kind = "<-", tokenAssign
			default:
				tok.text, tok.kind = "<", tokenOp
			}
			return tok, nil
		case r == '>':
			tok.text, tok.kind = ">", tokenOp
			if l.accept('=') {
				tok.text = ">="
			}
			return tok, nil
		case r == '=':
			tok.text, tok.kind = "=", tokenOp
			if l.accept('=') {
				tok.text = "=="
			}
			return tok, nil
		case r == '!':
			l.buf.WriteRune(r)
			if !l.accept('=') {
				return tok, l.error("operator")
			}
			tok.text, tok.kind = "!=", tokenOp
			return tok, nil
		case r == ':':
			l.buf.WriteRune(r)
			if !l.accept('=') {
				return tok, l.error("operator")
			}
			tok.text, tok.kind = ":=", tokenAssign
			return tok, nil
		default:
			if k := strings.IndexRune(Operators, r); k >= 0 {
				tok.text = operstrs[k]
				tok.kind = tokenOp
				return tok, nil
			}
			if k := strings.IndexRune(OpenBrackets, r); k >= 0 {
				tok.text = openbrackets[k]
				tok.kind = tokenOpen
				return tok, nil
			}
			if k := strings.IndexRune(CloseBrackets, r); k >= 0 {
				tok.text = closebrackets[k]
				tok.kind = tokenClose
				return tok, nil
			}
			// Write the rune so that it shows up in the error message.
			l.buf.WriteRune(r)
			return tok, l.error("")
		}
	}
}

// scanNum scans the digits of a number. The number ends at the first rune
// that cannot continue it, so 2x scans as 2 followed by x.
func (l *lexer) scanNum() error {
	var dig, dot, e bool
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if isDigit(r) {
			l.buf.WriteRune(r)
			if !e {
				dig = true
			}
			continue
		}
		if r == '.' {
			l.buf.WriteRune(r)
			if dot || e {
				return l.error("number")
			}
			dot = true
			continue
		}
		if (r == 'e' || r == 'E') && dig && !e && l.exponent(r) {
			e = true
			continue
		}
		l.unreadRune(r)
		break
	}
	if !dig {
		return l.error("number")
	}
	return nil
}

// exponent checks whether the exponent marker r begins an exponent, i.e. is
// followed by digits with an optional sign. If so, the marker and sign are
// written to the buffer. Otherwise nothing after r is consumed.
func (l *lexer) exponent(r rune) bool {
	c, err := l.readRune()
	if err != nil {
		return false
	}
	if isDigit(c) {
		l.unreadRune(c)
		l.buf.WriteRune(r)
		return true
	}
	if c == '+' || c == '-' {
		if l.peekRune(isDigit) {
			l.buf.WriteRune(r)
			l.buf.WriteRune(c)
			return true
		}
	}
	l.unreadRune(c)
	return false
}

func (l *lexer) scanIdent() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// next unreads the rune that decides ident scanning before
				// calling scanIdent, so we have scanned at least one rune.
				return nil
			}
			return err
		}
		switch {
		case r == '_', unicode.IsLetter(r), unicode.IsDigit(r):
			l.buf.WriteRune(r)
		default:
			l.unreadRune(r)
			return nil
		}
	}
}

func (l *lexer) error(kind string) error {
	return &LexError{
		Text: l.buf.String(),
		Kind: kind,
		Col:  l.rune - 1,
	}
}

// LexError indicates an invalid token. It implements InputError.
type LexError struct {
	// Text is the token the lexer was scanning when the invalid rune was
	// encountered, plus the invalid rune.
	Text string
	// Kind is the type of token the lexer was scanning. This may be "number",
	// "operator", or the empty string (if a token kind hadn't been decided).
	Kind string
	// Col is the total number of runes scanned by the lexer up to and
	// including this error.
	Col int
}

func (err *LexError) Error() string {
	pos := "column " + strconv.Itoa(err.Col)
	if err.Kind == "" {
		return "invalid token at " + pos + ": " + err.Text
	}
	return "invalid " + err.Kind + " token at " + pos + ": " + err.Text
}

func (err *LexError) Pos() int {
	return err.Col
}
