// Package repl implements an interactive calculator session. A session reads
// one line at a time, runs it as a meta-command if it is one, and otherwise
// evaluates it as an expression and prints the result.
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"fortio.org/log"
	"github.com/fatih/color"

	"github.com/zephyrtronium/nanocalc"
)

const (
	// DefaultPrecision is the number of significant digits results are
	// displayed with unless changed.
	DefaultPrecision = 15
	// MaxPrecision is the largest display precision a session accepts.
	MaxPrecision = 20
)

// Banner is printed when a session starts.
const Banner = "nanocalc - lightweight scientific calculator.\nType 'help' for a list of commands.\n"

type state int8

const (
	stateReading state = iota
	stateDispatching
	stateTerminated
)

// Session is an interactive calculator session. It owns the symbol table,
// command history, and display precision. A Session is not safe for
// concurrent use.
type Session struct {
	syms *nanocalc.SymbolTable
	ctx  *nanocalc.Context
	// popt makes the parser check calls against the session's symbols.
	popt nanocalc.ParseOption
	hist *History
	prec int

	out    io.Writer
	errc   *color.Color
	prompt string
	banner bool
	state  state
}

// Option is an option used when creating a session.
type Option func(*Session)

// Precision sets the initial display precision. Panics if n is negative or
// greater than MaxPrecision.
func Precision(n int) Option {
	if n < 0 || n > MaxPrecision {
		panic("repl: precision " + strconv.Itoa(n) + " out of range")
	}
	return func(s *Session) {
		s.prec = n
	}
}

// Prompt sets the prompt printed before each line is read.
func Prompt(p string) Option {
	return func(s *Session) {
		s.prompt = p
	}
}

// ShowBanner sets whether Run prints the banner before reading input.
func ShowBanner(show bool) Option {
	return func(s *Session) {
		s.banner = show
	}
}

// Symbols sets the symbol table the session defines and evaluates variables
// with. By default, a session has its own table holding the constants.
func Symbols(t *nanocalc.SymbolTable) Option {
	return func(s *Session) {
		s.syms = t
	}
}

// HistorySize limits the number of lines kept in the history. The default,
// 0, keeps every line.
func HistorySize(n int) Option {
	return func(s *Session) {
		s.hist = NewHistory(n)
	}
}

// New creates a session that writes to out.
func New(out io.Writer, opts ...Option) *Session {
	s := Session{
		prec:   DefaultPrecision,
		out:    out,
		errc:   color.New(color.FgRed),
		prompt: "> ",
		banner: true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.syms == nil {
		s.syms = nanocalc.NewSymbolTable().AddConstants()
	}
	if s.hist == nil {
		s.hist = NewHistory(0)
	}
	s.ctx = nanocalc.NewContext(nanocalc.WithSymbols(s.syms))
	s.popt = nanocalc.WithSymbols(s.syms)
	return &s
}

// Run reads and executes lines from in until EOF or a quit command. The
// result is non-nil only if reading fails. Lines may be any length.
func (s *Session) Run(in io.Reader) error {
	if s.banner {
		io.WriteString(s.out, Banner)
	}
	r := bufio.NewReader(in)
	for s.state != stateTerminated {
		io.WriteString(s.out, s.prompt)
		line, err := r.ReadString('\n')
		if line != "" {
			s.Exec(line)
		}
		if err != nil {
			s.state = stateTerminated
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("reading input: %w", err)
			}
			log.LogVf("end of input")
			return nil
		}
	}
	return nil
}

// Exec executes a single input line and reports whether the session has
// terminated. Results and errors are written to the session's output.
func (s *Session) Exec(line string) bool {
	if s.state == stateTerminated {
		return true
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	s.hist.Add(line)
	s.state = stateDispatching
	c := parseCmdline(line)
	for _, cmd := range commands {
		if !cmd.match(c) {
			continue
		}
		log.LogVf("dispatching %q to %s", line, cmd.name)
		if err := cmd.run(s, c); err != nil {
			s.errc.Fprintf(s.out, "ERROR - %v\n", err)
		}
		if s.state != stateTerminated {
			s.state = stateReading
		}
		return s.state == stateTerminated
	}
	v, err := s.Eval(line)
	if err != nil {
		s.errc.Fprintf(s.out, "ERROR - %v\tExpression: %s\n", err, line)
	} else {
		fmt.Fprintln(s.out, s.Format(v))
	}
	s.state = stateReading
	return false
}

// Eval parses and evaluates an expression with the session's symbols.
func (s *Session) Eval(src string) (float64, error) {
	e, err := nanocalc.ParseString(src, s.popt)
	if err != nil {
		return 0, err
	}
	log.LogVf("parsed %q as %v", src, e)
	return s.ctx.Eval(e)
}

// Format formats a value at the session's display precision.
func (s *Session) Format(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', s.prec, 64)
}

// Precision returns the display precision.
func (s *Session) Precision() int {
	return s.prec
}

// Symbols returns the session's symbol table.
func (s *Session) Symbols() *nanocalc.SymbolTable {
	return s.syms
}

// History returns the session's command history.
func (s *Session) History() *History {
	return s.hist
}

// Terminated reports whether the session has ended with a quit command.
func (s *Session) Terminated() bool {
	return s.state == stateTerminated
}
