package repl

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/zephyrtronium/nanocalc"
)

// cmdline is an input line split up for command matching.
type cmdline struct {
	// line is the whole input, trimmed.
	line string
	// head is the first word, ending at whitespace or '='.
	head string
	// rest is everything after head, trimmed.
	rest string
	// words are the lowercased whitespace-separated fields of line.
	words []string
}

func parseCmdline(line string) cmdline {
	k := strings.IndexFunc(line, func(r rune) bool { return r == '=' || unicode.IsSpace(r) })
	if k < 0 {
		k = len(line)
	}
	return cmdline{
		line:  line,
		head:  strings.ToLower(line[:k]),
		rest:  strings.TrimSpace(line[k:]),
		words: strings.Fields(strings.ToLower(line)),
	}
}

// is reports whether the line consists of exactly the given words.
func (c cmdline) is(words ...string) bool {
	if len(c.words) != len(words) {
		return false
	}
	for i, w := range words {
		if c.words[i] != w {
			return false
		}
	}
	return true
}

type command struct {
	name  string
	match func(c cmdline) bool
	run   func(s *Session, c cmdline) error
}

// commands are tried in order. A line that matches none is an expression.
var commands = []command{
	{
		name:  "def",
		match: func(c cmdline) bool { return c.head == "def" },
		run:   (*Session).define,
	},
	{
		name:  "precision",
		match: func(c cmdline) bool { return c.head == "precision" },
		run:   (*Session).precision,
	},
	{
		name:  "ls",
		match: func(c cmdline) bool { return c.is("ls") },
		run:   (*Session).list,
	},
	{
		name:  "history",
		match: func(c cmdline) bool { return c.is("history") },
		run:   (*Session).history,
	},
	{
		name:  "clear history",
		match: func(c cmdline) bool { return c.is("clear", "history") },
		run: func(s *Session, c cmdline) error {
			s.hist.Clear()
			return nil
		},
	},
	{
		name:  "help",
		match: func(c cmdline) bool { return c.head == "help" },
		run:   (*Session).help,
	},
	{
		name:  "quit",
		match: func(c cmdline) bool { return c.is("quit") || c.is("exit") },
		run: func(s *Session, c cmdline) error {
			s.state = stateTerminated
			return nil
		},
	},
}

// literal matches the decimal number literals def accepts.
var literal = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// define handles def <name>=<value>. The value is a decimal number literal,
// not an expression.
func (s *Session) define(c cmdline) error {
	k := strings.IndexByte(c.rest, '=')
	if k < 0 {
		return &CommandError{Msg: "Invalid variable definition", Input: c.line}
	}
	name := strings.TrimSpace(c.rest[:k])
	val := strings.TrimSpace(c.rest[k+1:])
	if !nanocalc.IsName(name) || nanocalc.IsBuiltin(name) || !literal.MatchString(val) {
		return &CommandError{Msg: "Invalid variable definition", Input: c.line}
	}
	v, err := strconv.ParseFloat(val, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return &CommandError{Msg: "Invalid variable definition", Input: c.line}
	}
	if err := s.syms.Define(name, v); err != nil {
		return &CommandError{Msg: "Failed to define variable", Input: name, Err: err}
	}
	return nil
}

// precision shows the display precision or sets it from precision=<n>.
func (s *Session) precision(c cmdline) error {
	if c.rest == "" {
		fmt.Fprintf(s.out, "Precision: %d\n", s.prec)
		return nil
	}
	val := strings.TrimSpace(strings.TrimPrefix(c.rest, "="))
	n, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return &CommandError{Msg: "Invalid precision definition", Input: c.line}
	}
	if n > MaxPrecision {
		return &CommandError{
			Msg:   "Invalid precision value",
			Input: val,
			Err:   fmt.Errorf("should be <= %d", MaxPrecision),
		}
	}
	s.prec = int(n)
	return nil
}

// list prints every symbol with its value.
func (s *Session) list(c cmdline) error {
	syms := s.syms.Symbols()
	if len(syms) == 0 {
		fmt.Fprintln(s.out, "No variables defined.")
		return nil
	}
	fmt.Fprint(s.out, "Variable\tValue\n--------\t-----\n")
	for _, sym := range syms {
		fmt.Fprintf(s.out, "%s\t\t%s\n", sym.Name, s.Format(sym.Value))
	}
	return nil
}

// history prints the recorded lines with their indices.
func (s *Session) history(c cmdline) error {
	for i, line := range s.hist.Lines() {
		fmt.Fprintf(s.out, "%d\t%s\n", i, line)
	}
	return nil
}

// help prints the table for a help topic.
func (s *Session) help(c cmdline) error {
	topic := strings.Join(strings.Fields(strings.ToLower(c.rest)), " ")
	t, ok := helpTopics[topic]
	if !ok {
		return &CommandError{Msg: "Unknown help topic", Input: topic}
	}
	fmt.Fprint(s.out, t)
	return nil
}

// CommandError is an error from a malformed meta-command.
type CommandError struct {
	// Msg describes the problem.
	Msg string
	// Input is the offending part of the command.
	Input string
	// Err is the underlying error, if any.
	Err error
}

func (err *CommandError) Error() string {
	msg := err.Msg + ": [" + err.Input + "]"
	if err.Err != nil {
		msg += ", " + err.Err.Error()
	}
	return msg
}

func (err *CommandError) Unwrap() error {
	return err.Err
}
