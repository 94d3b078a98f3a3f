// Package nanocalc implements a floating-point scientific calculator engine.
//
// The syntax of expressions is intended to be similar to math you'd write in
// your notes, with maybe a few more spaces. "2 x y" is a multiplication of
// three terms, and so are "2x y" and "{2}[x](y)" (although not "2 xy").
// Adjacent terms group exactly like "*", so "8/2x" is "(8/2)*x". A function
// of one argument may take it without brackets, in which case the argument is
// every adjacent term: "sin 2x" is "sin(2*x)".
// "-2^2^n" is the same as "-(2^(2^n))", where "a^b" is exponentiation.
//
// Comparisons and the logical operators and, or, xor, not, nand and nor
// produce 1 for true and 0 for false; any nonzero operand is true.
// Assignments are expressions too: "z := x + 1" stores the value of x + 1 in
// z and evaluates to it, as does "z <- x + 1".
//
// Variables live in a SymbolTable. Parse an expression once and evaluate it
// for many inputs, or share one table between a parser and a context so that
// names defined by one expression are visible to the next.
package nanocalc
