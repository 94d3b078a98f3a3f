// Command nanocalc is an interactive scientific calculator. It reads
// expressions and commands from standard input one line at a time until end
// of input or quit.
package main

import (
	"os"

	"fortio.org/log"

	"github.com/zephyrtronium/nanocalc/repl"
)

func main() {
	s := repl.New(os.Stdout)
	if err := s.Run(os.Stdin); err != nil {
		log.Fatalf("%v", err)
	}
}
