// Command nodegraph is a line-oriented editor for typed node graphs.
package main

import (
	"fmt"
	"io"
	"os"
)

// Version information set by ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if err := run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the CLI against the given streams. It never exits the
// process, so tests can drive it directly.
func run(in io.Reader, out, errOut io.Writer, args []string) error {
	cmd := newRootCmd(in, out, errOut)
	cmd.SetArgs(args)
	return cmd.Execute()
}
