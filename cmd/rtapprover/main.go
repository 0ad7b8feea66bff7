// Command rtapprover evaluates round trips of digitized newspaper batches
// against their manual QA history.
package main

import (
	"errors"
	"fmt"
	"os"
)

var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and maps errors to exit codes: 1 for infrastructure
// or usage errors, 2 when an evaluation reported a failure.
func run(args []string) int {
	rootCmd := newRootCmd(os.Stdout)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFailuresReported):
		return 2
	default:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
}
