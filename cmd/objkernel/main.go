// Command objkernel inspects the object model kernel: builtin declarations,
// user declarations, conformance scenarios and the incident log.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/objkernel/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
