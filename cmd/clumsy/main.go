// Command clumsy runs and inspects ownership scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/clumsy/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
