// Command solq compiles request documents and binds facet responses.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/solq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
