// Command appstore runs the publisher and app catalog.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/appstore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
