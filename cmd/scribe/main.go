package main

import (
	"fmt"
	"os"

	"github.com/harun/scribe/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
