// Package main is the entry point for git-privacy.
package main

import (
	"fmt"
	"os"

	"github.com/empri-devops/git-privacy/internal/cli"
	gperrors "github.com/empri-devops/git-privacy/internal/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return gperrors.ExitCode(err)
	}
	return 0
}
