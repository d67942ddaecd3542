// Package main provides the entry point for the codecortex CLI.
package main

import (
	"os"

	"github.com/codecortex/codecortex/cmd/codecortex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
