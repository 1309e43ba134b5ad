// Package main is the entry point for the dispatchd CLI.
package main

import (
	"os"

	"github.com/orgraph/dispatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
