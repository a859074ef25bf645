// Package main - Entry point for the tokengraph CLI
package main

import (
	"fmt"
	"os"

	"tokengraph/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
