// Package main is the entry point for the lorecheck CLI.
package main

import (
	"os"

	"github.com/aidanlsb/lorecheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
