// Package main is the entry point for the swaption CLI.
package main

import (
	"os"

	"github.com/meenmo/bermudan/cmd/swaption/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
