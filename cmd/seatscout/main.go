// Package main is the entry point for the seatscout CLI.
package main

import (
	"os"

	"github.com/rewired-gh/seatscout/cmd/seatscout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
