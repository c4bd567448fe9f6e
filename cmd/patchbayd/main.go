// Package main is the entry point for the patchbayd daemon.
// patchbayd owns the performance state: slot decks, mixer, tiles and
// presets, persisted to a JSON document and served to output processes
// and remote clients.
package main

import (
	"fmt"
	"os"

	"github.com/patchbay-vj/patchbay/internal/cli"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var _ = []string{commit, date}

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
