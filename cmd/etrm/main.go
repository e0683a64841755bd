package main

import (
	"os"

	"github.com/etrm-io/backoffice/cmd/etrm/commands"
)

// main is the entry point for the unified back-office CLI:
// go run ./cmd/etrm [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
