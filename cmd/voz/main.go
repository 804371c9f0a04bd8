// Package main is the entry point for the voz voice assistant.
//
// Usage:
//
//	voz [flags] <command>
//
// Commands:
//
//	run      - Run the assistant until interrupted
//	config   - Show the resolved configuration
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/agustinroig/voz/cmd/voz/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
