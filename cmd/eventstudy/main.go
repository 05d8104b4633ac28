package main

import (
	"os"

	"github.com/edgewatch/eventstudy/cmd/eventstudy/commands"
)

// main is the entry point for the eventstudy CLI
// ⭐ unified CLI entry point: go run ./cmd/eventstudy [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
