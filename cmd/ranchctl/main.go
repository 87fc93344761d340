// Command ranchctl signs in to a ranch backend, queries its REST API and
// streams live herd events.
package main

import (
	"os"

	"github.com/kbukum/ranchkit/cmd/ranchctl/commands"
)

func main() {
	// Errors are printed by the commands with color formatting.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
