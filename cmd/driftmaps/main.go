// Command driftmaps validates map configuration and exercises the map view
// lifecycle against a headless renderer.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/drift-maps/cmd/driftmaps/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
