// ABOUTME: Entry point for wavdeck
// ABOUTME: Hands the command line to the cobra command tree
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/harperreed/wavdeck/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background(), os.Args[1:]); err != nil {
		// the default logger may be writing to a file while the TUI runs
		fmt.Fprintf(os.Stderr, "wavdeck: %v\n", err)
		os.Exit(1)
	}
}
