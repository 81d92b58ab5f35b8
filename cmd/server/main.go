// Package main is the entry point for the guestbook server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package is kept minimal: all configuration, wiring and startup
// lives in internal/cli, which is testable without a process boundary.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// Each gets its own directory with its own main.go.
package main

import (
	"os"

	"github.com/sakif/guestbook/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
