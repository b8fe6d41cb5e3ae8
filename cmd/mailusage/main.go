// Command mailusage reports mailbox disk usage for WHM/cPanel hosting accounts.
package main

import (
	"os"

	"github.com/idelchi/mailusage/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
//
//nolint:gochecknoglobals // Build-time variable
var version = "unknown - unofficial & generated by unknown"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		os.Exit(1)
	}
}
