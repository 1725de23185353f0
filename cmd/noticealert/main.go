// Command noticealert answers questions about pipeline notices and posts
// alerts when their answers change.
package main

import (
	"os"

	"github.com/wcreiley/notice-alert-system/internal/adapters/driving/cli"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
