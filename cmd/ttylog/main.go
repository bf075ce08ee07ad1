// Command ttylog records terminal output as the lines a person actually saw.
package main

import (
	"os"

	"github.com/Iron-Ham/ttylog/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
