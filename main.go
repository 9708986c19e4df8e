package main

import (
	"fmt"
	"os"

	"github.com/fewx/gfsproc/cmd"
	"github.com/fewx/gfsproc/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	isVerbose := false
	for _, arg := range os.Args {
		if arg == "--verbose" || arg == "-v" {
			isVerbose = true
		}
	}

	// Terminal logging until a command opens its run log directory.
	err := logging.ConfigureGlobalLogger(isVerbose, false, "")
	if err != nil {
		// Fallback to basic stderr if logger setup fails
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	cmd.SetDependencies(cmd.DefaultDependencies())

	log.Debug().Msg("Starting gfsproc command execution")
	cmd.Execute()
}
