package main

import (
	"os"

	"github.com/rushteam/novelrec/pkg/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Error().Err(err).Msg("novelrec exited with error")
		os.Exit(1)
	}
}
