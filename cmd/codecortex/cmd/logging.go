package cmd

import (
	"log/slog"

	"github.com/codecortex/codecortex/internal/logging"
)

// loggingSetup wires --debug to the rotating-file logger.
func loggingSetup() (*slog.Logger, func(), error) {
	return logging.Setup(logging.DebugConfig())
}
