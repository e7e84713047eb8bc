package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Production emits JSON for
// the log pipeline; development keeps human-readable text.
func New(production bool) *slog.Logger {
	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
