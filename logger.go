package ridgemesh

import (
	"log/slog"

	"github.com/gogpu/ridgemesh/internal/logging"
)

// SetLogger configures the logger for ridgemesh and all its sub-packages.
// By default, ridgemesh produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by ridgemesh:
//   - [slog.LevelDebug]: per-stage statistics (pixel counts, chain counts,
//     energy ranges, seed counts), tagged with a "stage" attribute
//   - [slog.LevelInfo]: one summary line per Execute call
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	ridgemesh.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger used by ridgemesh.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
