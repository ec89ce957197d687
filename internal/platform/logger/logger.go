package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger writing to stdout. Services and
// handlers take *slog.Logger so tests can pass slog.New(slog.DiscardHandler).
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
