package logging

import (
	"io"
	"log/slog"
)

// New creates the application logger writing text records to w.
// The TUI owns the terminal while it runs, so callers pass a log file or
// io.Discard there and stderr elsewhere.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
