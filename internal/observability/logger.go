package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger writes JSON lines to stdout. Debug output is only enabled in dev.
func NewLogger(env, service string) *slog.Logger {
	return newLogger(env, service, os.Stdout)
}

func newLogger(env, service string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		// credentials never reach the log, whatever a caller passes in
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case "password", "password_hash", "token":
				return slog.String(a.Key, "[redacted]")
			}
			return a
		},
	})

	return slog.New(NewContextHandler(handler)).With("service", service, "env", env)
}
