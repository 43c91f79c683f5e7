package cli

import (
	"io"
	"log/slog"
	"strings"

	"quiz-duel-service/internal/config"
	"quiz-duel-service/internal/lib/slogcustom"
)

// newLogger builds the process logger: colored text for local runs, JSON otherwise.
func newLogger(out io.Writer, cfg config.Log) *slog.Logger {
	level := new(slog.LevelVar)
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level.Set(slog.LevelInfo)
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	default:
		handler = slogcustom.NewCustomHandler(out, level)
	}
	return slog.New(handler)
}
