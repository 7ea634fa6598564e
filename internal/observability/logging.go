package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the engine's slog.Logger the way util.InitSlog configures
// the teacher's default logger from LOG_LEVEL, except the text handler
// writes to both stderr and the rotating log file named by path, so an
// operator watching the console sees the same lines import.log accumulates.
func NewLogger(path string) (*slog.Logger, *RotatingWriter, error) {
	rw, err := NewRotatingWriter(path)
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		switch strings.ToLower(v) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, rw), &slog.HandlerOptions{Level: level})
	return slog.New(handler), rw, nil
}
