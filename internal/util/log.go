package util

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

func GetLogger(level slog.Leveler) *slog.Logger {
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	}))

	slog.SetDefault(logger)
	return logger
}

// LevelForMode maps GIN_MODE to a log level; only debug mode logs at debug.
func LevelForMode(ginMode string) slog.Level {
	if ginMode == "debug" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
