package telemetry

import (
	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
	"log/slog"
)

// NewZerologHandler returns a slog.Handler writing through logger.
// Records below the logger's own level are dropped.
func NewZerologHandler(logger zerolog.Logger) slog.Handler {
	return slogzerolog.Option{
		Level:  slogLevel(logger.GetLevel()),
		Logger: &logger,
	}.NewZerologHandler()
}

func slogLevel(level zerolog.Level) slog.Level {
	switch {
	case level <= zerolog.DebugLevel:
		return slog.LevelDebug
	case level == zerolog.InfoLevel:
		return slog.LevelInfo
	case level == zerolog.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
