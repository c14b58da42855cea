package logger

import (
	"io"
	"os"
	"time"

	"storefront/internal/config"

	"github.com/rs/zerolog"
)

// Newは設定からルートロガーを作る
func New(cfg *config.Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Env.Log.Level)
	if err != nil || cfg.Env.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Env.Debug {
		level = zerolog.DebugLevel
	}

	if cfg.Env.Log.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.Env.ServiceName).
		Str("env", cfg.Env.Env).
		Logger()
}
