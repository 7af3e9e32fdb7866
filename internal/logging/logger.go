// Package logging provides zap logger helpers.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pharmawatch/eofscraper/internal/config"
)

// New builds a zap.Logger from the logging configuration. Console
// output always goes to stderr; when a file path is configured a
// second JSON core writes to a size-rotated log file.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	jsonEnc := zap.NewProductionEncoderConfig()
	jsonEnc.TimeKey = "ts"
	jsonEnc.EncodeTime = zapcore.ISO8601TimeEncoder

	var consoleCore zapcore.Core
	consoleSink := zapcore.Lock(os.Stderr)
	if cfg.Development {
		devEnc := zap.NewDevelopmentEncoderConfig()
		devEnc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleCore = zapcore.NewCore(zapcore.NewConsoleEncoder(devEnc), consoleSink, level)
	} else {
		consoleCore = zapcore.NewCore(zapcore.NewJSONEncoder(jsonEnc), consoleSink, level)
	}

	cores := []zapcore.Core{consoleCore}
	if cfg.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonEnc), zapcore.AddSync(rotator), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	if cfg.Development {
		logger = logger.WithOptions(zap.Development())
	}
	return logger, nil
}
