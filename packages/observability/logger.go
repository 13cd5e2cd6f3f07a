// Package observability builds the structured logger shared by the CLI and
// the execution packages.
package observability

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/abdul-hamid-achik/hitflow/packages/core/config"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Options adjust logger construction beyond what the config file holds
type Options struct {
	// Color enables coloured levels for the console format
	Color bool
	// Name is attached to every entry as the logger name
	Name string
}

// NewLogger builds a logger writing to console and, when cfg.File is set, a
// rotating JSON file. An unknown level falls back to info.
func NewLogger(cfg config.LoggerConfig, console zapcore.WriteSyncer, opts Options) *zap.Logger {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(cfg.Format, opts.Color), console, level),
	}

	if cfg.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(newEncoder("json", false), fileWriter, level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel))
	if opts.Name != "" {
		logger = logger.Named(opts.Name)
	}
	return logger
}

// NewStderrLogger is NewLogger writing console output to stderr
func NewStderrLogger(cfg config.LoggerConfig, opts Options) *zap.Logger {
	return NewLogger(cfg, zapcore.Lock(os.Stderr), opts)
}

func newEncoder(format string, color bool) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)

	if strings.EqualFold(format, "json") {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(encoderConfig)
	}

	if color {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}
