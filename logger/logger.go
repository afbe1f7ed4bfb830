// Package logger builds the zap loggers used by the linkfinder binaries.
//
// Everything goes to stderr: the requester's stdout is a fixed transcript and
// must not be interleaved with log lines.
package logger

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "", // no need
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(rfc3339Milli),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New returns a console logger writing to stderr. debug lowers the level to DEBUG.
func New(name string, debug bool) *zap.Logger {
	return NewWithWriter(os.Stderr, name, debug)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(w io.Writer, name string, debug bool) *zap.Logger {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(w), level)
	return zap.New(core, zap.AddCaller()).Named(name)
}

// NewService returns the daemon logger on stderr: JSON lines at INFO, or the
// console format at DEBUG when debug is set.
func NewService(name string, debug bool) *zap.Logger {
	return NewServiceWithWriter(os.Stderr, name, debug)
}

// NewServiceWithWriter is NewService with an explicit sink.
func NewServiceWithWriter(w io.Writer, name string, debug bool) *zap.Logger {
	if debug {
		return NewWithWriter(w, name, true)
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(w), zap.InfoLevel)
	return zap.New(core, zap.AddCaller()).Named(name)
}

// Since is a convenience field for request durations.
func Since(start time.Time) zap.Field {
	return zap.Duration("duration", time.Since(start))
}
