// Package logging wraps zap's sugared logger behind key/value helpers.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output encodings
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

type Logger struct {
	s *zap.SugaredLogger
}

// New builds a JSON logger writing to stderr
func New(level string) *Logger {
	return NewWithFormat(level, FormatJSON)
}

// NewWithFormat builds a logger with the given encoding. Console output is
// meant for humans at a terminal: short timestamps, no stack traces.
func NewWithFormat(level, format string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if strings.EqualFold(format, FormatConsole) {
		cfg.Encoding = FormatConsole
		cfg.DisableStacktrace = true
		cfg.DisableCaller = true
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	}

	z, err := cfg.Build()
	if err != nil {
		z, _ = zap.NewProduction()
	}
	return &Logger{s: z.Sugar()}
}

func NewNop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

// Named scopes the logger to a component, e.g. "scoring" or "cvr"
func (l *Logger) Named(component string) *Logger {
	return &Logger{s: l.s.Named(component)}
}

func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{s: l.s.With(keyvals...)}
}

func (l *Logger) Debug(msg string, keyvals ...any) {
	l.s.Debugw(msg, keyvals...)
}

func (l *Logger) Info(msg string, keyvals ...any) {
	l.s.Infow(msg, keyvals...)
}

func (l *Logger) Warn(msg string, keyvals ...any) {
	l.s.Warnw(msg, keyvals...)
}

func (l *Logger) Error(msg string, keyvals ...any) {
	l.s.Errorw(msg, keyvals...)
}

func (l *Logger) Sync() error {
	return l.s.Sync()
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level zapcore.Level) bool {
	return l.s.Desugar().Core().Enabled(level)
}

// ParseLevel maps a level name to zap's level; unknown names mean info
func ParseLevel(level string) zapcore.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
