// Package obslog wraps zap for the structured logging every mutating
// pygit operation emits: one line per add/commit/checkout/push/pull/
// clone, and one line per server-accepted connection. Read-only
// commands emit no log lines.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps *zap.Logger with the level parsing pygit's CLI needs.
type Logger struct {
	*zap.Logger
}

// New builds a Logger at the given level ("info" or "debug").
func New(level string) (*Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig = zap.NewDevelopmentEncoderConfig()

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{logger}, nil
}

// Quiet builds a Logger that discards everything below warn: the
// fallback when New fails, and the server's logger when none is given.
func Quiet() *Logger {
	l, err := New("warn")
	if err != nil {
		return &Logger{zap.NewNop()}
	}
	return l
}

// Operation returns a child logger tagged with the repo operation name,
// for the one-structured-line-per-mutating-call convention.
func (l *Logger) Operation(name string) *zap.Logger {
	return l.With(zap.String("op", name))
}
