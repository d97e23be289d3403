// Package logx keeps the component tagged logging calls used across the bot
// ("[INFO] [Bot] ...") on top of a zap logger.
package logx

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.SugaredLogger]

func init() {
	current.Store(zap.NewNop().Sugar())
}

// Init builds the process logger. dev and local environments get the
// colored console encoder, anything else gets JSON.
func Init(level, env string) error {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("logx: %w", err)
	}

	var cfg zap.Config
	switch env {
	case "dev", "local":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return fmt.Errorf("logx: build logger: %w", err)
	}
	SetLogger(l)
	return nil
}

// SetLogger swaps the process logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	current.Store(l.Sugar())
}

func Sync() {
	_ = current.Load().Sync()
}

// --- Public API ---

func Debug(component, msg string, args ...any) {
	logGeneric(zapcore.DebugLevel, "", component, msg, args...)
}

func Info(component, msg string, args ...any) {
	logGeneric(zapcore.InfoLevel, "", component, msg, args...)
}

func Warn(component, msg string, args ...any) {
	logGeneric(zapcore.WarnLevel, "", component, msg, args...)
}

func Error(component, msg string, args ...any) {
	logGeneric(zapcore.ErrorLevel, "", component, msg, args...)
}

// L logs at info level with a correlation id, one per command invocation.
func L(id, component, msg string, args ...any) {
	logGeneric(zapcore.InfoLevel, id, component, msg, args...)
}

// LE is L at error level.
func LE(id, component, msg string, args ...any) {
	logGeneric(zapcore.ErrorLevel, id, component, msg, args...)
}

// --- Core ---

func logGeneric(level zapcore.Level, id, component, msg string, args ...any) {
	full := msg
	if len(args) > 0 {
		full = fmt.Sprintf(msg, args...)
	}

	kv := []any{"component", component}
	if id != "" {
		kv = append(kv, "id", id)
	}
	l := current.Load()
	switch level {
	case zapcore.DebugLevel:
		l.Debugw(full, kv...)
	case zapcore.WarnLevel:
		l.Warnw(full, kv...)
	case zapcore.ErrorLevel:
		l.Errorw(full, kv...)
	default:
		l.Infow(full, kv...)
	}
}
