package log

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger     atomic.Pointer[zap.SugaredLogger]
	loggerOnce sync.Once
	minLevel   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// initLogger installs the default stderr logger unless Configure or Use
// already replaced it.
func initLogger() {
	loggerOnce.Do(func() {
		if logger.Load() != nil {
			return
		}
		l, err := build("")
		if err != nil {
			l = zap.NewNop()
		}
		logger.Store(l.Sugar())
	})
}

func build(path string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = minLevel
	cfg.Development = false
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	if path != "" {
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	} else {
		cfg.OutputPaths = []string{"stderr"}
	}
	return cfg.Build()
}

// Configure sets the minimum level and the destination. An empty path
// writes to stderr.
func Configure(level Level, path string) error {
	SetLevel(level)
	l, err := build(path)
	if err != nil {
		return fmt.Errorf("build logger for %q: %w", path, err)
	}
	Use(l)
	return nil
}

// Use replaces the underlying zap logger. Tests install an observer core here.
func Use(l *zap.Logger) {
	loggerOnce.Do(func() {})
	logger.Store(l.Sugar())
}

func SetLevel(l Level) {
	minLevel.SetLevel(zapLevel(l))
}

// ParseLevel accepts level names case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo, "":
		return LevelInfo, nil
	case LevelWarn, "WARNING":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	}
	return "", fmt.Errorf("unknown log level %q", s)
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func Debug(msg string, kv ...any) {
	get().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	get().Infow(msg, kv...)
}

func Warn(msg string, kv ...any) {
	get().Warnw(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	get().Errorw(msg, extended...)
}

// Sync flushes buffered entries; call it before exit.
func Sync() error {
	return get().Sync()
}

func get() *zap.SugaredLogger {
	initLogger()
	return logger.Load()
}
