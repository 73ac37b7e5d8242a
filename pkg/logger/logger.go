package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Leveled logger shared by the API server and the worker.
// Backed by a zap SugaredLogger; the level can be changed at runtime with Init.

var (
	mu    sync.RWMutex
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar = newSugar(level)
)

func newSugar(lvl zap.AtomicLevel) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	case "fatal":
		level.SetLevel(zapcore.FatalLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// SetCore replaces the output core. The level filter set by Init still applies.
func SetCore(core zapcore.Core) {
	mu.Lock()
	defer mu.Unlock()
	sugar = zap.New(&leveledCore{Core: core}, zap.AddCallerSkip(1)).Sugar()
}

// leveledCore gates an arbitrary core with the package level.
type leveledCore struct {
	zapcore.Core
}

func (c *leveledCore) Enabled(l zapcore.Level) bool {
	return level.Enabled(l) && c.Core.Enabled(l)
}

func (c *leveledCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !level.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{Core: c.Core.With(fields)}
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// With returns a logger carrying the given key/value pairs.
func With(kv ...interface{}) *zap.SugaredLogger {
	return get().With(kv...)
}

func Debugf(format string, v ...interface{}) { get().Debugf(format, v...) }
func Infof(format string, v ...interface{})  { get().Infof(format, v...) }
func Warnf(format string, v ...interface{})  { get().Warnf(format, v...) }
func Errorf(format string, v ...interface{}) { get().Errorf(format, v...) }

// Fatalf logs and exits the process.
func Fatalf(format string, v ...interface{}) { get().Fatalf(format, v...) }

func Debug(v string) { get().Debug(v) }
func Info(v string)  { get().Info(v) }
func Warn(v string)  { get().Warn(v) }
func Error(v string) { get().Error(v) }

// Sync flushes buffered entries.
func Sync() {
	_ = get().Sync()
}

// LevelString returns the current level as text.
func LevelString() string {
	return level.Level().String()
}
