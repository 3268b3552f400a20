package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Leveled logger used across the phone book service.
// - printf-style helpers (Debugf/Infof/...) for call sites that log free text
// - L() exposes the structured zap logger for request logs and fields

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu       sync.RWMutex
	level    = LevelInfo
	atom     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	encoding = "console"
	base     = build(os.Stdout)
	sugar    = base.Sugar()
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
	atom.SetLevel(zapLevel(level))
}

// SetFormat switches between "console" (default) and "json" encoding.
func SetFormat(f string) {
	mu.Lock()
	defer mu.Unlock()
	if strings.EqualFold(strings.TrimSpace(f), "json") {
		encoding = "json"
	} else {
		encoding = "console"
	}
	base = build(os.Stdout)
	sugar = base.Sugar()
}

// InitWithWriter redirects output, mainly for tests.
func InitWithWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = build(w)
	sugar = base.Sugar()
}

func build(w io.Writer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	var enc zapcore.Encoder
	if encoding == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), atom)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// L returns the structured logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Debugf(format string, v ...interface{}) { current().Debugf(format, v...) }
func Infof(format string, v ...interface{})  { current().Infof(format, v...) }
func Warnf(format string, v ...interface{})  { current().Warnf(format, v...) }
func Errorf(format string, v ...interface{}) { current().Errorf(format, v...) }

// Fatalf logs and exits regardless of the configured level.
func Fatalf(format string, v ...interface{}) {
	current().Errorf(format, v...)
	_ = L().Sync()
	os.Exit(1)
}

// Debug/Info/Warn/Error helpers that accept a single string
func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// Sync flushes buffered entries.
func Sync() { _ = L().Sync() }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	switch level {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}
