package log

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	logger     *zap.SugaredLogger
	loggerOnce sync.Once
	level      = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// initLogger builds the process-wide logger writing JSON lines to stderr.
// Call Init before the first log line to get the development console encoder.
func initLogger() {
	loggerOnce.Do(func() {
		logger = build(false)
	})
}

func build(development bool) *zap.SugaredLogger {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	}
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		// zap only fails on bad sink/encoder names, which are fixed above.
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// Init selects the encoder. It only has an effect before the first log call.
func Init(development bool) {
	loggerOnce.Do(func() {
		logger = build(development)
	})
}

func SetLevel(l Level) {
	switch l {
	case LevelDebug:
		level.SetLevel(zap.DebugLevel)
	case LevelError:
		level.SetLevel(zap.ErrorLevel)
	default:
		level.SetLevel(zap.InfoLevel)
	}
}

// ParseLevel maps a config string ("debug", "info", "error") to a Level.
// Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	logWithLevel(LevelError, msg, extended...)
}

// Sync flushes buffered entries; call it before exit.
func Sync() {
	initLogger()
	_ = logger.Sync()
}

func logWithLevel(l Level, msg string, kv ...any) {
	initLogger()

	// Drop a trailing key without a value instead of letting zap log a DPANIC.
	if len(kv)%2 != 0 {
		kv = kv[:len(kv)-1]
	}

	switch l {
	case LevelDebug:
		logger.Debugw(msg, kv...)
	case LevelError:
		logger.Errorw(msg, kv...)
	default:
		logger.Infow(msg, kv...)
	}
}
