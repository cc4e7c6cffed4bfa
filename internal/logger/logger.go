package logger

import (
	"io"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu sync.RWMutex
	l  = zap.NewNop()
)

// New builds a JSON zap logger writing to w at the given level.
func New(level zapcore.Level, w io.Writer) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Init replaces the package logger and returns it.
func Init(level zapcore.Level, w io.Writer) *zap.Logger {
	logger := New(level, w)

	mu.Lock()
	l = logger
	mu.Unlock()

	return logger
}

// Logger returns the package logger; a no-op logger before Init.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()

	return l
}

// Close flushes any buffered log entries.
func Close() error {
	return Logger().Sync()
}
