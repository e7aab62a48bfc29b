// Package logger wraps a zap SugaredLogger with key/value scrubbing so
// secrets and user identities never reach log output in the clear.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a JSON production logger for "prod"/"production" and a console
// development logger otherwise. LOG_LEVEL overrides the debug default.
func New(mode string) (*Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if m := strings.ToLower(strings.TrimSpace(mode)); m == "prod" || m == "production" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(envLevel(os.Getenv("LOG_LEVEL")))
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: z.Sugar()}, nil
}

func Nop() *Logger { return &Logger{SugaredLogger: zap.NewNop().Sugar()} }

func envLevel(raw string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(raw))
	if raw == "" || err != nil {
		return zapcore.DebugLevel
	}
	return lvl
}

func (l *Logger) Debug(msg string, kv ...any) { l.SugaredLogger.Debugw(msg, scrub(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.SugaredLogger.Infow(msg, scrub(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.SugaredLogger.Warnw(msg, scrub(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.SugaredLogger.Errorw(msg, scrub(kv)...) }
func (l *Logger) Fatal(msg string, kv ...any) { l.SugaredLogger.Fatalw(msg, scrub(kv)...) }

// With returns a child logger carrying kv on every line.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(scrub(kv)...)}
}

func (l *Logger) Sync() {
	if l != nil {
		_ = l.SugaredLogger.Sync()
	}
}
