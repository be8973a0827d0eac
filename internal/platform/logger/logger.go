package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger handed to every component. Key/value pairs
// pass through a redactor before they reach zap.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
	redact        *redactor
}

// New builds a logger for the given run mode:
//
//	prod, production  JSON lines at info level
//	test              no output
//	anything else     colored console at debug level
//
// LOG_LEVEL overrides the level, LOG_REDACTION_ENABLED=false turns scrubbing off
// and LOG_HASH_SALT salts hashed identifiers.
func New(mode string) (*Logger, error) {
	var (
		cfg   zap.Config
		level = zapcore.DebugLevel
	)
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "test":
		return NewNop(), nil
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		level = zapcore.InfoLevel
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if parsed, err := zapcore.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: z.Sugar(), redact: redactorFromEnv()}, nil
}

func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), redact: &redactor{}}
}

// NewWithCore wraps an existing zap core; tests use it with zaptest/observer.
func NewWithCore(core zapcore.Core, redaction bool) *Logger {
	return &Logger{
		SugaredLogger: zap.New(core).Sugar(),
		redact:        &redactor{enabled: redaction},
	}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.SugaredLogger.Debugw(msg, l.redact.apply(kv)...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.SugaredLogger.Infow(msg, l.redact.apply(kv)...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.SugaredLogger.Warnw(msg, l.redact.apply(kv)...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.SugaredLogger.Errorw(msg, l.redact.apply(kv)...) }
func (l *Logger) Fatal(msg string, kv ...interface{}) { l.SugaredLogger.Fatalw(msg, l.redact.apply(kv)...) }

func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(l.redact.apply(kv)...), redact: l.redact}
}

// WithSession scopes the logger to one saved session.
func (l *Logger) WithSession(id string) *Logger {
	return l.With("session_id", id)
}
