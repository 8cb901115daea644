package logging

import (
	"go.uber.org/zap"
)

// Logger is the structured logger handed to every pipeline component.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)

	Infof(format string, args ...any)
	Warnf(format string, args ...any)

	// With returns a child logger that adds fields to every entry.
	With(fields ...zap.Field) Logger
	// Named returns a child logger for one component, e.g. "builder".
	Named(name string) Logger
	// ForImage returns a child logger tagged with a source image path.
	ForImage(relPath string) Logger

	Zap() *zap.Logger
	Sync() error
}

type zapLogger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

// NewLogger builds a Logger writing where config says.
func NewLogger(config Config) Logger {
	config.applyDefaults()

	var opts []zap.Option
	if config.ShowCaller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	return FromZap(zap.New(getZapCore(config), opts...))
}

// NewNop returns a Logger that discards everything. Tests and library
// callers that pass no logger get this one.
func NewNop() Logger {
	return FromZap(zap.NewNop())
}

// FromZap wraps zl.
func FromZap(zl *zap.Logger) Logger {
	return &zapLogger{base: zl, sugar: zl.Sugar()}
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.base.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.base.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.base.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.base.Error(msg, fields...) }

func (l *zapLogger) Infof(format string, args ...any) { l.sugar.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...any) { l.sugar.Warnf(format, args...) }

func (l *zapLogger) With(fields ...zap.Field) Logger {
	return FromZap(l.base.With(fields...))
}

func (l *zapLogger) Named(name string) Logger {
	return FromZap(l.base.Named(name))
}

func (l *zapLogger) ForImage(relPath string) Logger {
	return l.With(Path(relPath))
}

func (l *zapLogger) Zap() *zap.Logger { return l.base }

func (l *zapLogger) Sync() error { return l.base.Sync() }

var _ Logger = (*zapLogger)(nil)
