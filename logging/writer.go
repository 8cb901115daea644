package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newFileWriter returns a rotating writer for config.File.
func newFileWriter(config Config) *lumberjack.Logger {
	_ = os.MkdirAll(filepath.Dir(config.File), 0o755)
	return &lumberjack.Logger{
		Filename:   config.File,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
		LocalTime:  true,
	}
}

// getWriteSyncer combines the terminal and file sinks enabled by config.
// With neither enabled, entries are discarded.
func getWriteSyncer(config Config) zapcore.WriteSyncer {
	var syncers []zapcore.WriteSyncer
	if config.LogInTerminal {
		syncers = append(syncers, zapcore.Lock(os.Stderr))
	}
	if config.File != "" {
		syncers = append(syncers, zapcore.AddSync(newFileWriter(config)))
	}

	switch len(syncers) {
	case 0:
		return zapcore.AddSync(discard{})
	case 1:
		return syncers[0]
	default:
		return zapcore.NewMultiWriteSyncer(syncers...)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
