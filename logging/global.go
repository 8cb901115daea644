package logging

import "sync/atomic"

type globalHolder struct{ Logger }

var global atomic.Pointer[globalHolder]

// Global returns the process logger. Until Init or SetGlobal runs it is a
// console logger with DefaultConfig.
func Global() Logger {
	if h := global.Load(); h != nil {
		return h.Logger
	}
	global.CompareAndSwap(nil, &globalHolder{NewLogger(DefaultConfig())})
	return global.Load().Logger
}

// SetGlobal replaces the process logger.
func SetGlobal(logger Logger) {
	global.Store(&globalHolder{logger})
}

// Init builds a logger from config and makes it the process logger.
func Init(config Config) Logger {
	logger := NewLogger(config)
	SetGlobal(logger)
	return logger
}
