package etf

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package's logger instance. It uses a no-op
// logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package's logger. Sessions and Encoders
// created without their own logger use it.
//
// SetLogger must be called before creating any Session or Encoder.
func SetLogger(l *zap.Logger) {
	logger = l
}
