package hwbits

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggerMu sync.RWMutex
	logger   logrus.FieldLogger = logrus.StandardLogger()
)

// SetLogger replaces the package logger. Binding and nested resolution are
// traced at debug level; nil restores the logrus standard logger.
func SetLogger(l logrus.FieldLogger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		logger = logrus.StandardLogger()
		return
	}
	logger = l
}

// Logger returns the package logger, for glue packages that log alongside
// the engine.
func Logger() logrus.FieldLogger { return log() }

func log() logrus.FieldLogger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	return l
}
