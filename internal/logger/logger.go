package logger

import (
	"os"

	"go.uber.org/zap"
)

var log *zap.Logger

// Init initializes the global logger. Production mode (JSON output) is
// selected when ENV=production, development mode otherwise.
func Init() {
	env := os.Getenv("ENV")

	var err error
	if env == "production" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	zap.ReplaceGlobals(log)
}

// L returns the global logger instance.
func L() *zap.Logger {
	if log == nil {
		Init()
	}
	return log
}

// Sync flushes any buffered log entries.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
