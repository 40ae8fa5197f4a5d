package logger

import (
	"os"
	"sync"
)

var (
	mu     sync.RWMutex
	shared *Logger
)

// GetLogger returns the process-wide logger used by packages built without
// an explicit one. Until SetLogger runs it is a warn-level JSON logger on
// stderr; DEBUG=true or SEOSTRATEGY_LOG_LEVEL override the level.
func GetLogger() *Logger {
	mu.RLock()
	l := shared
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if shared == nil {
		shared = New(Config{Level: envLevel(), Format: "json"})
	}
	return shared
}

// SetLogger installs l as the process-wide logger.
func SetLogger(l *Logger) {
	mu.Lock()
	shared = l
	mu.Unlock()
}

func envLevel() string {
	if os.Getenv("DEBUG") == "true" {
		return "debug"
	}
	if lvl := os.Getenv("SEOSTRATEGY_LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "warn"
}
