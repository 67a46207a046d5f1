// Package logging wraps go.uber.org/zap in the small set of helpers the
// engine packages use, so call sites read `logging.Named("store")` rather
// than wiring a *zap.Logger through every constructor by hand.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once sync.Once
	base *zap.SugaredLogger
)

// Init installs the process-wide logger. Only the first call takes effect;
// later calls are ignored. A nil logger, or a process that logs without
// ever calling Init, gets a zap development logger.
func Init(logger *zap.Logger) {
	once.Do(func() {
		if logger == nil {
			logger, _ = zap.NewDevelopment()
		}
		base = logger.Sugar()
	})
}

func get() *zap.SugaredLogger {
	if base == nil {
		Init(nil)
	}
	return base
}

// Named returns a logger scoped to a component name, e.g. "store", "hnsw",
// "replication". Components hold onto the returned logger rather than
// calling Named per log line.
func Named(component string) *zap.SugaredLogger {
	return get().Named(component)
}

// Sync flushes buffered log entries; call from main before exit.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
