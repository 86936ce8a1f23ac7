package compiler

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"kiln/pkg/logging"
)

// DefaultWarnCacheSize bounds how many distinct warnings WarnOnce remembers.
const DefaultWarnCacheSize = 256

// LogCompileFailure is the default failure callback.
func LogCompileFailure(err error) {
	logging.Error("Compiler", err, "Build failed")
}

// WarnOnce logs each distinct warning message a single time. Messages
// evicted from the cache may be logged again.
type WarnOnce struct {
	seen *lru.Cache[string, struct{}]
}

// NewWarnOnce returns a WarnOnce remembering up to size messages. A
// non-positive size selects DefaultWarnCacheSize.
func NewWarnOnce(size int) *WarnOnce {
	if size <= 0 {
		size = DefaultWarnCacheSize
	}
	// lru.New only fails for non-positive sizes.
	seen, _ := lru.New[string, struct{}](size)
	return &WarnOnce{seen: seen}
}

// Warn logs message unless it was already logged.
func (w *WarnOnce) Warn(message string) {
	if found, _ := w.seen.ContainsOrAdd(message, struct{}{}); found {
		return
	}
	logging.Warn("Compiler", "%s", message)
}
