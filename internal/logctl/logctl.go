// Package logctl provides the control thread's structured logger. The
// render thread never logs on its hot path; the callers of this package
// are control-thread paths: sink construction, the state machine's
// driver-hook rejection, hook observer errors, the volume fallback, and
// cmd/sinkd.
package logctl

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	once    sync.Once
	control *log.Logger
)

// Control returns the shared control-thread logger, creating it on first
// use with the prefix every sink-engine log line carries.
func Control() *log.Logger {
	once.Do(func() {
		control = log.NewWithOptions(os.Stderr, log.Options{
			Prefix:          "sinkengine",
			ReportTimestamp: true,
		})
	})
	return control
}

// SetOutput lets cmd/sinkd route logs to a configured writer instead of
// stderr; tests never call this.
func SetOutput(l *log.Logger) {
	once.Do(func() {})
	control = l
}
