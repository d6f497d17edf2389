// Package debug provides global debug logging flags
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// enabled controls whether debug logging is active
var enabled atomic.Bool

// tracking controls whether per-frame tracking logs are shown (face lock, puffs).
// Use --debug-tracking to enable these very verbose logs
var tracking atomic.Bool

var (
	outMu  sync.Mutex
	output io.Writer = os.Stdout
)

// SetEnabled toggles general debug output.
func SetEnabled(v bool) { enabled.Store(v) }

// SetTracking toggles per-frame tracking output.
func SetTracking(v bool) { tracking.Store(v) }

// Enabled reports whether general debug output is on.
func Enabled() bool { return enabled.Load() }

// Tracking reports whether per-frame tracking output is on.
func Tracking() bool { return tracking.Load() }

// SetOutput redirects debug output. Nil restores stdout.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	outMu.Lock()
	output = w
	outMu.Unlock()
}

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled() {
		printf(format, args...)
	}
}

// TrackLog prints a message only if tracking debug mode is enabled
func TrackLog(format string, args ...interface{}) {
	if Tracking() {
		printf(format, args...)
	}
}

func printf(format string, args ...interface{}) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(output, format, args...)
}
