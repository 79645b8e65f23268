// Package monitoring holds the diagnostic logger shared by the conversion
// packages and the progress observer used during long scans.
package monitoring

import (
	"log"
	"os"
	"strings"
)

// LogLevelEnv names the environment variable that enables debug output.
const LogLevelEnv = "COCO_TOOLS_LOG_LEVEL"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var debug = strings.EqualFold(os.Getenv(LogLevelEnv), "debug")

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug toggles debug logging, overriding the environment.
func SetDebug(on bool) {
	debug = on
}

// DebugEnabled reports whether Debugf output is emitted.
func DebugEnabled() bool {
	return debug
}

// Debugf logs through Logf only when debug logging is enabled.
func Debugf(format string, v ...interface{}) {
	if debug {
		Logf(format, v...)
	}
}
