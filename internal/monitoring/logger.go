// Package monitoring holds the pipeline's diagnostic logger.
package monitoring

import (
	"log"
	"strings"
)

// Logf is the package-level diagnostic logger used by every pipeline stage.
// It defaults to log.Printf; tests mute it with SetLogger(nil).
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

const bannerWidth = 60

// Section logs a stage heading framed by rule lines.
func Section(title string) {
	rule := strings.Repeat("=", bannerWidth)
	Logf("%s", rule)
	Logf("%s", strings.ToUpper(title))
	Logf("%s", rule)
}

// Step logs a numbered sub-step of a stage, e.g. "   3. Energy level categories".
func Step(n int, what string) {
	Logf("   %d. %s", n, what)
}
