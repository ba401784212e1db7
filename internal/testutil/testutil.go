// Package testutil provides shared test helpers for the pipeline packages.
package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/banshee-data/chartlab/internal/monitoring"
)

// MuteLogs silences the pipeline logger for the duration of the test.
func MuteLogs(t testing.TB) {
	t.Helper()
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.Logf = original })
	monitoring.SetLogger(nil)
}

// Logs collects formatted pipeline log lines.
type Logs struct {
	mu    sync.Mutex
	lines []string
}

// Lines returns a copy of the captured lines.
func (l *Logs) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// CaptureLogs redirects the pipeline logger into a Logs buffer for the
// duration of the test.
func CaptureLogs(t testing.TB) *Logs {
	t.Helper()
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.Logf = original })

	logs := &Logs{}
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logs.mu.Lock()
		defer logs.mu.Unlock()
		logs.lines = append(logs.lines, fmt.Sprintf(format, v...))
	})
	return logs
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
