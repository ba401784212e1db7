package testutil

import (
	"errors"
	"testing"

	"github.com/banshee-data/chartlab/internal/monitoring"
)

func TestCaptureLogs(t *testing.T) {
	logs := CaptureLogs(t)
	monitoring.Logf("loaded %d rows", 3)
	monitoring.Section("merge")

	lines := logs.Lines()
	if len(lines) != 4 {
		t.Fatalf("got %d lines: %v", len(lines), lines)
	}
	if lines[0] != "loaded 3 rows" || lines[2] != "MERGE" {
		t.Errorf("unexpected lines: %v", lines)
	}
}

func TestMuteLogsRestores(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()

	var calls int
	monitoring.SetLogger(func(string, ...interface{}) { calls++ })

	t.Run("muted", func(t *testing.T) {
		MuteLogs(t)
		monitoring.Logf("hidden")
	})
	monitoring.Logf("visible")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestAssertHelpersPass(t *testing.T) {
	AssertNoError(t, nil)
	AssertError(t, errors.New("boom"))
}
