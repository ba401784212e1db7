package monitoring

import (
	"fmt"
	"strings"
	"testing"
)

func capture(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := capture(t)

	Logf("rows=%d", 12)
	if len(*lines) != 1 || (*lines)[0] != "rows=12" {
		t.Fatalf("custom logger not used, got %v", *lines)
	}

	SetLogger(nil)
	// no-op logger must not panic or record
	Logf("ignored")
	if len(*lines) != 1 {
		t.Errorf("no-op logger recorded output: %v", *lines)
	}
}

func TestSection(t *testing.T) {
	lines := capture(t)

	Section("Genre evolution analysis")

	if len(*lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(*lines))
	}
	if (*lines)[1] != "GENRE EVOLUTION ANALYSIS" {
		t.Errorf("title = %q", (*lines)[1])
	}
	if (*lines)[0] != strings.Repeat("=", 60) || (*lines)[2] != (*lines)[0] {
		t.Errorf("rule lines malformed: %q / %q", (*lines)[0], (*lines)[2])
	}
}

func TestStep(t *testing.T) {
	lines := capture(t)

	Step(4, "Mood categories")
	if (*lines)[0] != "   4. Mood categories" {
		t.Errorf("got %q", (*lines)[0])
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}
}
