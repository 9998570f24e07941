package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("warn", &buf)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	for _, unwanted := range []string{"[DEBUG]", "[INFO]"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output contains %s:\n%s", unwanted, out)
		}
	}
	for _, wanted := range []string{"[WARN] warn 3", "[ERROR] error 4"} {
		if !strings.Contains(out, wanted) {
			t.Errorf("output missing %q:\n%s", wanted, out)
		}
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("verbose", &buf)

	l.Debug("hidden")
	l.Info("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug line written at fallback level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("info line missing at fallback level")
	}
}
