package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf})
	l.With("component", "objective").Debug("refresh", "value", 1.5)
	out := buf.String()
	if !strings.Contains(out, `"component":"objective"`) || !strings.Contains(out, `"value":1.5`) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug || ParseLevel("warn") != slog.LevelWarn || ParseLevel("bogus") != slog.LevelInfo {
		t.Errorf("bad level parsing")
	}
}
