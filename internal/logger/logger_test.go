package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn, &buf)

	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestLogger_NonTerminalUsesLogfmt(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions(Options{Level: LevelInfo, Output: &buf})
	l.With("segment", "3").Info("synthesized")

	out := buf.String()
	if !strings.Contains(out, "msg=synthesized") {
		t.Errorf("expected logfmt msg field, got %q", out)
	}
	if !strings.Contains(out, "segment=3") {
		t.Errorf("expected segment field, got %q", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions(Options{Level: LevelDebug, Format: "json", Output: &buf})
	l.Debug("frames %d", 12)

	if !strings.Contains(buf.String(), `"msg":"frames 12"`) {
		t.Errorf("expected json output, got %q", buf.String())
	}
}

func TestLevelString(t *testing.T) {
	if LevelError.String() != "ERROR" {
		t.Errorf("LevelError.String() = %q", LevelError.String())
	}
	if Level(99).String() != "UNKNOWN" {
		t.Errorf("Level(99).String() = %q", Level(99).String())
	}
}
