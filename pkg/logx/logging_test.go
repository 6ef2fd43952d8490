package logx

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want Level
	}{
		{raw: "debug", want: LevelDebug},
		{raw: " INFO ", want: LevelInfo},
		{raw: "warning", want: LevelWarn},
		{raw: "critical", want: LevelCritical},
		{raw: "nonsense", want: LevelError},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.raw, LevelError); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestCriticalDoesNotExit(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "test"))

	log.Critical("missing variable", String("name", "PRACTICUM_TOKEN"))

	line := strings.TrimSpace(buf.String())
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	if m["level"] != "fatal" {
		t.Fatalf("level = %v, want fatal", m["level"])
	}
	if m["comp"] != "test" || m["name"] != "PRACTICUM_TOKEN" {
		t.Fatalf("unexpected fields: %v", m)
	}
}

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero Logger should report IsZero")
	}
	l.Info("dropped")
	if Nop().IsZero() {
		t.Fatal("Nop logger should not be zero")
	}
}
