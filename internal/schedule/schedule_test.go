package schedule

import (
	"testing"
	"time"
)

func TestParseVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		raw      string
		kind     Kind
		source   string
		duration time.Duration
	}{
		{name: "default", raw: "", kind: KindInterval, source: "duration", duration: 10 * time.Minute},
		{name: "cron", raw: "*/10 * * * *", kind: KindCron, source: "cron"},
		{name: "prefixed cron", raw: "cron:0 9 * * *", kind: KindCron, source: "cron"},
		{name: "descriptor", raw: "@every 5m", kind: KindCron, source: "cron"},
		{name: "duration", raw: "10m", kind: KindInterval, source: "duration", duration: 10 * time.Minute},
		{name: "prefixed interval", raw: "interval:45s", kind: KindInterval, source: "duration", duration: 45 * time.Second},
		{name: "every prefix", raw: "every:00:30", kind: KindInterval, source: "hhmm", duration: 30 * time.Minute},
		{name: "hhmm", raw: "01:30", kind: KindInterval, source: "hhmm", duration: 90 * time.Minute},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.raw, err)
			}
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.Source != tt.source {
				t.Fatalf("Source = %s, want %s", got.Source, tt.source)
			}
			if tt.kind == KindInterval && got.Every != tt.duration {
				t.Fatalf("Every = %v, want %v", got.Every, tt.duration)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"not-a-schedule", "cron:", "cron:61 * * * *", "500ms", "-5m", "00:00", "01:75"} {
		if _, err := Parse(raw); err == nil {
			t.Fatalf("Parse(%q): expected error", raw)
		}
	}
}

func TestNextInterval(t *testing.T) {
	t.Parallel()
	s, err := Parse("10m")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	if got, want := s.Next(now), now.Add(10*time.Minute); !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestNextCron(t *testing.T) {
	t.Parallel()
	s, err := Parse("*/15 * * * *")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 10, 17, 12, 7, 30, 0, time.UTC)
	want := time.Date(2026, 10, 17, 12, 15, 0, 0, time.UTC)
	if got := s.Next(now); !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	h, m, err := parseHHMM("23:15")
	if err != nil {
		t.Fatalf("parseHHMM error: %v", err)
	}
	if h != 23 || m != 15 {
		t.Fatalf("unexpected result: %d:%d", h, m)
	}
	if _, _, err := parseHHMM("12:60"); err == nil {
		t.Fatal("expected error for invalid minutes")
	}
}
