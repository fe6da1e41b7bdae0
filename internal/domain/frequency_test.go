package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  Frequency
		expectErr bool
	}{
		{name: "Empty - Smart Default", input: "", expected: AutoDaily()},
		{name: "Canonical Auto Daily", input: "auto_daily", expected: AutoDaily()},
		{name: "Daily At", input: "daily:21:30", expected: DailyAt(TimeOfDay{Hour: 21, Minute: 30})},
		{name: "Bare Time", input: "07:05", expected: DailyAt(TimeOfDay{Hour: 7, Minute: 5})},
		{name: "Canonical Interval", input: "every:6h", expected: EveryHours(6)},
		{name: "Short Interval", input: "12h", expected: EveryHours(12)},
		{name: "Legacy Hourly", input: "hourly", expected: EveryHours(1)},
		{name: "Legacy 3 Hours", input: "3hours", expected: EveryHours(3)},
		{name: "Legacy Custom", input: "custom:4", expected: EveryHours(4)},
		{name: "Error - Zero Hours", input: "every:0h", expectErr: true},
		{name: "Error - Too Many Hours", input: "25h", expectErr: true},
		{name: "Error - Bad Time", input: "daily:24:00", expectErr: true},
		{name: "Error - Garbage", input: "sometimes", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrequency(tt.input)
			if tt.expectErr {
				if !errors.Is(err, ErrInvalidFrequency) {
					t.Fatalf("expected ErrInvalidFrequency, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, f)
			}
		})
	}
}

func TestFrequency_TextRoundTrip(t *testing.T) {
	for _, f := range []Frequency{AutoDaily(), DailyAt(TimeOfDay{Hour: 6, Minute: 45}), EveryHours(24)} {
		data, err := json.Marshal(struct{ F Frequency }{f})
		if err != nil {
			t.Fatalf("marshal %s: %v", f, err)
		}
		var out struct{ F Frequency }
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if out.F != f {
			t.Errorf("round trip of %s gave %s", f, out.F)
		}
	}
}

func TestFrequency_CronSpec(t *testing.T) {
	tests := map[string]Frequency{
		"0 8 * * *":   AutoDaily(),
		"15 22 * * *": DailyAt(TimeOfDay{Hour: 22, Minute: 15}),
		"@every 3h":   EveryHours(3),
	}
	for want, f := range tests {
		if got := f.CronSpec(); got != want {
			t.Errorf("%s: expected %q, got %q", f, want, got)
		}
	}
}

func TestParseSourceID(t *testing.T) {
	id, err := ParseSourceID("Bing")
	if err != nil || id != SourceSpotlight {
		t.Fatalf("expected retired id to map to spotlight, got %q, %v", id, err)
	}
	if _, err := ParseSourceID("flickr"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
	if !SourcePexels.Valid() || SourceID("bing").Valid() {
		t.Error("Valid should accept registered ids only")
	}
}

func TestCanFallBack(t *testing.T) {
	if !CanFallBack(&RateLimitError{Source: SourceUnsplash}) {
		t.Error("rate limit should allow fallback")
	}
	if !CanFallBack(&StatusError{StatusCode: 500}) {
		t.Error("status error should allow fallback")
	}
	if CanFallBack(FilesystemError("write", errors.New("disk full"))) {
		t.Error("filesystem error must not allow fallback")
	}
}
