package model

import (
	"sort"
	"testing"
	"time"
)

func TestFormatTimestampIsUTCFixedWidth(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2024, 3, 9, 7, 5, 1, 42_000, loc)

	got := FormatTimestamp(ts)
	if got != "2024-03-09T12:05:01.000042Z" {
		t.Fatalf("unexpected timestamp %q", got)
	}

	whole := FormatTimestamp(time.Date(2024, 3, 9, 12, 5, 1, 0, time.UTC))
	if len(whole) != len(got) {
		t.Fatalf("expected fixed width, got %q and %q", whole, got)
	}
}

func TestFormattedTimestampsSortChronologically(t *testing.T) {
	base := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
	var stamps []string
	for _, d := range []time.Duration{time.Hour, time.Microsecond, 0, 10 * time.Second, 999 * time.Millisecond} {
		stamps = append(stamps, FormatTimestamp(base.Add(d)))
	}
	sorted := append([]string(nil), stamps...)
	sort.Strings(sorted)

	var prev time.Time
	for i, s := range sorted {
		parsed, err := ParseTimestamp(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if i > 0 && parsed.Before(prev) {
			t.Fatalf("lexicographic order broke chronology at %q", s)
		}
		prev = parsed
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-01T00:00:00", "2024-01-01T00:00:00.000000Z"},
		{"2024-01-01T00:00:00.5", "2024-01-01T00:00:00.500000Z"},
		{"2024-01-01T02:00:00+02:00", "2024-01-01T00:00:00.000000Z"},
		{"2024-01-01T00:00:00Z", "2024-01-01T00:00:00.000000Z"},
		{"2024-01-01 00:00:00", "2024-01-01T00:00:00.000000Z"},
		{" 2024-06-30T10:11:12.123456 ", "2024-06-30T10:11:12.123456Z"},
		{"2024-01-01T00:00:00.0000005Z", "2024-01-01T00:00:00.000001Z"},
		{"2024-01-01T00:00:00.123456001Z", "2024-01-01T00:00:00.123457Z"},
		{"2024-12-31T23:59:59.9999999Z", "2025-01-01T00:00:00.000000Z"},
		{"2024-01-01T00:00:00.000001000Z", "2024-01-01T00:00:00.000001Z"},
	}
	for _, tt := range tests {
		got, err := NormalizeTimestamp(tt.in)
		if err != nil {
			t.Fatalf("normalize %q: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("normalize %q = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "yesterday", "2024-13-01T00:00:00", "2024-01-01", "01/02/2024 10:00"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
