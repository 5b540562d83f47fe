package util

import (
	"testing"
	"time"
)

func TestDayTruncates(t *testing.T) {
	at := time.Date(2024, 3, 1, 14, 30, 12, 99, time.UTC)
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := Day(at); !got.Equal(want) {
		t.Fatalf("Day(%v)=%v want %v", at, got, want)
	}
}

func TestDayNormalizesZone(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 03:00 on March 2 in UTC+9 is still March 1 in UTC
	at := time.Date(2024, 3, 2, 3, 0, 0, 0, loc)
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := Day(at); !got.Equal(want) {
		t.Fatalf("Day(%v)=%v want %v", at, got, want)
	}
}

func TestNextDay(t *testing.T) {
	at := time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := NextDay(at); !got.Equal(want) {
		t.Fatalf("NextDay(%v)=%v want %v", at, got, want)
	}
}

func TestParseDayRoundTrip(t *testing.T) {
	d, err := ParseDay("2024-03-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Location() != time.UTC || !d.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("parsed %v", d)
	}
	if got := FormatDay(d); got != "2024-03-01" {
		t.Fatalf("format=%q", got)
	}
}

func TestParseDayRejectsGarbage(t *testing.T) {
	if _, err := ParseDay("03/01/2024"); err == nil {
		t.Fatal("expected parse error")
	}
}
