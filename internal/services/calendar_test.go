package services

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestClinicCalendarDayBoundary(t *testing.T) {
	cal, err := NewClinicCalendar("Asia/Tokyo")
	if err != nil {
		t.Fatalf("NewClinicCalendar: %v", err)
	}
	// 15:30 UTC is already the next day in Tokyo
	instant := time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)
	if got := cal.Day(instant); got != "2026-03-15" {
		t.Fatalf("Day: got=%s", got)
	}
	if got := cal.ManualAdjustCode(instant); got != "MANUAL-ADJUST-20260315-003000" {
		t.Fatalf("ManualAdjustCode: got=%s", got)
	}
	fixed := cal.WithClock(func() time.Time { return instant })
	if fixed.Today() != "2026-03-15" || !fixed.Now().Equal(instant) {
		t.Fatalf("WithClock: today=%s now=%v", fixed.Today(), fixed.Now())
	}

	if _, err := NewClinicCalendar("Mars/Olympus"); err == nil {
		t.Fatalf("NewClinicCalendar: expected error for unknown zone")
	}
}

func TestValidDay(t *testing.T) {
	for in, want := range map[string]bool{
		"2026-02-28": true,
		"2028-02-29": true,
		"2026-02-29": false,
		"2026-13-01": false,
		"2026-1-01":  false,
		"":           false,
	} {
		if got := ValidDay(in); got != want {
			t.Fatalf("ValidDay(%q): want=%v got=%v", in, want, got)
		}
	}
}
