package services

import (
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// ClinicCalendar maps instants onto clinic-local days.
type ClinicCalendar struct {
	loc *time.Location
	now func() time.Time
}

func NewClinicCalendar(tz string) (*ClinicCalendar, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load CLINIC_TIMEZONE %q: %w", tz, err)
	}
	return &ClinicCalendar{loc: loc, now: time.Now}, nil
}

// WithClock returns a copy that reads time from now.
func (c *ClinicCalendar) WithClock(now func() time.Time) *ClinicCalendar {
	cp := *c
	cp.now = now
	return &cp
}

func (c *ClinicCalendar) Now() time.Time { return c.now().UTC() }

func (c *ClinicCalendar) Location() *time.Location { return c.loc }

func (c *ClinicCalendar) Day(t time.Time) string { return t.In(c.loc).Format(dayLayout) }

func (c *ClinicCalendar) Today() string { return c.Day(c.now()) }

// ManualAdjustCode builds the MANUAL-ADJUST-YYYYMMDD-HHMMSS audit marker in clinic time.
func (c *ClinicCalendar) ManualAdjustCode(t time.Time) string {
	return "MANUAL-ADJUST-" + t.In(c.loc).Format("20060102-150405")
}

// ValidDay reports whether s is a real YYYY-MM-DD calendar date.
func ValidDay(s string) bool {
	if len(s) != len(dayLayout) {
		return false
	}
	_, err := time.Parse(dayLayout, s)
	return err == nil
}
