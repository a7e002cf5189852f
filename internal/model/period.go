package model

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// Period identifies one ISO week, e.g. "2024-W10".
type Period struct {
	Year int
	Week int
}

// PeriodOf returns the Period containing t.
func PeriodOf(t time.Time) Period {
	y, w := t.ISOWeek()
	return Period{Year: y, Week: w}
}

// ParsePeriod parses an ISO week identifier in the form "2024-W10".
func ParsePeriod(s string) (Period, error) {
	var p Period
	if _, err := fmt.Sscanf(s, "%d-W%d", &p.Year, &p.Week); err != nil {
		return Period{}, eris.Wrapf(err, "model: parse period %q", s)
	}
	if p.Year < 1 || p.Week < 1 || p.Week > 53 {
		return Period{}, eris.Errorf("model: period %q out of range", s)
	}
	return p, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-W%02d", p.Year, p.Week)
}

// IsZero reports whether p is the zero Period.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Week == 0
}

// Before reports whether p is chronologically earlier than other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Week < other.Week
}

// Compare returns -1, 0, or 1 ordering p against other chronologically.
func (p Period) Compare(other Period) int {
	switch {
	case p.Before(other):
		return -1
	case other.Before(p):
		return 1
	default:
		return 0
	}
}

// WeekWindow is a Monday–Sunday date span backing one Period.
type WeekWindow struct {
	Start time.Time
	End   time.Time
}

// ReportingWindow computes the Mon–Sun window ending the week before the
// target date. Weekly exports cover the previous full ISO week, so a run
// keyed on Tuesday 2025-W11 reports on 2025-W10.
func ReportingWindow(target time.Time) WeekWindow {
	weekday := int(target.Weekday()+6) % 7 // Monday = 0
	end := target.AddDate(0, 0, -(weekday + 1))
	start := end.AddDate(0, 0, -6)
	return WeekWindow{Start: start, End: end}
}

// Period returns the ISO week the window covers.
func (w WeekWindow) Period() Period {
	return PeriodOf(w.Start)
}
