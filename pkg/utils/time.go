package utils

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// NowUnixMillis returns the current time in Unix milliseconds.
func NowUnixMillis() int64 {
	return time.Now().UnixMilli()
}

// DayStart returns midnight of t's day in t's location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayEnd returns the last millisecond of t's day.
func DayEnd(t time.Time) time.Time {
	return DayStart(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// ParseRangeStart accepts YYYY-MM-DD (UTC midnight) or RFC3339 and returns
// unix milliseconds. An empty value yields nil.
func ParseRangeStart(value string) (*int64, error) {
	t, dateOnly, err := parseRangeBound(value)
	if err != nil || t == nil {
		return nil, err
	}
	if dateOnly {
		*t = DayStart(*t)
	}
	ms := t.UnixMilli()
	return &ms, nil
}

// ParseRangeEnd is like ParseRangeStart but a date-only value covers the
// whole day.
func ParseRangeEnd(value string) (*int64, error) {
	t, dateOnly, err := parseRangeBound(value)
	if err != nil || t == nil {
		return nil, err
	}
	if dateOnly {
		*t = DayEnd(*t)
	}
	ms := t.UnixMilli()
	return &ms, nil
}

func parseRangeBound(value string) (*time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false, nil
	}
	if t, err := time.ParseInLocation(DateLayout, value, time.UTC); err == nil {
		return &t, true, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, false, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", value)
	}
	return &t, false, nil
}
