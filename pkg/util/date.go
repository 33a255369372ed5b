package util

import (
    "strconv"
    "time"
)

const DateLayout = "2006-01-02"

// ParseDate tries YYYY-MM-DD, RFC3339, and unix seconds. Returns (t, true) if any worked.
func ParseDate(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(DateLayout, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0).UTC(), true
    }
    return time.Time{}, false
}

// ParseDateDefault parses a date or returns default if empty/invalid.
func ParseDateDefault(s string, def time.Time) time.Time {
    if t, ok := ParseDate(s); ok {
        return t
    }
    return def
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsTradingDay reports whether t falls on a weekday. Exchange holidays are
// not modelled; the normalizer's gap tolerance absorbs them.
func IsTradingDay(t time.Time) bool {
    wd := t.Weekday()
    return wd != time.Saturday && wd != time.Sunday
}

// NextTradingDay returns the first weekday strictly after t.
func NextTradingDay(t time.Time) time.Time {
    d := Day(t).AddDate(0, 0, 1)
    for !IsTradingDay(d) {
        d = d.AddDate(0, 0, 1)
    }
    return d
}

// PrevTradingDay returns the last weekday strictly before t.
func PrevTradingDay(t time.Time) time.Time {
    d := Day(t).AddDate(0, 0, -1)
    for !IsTradingDay(d) {
        d = d.AddDate(0, 0, -1)
    }
    return d
}

// TradingDaysBetween counts weekdays strictly between from and to.
func TradingDaysBetween(from, to time.Time) int {
    from, to = Day(from), Day(to)
    if !to.After(from) {
        return 0
    }
    n := 0
    for d := from.AddDate(0, 0, 1); d.Before(to); d = d.AddDate(0, 0, 1) {
        if IsTradingDay(d) {
            n++
        }
    }
    return n
}
