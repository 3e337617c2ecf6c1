// Package sla evaluates Jira tickets against business-day service-level targets.
package sla

import (
	"fmt"
	"time"
)

// civilDate returns midnight UTC of t's calendar date in t's own location.
// Working in UTC keeps day arithmetic free of DST shifts.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

// BusinessDays counts the weekdays after start's date up to and including
// end's date. Dates are taken in each time's own location, so callers should
// convert both to the same location first. It returns 0 when end is on or
// before start's date.
func BusinessDays(start, end time.Time) int {
	s := civilDate(start)
	e := civilDate(end)
	if !e.After(s) {
		return 0
	}

	days := int(e.Sub(s).Hours() / 24)
	count := (days / 7) * 5

	wd := s.Weekday()
	for i := 1; i <= days%7; i++ {
		if !isWeekend((wd + time.Weekday(i)) % 7) {
			count++
		}
	}
	return count
}

// AddBusinessDays returns midnight of the date reached by counting n business
// days forward from start's date, in start's location. For n > 0 the result
// is a weekday and BusinessDays(start, result) == n.
func AddBusinessDays(start time.Time, n int) time.Time {
	y, m, d := start.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, start.Location())
	for n > 0 {
		date = date.AddDate(0, 0, 1)
		if !isWeekend(date.Weekday()) {
			n--
		}
	}
	return date
}

// FormatElapsed renders the wall-clock duration between start and end as
// "Xd Xh Xm". Negative durations render as zero.
func FormatElapsed(start, end time.Time) string {
	delta := end.Sub(start)
	if delta < 0 {
		return "0d 0h 0m"
	}
	totalMinutes := int(delta / time.Minute)
	days := totalMinutes / (24 * 60)
	hours := (totalMinutes % (24 * 60)) / 60
	minutes := totalMinutes % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}
