// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed 5-field cron expression:
// minute hour day-of-month month day-of-week.
//
// Each field is a bitmask of allowed values. Day-of-month and day-of-week
// are OR'd when both are restricted, as in standard cron.
type Schedule struct {
	minute uint64
	hour   uint64
	dom    uint64
	month  uint64
	dow    uint64

	domAny bool
	dowAny bool
}

type fieldBounds struct {
	name     string
	min, max int
}

var (
	minuteBounds = fieldBounds{"minute", 0, 59}
	hourBounds   = fieldBounds{"hour", 0, 23}
	domBounds    = fieldBounds{"day-of-month", 1, 31}
	monthBounds  = fieldBounds{"month", 1, 12}
	dowBounds    = fieldBounds{"day-of-week", 0, 7}
)

var descriptors = map[string]string{
	"@hourly":   "0 * * * *",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@weekly":   "0 0 * * 0",
	"@monthly":  "0 0 1 * *",
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
}

// maxSearch bounds Next for expressions that can never fire (e.g. Feb 30).
const maxSearch = 5 * 366 * 24 * time.Hour

// Parse parses a cron expression.
//
// Supported syntax per field: * (any), n, n-m, lists "a,b,c", steps "*/n",
// "n-m/s" and "n/s". Day-of-week accepts 0-7 with both 0 and 7 meaning
// Sunday. The descriptors @hourly, @daily, @weekly, @monthly and @yearly
// are accepted as shorthands.
//
// Examples:
//   - "0 9 * * *"    daily at 09:00
//   - "0 9 * * 1"    Mondays at 09:00
//   - "*/15 * * * *" every 15 minutes
//   - "0 0 1 * *"    first of the month at midnight
func Parse(expr string) (*Schedule, error) {
	expr = strings.TrimSpace(expr)
	if d, ok := descriptors[strings.ToLower(expr)]; ok {
		expr = d
	}

	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression must have 5 fields, got %d", len(fields))
	}

	s := &Schedule{}
	var err error
	if s.minute, err = parseField(fields[0], minuteBounds); err != nil {
		return nil, err
	}
	if s.hour, err = parseField(fields[1], hourBounds); err != nil {
		return nil, err
	}
	if s.dom, err = parseField(fields[2], domBounds); err != nil {
		return nil, err
	}
	if s.month, err = parseField(fields[3], monthBounds); err != nil {
		return nil, err
	}
	if s.dow, err = parseField(fields[4], dowBounds); err != nil {
		return nil, err
	}

	// 7 is Sunday
	if s.dow&(1<<7) != 0 {
		s.dow = (s.dow | 1) &^ (1 << 7)
	}
	s.domAny = s.dom == rangeMask(1, 31)
	s.dowAny = s.dow == rangeMask(0, 6)

	return s, nil
}

// Next returns the first minute strictly after the given time that matches
// the schedule, evaluated in loc (UTC when nil). It returns the zero time
// when nothing matches within five years.
func (s *Schedule) Next(after time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t := after.In(loc).Truncate(time.Minute).Add(time.Minute)
	limit := t.Add(maxSearch)

	for t.Before(limit) {
		if !has(s.month, int(t.Month())) {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc)
			continue
		}
		if !s.dayMatches(t) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
			continue
		}
		if !has(s.hour, t.Hour()) {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, loc)
			continue
		}
		if !has(s.minute, t.Minute()) {
			t = t.Add(time.Minute)
			continue
		}
		return t
	}
	return time.Time{}
}

func (s *Schedule) dayMatches(t time.Time) bool {
	domMatch := has(s.dom, t.Day())
	dowMatch := has(s.dow, int(t.Weekday()))

	switch {
	case s.domAny && s.dowAny:
		return true
	case s.domAny:
		return dowMatch
	case s.dowAny:
		return domMatch
	default:
		return domMatch || dowMatch
	}
}

func parseField(field string, b fieldBounds) (uint64, error) {
	var mask uint64
	for _, part := range strings.Split(field, ",") {
		m, err := parsePart(part, b)
		if err != nil {
			return 0, fmt.Errorf("invalid %s field %q: %w", b.name, field, err)
		}
		mask |= m
	}
	return mask, nil
}

func parsePart(part string, b fieldBounds) (uint64, error) {
	if part == "" {
		return 0, fmt.Errorf("empty value")
	}

	step := 1
	if base, stepStr, ok := strings.Cut(part, "/"); ok {
		n, err := strconv.Atoi(stepStr)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid step %q", stepStr)
		}
		step = n
		part = base
	}

	start, end := b.min, b.max
	switch {
	case part == "*":
	case strings.Contains(part, "-"):
		lo, hi, _ := strings.Cut(part, "-")
		var err error
		if start, err = atoiInRange(lo, b); err != nil {
			return 0, err
		}
		if end, err = atoiInRange(hi, b); err != nil {
			return 0, err
		}
		if start > end {
			return 0, fmt.Errorf("range %d-%d is reversed", start, end)
		}
	default:
		v, err := atoiInRange(part, b)
		if err != nil {
			return 0, err
		}
		start = v
		// "n/s" runs from n to the end of the field
		if step == 1 {
			end = v
		}
	}

	var mask uint64
	for i := start; i <= end; i += step {
		mask |= 1 << uint(i)
	}
	return mask, nil
}

func atoiInRange(s string, b fieldBounds) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	if v < b.min || v > b.max {
		return 0, fmt.Errorf("value %d out of range %d-%d", v, b.min, b.max)
	}
	return v, nil
}

func rangeMask(lo, hi int) uint64 {
	var mask uint64
	for i := lo; i <= hi; i++ {
		mask |= 1 << uint(i)
	}
	return mask
}

func has(mask uint64, v int) bool {
	return mask&(1<<uint(v)) != 0
}

// LoadLocation resolves an IANA timezone name; empty means UTC.
func LoadLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// NextRun parses expr and returns its next run after the given time in
// timezone tz (UTC when empty). The result is in UTC.
func NextRun(expr, tz string, after time.Time) (time.Time, error) {
	s, err := Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	next := s.Next(after, loc)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("cron expression %q never fires", expr)
	}
	return next.UTC(), nil
}

// ValidateSchedule checks an expression and timezone without computing a
// run time.
func ValidateSchedule(expr, tz string) error {
	if _, err := Parse(expr); err != nil {
		return err
	}
	_, err := LoadLocation(tz)
	return err
}
