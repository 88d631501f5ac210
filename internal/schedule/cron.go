// Package schedule decides when digests go out, from a 5-field cron
// expression evaluated in a fixed time zone.
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultExpr sends one digest every morning.
const DefaultExpr = "0 9 * * *"

var macros = map[string]string{
	"@hourly":  "0 * * * *",
	"@daily":   "0 0 * * *",
	"@weekly":  "0 0 * * 0",
	"@monthly": "0 0 1 * *",
}

// Schedule is a parsed cron expression bound to a location.
// Each field is a bitmask of the values it allows.
type Schedule struct {
	expr   string
	minute uint64
	hour   uint64
	dom    uint64
	month  uint64
	dow    uint64
	// Day-of-month and day-of-week are OR'd unless one of them is "*".
	domAny bool
	dowAny bool
	loc    *time.Location
}

// Parse parses "minute hour day-of-month month day-of-week", or one of the
// @hourly/@daily/@weekly/@monthly macros. A nil loc means UTC.
//
// Fields accept *, n, n-m, lists, and steps (*/n, n-m/s, n/s). Day-of-week
// accepts 0-7 with both 0 and 7 meaning Sunday.
func Parse(expr string, loc *time.Location) (*Schedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	spec := strings.TrimSpace(expr)
	if m, ok := macros[strings.ToLower(spec)]; ok {
		spec = m
	}

	fields := strings.Fields(spec)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression must have 5 fields, got %d", len(fields))
	}

	s := &Schedule{expr: expr, loc: loc}
	var err error
	if s.minute, err = parseField(fields[0], 0, 59); err != nil {
		return nil, fmt.Errorf("invalid minute field: %w", err)
	}
	if s.hour, err = parseField(fields[1], 0, 23); err != nil {
		return nil, fmt.Errorf("invalid hour field: %w", err)
	}
	if s.dom, err = parseField(fields[2], 1, 31); err != nil {
		return nil, fmt.Errorf("invalid day-of-month field: %w", err)
	}
	if s.month, err = parseField(fields[3], 1, 12); err != nil {
		return nil, fmt.Errorf("invalid month field: %w", err)
	}
	if s.dow, err = parseField(fields[4], 0, 7); err != nil {
		return nil, fmt.Errorf("invalid day-of-week field: %w", err)
	}
	if s.dow&(1<<7) != 0 {
		s.dow = s.dow&^(1<<7) | 1
	}
	s.domAny = fields[2] == "*"
	s.dowAny = fields[4] == "*"
	return s, nil
}

// ParseIn is Parse with the location given by IANA name. An empty name means UTC.
func ParseIn(expr, timezone string) (*Schedule, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
	}
	return Parse(expr, loc)
}

func (s *Schedule) String() string {
	return fmt.Sprintf("%s (%s)", s.expr, s.loc)
}

// Location is the zone the schedule is evaluated in.
func (s *Schedule) Location() *time.Location {
	return s.loc
}

// Next returns the first matching minute strictly after t, or the zero time
// if nothing matches within five years (for example "0 0 31 2 *").
func (s *Schedule) Next(t time.Time) time.Time {
	t = t.In(s.loc)
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, s.loc).Add(time.Minute)
	limit := t.Year() + 5

	for t.Year() <= limit {
		if !has(s.month, int(t.Month())) {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, s.loc)
			continue
		}
		if !s.dayMatches(t) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, s.loc)
			continue
		}
		if !has(s.hour, t.Hour()) {
			next := time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, s.loc)
			if !next.After(t) {
				next = t.Add(time.Hour).Truncate(time.Hour)
			}
			t = next
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
	dom := has(s.dom, t.Day())
	dow := has(s.dow, int(t.Weekday()))
	switch {
	case s.domAny && s.dowAny:
		return true
	case s.domAny:
		return dow
	case s.dowAny:
		return dom
	default:
		return dom || dow
	}
}

// Wait blocks until the next run after now and returns its time. It returns
// early with ctx.Err() when ctx is cancelled.
func (s *Schedule) Wait(ctx context.Context, now time.Time) (time.Time, error) {
	next := s.Next(now)
	if next.IsZero() {
		return next, fmt.Errorf("schedule %s never fires", s)
	}
	timer := time.NewTimer(next.Sub(now))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return next, ctx.Err()
	case <-timer.C:
		return next, nil
	}
}

func has(mask uint64, v int) bool {
	return mask&(1<<uint(v)) != 0
}

func parseField(field string, lo, hi int) (uint64, error) {
	var mask uint64
	for _, part := range strings.Split(field, ",") {
		m, err := parsePart(part, lo, hi)
		if err != nil {
			return 0, err
		}
		mask |= m
	}
	return mask, nil
}

func parsePart(part string, lo, hi int) (uint64, error) {
	if part == "" {
		return 0, fmt.Errorf("empty list element")
	}

	rng, stepStr, hasStep := strings.Cut(part, "/")
	step := 1
	if hasStep {
		n, err := strconv.Atoi(stepStr)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid step value: %s", stepStr)
		}
		step = n
	}

	var start, end int
	switch {
	case rng == "*":
		start, end = lo, hi
	case strings.Contains(rng, "-"):
		a, b, _ := strings.Cut(rng, "-")
		var err error
		if start, err = strconv.Atoi(a); err != nil {
			return 0, fmt.Errorf("invalid range start: %s", a)
		}
		if end, err = strconv.Atoi(b); err != nil {
			return 0, fmt.Errorf("invalid range end: %s", b)
		}
	default:
		n, err := strconv.Atoi(rng)
		if err != nil {
			return 0, fmt.Errorf("invalid value: %s", rng)
		}
		start, end = n, n
		if hasStep {
			end = hi
		}
	}

	if start < lo || end > hi || start > end {
		return 0, fmt.Errorf("value %s out of range %d-%d", rng, lo, hi)
	}

	var mask uint64
	for v := start; v <= end; v += step {
		mask |= 1 << uint(v)
	}
	return mask, nil
}
