package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kassabok/internal/core"
)

// ErrInvalidPeriod is returned for period specifiers that name no calendar
// period.
var ErrInvalidPeriod = errors.New("invalid period")

// MaxWeek is the highest aligned week number; week 53 holds the last one or
// two days of the year.
const MaxWeek = 53

// Period is a calendar grouping used for aggregation.
type Period interface {
	// Contains reports whether d falls in the period. The zero date is in
	// no period.
	Contains(d core.Date) bool
	// Bounds returns the first and last day of the period.
	Bounds() (from, to core.Date)
	String() string
}

// AlignedWeek numbers weeks in fixed 7-day blocks starting on January 1:
// days 1-7 are week 1, days 8-14 week 2, and so on. It does not follow
// ISO-8601.
func AlignedWeek(d core.Date) int {
	return (d.YearDay()-1)/7 + 1
}

type yearPeriod struct{ year int }

func Year(y int) Period { return yearPeriod{year: y} }

func (p yearPeriod) Contains(d core.Date) bool {
	return !d.IsZero() && d.Year() == p.year
}

func (p yearPeriod) Bounds() (core.Date, core.Date) {
	return core.NewDate(p.year, time.January, 1), core.NewDate(p.year, time.December, 31)
}

func (p yearPeriod) String() string { return fmt.Sprintf("%04d", p.year) }

type monthPeriod struct {
	year  int
	month time.Month
}

// Month returns the period of month m of year y. m must be 1..12.
func Month(y int, m time.Month) (Period, error) {
	if m < time.January || m > time.December {
		return nil, fmt.Errorf("%w: month %d", ErrInvalidPeriod, m)
	}
	return monthPeriod{year: y, month: m}, nil
}

func (p monthPeriod) Contains(d core.Date) bool {
	return !d.IsZero() && d.Year() == p.year && d.Month() == p.month
}

func (p monthPeriod) Bounds() (core.Date, core.Date) {
	first := core.NewDate(p.year, p.month, 1)
	return first, core.DateOf(first.AddDate(0, 1, -1))
}

func (p monthPeriod) String() string { return fmt.Sprintf("%04d-%02d", p.year, int(p.month)) }

type weekPeriod struct{ year, week int }

// Week returns aligned week w of year y. w must be 1..53.
func Week(y, w int) (Period, error) {
	if w < 1 || w > MaxWeek {
		return nil, fmt.Errorf("%w: week %d", ErrInvalidPeriod, w)
	}
	return weekPeriod{year: y, week: w}, nil
}

func (p weekPeriod) Contains(d core.Date) bool {
	return !d.IsZero() && d.Year() == p.year && AlignedWeek(d) == p.week
}

func (p weekPeriod) Bounds() (core.Date, core.Date) {
	from := core.DateOf(core.NewDate(p.year, time.January, 1).AddDate(0, 0, (p.week-1)*7))
	to := core.DateOf(from.AddDate(0, 0, 6))
	if last := core.NewDate(p.year, time.December, 31); to.After(last) {
		to = last
	}
	return from, to
}

func (p weekPeriod) String() string { return fmt.Sprintf("%04d-W%02d", p.year, p.week) }

type dayPeriod struct{ day core.Date }

func Day(d core.Date) Period { return dayPeriod{day: d} }

func (p dayPeriod) Contains(d core.Date) bool {
	return !d.IsZero() && d.Equal(p.day)
}

func (p dayPeriod) Bounds() (core.Date, core.Date) { return p.day, p.day }

func (p dayPeriod) String() string { return p.day.String() }

// ParsePeriod reads a period from command-line input: "year 2024",
// "month 2024-03", "week 2024-W10" or "day 2024-03-15".
func ParsePeriod(kind, value string) (Period, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "year", "y":
		y, err := parseYear(value)
		if err != nil {
			return nil, err
		}
		return Year(y), nil

	case "month", "m":
		ys, ms, ok := strings.Cut(value, "-")
		if !ok {
			return nil, fmt.Errorf("%w: month %q, want YYYY-MM", ErrInvalidPeriod, value)
		}
		y, err := parseYear(ys)
		if err != nil {
			return nil, err
		}
		m, err := strconv.Atoi(ms)
		if err != nil {
			return nil, fmt.Errorf("%w: month %q", ErrInvalidPeriod, value)
		}
		return Month(y, time.Month(m))

	case "week", "w":
		ys, ws, ok := strings.Cut(strings.ToUpper(value), "-W")
		if !ok {
			return nil, fmt.Errorf("%w: week %q, want YYYY-Www", ErrInvalidPeriod, value)
		}
		y, err := parseYear(ys)
		if err != nil {
			return nil, err
		}
		w, err := strconv.Atoi(ws)
		if err != nil {
			return nil, fmt.Errorf("%w: week %q", ErrInvalidPeriod, value)
		}
		return Week(y, w)

	case "day", "d":
		d, err := core.ParseDate(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPeriod, err)
		}
		return Day(d), nil

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, kind)
	}
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(s)
	if err != nil || y < 1 || y > 9999 {
		return 0, fmt.Errorf("%w: year %q", ErrInvalidPeriod, s)
	}
	return y, nil
}
