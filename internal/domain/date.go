package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Date is a calendar day without a time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// CenturyPivot splits the two-digit year space of compact dates: values at or
// above the pivot belong to the 1900s, values below to the 2000s.
const CenturyPivot = 70

// DateOf truncates a time to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseCompact parses a six-digit YYMMDD date.
func ParseCompact(s string) (Date, error) {
	if len(s) != 6 {
		return Date{}, fmt.Errorf("compact date must be 6 digits: %q", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Date{}, fmt.Errorf("compact date must be 6 digits: %q", s)
		}
	}
	yy := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[2]-'0')*10 + int(s[3]-'0')
	dd := int(s[4]-'0')*10 + int(s[5]-'0')

	year := 2000 + yy
	if yy >= CenturyPivot {
		year = 1900 + yy
	}
	if mm < 1 || mm > 12 {
		return Date{}, fmt.Errorf("invalid month in compact date: %q", s)
	}
	if dd < 1 || dd > 31 {
		return Date{}, fmt.Errorf("invalid day in compact date: %q", s)
	}
	return Date{Year: year, Month: time.Month(mm), Day: dd}, nil
}

// Compact renders the date as YYMMDD.
func (d Date) Compact() string {
	return fmt.Sprintf("%02d%02d%02d", d.Year%100, int(d.Month), d.Day)
}

// ISO renders the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns the start of the day in the local timezone.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d falls strictly after other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// Equal reports whether two dates name the same day.
func (d Date) Equal(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// ISOWeek returns the ISO-8601 year and week number (week 1 contains the
// year's first Thursday).
func (d Date) ISOWeek() (year, week int) {
	return d.Time().ISOWeek()
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

var notePathDate = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})\.md$`)

// NoteDate extracts the calendar date encoded in a daily-note path such as
// 2024/W03/2024-01-15.md. ok is false for paths without a date-shaped name.
func NoteDate(path string) (Date, bool) {
	m := notePathDate.FindStringSubmatch(path)
	if m == nil {
		return Date{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, false
	}
	return Date{Year: year, Month: time.Month(month), Day: day}, true
}
