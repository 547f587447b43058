package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used on the wire and in filenames
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day. The zero value means "no date".
type Date struct {
	t time.Time
}

// NewDate builds a date at UTC midnight
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date in the timestamp's own location
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses YYYY-MM-DD. RFC3339 timestamps are accepted and truncated.
// An empty string yields the zero date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q: %w", s, ErrValidation)
}

// MustParseDate is ParseDate for constants and tests
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns the date at UTC midnight
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// Compare returns -1, 0 or 1. The zero date sorts first.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

func (d Date) FirstOfMonth() Date {
	if d.IsZero() {
		return d
	}
	return NewDate(d.t.Year(), d.t.Month(), 1)
}

func (d Date) EndOfMonth() Date {
	if d.IsZero() {
		return d
	}
	return NewDate(d.t.Year(), d.t.Month()+1, 0)
}

// AddDays moves the date by n days
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

// AddMonths moves the date by n months, clamping the day to the target month's length
// (Jan 31 + 1 month = Feb 28/29).
func (d Date) AddMonths(n int) Date {
	if d.IsZero() {
		return d
	}
	first := NewDate(d.t.Year(), d.t.Month()+time.Month(n), 1)
	last := first.EndOfMonth().t.Day()
	day := d.t.Day()
	if day > last {
		day = last
	}
	return NewDate(first.t.Year(), first.t.Month(), day)
}

// SameMonth reports whether both dates fall in the same calendar month
func (d Date) SameMonth(o Date) bool {
	return d.t.Year() == o.t.Year() && d.t.Month() == o.t.Month()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", ErrValidation)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the zero date as NULL
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.t, nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = DateOf(v)
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}
