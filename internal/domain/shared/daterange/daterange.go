package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDay   = errors.New("daterange: invalid calendar day")
	ErrInvalidSpan  = errors.New("daterange: span start must not be after its end")
)

const dayLayout = "2006-01-02"

// DateRange represents a half-open interval [checkIn, checkOut)
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: TruncateDay(checkIn), CheckOut: TruncateDay(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return int(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24)
}

// NightSpan is the inclusive span of nights: check-in through the day before check-out.
func (dr DateRange) NightSpan() Span {
	return Span{From: DayOf(dr.CheckIn), To: DayOf(dr.CheckOut).AddDays(-1)}
}

// Day is a calendar date without a time component, normalised to UTC midnight.
type Day struct {
	t time.Time
}

// DayOf truncates any timestamp to its UTC calendar day.
func DayOf(t time.Time) Day {
	return Day{t: TruncateDay(t)}
}

// NewDay builds a day from its parts.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDay accepts "YYYY-MM-DD" and full RFC3339 timestamps, which are truncated to the date.
func ParseDay(raw string) (Day, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Day{}, ErrInvalidDay
	}
	if len(raw) > len(dayLayout) {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			// the calendar date as written, not shifted to UTC
			return NewDay(ts.Year(), ts.Month(), ts.Day()), nil
		}
		raw = raw[:len(dayLayout)]
	}
	t, err := time.Parse(dayLayout, raw)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, raw)
	}
	return Day{t: t}, nil
}

// MustParseDay panics on malformed input; useful in tests and fixtures.
func MustParseDay(raw string) Day {
	d, err := ParseDay(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) Time() time.Time     { return d.t }
func (d Day) IsZero() bool        { return d.t.IsZero() }
func (d Day) String() string      { return d.t.Format(dayLayout) }
func (d Day) Before(o Day) bool   { return d.t.Before(o.t) }
func (d Day) After(o Day) bool    { return d.t.After(o.t) }
func (d Day) Equal(o Day) bool    { return d.t.Equal(o.t) }
func (d Day) AddDays(n int) Day   { return Day{t: d.t.AddDate(0, 0, n)} }
func (d Day) DaysUntil(o Day) int { return int(o.t.Sub(d.t).Hours() / 24) }

// MarshalText keeps days as "YYYY-MM-DD" in JSON maps and payloads.
func (d Day) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Span is an inclusive interval of calendar days [From, To].
type Span struct {
	From Day
	To   Day
}

// NewSpan validates that both ends are set and From <= To.
func NewSpan(from, to Day) (Span, error) {
	s := Span{From: from, To: to}
	if err := s.Validate(); err != nil {
		return Span{}, err
	}
	return s, nil
}

func (s Span) Validate() error {
	if s.From.IsZero() || s.To.IsZero() {
		return ErrInvalidDay
	}
	if s.From.After(s.To) {
		return ErrInvalidSpan
	}
	return nil
}

// Contains reports whether the day falls within the inclusive span.
func (s Span) Contains(d Day) bool {
	return !d.Before(s.From) && !d.After(s.To)
}

// Len is the number of days in the span, both ends included.
func (s Span) Len() int {
	if s.Validate() != nil {
		return 0
	}
	return s.From.DaysUntil(s.To) + 1
}

// Days lists every day in the span in ascending order.
func (s Span) Days() []Day {
	n := s.Len()
	out := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.From.AddDays(i))
	}
	return out
}

// TruncateDay drops the time component and moves the value to UTC.
func TruncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
