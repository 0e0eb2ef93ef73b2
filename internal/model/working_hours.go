package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interval is an opening window within one day, in 24h "HH:MM".
type Interval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkingHours maps a lowercase weekday name ("monday") to its interval.
// A missing key or a nil interval means the doctor does not work that day.
type WorkingHours map[string]*Interval

var weekdays = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

// WeekdayKey returns the WorkingHours key for the weekday of date.
func WeekdayKey(date time.Time) string {
	return strings.ToLower(date.Weekday().String())
}

// For returns the interval for the weekday of date, or nil when closed.
func (w WorkingHours) For(date time.Time) *Interval {
	if w == nil {
		return nil
	}
	return w[WeekdayKey(date)]
}

// Validate checks weekday keys and interval formats.
func (w WorkingHours) Validate() error {
	for day, iv := range w {
		if !weekdays[day] {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, day)
		}
		if iv == nil {
			continue
		}
		start, err := ParseClock(iv.Start)
		if err != nil {
			return fmt.Errorf("%w: %s start: %v", ErrInvalidInput, day, err)
		}
		end, err := ParseClock(iv.End)
		if err != nil {
			return fmt.Errorf("%w: %s end: %v", ErrInvalidInput, day, err)
		}
		if end < start {
			return fmt.Errorf("%w: %s ends before it starts", ErrInvalidInput, day)
		}
	}
	return nil
}

func (w WorkingHours) Value() (driver.Value, error) {
	if w == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(w)
}

func (w *WorkingHours) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*w = WorkingHours{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported working hours type %T", src)
	}
	hours := WorkingHours{}
	if err := json.Unmarshal(data, &hours); err != nil {
		return fmt.Errorf("failed to decode working hours: %w", err)
	}
	*w = hours
	return nil
}

// ParseClock converts "HH:MM" to minutes after midnight. "24:00" is accepted
// as an end-of-day bound.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("out of range clock %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DateLayout is the wire format of appointment dates.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return d, nil
}
