package main

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	dateTimeLayout  = "2006-01-02T15:04:05"
	shortTimeLayout = "2006-01-02T15:04"

	// fraction digits are written only when non-zero
	dateTimeOutLayout = "2006-01-02T15:04:05.999999999"
)

// Entity is a persisted record identified by a key of type K.
// WithKey returns a copy of the entity carrying the given key.
type Entity[E any, K comparable] interface {
	Key() K
	WithKey(K) E
}

// Date is a calendar date without time of day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses an ISO-8601 calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return d.Format(dateLayout)
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
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	t, err := scanTime(src, dateLayout, time.RFC3339)
	if err != nil || t.IsZero() {
		*d = Date{}
		return err
	}
	y, m, day := t.Date()
	*d = Date{time.Date(y, m, day, 0, 0, 0, 0, time.UTC)}
	return nil
}

// DateTime is a local date and time of day without zone, encoded as
// YYYY-MM-DDTHH:MM:SS with a fraction when one is set. Input may omit
// the seconds.
type DateTime struct {
	time.Time
}

// ParseDateTime parses an ISO-8601 local date-time.
func ParseDateTime(s string) (DateTime, error) {
	t, err := time.Parse(dateTimeLayout, s)
	if err != nil {
		t, err = time.Parse(shortTimeLayout, s)
	}
	if err != nil {
		return DateTime{}, fmt.Errorf("invalid date-time %q: expected YYYY-MM-DDTHH:MM:SS", s)
	}
	return DateTime{t}, nil
}

// MustParseDateTime is like ParseDateTime but panics on error.
func MustParseDateTime(s string) DateTime {
	dt, err := ParseDateTime(s)
	if err != nil {
		panic(err)
	}
	return dt
}

func (dt DateTime) String() string {
	return dt.Format(dateTimeOutLayout)
}

func (dt DateTime) MarshalJSON() ([]byte, error) {
	if dt.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(dt.String())
}

func (dt *DateTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*dt = DateTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}

// Value implements driver.Valuer.
func (dt DateTime) Value() (driver.Value, error) {
	if dt.IsZero() {
		return nil, nil
	}
	return dt.Time, nil
}

// Scan implements sql.Scanner.
func (dt *DateTime) Scan(src any) error {
	t, err := scanTime(src, dateTimeLayout, time.RFC3339Nano)
	if err != nil || t.IsZero() {
		*dt = DateTime{}
		return err
	}
	// the column has no zone; keep the wall clock
	*dt = DateTime{time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
	return nil
}

func scanTime(src any, layouts ...string) (time.Time, error) {
	switch v := src.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case []byte:
		return scanTime(string(v), layouts...)
	case string:
		for _, layout := range layouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as a date", v)
	default:
		return time.Time{}, fmt.Errorf("cannot scan %T into a date", src)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func nextID(seq int64) int64 { return seq }

func parseCode(s string) (string, error) { return s, nil }
