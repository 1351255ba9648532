// Package models defines the domain types shared across the materials
// service.
package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DateOnly is a calendar date serialized as "YYYY-MM-DD" in JSON and stored
// as a DATE column.
type DateOnly struct {
	time.Time
}

// NewDateOnly truncates a time to its calendar date in UTC.
func NewDateOnly(t time.Time) DateOnly {
	return DateOnly{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON implements json.Marshaler.
func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DateOnly) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// Scan implements sql.Scanner.
func (d *DateOnly) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		d.Time = v
		return nil
	case string:
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", v, err)
		}
		d.Time = t
		return nil
	default:
		return fmt.Errorf("cannot scan %T into DateOnly", src)
	}
}

// Value implements driver.Valuer.
func (d DateOnly) Value() (driver.Value, error) {
	return d.Time, nil
}
