package model

import (
	"database/sql/driver"
	"time"

	"github.com/pkg/errors"
)

// Date is a calendar day. All reservation date policy works at day
// granularity, so the time of day is always zeroed.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: truncateToDay(t)}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.Errorf("invalid date %s", s)
	}
	s = s[1 : len(s)-1]
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		// reservation clients also send full timestamps
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return errors.Errorf("invalid date %q, expected YYYY-MM-DD", s)
		}
	}
	d.Time = truncateToDay(t)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *Date) Scan(v any) error {
	switch t := v.(type) {
	case time.Time:
		d.Time = truncateToDay(t)
		return nil
	case nil:
		d.Time = time.Time{}
		return nil
	default:
		return errors.Errorf("scan date: unsupported type %T", v)
	}
}
