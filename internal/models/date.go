package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the wire format of every date-only field.
const DateLayout = "2006-01-02"

// Date is a calendar day. It is stored in a DATE column and encoded as
// YYYY-MM-DD in JSON.
type Date struct {
	datatypes.Date
}

// ParseDate parses a YYYY-MM-DD string as a UTC date.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{datatypes.Date(t)}, nil
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))}
}

// MonthOf returns the first day of t's month.
func MonthOf(t time.Time) Date {
	y, m, _ := t.UTC().Date()
	return Date{datatypes.Date(time.Date(y, m, 1, 0, 0, 0, 0, time.UTC))}
}

func (d Date) Time() time.Time { return time.Time(d.Date) }

// Month returns the first day of d's month.
func (d Date) Month() Date { return MonthOf(d.Time()) }

// MonthKey formats the date as YYYY-MM.
func (d Date) MonthKey() string { return d.Time().Format("2006-01") }

func (d Date) String() string { return d.Time().Format(DateLayout) }

func (d Date) IsZero() bool { return d.Time().IsZero() }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a YYYY-MM-DD string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
