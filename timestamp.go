package logging

import (
	"fmt"
	"time"
)

const (
	fileTimeLayout    = "2006-01-02 15:04:05"
	consoleTimeLayout = "02 Jan 2006 15:04:05 MST"
	dateLayout        = "2006-01-02"
)

// TimestampFormatter renders record times at one fixed UTC offset, independent
// of the host time zone.
type TimestampFormatter struct {
	loc *time.Location
	now func() time.Time
}

func NewTimestampFormatter(offsetMinutes int) TimestampFormatter {
	return TimestampFormatter{
		loc: time.FixedZone(zoneName(offsetMinutes), offsetMinutes*60),
		now: time.Now,
	}
}

func zoneName(offsetMinutes int) string {
	sign := '+'
	if offsetMinutes < 0 {
		sign = '-'
		offsetMinutes = -offsetMinutes
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, offsetMinutes/60, offsetMinutes%60)
}

// Now returns the current instant in the fixed zone.
func (f TimestampFormatter) Now() time.Time {
	now := f.now
	if now == nil {
		now = time.Now
	}
	return f.In(now())
}

func (f TimestampFormatter) In(t time.Time) time.Time {
	if f.loc == nil {
		return t.UTC()
	}
	return t.In(f.loc)
}

// File is the lexicographically sortable form used by file sinks.
func (f TimestampFormatter) File(t time.Time) string { return f.In(t).Format(fileTimeLayout) }

// Console is the human-oriented form used by the console sink.
func (f TimestampFormatter) Console(t time.Time) string { return f.In(t).Format(consoleTimeLayout) }

// Date is the calendar date used for file naming.
func (f TimestampFormatter) Date(t time.Time) string { return f.In(t).Format(dateLayout) }
