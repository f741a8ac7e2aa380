// Package calendar derives timestamps and calendar fields. Every field is
// computed from one converted timestamp column so that hour, day and the rest
// can never disagree about the instant they describe.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/wdm0006/sparkify/pkg/frame"
)

// FromEpochMillis adds a UTC timestamp column As computed from the integer
// epoch-millisecond column Column.
type FromEpochMillis struct {
	Column string
	As     string
}

func (t *FromEpochMillis) Name() string { return "from_epoch_millis" }

func (t *FromEpochMillis) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	col, err := f.MustColumn(t.Column)
	if err != nil {
		return nil, err
	}
	ic, ok := col.(*frame.IntColumn)
	if !ok {
		return nil, fmt.Errorf("column %s is %v, want int", t.Column, col.Kind())
	}
	out := frame.NewTimeColumn(t.As, ic.Len())
	for i := 0; i < ic.Len(); i++ {
		ms, ok := ic.Get(i)
		if !ok {
			out.SetNull(i)
			continue
		}
		out.Set(i, time.UnixMilli(ms).UTC())
	}
	return f.WithColumn(out)
}

// Part names a calendar field.
type Part int

const (
	Hour Part = iota
	Day
	Week
	Month
	Year
	Weekday
)

func (p Part) String() string {
	switch p {
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	case Weekday:
		return "weekday"
	default:
		return fmt.Sprintf("part(%d)", int(p))
	}
}

// Of returns the field p of t, read in UTC. Week is the ISO-8601 week of the
// year and Weekday counts from 0 for Monday to 6 for Sunday.
func (p Part) Of(t time.Time) int64 {
	t = t.UTC()
	switch p {
	case Hour:
		return int64(t.Hour())
	case Day:
		return int64(t.Day())
	case Week:
		_, w := t.ISOWeek()
		return int64(w)
	case Month:
		return int64(t.Month())
	case Year:
		return int64(t.Year())
	case Weekday:
		return int64((int(t.Weekday()) + 6) % 7)
	default:
		panic(fmt.Sprintf("calendar: unknown part %d", int(p)))
	}
}

// Field binds a calendar part to an output column name.
type Field struct {
	Part Part
	As   string
}

// Extract appends one integer column per field, all read from the timestamp
// column Column.
type Extract struct {
	Column string
	Fields []Field
}

func (t *Extract) Name() string { return "extract_calendar" }

func (t *Extract) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	col, err := f.MustColumn(t.Column)
	if err != nil {
		return nil, err
	}
	tc, ok := col.(*frame.TimeColumn)
	if !ok {
		return nil, fmt.Errorf("column %s is %v, want time", t.Column, col.Kind())
	}
	out := f
	for _, fd := range t.Fields {
		ic := frame.NewIntColumn(fd.As, tc.Len())
		for i := 0; i < tc.Len(); i++ {
			ts, ok := tc.Get(i)
			if !ok {
				ic.SetNull(i)
				continue
			}
			ic.Set(i, fd.Part.Of(ts))
		}
		if out, err = out.WithColumn(ic); err != nil {
			return nil, err
		}
	}
	return out, nil
}
