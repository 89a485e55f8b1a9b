package timefmt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a date value cannot be normalized to an instant.
var ErrInvalidDate = errors.New("invalid date")

// maxEpochMilli bounds numeric dates to the range an ECMAScript Date accepts.
const maxEpochMilli = 8.64e15

// RangeOptions configures LocalizedRange.
type RangeOptions struct {
	// TimeZone is the zone both boundaries are rendered in. Empty means the host zone.
	TimeZone string
	// DateStyle and TimeStyle default to StyleLong.
	DateStyle Style
	TimeStyle Style
	// Calendar is the zone whose calendar fields select the day, and the zone
	// offset-less date strings are read in. Nil means time.Local.
	Calendar *time.Location
	// Start and End replace the computed boundaries when non-zero.
	Start time.Time
	End   time.Time
}

// Range is a pair of rendered day boundaries.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// LocalizedRange renders the 00:00:00 to 23:59:59 UTC window of the calendar day
// containing date. Each boundary is rendered on its own, so a DST change inside the
// window shows up as differing zone labels and wall-clock times.
func LocalizedRange(date any, opts RangeOptions) (Range, error) {
	calendar := opts.Calendar
	if calendar == nil {
		calendar = time.Local
	}

	target, err := ParseDate(date, calendar)
	if err != nil {
		return Range{}, err
	}

	y, m, d := target.In(calendar).Date()
	start := opts.Start
	if start.IsZero() {
		start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	end := opts.End
	if end.IsZero() {
		end = time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
	}

	format := FormatOptions{
		TimeZone:  opts.TimeZone,
		DateStyle: opts.DateStyle,
		TimeStyle: opts.TimeStyle,
	}
	if format.DateStyle == StyleNone {
		format.DateStyle = StyleLong
	}
	if format.TimeStyle == StyleNone {
		format.TimeStyle = StyleLong
	}

	var r Range
	if r.Start, err = Format(start, format); err != nil {
		return Range{}, err
	}
	if r.End, err = Format(end, format); err != nil {
		return Range{}, err
	}
	return r, nil
}

// dateStringLayouts lists the string forms ParseDate understands, most specific first.
var dateStringLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"January 2, 2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate normalizes a civil instant.
//
// time.Time values are used as is. Numbers are epoch milliseconds; unlike ParseEpoch
// no digit-count rule applies. Strings are parsed as RFC 3339 or one of a few common
// layouts; a bare YYYY-MM-DD is read as UTC midnight and other offset-less strings
// are read in loc.
func ParseDate(date any, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	switch v := date.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("%w: nil time", ErrInvalidDate)
		}
		return *v, nil
	case string:
		return parseDateString(v, loc)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, v.String())
		}
		return fromEpochMilli(f)
	case int:
		return fromEpochMilli(float64(v))
	case int8:
		return fromEpochMilli(float64(v))
	case int16:
		return fromEpochMilli(float64(v))
	case int32:
		return fromEpochMilli(float64(v))
	case int64:
		return fromEpochMilli(float64(v))
	case uint:
		return fromEpochMilli(float64(v))
	case uint8:
		return fromEpochMilli(float64(v))
	case uint16:
		return fromEpochMilli(float64(v))
	case uint32:
		return fromEpochMilli(float64(v))
	case uint64:
		return fromEpochMilli(float64(v))
	case float32:
		return fromEpochMilli(float64(v))
	case float64:
		return fromEpochMilli(v)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, date)
	}
}

func parseDateString(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	for _, layout := range dateStringLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func fromEpochMilli(ms float64) (time.Time, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxEpochMilli {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, ms)
	}
	return time.UnixMilli(int64(ms)), nil
}
