package timefmt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	// Embedded IANA database, used only when the host has none.
	_ "time/tzdata"
)

// Style selects how much of a date or time is rendered.
type Style string

const (
	StyleNone   Style = ""
	StyleFull   Style = "full"
	StyleLong   Style = "long"
	StyleMedium Style = "medium"
	StyleShort  Style = "short"
)

var (
	ErrUnknownTimeZone = errors.New("unknown time zone")
	ErrInvalidStyle    = errors.New("invalid format style")
)

// ParseStyle converts a user supplied style name into a Style.
func ParseStyle(name string) (Style, error) {
	switch s := Style(strings.ToLower(strings.TrimSpace(name))); s {
	case StyleNone, StyleFull, StyleLong, StyleMedium, StyleShort:
		return s, nil
	default:
		return StyleNone, fmt.Errorf("%w: %q", ErrInvalidStyle, name)
	}
}

// FormatOptions configures Format. An empty TimeZone means the host zone.
type FormatOptions struct {
	TimeZone  string
	DateStyle Style
	TimeStyle Style
}

// DefaultFormatOptions is applied by FormatEpoch when the caller passes no options.
var DefaultFormatOptions = FormatOptions{
	DateStyle: StyleFull,
	TimeStyle: StyleLong,
	TimeZone:  "UTC",
}

var dateLayouts = map[Style]string{
	StyleFull:   "Monday, January 2, 2006",
	StyleLong:   "January 2, 2006",
	StyleMedium: "Jan 2, 2006",
	StyleShort:  "1/2/06",
}

var timeLayouts = map[Style]string{
	StyleFull:   "3:04:05 PM",
	StyleLong:   "3:04:05 PM",
	StyleMedium: "3:04:05 PM",
	StyleShort:  "3:04 PM",
}

type namedZone struct {
	offset int
	name   string
}

// Abbreviations the en-US locale prints verbatim. Anything else falls back to a GMT offset.
var namedZones = map[string]namedZone{
	"UTC":  {0, "Coordinated Universal Time"},
	"GMT":  {0, "Greenwich Mean Time"},
	"EST":  {-5 * 3600, "Eastern Standard Time"},
	"EDT":  {-4 * 3600, "Eastern Daylight Time"},
	"CST":  {-6 * 3600, "Central Standard Time"},
	"CDT":  {-5 * 3600, "Central Daylight Time"},
	"MST":  {-7 * 3600, "Mountain Standard Time"},
	"MDT":  {-6 * 3600, "Mountain Daylight Time"},
	"PST":  {-8 * 3600, "Pacific Standard Time"},
	"PDT":  {-7 * 3600, "Pacific Daylight Time"},
	"AKST": {-9 * 3600, "Alaska Standard Time"},
	"AKDT": {-8 * 3600, "Alaska Daylight Time"},
	"HST":  {-10 * 3600, "Hawaii-Aleutian Standard Time"},
	"HDT":  {-9 * 3600, "Hawaii-Aleutian Daylight Time"},
}

// LoadZone resolves an IANA zone name. The empty name resolves to the host zone.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeZone, name)
	}
	return loc, nil
}

// Format renders t the way the en-US locale does for the requested date and time styles,
// e.g. "Wednesday, May 8, 2024 at 2:40:00 AM UTC" for full/long in UTC.
func Format(t time.Time, opts FormatOptions) (string, error) {
	loc, err := LoadZone(opts.TimeZone)
	if err != nil {
		return "", err
	}
	t = t.In(loc)

	datePart, err := formatDate(t, opts.DateStyle)
	if err != nil {
		return "", err
	}
	timePart, err := formatTime(t, opts.TimeStyle)
	if err != nil {
		return "", err
	}

	switch {
	case datePart == "" && timePart == "":
		return t.Format("1/2/2006"), nil
	case timePart == "":
		return datePart, nil
	case datePart == "":
		return timePart, nil
	}

	sep := ", "
	if opts.DateStyle == StyleFull || opts.DateStyle == StyleLong {
		sep = " at "
	}
	return datePart + sep + timePart, nil
}

func formatDate(t time.Time, style Style) (string, error) {
	if style == StyleNone {
		return "", nil
	}
	layout, ok := dateLayouts[style]
	if !ok {
		return "", fmt.Errorf("%w: date style %q", ErrInvalidStyle, style)
	}
	return t.Format(layout), nil
}

func formatTime(t time.Time, style Style) (string, error) {
	if style == StyleNone {
		return "", nil
	}
	layout, ok := timeLayouts[style]
	if !ok {
		return "", fmt.Errorf("%w: time style %q", ErrInvalidStyle, style)
	}
	out := t.Format(layout)
	if style == StyleFull || style == StyleLong {
		out += " " + zoneLabel(t, style)
	}
	return out, nil
}

func zoneLabel(t time.Time, style Style) string {
	abbr, offset := t.Zone()
	if z, ok := namedZones[abbr]; ok && z.offset == offset {
		if style == StyleFull {
			return z.name
		}
		return abbr
	}
	if style == StyleFull {
		return longGMTOffset(offset)
	}
	return GMTOffset(offset)
}

// GMTOffset renders an offset in seconds east of UTC as "GMT", "GMT+1" or "GMT-3:30".
func GMTOffset(seconds int) string {
	if seconds == 0 {
		return "GMT"
	}
	sign, h, m := splitOffset(seconds)
	if m == 0 {
		return fmt.Sprintf("GMT%c%d", sign, h)
	}
	return fmt.Sprintf("GMT%c%d:%02d", sign, h, m)
}

func longGMTOffset(seconds int) string {
	if seconds == 0 {
		return "GMT"
	}
	sign, h, m := splitOffset(seconds)
	return fmt.Sprintf("GMT%c%02d:%02d", sign, h, m)
}

func splitOffset(seconds int) (sign byte, hours, minutes int) {
	sign = '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return sign, seconds / 3600, (seconds % 3600) / 60
}
