// Package timefmt validates epoch timestamps and renders instants and day ranges
// as en-US, timezone-aware display strings.
package timefmt

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidTimestamp is returned for values that are not a 10 to 13 digit Unix epoch.
var ErrInvalidTimestamp = errors.New("invalid Unix epoch timestamp")

var epochPattern = regexp.MustCompile(`^\d{10,13}$`)

// ParseEpoch validates value as a Unix epoch and returns the instant it names.
//
// The string form of value must be 10 to 13 decimal digits. Values whose canonical
// digit string is at most 10 digits long are seconds, longer ones are milliseconds.
func ParseEpoch(value any) (time.Time, error) {
	digits, ok := epochDigits(value)
	if !ok || !epochPattern.MatchString(digits) {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimestamp, value)
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}

	if len(strconv.FormatInt(n, 10)) <= 10 {
		n *= 1000
	}
	return time.UnixMilli(n), nil
}

// FormatEpoch validates value with ParseEpoch and renders it with Format.
// A nil opts selects DefaultFormatOptions.
func FormatEpoch(value any, opts *FormatOptions) (string, error) {
	t, err := ParseEpoch(value)
	if err != nil {
		return "", err
	}

	o := DefaultFormatOptions
	if opts != nil {
		o = *opts
	}
	return Format(t, o)
}

func epochDigits(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case int:
		return strconv.Itoa(v), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}
