package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrEmptyTimestamp is returned for missing or blank timestamp values
	ErrEmptyTimestamp = errors.New("timestamp is empty")
	// ErrUnparsableTimestamp is returned when no known representation matches
	ErrUnparsableTimestamp = errors.New("timestamp could not be parsed")
)

// layouts are tried in order when no explicit format is configured
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"02/01/2006 15:04:05.000000",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02.01.2006 15:04:05",
	"02.01.2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
}

// compactLayouts are digit-only layouts that must win over reading the same
// digits as a unix epoch
var compactLayouts = []string{
	"20060102150405",
	"20060102",
	"2006",
}

// excel serial dates count days since 1899-12-30
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

type TimestampParser struct {
	tz     *time.Location
	format string // https://golang.org/src/time/format.go
}

// NewTimestampParser returns a parser that uses format when it is set and
// falls back to a list of common layouts otherwise. Values without zone
// information are interpreted in tzIanaKey (UTC when empty).
func NewTimestampParser(format string, tzIanaKey string) (*TimestampParser, error) {
	tz := time.UTC
	if tzIanaKey != "" {
		var err error
		tz, err = time.LoadLocation(tzIanaKey)
		if err != nil {
			return nil, err
		}
	}

	return &TimestampParser{
		format: format,
		tz:     tz,
	}, nil
}

// Parse converts a raw value into a UTC instant. Strings, time.Time values
// and numbers are accepted; see parseNumber for how numbers are read.
func (p TimestampParser) Parse(input interface{}) (time.Time, error) {
	switch v := input.(type) {
	case nil:
		return time.Time{}, ErrEmptyTimestamp
	case time.Time:
		if v.IsZero() {
			return time.Time{}, ErrEmptyTimestamp
		}
		return v.UTC(), nil
	case float64:
		return parseNumber(v)
	case float32:
		return parseNumber(float64(v))
	case int:
		return parseNumber(float64(v))
	case int64:
		return parseNumber(float64(v))
	case uint64:
		return parseNumber(float64(v))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return parseNumber(f)
		}
		return p.parseString(v.String())
	case string:
		return p.parseString(v)
	case fmt.Stringer:
		return p.parseString(v.String())
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported value type %T", ErrUnparsableTimestamp, input)
	}
}

func (p TimestampParser) parseString(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "nan") || strings.EqualFold(input, "nat") || strings.EqualFold(input, "null") {
		return time.Time{}, ErrEmptyTimestamp
	}

	if p.format != "" {
		timestamp, err := time.ParseInLocation(p.format, input, p.tz)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q does not match %q", ErrUnparsableTimestamp, input, p.format)
		}
		return timestamp.UTC(), nil
	}

	for _, layout := range layouts {
		if timestamp, err := time.ParseInLocation(layout, input, p.tz); err == nil {
			return timestamp.UTC(), nil
		}
	}

	for _, layout := range compactLayouts {
		if len(layout) != len(input) {
			continue
		}
		if timestamp, err := time.ParseInLocation(layout, input, p.tz); err == nil {
			return timestamp.UTC(), nil
		}
	}

	// numeric strings are only read as epochs, excel serials need a number
	if f, err := strconv.ParseFloat(input, 64); err == nil && math.Abs(f) >= 1e6 {
		return parseNumber(f)
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableTimestamp, input)
}

// parseNumber reads small values (below one million) as excel serial dates
// and everything else as a unix epoch whose unit is derived from the
// magnitude (seconds, milliseconds, microseconds or nanoseconds).
func parseNumber(v float64) (time.Time, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, ErrEmptyTimestamp
	}

	abs := math.Abs(v)
	switch {
	case abs < 1e6:
		days := math.Floor(v)
		fraction := v - days
		return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(fraction * float64(24*time.Hour))), nil
	case abs < 1e11:
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	case abs < 1e14:
		return time.UnixMilli(int64(v)).UTC(), nil
	case abs < 1e17:
		return time.UnixMicro(int64(v)).UTC(), nil
	default:
		return time.Unix(0, int64(v)).UTC(), nil
	}
}
