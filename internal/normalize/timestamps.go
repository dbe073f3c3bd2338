package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts carrying an explicit offset or zone designator.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02T15:04Z07:00",
}

// Naive layouts are interpreted in the market's reference zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"2006-01-02",
}

var errEmptyTimestamp = errors.New("empty timestamp")

// ParseTime parses a provider timestamp string and returns it in loc.
// Strings with an offset (including "Z") keep their instant; naive strings are read as
// wall-clock time in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyTimestamp
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return epoch(ms).In(loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseRawTime accepts a JSON string or a JSON number of epoch seconds/milliseconds.
func ParseRawTime(raw json.RawMessage, loc *time.Location) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, errEmptyTimestamp
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		return ParseTime(s, loc)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return time.Time{}, err
	}
	ms, err := n.Int64()
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch timestamp %s", raw)
	}
	if loc == nil {
		loc = time.UTC
	}
	return epoch(ms).In(loc), nil
}

// epoch treats values above 1e11 as milliseconds.
func epoch(v int64) time.Time {
	if v > 1e11 || v < -1e11 {
		return time.UnixMilli(v)
	}
	return time.Unix(v, 0)
}

// ParseRawFloat accepts a JSON number or a numeric string. Empty strings and null are errors.
func ParseRawFloat(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing value")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if s == "" {
			return 0, errors.New("missing value")
		}
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}
