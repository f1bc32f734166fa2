package store

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the on-disk timestamp format. Fixed width and UTC, so
// lexical order equals chronological order.
const TimeLayout = "2006-01-02 15:04:05.000000000"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// legacyLayouts are accepted on read for rows written by other tools.
var legacyLayouts = []string{
	TimeLayout,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a stored timestamp. Values without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
