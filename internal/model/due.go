package model

import (
	"fmt"
	"strings"
	"time"
)

// ParseDue parses a due date typed by the user:
// - layout (the configured one, local time)
// - YYYY-MM-DD HH:MM (local time)
// - YYYY-MM-DD (local midnight)
// - RFC3339 / RFC3339Nano (timezone-aware)
//
// An empty value yields the zero time, which the form turns into "now".
func ParseDue(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, l := range []string{layout, "2006-01-02 15:04", "2006-01-02"} {
		if l == "" {
			continue
		}
		if ts, err := time.ParseInLocation(l, s, time.Local); err == nil {
			return ts, nil
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid due date %q (expected %s, YYYY-MM-DD, or RFC3339)", s, layout)
}

// FormatDue renders t in local time, the zone ParseDue reads layouts in.
func FormatDue(t time.Time, layout string) string {
	return t.In(time.Local).Format(layout)
}
