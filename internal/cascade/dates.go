package cascade

import (
	"strings"
	"time"
	"unicode"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Accepted punctuated layouts, tried in order. Compact forms (no separators)
// are rewritten into their punctuated equivalent first, then parsed with
// these same layouts.
var dateLayouts = []struct {
	layout string
	local  bool
}{
	{"2006-01-02T15:04:05Z07:00", false}, // RFC 3339
	{"2006-01-02T15:04:05-0700", false},  // numeric offset without colon
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02", true},
}

// ParseDate normalizes a date-like front-matter string to an instant.
// Layouts without a zone are interpreted in local time; layouts with Z or a
// numeric offset are absolute.
func ParseDate(value string) (time.Time, error) {
	s := expandCompact(strings.TrimSpace(value))

	for _, l := range dateLayouts {
		var t time.Time
		var err error
		if l.local {
			t, err = time.ParseInLocation(l.layout, s, time.Local)
		} else {
			t, err = time.Parse(l.layout, s)
		}
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, ferrors.NewError(ferrors.CategoryCascade, "unparseable date").
		WithContext("value", value).
		Build()
}

// expandCompact rewrites separator-free forms (YYYYMMDD, YYYYMMDDTHHMMSS,
// with optional trailing Z or offset) into their punctuated equivalents.
// Anything that does not look compact passes through untouched.
func expandCompact(s string) string {
	// A punctuated date has '-' at index 4 and fails the digit check.
	if len(s) < 8 || !allDigits(s[:8]) {
		return s
	}

	date := s[:4] + "-" + s[4:6] + "-" + s[6:8]
	rest := s[8:]
	if rest == "" {
		return date
	}
	if rest[0] != 'T' || len(rest) < 7 || !allDigits(rest[1:7]) {
		return s
	}

	timePart := rest[1:3] + ":" + rest[3:5] + ":" + rest[5:7]
	return date + "T" + timePart + rest[7:]
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
