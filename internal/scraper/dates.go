package scraper

import (
	"strings"
	"time"
)

// isoLayouts are tried first; the source usually emits machine-readable
// timestamps in the <time datetime> attribute.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// fallbackDateLayouts cover the human-readable shapes seen in listing
// markup, tried in order after the ISO forms.
var fallbackDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"2 January 2006",
	"January 2, 2006",
}

// ParseDate parses the date formats the source site is known to emit.
// Unparsable input yields nil rather than an error: dates are
// best-effort and their absence never fails a listing entry.
func ParseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
