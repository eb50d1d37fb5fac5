// Package timeutil parses the flexible timestamps used by collection
// strategies and the UTC timestamps returned by the upstream provider, and
// maps requested collection windows onto the provider's forecast horizons.
package timeutil

import (
	"strings"
	"time"
)

// LocalZone is the fixed zone all collected samples are stored in.
// Provider timestamps arrive in UTC and are converted before persisting.
var LocalZone = time.FixedZone("UTC+8", 8*60*60)

// flexibleLayouts are tried in order. Go's parser accepts unpadded month and
// day values, so "2026-1-5" matches the dash layouts as well.
var flexibleLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// ParseFlexible parses an operator-supplied timestamp. Dash or slash date
// separators are accepted, seconds are optional, and date-only values default
// to midnight. The result is in LocalZone. Returns false when no layout
// matches; it never panics or returns an error.
func ParseFlexible(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range flexibleLayouts {
		if t, err := time.ParseInLocation(layout, s, LocalZone); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// providerLayouts cover the three timestamp shapes the provider emits:
// a trailing Z, an explicit offset, or a bare timestamp (implicitly UTC).
var providerLayouts = []string{
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05Z07:00",
}

// ParseProviderTime parses a provider timestamp and converts it to LocalZone.
// Bare timestamps without zone information are treated as UTC.
func ParseProviderTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range providerLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(LocalZone), true
		}
	}
	// No zone suffix: assume UTC.
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.In(LocalZone), true
		}
	}
	return time.Time{}, false
}

// Bucket is a forecast horizon accepted by the hourly weather forecast API.
type Bucket string

// Forecast horizons supported upstream.
const (
	Bucket24h  Bucket = "24h"
	Bucket72h  Bucket = "72h"
	Bucket168h Bucket = "168h"
)

// MaxForecastHours is the longest horizon the weather forecast API serves.
const MaxForecastHours = 168

// ForecastHorizon returns the whole-hour length of [start, end] and the
// smallest provider bucket that covers it. Windows longer than
// MaxForecastHours are clamped to the 168h bucket; the caller discards
// returned points outside the requested window. Returns hours <= 0 when the
// window is empty or inverted.
func ForecastHorizon(start, end time.Time) (int, Bucket) {
	hours := int(end.Sub(start).Hours())
	switch {
	case hours <= 24:
		return hours, Bucket24h
	case hours <= 72:
		return hours, Bucket72h
	default:
		return hours, Bucket168h
	}
}
