package scheduler

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ScanWindow gates capture runs to configured weekdays and a local-time hour
// window, so scheduled scans fire only while the market is active.
type ScanWindow struct {
	startHour int // inclusive
	endHour   int // exclusive
	weekdays  map[time.Weekday]bool
	loc       *time.Location
}

var weekdayAbbrev = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

// NewScanWindow builds a window from the configured hours, weekday
// abbreviations (MON..SUN) and timezone name. An unknown timezone falls back
// to UTC with a warning rather than blocking startup.
func NewScanWindow(startHour, endHour int, weekdays []string, timezone string, log zerolog.Logger) *ScanWindow {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", timezone).Msg("Unknown timezone, falling back to UTC")
		loc = time.UTC
	}

	days := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		if wd, ok := weekdayAbbrev[strings.ToUpper(strings.TrimSpace(d))]; ok {
			days[wd] = true
		} else {
			log.Warn().Str("weekday", d).Msg("Unknown weekday abbreviation, skipping")
		}
	}

	return &ScanWindow{
		startHour: startHour,
		endHour:   endHour,
		weekdays:  days,
		loc:       loc,
	}
}

// Contains reports whether t falls inside the window.
func (w *ScanWindow) Contains(t time.Time) bool {
	local := t.In(w.loc)
	if !w.weekdays[local.Weekday()] {
		return false
	}
	return local.Hour() >= w.startHour && local.Hour() < w.endHour
}

// Location returns the window's timezone.
func (w *ScanWindow) Location() *time.Location {
	return w.loc
}
