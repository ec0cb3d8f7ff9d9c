package audit

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"02 Jan 2006",
	"02Jan2006",
	"02JAN2006",
	"Jan 2, 2006",
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"1504",
	"3:04 PM",
	"3:04PM",
}

// flightTimestamp parses a report's date and time. ok is false when the date
// cannot be read; an unreadable time only drops the time of day.
func flightTimestamp(date, clock string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, false
	}

	var day time.Time
	parsed := false
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			day = t
			parsed = true
			break
		}
	}
	if !parsed {
		return time.Time{}, false
	}

	clock = strings.TrimSpace(clock)
	if clock == "" {
		return day, true
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, clock); err == nil {
			y, m, d := day.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
		}
	}
	return day, true
}

// flightBefore orders two flights chronologically. Flights with an unreadable
// date sort after readable ones and among themselves by raw text.
func flightBefore(aDate, aTime, bDate, bTime string) bool {
	at, aok := flightTimestamp(aDate, aTime)
	bt, bok := flightTimestamp(bDate, bTime)
	switch {
	case aok && bok:
		return at.Before(bt)
	case aok != bok:
		return aok
	default:
		if aDate != bDate {
			return aDate < bDate
		}
		return aTime < bTime
	}
}
