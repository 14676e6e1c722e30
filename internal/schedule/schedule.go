// Package schedule computes the scheduling instants of a major draw.
// All wall-clock math happens in one fixed civil timezone so every draw
// stays synchronized no matter where a request originates; stored instants
// remain absolute and only month-bucketing and offset math convert in.
package schedule

import (
	"time"

	"draws-api/internal/domain"
)

// Timezone is the fixed civil timezone for all draw scheduling
const Timezone = "Australia/Sydney"

// FreezeOffset is how long before the draw instant entries stop
const FreezeOffset = 30 * time.Minute

var civilZone = mustLoadZone()

func mustLoadZone() *time.Location {
	loc, err := time.LoadLocation(Timezone)
	if err != nil {
		panic("schedule: cannot load civil timezone " + Timezone + ": " + err.Error())
	}
	return loc
}

// Location returns the fixed civil timezone
func Location() *time.Location {
	return civilZone
}

// FreezeTime returns the instant entries stop ahead of the draw
func FreezeTime(drawDate time.Time) time.Time {
	return drawDate.Add(-FreezeOffset)
}

// ActivationDate returns civil midnight on the calendar day immediately
// after the draw date.
func ActivationDate(drawDate time.Time) time.Time {
	civil := drawDate.In(civilZone)
	return time.Date(civil.Year(), civil.Month(), civil.Day()+1, 0, 0, 0, 0, civilZone)
}

// MonthBounds returns the absolute instants bounding the civil calendar
// month containing t, as the half-open interval [start, next).
func MonthBounds(t time.Time) (start, next time.Time) {
	civil := t.In(civilZone)
	start = time.Date(civil.Year(), civil.Month(), 1, 0, 0, 0, 0, civilZone)
	next = start.AddDate(0, 1, 0)
	return start, next
}

// SameCivilMonth reports whether two instants fall in the same civil
// calendar month.
func SameCivilMonth(a, b time.Time) bool {
	ca, cb := a.In(civilZone), b.In(civilZone)
	return ca.Year() == cb.Year() && ca.Month() == cb.Month()
}

// Validate checks the required ordering between a major draw's instants:
// startDate < freezeEntriesAt < drawDate < activationDate. startDate may be
// nil; the remaining three are mandatory on a major draw. Violations are
// never silently corrected.
func Validate(startDate *time.Time, freezeEntriesAt, drawDate, activationDate time.Time) error {
	if startDate != nil && !startDate.Before(freezeEntriesAt) {
		return &domain.InvalidScheduleError{Ordering: "startDate must be before freezeEntriesAt"}
	}
	if !freezeEntriesAt.Before(drawDate) {
		return &domain.InvalidScheduleError{Ordering: "freezeEntriesAt must be before drawDate"}
	}
	if !drawDate.Before(activationDate) {
		return &domain.InvalidScheduleError{Ordering: "drawDate must be before activationDate"}
	}
	return nil
}
