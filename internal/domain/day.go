package domain

import "time"

const OnboardDateLayout = "02 January 2006"

// DayBounds returns [midnight, next midnight) of the calendar day containing
// at, evaluated in loc.
func DayBounds(at time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := at.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

func WithinDay(ts time.Time, from time.Time, to time.Time) bool {
	return !ts.Before(from) && ts.Before(to)
}

func FormatOnboardDate(createdAt *time.Time, loc *time.Location) string {
	if createdAt == nil || createdAt.IsZero() {
		return NotAvailable
	}
	if loc == nil {
		loc = time.Local
	}
	return createdAt.In(loc).Format(OnboardDateLayout)
}
