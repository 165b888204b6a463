package derive

import (
	"time"

	"github.com/goliatone/go-formforge/pkg/model"
)

// Age returns the number of whole years between the single parent date and
// now. A missing or invalid date, or a date after now, yields Unset.
func Age(parents []model.Value, now time.Time) model.Value {
	if len(parents) != 1 {
		return model.Unset()
	}
	born, ok := parents[0].AsDate()
	if !ok {
		return model.Unset()
	}
	years, ok := YearsBetween(born, now)
	if !ok {
		return model.Unset()
	}
	return model.Number(float64(years))
}

// YearsBetween counts full calendar years from start to end, subtracting one
// when end's month/day precedes start's. It reports false when start is after
// end.
func YearsBetween(start, end time.Time) (int, bool) {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	startDay := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	endDay := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	if startDay.After(endDay) {
		return 0, false
	}
	years := ey - sy
	if em < sm || (em == sm && ed < sd) {
		years--
	}
	return years, true
}
