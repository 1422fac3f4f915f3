package consolidation

import "time"

// DateOf truncates t to its calendar date, expressed as midnight UTC.
// Birth dates and due dates are stored in this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar-day boundaries from from to to, each
// taken in its own location.
func daysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// completedYears returns the age in whole years on today
func completedYears(birth, today time.Time) int {
	by, bm, bd := birth.Date()
	ty, tm, td := today.Date()
	age := ty - by
	if tm < bm || (tm == bm && td < bd) {
		age--
	}
	return age
}
