// Package calendar provides timezone-naive calendar arithmetic used to classify
// repository staleness.
package calendar

import "time"

const hoursPerDayConstant = 24

// DifferenceInDays returns the absolute number of calendar days between the UTC dates of left and right.
func DifferenceInDays(left time.Time, right time.Time) int {
	leftDate := truncateToDate(left)
	rightDate := truncateToDate(right)

	elapsedDays := int(rightDate.Sub(leftDate).Hours() / hoursPerDayConstant)
	if elapsedDays < 0 {
		return -elapsedDays
	}
	return elapsedDays
}

func truncateToDate(moment time.Time) time.Time {
	utcMoment := moment.UTC()
	return time.Date(utcMoment.Year(), utcMoment.Month(), utcMoment.Day(), 0, 0, 0, 0, time.UTC)
}
