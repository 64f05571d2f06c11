package credential

import "time"

// DaysInMonth returns the number of days in month of year, accounting for
// leap years. Months outside January..December are normalised the way
// time.Date normalises them.
func DaysInMonth(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay limits day to the valid range of the given month and year.
func ClampDay(day int, month time.Month, year int) int {
	if day < 1 {
		return 1
	}
	if last := DaysInMonth(month, year); day > last {
		return last
	}
	return day
}

// ValidDate reports whether day/month/year names a real calendar date.
func ValidDate(day int, month time.Month, year int) bool {
	if month < time.January || month > time.December {
		return false
	}
	return day >= 1 && day <= DaysInMonth(month, year)
}
