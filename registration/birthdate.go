package registration

import (
	"time"

	"github.com/MrEthical07/loginflow/credential"
)

// MinBirthYear is the earliest selectable birth year.
const MinBirthYear = 1900

// BirthDate is the three-part date-of-birth selector. The date counts as
// present once any part has been picked.
type BirthDate struct {
	Day      int        `json:"day"`
	Month    time.Month `json:"month"`
	Year     int        `json:"year"`
	Selected bool       `json:"selected"`
}

// DefaultBirthDate is what the selector shows before the user picks
// anything: 1 January 2000.
func DefaultBirthDate() BirthDate {
	return BirthDate{Day: 1, Month: time.January, Year: 2000}
}

// WithDay picks a day, clamped to the current month.
func (b BirthDate) WithDay(day int) BirthDate {
	b.Day = credential.ClampDay(day, b.Month, b.Year)
	b.Selected = true
	return b
}

// WithMonth picks a month. A day past the end of the new month is pulled
// back to its last day.
func (b BirthDate) WithMonth(month time.Month) BirthDate {
	b.Month = month
	b.Day = credential.ClampDay(b.Day, b.Month, b.Year)
	b.Selected = true
	return b
}

// WithYear picks a year, clamping 29 February in non-leap years.
func (b BirthDate) WithYear(year int) BirthDate {
	b.Year = year
	b.Day = credential.ClampDay(b.Day, b.Month, b.Year)
	b.Selected = true
	return b
}

// clamped marks b as picked and limits its day to the month. An unknown
// month is left for Valid to reject.
func (b BirthDate) clamped() BirthDate {
	b.Selected = true
	if b.Month >= time.January && b.Month <= time.December {
		b.Day = credential.ClampDay(b.Day, b.Month, b.Year)
	}
	return b
}

// Valid reports whether b is a real date between minYear and maxYear.
func (b BirthDate) Valid(minYear, maxYear int) bool {
	if b.Year < minYear || b.Year > maxYear {
		return false
	}
	return credential.ValidDate(b.Day, b.Month, b.Year)
}

// Time returns the date at midnight UTC.
func (b BirthDate) Time() time.Time {
	return time.Date(b.Year, b.Month, b.Day, 0, 0, 0, 0, time.UTC)
}

// Years lists the selectable years, newest first.
func Years(now time.Time) []int {
	out := make([]int, 0, now.Year()-MinBirthYear+1)
	for y := now.Year(); y >= MinBirthYear; y-- {
		out = append(out, y)
	}
	return out
}
