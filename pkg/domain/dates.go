package domain

import "time"

const day = 24 * time.Hour

// DaysPerYear is the year length the return uses for age arithmetic.
const DaysPerYear = 365

// AdultAgeYears is the age at which a child leaves the scope of the return.
const AdultAgeYears = 18

// Date returns midnight UTC on the given calendar day.
func Date(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween returns the number of whole days from a to b (negative when b precedes a).
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}

// AdultDate returns the eighteenth birthday of a child born on dob.
func AdultDate(dob time.Time) time.Time {
	return dob.AddDate(AdultAgeYears, 0, 0)
}

// AgeInYears returns the age at t measured in 365-day years.
func AgeInYears(dob, t time.Time) float64 {
	return float64(DaysBetween(dob, t)) / DaysPerYear
}

// TimePtr returns a pointer to a copy of t.
func TimePtr(t time.Time) *time.Time { return &t }

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string { return &s }
