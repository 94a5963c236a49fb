package core

import (
	"time"
)

// epoch is the origin of date ordinals (matplotlib's default since 3.3).
var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// DaysPerYear converts per-day rates into per-year rates.
const DaysPerYear = 365.25

// DateOrdinal expresses t as fractional days since 1970-01-01 UTC.
func DateOrdinal(t time.Time) float64 {
	return float64(t.Sub(epoch)) / float64(24*time.Hour)
}

// FromDateOrdinal is the inverse of DateOrdinal, rounded to the second.
func FromDateOrdinal(x float64) time.Time {
	d := time.Duration(x * float64(24*time.Hour))
	return epoch.Add(d).Round(time.Second)
}

// TruncateHour rounds t down to the start of its hour, keeping its location.
func TruncateHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// HydrologicalYear returns the hydrological year of t. A hydrological year
// runs from 1 November of the previous calendar year to 31 October, so
// 2023-11-05 belongs to hydrological year 2024.
func HydrologicalYear(t time.Time) int {
	if t.Month() >= time.November {
		return t.Year() + 1
	}
	return t.Year()
}

// MonthSet is a set of calendar months.
type MonthSet map[time.Month]bool

// NewMonthSet builds a set from the given months.
func NewMonthSet(months ...time.Month) MonthSet {
	set := make(MonthSet, len(months))
	for _, m := range months {
		set[m] = true
	}
	return set
}

// Contains reports whether t falls in one of the months of the set.
func (s MonthSet) Contains(t time.Time) bool {
	return s[t.Month()]
}
