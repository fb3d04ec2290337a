// Package roi holds the time-saved, return-on-investment and cost formulas
// used by every dashboard. All functions are pure; anything that depends on
// the current time takes it as an argument.
package roi

import (
	"math"
	"time"
)

// Range selects the window TotalHoursSaved scales over.
type Range string

const (
	RangeDay   Range = "day"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeAll   Range = "all"
)

const (
	day          = 24 * time.Hour
	daysPerWeek  = 7
	daysPerMonth = 30
)

// ParseRange maps a query-string value to a Range. The dashboard aliases
// "7days" and "month" are accepted; anything unrecognised means all time.
func ParseRange(s string) Range {
	switch s {
	case "day":
		return RangeDay
	case "week", "7days":
		return RangeWeek
	case "month", "30days":
		return RangeMonth
	default:
		return RangeAll
	}
}

// DaysActive returns whole days elapsed since goLive, never negative.
// A nil goLive yields 0.
func DaysActive(goLive *time.Time, now time.Time) int {
	if goLive == nil {
		return 0
	}
	d := int(math.Floor(float64(now.Sub(*goLive)) / float64(day)))
	if d < 0 {
		return 0
	}
	return d
}

// HoursPerDay resolves the authoritative daily rate. Daily wins over
// weekly/7, which wins over monthly/30; the first positive value is used and
// values are never blended.
func HoursPerDay(daily, weekly, monthly *float64) float64 {
	switch {
	case positive(daily):
		return *daily
	case positive(weekly):
		return *weekly / daysPerWeek
	case positive(monthly):
		return *monthly / daysPerMonth
	default:
		return 0
	}
}

// TotalHoursSaved returns the hours saved over r, rounded to cents of an hour.
// Without a go-live date nothing has been saved yet.
func TotalHoursSaved(daily, weekly, monthly *float64, goLive *time.Time, r Range, now time.Time) float64 {
	if goLive == nil {
		return 0
	}

	days := DaysActive(goLive, now)
	hpd := HoursPerDay(daily, weekly, monthly)

	var total float64
	switch r {
	case RangeDay:
		total = hpd
	case RangeWeek:
		total = hpd * float64(min(daysPerWeek, days))
	case RangeMonth:
		total = hpd * float64(min(daysPerMonth, days))
	default:
		total = hpd * float64(days)
	}
	return Round2(total)
}

// ROI is hours saved multiplied by the hourly wage.
func ROI(hoursSaved, wage float64) float64 {
	return Round2(clamp(hoursSaved) * clamp(wage))
}

// TotalCost sums one-time costs and the maintenance accrued since go-live.
// Maintenance accrues per elapsed 30-day period, not per calendar month.
func TotalCost(devCost, implementationCost, monthlyMaintenance float64, goLive *time.Time, now time.Time) float64 {
	oneTime := clamp(devCost) + clamp(implementationCost)
	maint := clamp(monthlyMaintenance)
	if goLive == nil || maint == 0 {
		return Round2(oneTime)
	}
	months := DaysActive(goLive, now) / daysPerMonth
	return Round2(oneTime + maint*float64(months))
}

// ROIPercentage expresses roi as a whole percentage of cost. Zero cost
// yields 0.
func ROIPercentage(roi, cost float64) int {
	if cost <= 0 {
		return 0
	}
	return int(math.Round(roi / cost * 100))
}

// Direction is the sign of a Trend.
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// TrendResult is a whole-number percentage change and its direction.
type TrendResult struct {
	Percentage int       `json:"percentage"`
	Direction  Direction `json:"direction"`
}

// Trend compares current against previous. A zero previous value has no
// meaningful change and reports neutral.
func Trend(current, previous float64) TrendResult {
	if previous == 0 {
		return TrendResult{Direction: DirectionNeutral}
	}
	change := (current - previous) / previous * 100
	dir := DirectionNeutral
	if change > 0 {
		dir = DirectionUp
	} else if change < 0 {
		dir = DirectionDown
	}
	return TrendResult{
		Percentage: int(math.Abs(math.Round(change))),
		Direction:  dir,
	}
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}

func clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
