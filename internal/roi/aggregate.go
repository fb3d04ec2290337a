package roi

import (
	"math"
	"time"
)

// ProjectInput is the subset of a project the formulas read.
type ProjectInput struct {
	Status             string
	HoursSavedDaily    *float64
	HoursSavedWeekly   *float64
	HoursSavedMonthly  *float64
	EmployeeWage       *float64
	DevCost            float64
	ImplementationCost float64
	MonthlyMaintenance float64
	GoLiveDate         *time.Time
}

// StatusActive is the only status that contributes to aggregates.
const StatusActive = "active"

// Aggregate is the dashboard summary over a set of projects.
type Aggregate struct {
	TotalTimeSaved float64 `json:"total_time_saved"`
	TotalROI       float64 `json:"total_roi"`
	TotalCost      float64 `json:"total_cost"`
	ROIPercentage  int     `json:"roi_percentage"`
	ActiveProjects int     `json:"active_projects_count"`
	TotalProjects  int     `json:"total_projects_count"`
}

// AggregateProjectMetrics sums time saved over r, ROI and all-time cost across
// the active projects. A project without a wage adds time saved but no ROI.
func AggregateProjectMetrics(projects []ProjectInput, r Range, now time.Time) Aggregate {
	agg := Aggregate{TotalProjects: len(projects)}
	for _, p := range projects {
		if p.Status != StatusActive {
			continue
		}
		agg.ActiveProjects++

		hours := TotalHoursSaved(p.HoursSavedDaily, p.HoursSavedWeekly, p.HoursSavedMonthly, p.GoLiveDate, r, now)
		agg.TotalTimeSaved += hours

		if p.EmployeeWage != nil {
			agg.TotalROI += ROI(hours, *p.EmployeeWage)
		}
		agg.TotalCost += TotalCost(p.DevCost, p.ImplementationCost, p.MonthlyMaintenance, p.GoLiveDate, now)
	}

	agg.TotalTimeSaved = Round2(agg.TotalTimeSaved)
	agg.TotalROI = Round2(agg.TotalROI)
	agg.TotalCost = Round2(agg.TotalCost)
	agg.ROIPercentage = ROIPercentage(agg.TotalROI, agg.TotalCost)
	return agg
}

// Detail is the per-project metric breakdown shown on a project page.
type Detail struct {
	HoursPerDay     float64 `json:"hours_per_day"`
	DailyROI        float64 `json:"daily_roi"`
	WeeklyROI       float64 `json:"weekly_roi"`
	MonthlyROI      float64 `json:"monthly_roi"`
	TotalHoursSaved float64 `json:"total_hours_saved"`
	TotalROI        float64 `json:"total_roi"`
	TotalCost       float64 `json:"total_cost"`
	ROIPercentage   int     `json:"roi_percentage"`
	DaysActive      int     `json:"days_active"`
	WeeksActive     int     `json:"weeks_active"`
}

// ProjectMetrics computes the detail breakdown for a single project,
// regardless of its status. Weekly and monthly ROI are the daily figure
// projected over 7 and 30 days.
func ProjectMetrics(p ProjectInput, now time.Time) Detail {
	days := DaysActive(p.GoLiveDate, now)
	hpd := 0.0
	if p.GoLiveDate != nil {
		hpd = HoursPerDay(p.HoursSavedDaily, p.HoursSavedWeekly, p.HoursSavedMonthly)
	}

	wage := 0.0
	if p.EmployeeWage != nil {
		wage = *p.EmployeeWage
	}

	daily := ROI(hpd, wage)
	total := TotalHoursSaved(p.HoursSavedDaily, p.HoursSavedWeekly, p.HoursSavedMonthly, p.GoLiveDate, RangeAll, now)
	totalROI := ROI(total, wage)
	cost := TotalCost(p.DevCost, p.ImplementationCost, p.MonthlyMaintenance, p.GoLiveDate, now)

	return Detail{
		HoursPerDay:     Round2(hpd),
		DailyROI:        daily,
		WeeklyROI:       Round2(daily * daysPerWeek),
		MonthlyROI:      Round2(daily * daysPerMonth),
		TotalHoursSaved: total,
		TotalROI:        totalROI,
		TotalCost:       cost,
		ROIPercentage:   ROIPercentage(totalROI, cost),
		DaysActive:      days,
		WeeksActive:     int(math.Floor(float64(days) / daysPerWeek)),
	}
}
