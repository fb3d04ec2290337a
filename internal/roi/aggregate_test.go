package roi

import "testing"

func TestAggregateProjectMetrics(t *testing.T) {
	projects := []ProjectInput{
		{
			Status:             "active",
			HoursSavedDaily:    ptr(2),
			EmployeeWage:       ptr(25),
			DevCost:            1000,
			ImplementationCost: 500,
			MonthlyMaintenance: 100,
			GoLiveDate:         daysAgo(65),
		},
		{
			// No wage: contributes hours and cost but no ROI.
			Status:           "active",
			HoursSavedWeekly: ptr(14),
			DevCost:          300,
			GoLiveDate:       daysAgo(10),
		},
		{
			Status:          "dev",
			HoursSavedDaily: ptr(8),
			EmployeeWage:    ptr(40),
			DevCost:         5000,
			GoLiveDate:      daysAgo(10),
		},
	}

	agg := AggregateProjectMetrics(projects, RangeAll, now)

	if agg.TotalProjects != 3 {
		t.Errorf("TotalProjects = %d, want 3", agg.TotalProjects)
	}
	if agg.ActiveProjects != 2 {
		t.Errorf("ActiveProjects = %d, want 2", agg.ActiveProjects)
	}
	// 2*65 + 2*10
	if agg.TotalTimeSaved != 150 {
		t.Errorf("TotalTimeSaved = %v, want 150", agg.TotalTimeSaved)
	}
	// 130h * $25
	if agg.TotalROI != 3250 {
		t.Errorf("TotalROI = %v, want 3250", agg.TotalROI)
	}
	// 1700 + 300
	if agg.TotalCost != 2000 {
		t.Errorf("TotalCost = %v, want 2000", agg.TotalCost)
	}
	if agg.ROIPercentage != 163 {
		t.Errorf("ROIPercentage = %d, want 163", agg.ROIPercentage)
	}
}

func TestAggregateProjectMetrics_WeekRange(t *testing.T) {
	projects := []ProjectInput{
		{Status: "active", HoursSavedDaily: ptr(2), EmployeeWage: ptr(10), GoLiveDate: daysAgo(65)},
	}
	agg := AggregateProjectMetrics(projects, RangeWeek, now)
	if agg.TotalTimeSaved != 14 || agg.TotalROI != 140 {
		t.Errorf("got time=%v roi=%v, want 14 and 140", agg.TotalTimeSaved, agg.TotalROI)
	}
}

func TestAggregateProjectMetrics_Empty(t *testing.T) {
	agg := AggregateProjectMetrics(nil, RangeAll, now)
	if agg != (Aggregate{}) {
		t.Errorf("expected zero aggregate, got %+v", agg)
	}
}

func TestProjectMetrics(t *testing.T) {
	p := ProjectInput{
		Status:             "active",
		HoursSavedWeekly:   ptr(14),
		EmployeeWage:       ptr(30),
		DevCost:            1000,
		ImplementationCost: 500,
		MonthlyMaintenance: 100,
		GoLiveDate:         daysAgo(65),
	}

	d := ProjectMetrics(p, now)

	want := Detail{
		HoursPerDay:     2,
		DailyROI:        60,
		WeeklyROI:       420,
		MonthlyROI:      1800,
		TotalHoursSaved: 130,
		TotalROI:        3900,
		TotalCost:       1700,
		ROIPercentage:   229,
		DaysActive:      65,
		WeeksActive:     9,
	}
	if d != want {
		t.Errorf("ProjectMetrics() = %+v, want %+v", d, want)
	}
}

func TestProjectMetrics_NotLive(t *testing.T) {
	p := ProjectInput{Status: "proposed", HoursSavedDaily: ptr(3), EmployeeWage: ptr(30), DevCost: 800}
	d := ProjectMetrics(p, now)
	if d.HoursPerDay != 0 || d.TotalROI != 0 || d.DaysActive != 0 {
		t.Errorf("expected zero time metrics, got %+v", d)
	}
	if d.TotalCost != 800 {
		t.Errorf("TotalCost = %v, want 800", d.TotalCost)
	}
}
