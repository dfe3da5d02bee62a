package processor

import (
	"testing"

	"Mansoor88-6/labor-cost-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kpiRows() []models.TimeEntryRow {
	return []models.TimeEntryRow{
		row(1, "Billing", "ann", 4, "2024-01-01", true, true),
		row(2, "Billing", "bob", 0, "2024-01-01", false, true),
		row(3, "Ops", "ann", 8, "2024-01-02", true, false),
		row(4, "Ops", "bob", 4, "2024-01-03", false, false),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(kpiRows(), 100)

	assert.Equal(t, 4, s.Entries)
	assert.Equal(t, 16.0, s.TotalHours)
	assert.Equal(t, 1600.0, s.TotalCost)
	assert.Equal(t, 12.0, s.PaidHours)
	assert.Equal(t, 4.0, s.ApprovedHours)
	assert.Equal(t, 75.0, s.PaidRatio)
	assert.Equal(t, 25.0, s.ApprovedRatio)
	assert.Equal(t, 2, s.ActiveUsers)
	assert.Equal(t, "2024-01-01", s.StartDate.String())
	assert.Equal(t, "2024-01-03", s.EndDate.String())

	empty := Summarize(nil, 100)
	assert.Equal(t, 0.0, empty.PaidRatio)
	assert.True(t, empty.StartDate.IsZero())
}

func TestStatusBreakdown(t *testing.T) {
	rows := append(kpiRows(), kpiRows()[0])
	got := StatusBreakdown(rows, 10)

	require.Len(t, got, 4)
	assert.Equal(t, StatusTotal{Status: StatusPaidApproved, Hours: 4, Cost: 40}, got[0])
	assert.Equal(t, StatusTotal{Status: StatusPaidNotApproved, Hours: 8, Cost: 80}, got[1])
	assert.Equal(t, StatusTotal{Status: StatusUnpaidApproved, Hours: 0, Cost: 0}, got[2])
	assert.Equal(t, StatusTotal{Status: StatusUnpaidNotApproved, Hours: 4, Cost: 40}, got[3])

	empty := StatusBreakdown(nil, 10)
	assert.Len(t, empty, 4)
}

func TestProjectStatusBreakdown(t *testing.T) {
	got := ProjectStatusBreakdown(kpiRows(), 1)
	require.Len(t, got, 4)
	assert.Equal(t, "Billing", got[0].Project)
	assert.Equal(t, StatusPaidApproved, got[0].Status)
	assert.Equal(t, "Billing", got[1].Project)
	assert.Equal(t, StatusUnpaidApproved, got[1].Status)
	assert.Equal(t, "Ops", got[2].Project)
	assert.Equal(t, StatusPaidNotApproved, got[2].Status)
	assert.Equal(t, StatusUnpaidNotApproved, got[3].Status)
}

func TestPerformanceIndicators(t *testing.T) {
	p := PerformanceIndicators(kpiRows())

	assert.Equal(t, 25.0, p.CPI)
	assert.Equal(t, p.CPI, p.EfficiencyRate)
	assert.Equal(t, 75.0, p.Utilization)
	assert.Equal(t, 50.0, p.Quality)
	assert.InDelta(t, 16.0/3, p.AvgDailyHours, 1e-9)

	// daily hours 4, 8, 4: changes +100% and -50%
	assert.InDelta(t, 125.0, p.SPI, 1e-9)
	assert.InDelta(t, 25.0, p.ProductivityTrend, 1e-9)
}

func TestPerformanceIndicators_SkipsUndefinedChange(t *testing.T) {
	rows := []models.TimeEntryRow{
		row(1, "A", "ann", 0, "2024-01-01", false, false),
		row(2, "A", "ann", 5, "2024-01-02", false, false),
		row(3, "A", "ann", 10, "2024-01-03", false, false),
	}
	p := PerformanceIndicators(rows)
	assert.InDelta(t, 200.0, p.SPI, 1e-9)

	single := PerformanceIndicators(rows[:1])
	assert.Equal(t, 100.0, single.SPI)
	assert.Equal(t, 0.0, single.ProductivityTrend)

	assert.Equal(t, Performance{}, PerformanceIndicators(nil))
}

func TestUserPerformances(t *testing.T) {
	got := UserPerformances(kpiRows(), 10)
	require.Len(t, got, 2)

	ann := got[0]
	assert.Equal(t, "ann", ann.User)
	assert.Equal(t, 12.0, ann.Hours)
	assert.Equal(t, 120.0, ann.Cost)
	assert.Equal(t, 100.0, ann.PaymentRate)
	assert.Equal(t, 50.0, ann.ApprovalRate)
	assert.Equal(t, 2, ann.Projects)
	assert.Equal(t, "2024-01-01", ann.FirstEntry.String())
	assert.Equal(t, "2024-01-02", ann.LastEntry.String())

	assert.Equal(t, "bob", got[1].User)
	assert.Equal(t, 0.0, got[1].PaymentRate)
}

func TestTimelineAndActivityCosts(t *testing.T) {
	rows := kpiRows()
	rows[0].ActivityName = "Dev"
	rows[1].ActivityName = "Dev"
	rows[2].ActivityName = "QA"
	rows[3].ActivityName = "Dev"
	rows = append(rows, models.TimeEntryRow{ID: 9, ProjectName: "Ops", Hours: 3})

	timeline := Timeline(rows, 2)
	require.Len(t, timeline, 3)
	assert.Equal(t, ProjectCost{Label: "2024-01-01", Project: "Billing", Hours: 4, Cost: 8}, timeline[0])
	assert.Equal(t, ProjectCost{Label: "2024-01-02", Project: "Ops", Hours: 8, Cost: 16}, timeline[1])
	assert.Equal(t, ProjectCost{Label: "2024-01-03", Project: "Ops", Hours: 4, Cost: 8}, timeline[2])

	activities := ActivityCosts(rows, 2)
	require.Len(t, activities, 4)
	assert.Equal(t, ProjectCost{Label: "", Project: "Ops", Hours: 3, Cost: 6}, activities[0])
	assert.Equal(t, ProjectCost{Label: "Dev", Project: "Billing", Hours: 4, Cost: 8}, activities[1])
	assert.Equal(t, ProjectCost{Label: "Dev", Project: "Ops", Hours: 4, Cost: 8}, activities[2])
	assert.Equal(t, ProjectCost{Label: "QA", Project: "Ops", Hours: 8, Cost: 16}, activities[3])

	users := UserCosts(rows[:4], 1)
	require.Len(t, users, 4)
	assert.Equal(t, "ann", users[0].Label)
}
