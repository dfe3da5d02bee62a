package processor

import (
	"encoding/json"
	"testing"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntries(t *testing.T, raw string) []models.TimeEntry {
	t.Helper()
	var entries []models.TimeEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))
	return entries
}

const sampleEntries = `[
	{
		"id": 1,
		"project": {"id": 10, "name": "Billing"},
		"user": {"id": 3, "name": "Ivan Petrov"},
		"activity": {"id": 9, "name": "Development"},
		"issue": {"id": 100},
		"hours": 176.0,
		"comments": "DEV: feature",
		"spent_on": "2024-02-15",
		"created_on": "2024-02-15T10:00:00Z",
		"updated_on": "2024-02-15T10:00:00Z",
		"custom_fields": [{"id": 25, "value": "0"}]
	},
	{
		"id": 2,
		"project": {"id": 10, "name": "Billing"},
		"user": {"id": 3, "name": "Ivan Petrov"},
		"activity": {"id": 8, "name": "Testing"},
		"hours": "151",
		"comments": "",
		"spent_on": "2024-02-16",
		"created_on": "2024-02-16T10:00:00Z",
		"updated_on": "2024-02-16T10:00:00Z",
		"custom_fields": [{"id": 25, "value": "0"}]
	}
]`

func TestProcessTimeEntries_PaymentExample(t *testing.T) {
	rows := NewTransformer(DefaultHourlyRate).ProcessTimeEntries(decodeEntries(t, sampleEntries))
	require.Len(t, rows, 2)

	for _, r := range rows {
		assert.False(t, r.IsPaid)
		assert.Equal(t, "0", r.TMSPayment)
	}

	seg := SegmentTimeEntries(rows, []string{"user_name"}, []Aggregation{{Column: "hours", Funcs: []string{AggSum}}}, nil)
	require.Len(t, seg.Rows, 1)
	assert.Equal(t, "Ivan Petrov", seg.Rows[0]["user_name"])
	assert.InDelta(t, 327.0, seg.Rows[0]["hours_sum"], 1e-9)
}

func TestProcessTimeEntries_DerivedFields(t *testing.T) {
	raw := `[{
		"id": 5,
		"project": {"id": 1, "name": "Ops"},
		"hours": 2.5,
		"spent_on": "2024-12-30",
		"custom_fields": [
			{"id": 25, "value": "1"},
			{"id": 26, "value": "1"},
			{"id": 80, "value": "yes"},
			{"id": 62, "value": "bad import"}
		]
	}]`
	rows := NewTransformer(1000).ProcessTimeEntries(decodeEntries(t, raw))
	require.Len(t, rows, 1)
	r := rows[0]

	assert.True(t, r.IsPaid)
	assert.True(t, r.IsApproved)
	assert.False(t, r.IsLoaded, "only the exact value 1 sets a flag")
	assert.Equal(t, "bad import", r.ErrorText)
	assert.Equal(t, "0", r.WorkTypeCode)

	assert.Equal(t, 1, r.Week, "2024-12-30 belongs to ISO week 1 of 2025")
	assert.Equal(t, 12, r.Month)
	assert.Equal(t, 4, r.Quarter)
	assert.Equal(t, 2024, r.Year)
	assert.InDelta(t, 2500.0, r.Cost, 1e-9)
	assert.Empty(t, r.UserName)
}

func TestProcessTimeEntries_MissingCustomFields(t *testing.T) {
	rows := NewTransformer(1).ProcessTimeEntries(decodeEntries(t, `[{"id": 1, "hours": "n/a"}]`))
	require.Len(t, rows, 1)

	assert.Equal(t, 0.0, rows[0].Hours)
	assert.Equal(t, "0", rows[0].TMSPayment)
	assert.Equal(t, "0", rows[0].HoursApproved)
	assert.Equal(t, "0", rows[0].HoursLoaded)
	assert.Equal(t, "", rows[0].ErrorText)
	assert.Equal(t, 0, rows[0].Week)
}

func TestProcessTimeEntries_DeduplicatesAndIsDeterministic(t *testing.T) {
	entries := decodeEntries(t, sampleEntries)
	entries = append(entries, entries[0])

	tr := NewTransformer(DefaultHourlyRate)
	first := tr.ProcessTimeEntries(entries)
	second := tr.ProcessTimeEntries(decodeEntries(t, sampleEntries))

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, []int{1, 2}, []int{first[0].ID, first[1].ID})
}

func TestProcessTimeEntries_Empty(t *testing.T) {
	rows := NewTransformer(DefaultHourlyRate).ProcessTimeEntries(nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSegmentTimeEntries_EmptyInputKeepsShape(t *testing.T) {
	seg := SegmentTimeEntries(nil,
		[]string{"project_name", "is_paid"},
		[]Aggregation{
			{Column: "hours", Funcs: []string{AggSum, AggMean}},
			{Column: "id", Funcs: []string{AggCount}},
		}, nil)

	assert.Equal(t, []string{"project_name", "is_paid", "hours_sum", "hours_mean", "id_count"}, seg.Columns)
	assert.Empty(t, seg.Rows)
}

func row(id int, project, user string, hours float64, day string, paid, approved bool) models.TimeEntryRow {
	d, _ := models.ParseDate(day)
	return models.TimeEntryRow{
		ID:          id,
		ProjectName: project,
		UserName:    user,
		UserID:      len(user),
		Hours:       hours,
		Cost:        hours * 10,
		SpentOn:     d,
		IsPaid:      paid,
		IsApproved:  approved,
	}
}

func TestSegmentTimeEntries_GroupsAndDateRange(t *testing.T) {
	rows := []models.TimeEntryRow{
		row(1, "B", "ann", 4, "2024-01-10", true, true),
		row(2, "A", "bob", 2, "2024-01-11", false, true),
		row(3, "B", "bob", 6, "2024-01-12", true, false),
		row(4, "A", "ann", 1, "2024-02-01", false, false),
	}

	seg := SegmentTimeEntries(rows,
		[]string{"project_name"},
		[]Aggregation{
			{Column: "hours", Funcs: []string{AggSum, AggMin, AggMax}},
			{Column: "is_paid", Funcs: []string{AggMean}},
			{Column: "user_name", Funcs: []string{AggNUnique}},
			{Column: "spent_on", Funcs: []string{AggMax}},
			{Column: "bogus", Funcs: []string{AggSum}},
			{Column: "hours", Funcs: []string{"median"}},
		},
		&DateRange{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		})

	assert.Equal(t, []string{"project_name", "hours_sum", "hours_min", "hours_max", "is_paid_mean", "user_name_nunique", "spent_on_max"}, seg.Columns)
	require.Len(t, seg.Rows, 2)

	a, b := seg.Rows[0], seg.Rows[1]
	assert.Equal(t, "A", a["project_name"])
	assert.Equal(t, 2.0, a["hours_sum"])
	assert.Equal(t, 0.0, a["is_paid_mean"])
	assert.Equal(t, 1, a["user_name_nunique"])

	assert.Equal(t, "B", b["project_name"])
	assert.Equal(t, 10.0, b["hours_sum"])
	assert.Equal(t, 4.0, b["hours_min"])
	assert.Equal(t, 6.0, b["hours_max"])
	assert.Equal(t, 1.0, b["is_paid_mean"])
	assert.Equal(t, 2, b["user_name_nunique"])
	assert.Equal(t, "2024-01-12", b["spent_on_max"])
}

func TestSegmentTimeEntries_NumericGroupOrder(t *testing.T) {
	rows := []models.TimeEntryRow{
		{ID: 1, Month: 10, Hours: 1},
		{ID: 2, Month: 2, Hours: 2},
		{ID: 3, Month: 10, Hours: 3},
	}
	seg := SegmentTimeEntries(rows, []string{"month"}, []Aggregation{{Column: "id", Funcs: []string{AggCount}}}, nil)

	require.Len(t, seg.Rows, 2)
	assert.Equal(t, 2, seg.Rows[0]["month"])
	assert.Equal(t, 1, seg.Rows[0]["id_count"])
	assert.Equal(t, 10, seg.Rows[1]["month"])
	assert.Equal(t, 2, seg.Rows[1]["id_count"])
}

func issue(id int, status, priority, due string) models.Issue {
	i := models.Issue{ID: id}
	if status != "" {
		i.Status = &models.Ref{Name: status}
	}
	if priority != "" {
		i.Priority = &models.Ref{Name: priority}
	}
	if due != "" {
		i.DueDate, _ = models.ParseDate(due)
	}
	return i
}

func TestAnalyzeProjectStatus_Overdue(t *testing.T) {
	issues := []models.Issue{
		issue(1, "New", "High", "2024-02-10"),
		issue(2, "In Progress", "", "2024-03-01"),
	}

	mid := AnalyzeProjectStatus(issues, nil, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, mid.OverdueIssues)

	late := AnalyzeProjectStatus(issues, nil, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, late.OverdueIssues)
	assert.Nil(t, late.Time)
}

func TestAnalyzeProjectStatus_Distributions(t *testing.T) {
	issues := []models.Issue{
		issue(1, "New", "High", ""),
		issue(2, "Closed", "", ""),
		issue(3, "", "Low", ""),
		issue(4, "In Progress", "High", "not-a-date"),
	}
	rows := []models.TimeEntryRow{
		{ID: 1, IssueID: 1, UserID: 1, Hours: 3, IsPaid: true},
		{ID: 2, IssueID: 1, UserID: 2, Hours: 1, IsApproved: true},
		{ID: 3, IssueID: 2, UserID: 2, Hours: 2},
		{ID: 4, UserID: 3, Hours: 5},
	}

	status := AnalyzeProjectStatus(issues, rows, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 4, status.TotalIssues)
	assert.Equal(t, 2, status.OpenIssues)
	assert.Equal(t, 0, status.OverdueIssues)
	assert.Equal(t, map[string]int{"High": 2, "Normal": 1, "Low": 1}, status.PriorityDistribution)
	assert.Equal(t, map[string]int{"New": 1, "Closed": 1, "Unknown": 1, "In Progress": 1}, status.StatusDistribution)

	require.NotNil(t, status.Time)
	assert.Equal(t, 11.0, status.Time.TotalLoggedHours)
	assert.Equal(t, 3.0, status.Time.PaidHours)
	assert.Equal(t, 1.0, status.Time.ApprovedHours)
	assert.Equal(t, 3.0, status.Time.HoursPerIssue)
	assert.Equal(t, 3, status.Time.ActiveUsers)
}

func TestAnalyzeProjectStatus_Empty(t *testing.T) {
	status := AnalyzeProjectStatus(nil, nil, time.Time{})
	assert.Equal(t, 0, status.TotalIssues)
	assert.NotNil(t, status.PriorityDistribution)
	assert.NotNil(t, status.StatusDistribution)
}

func TestCalculateProjectMetrics(t *testing.T) {
	assert.Equal(t, ProjectMetrics{}, CalculateProjectMetrics(nil, nil, time.Time{}))

	rows := []models.TimeEntryRow{
		{ID: 1, Hours: 6, IsPaid: true, IsApproved: true, ActivityName: "Dev", UserName: "ann"},
		{ID: 2, Hours: 2, ActivityName: "QA", UserName: "ann"},
		{ID: 3, Hours: 2, IsApproved: true, ActivityName: "Dev", UserName: "bob"},
	}
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	issues := []models.Issue{
		{ID: 1, DoneRatio: 100, CreatedOn: models.NewTimestamp(created), UpdatedOn: models.NewTimestamp(created.Add(72 * time.Hour))},
		{ID: 2, DoneRatio: 50, CreatedOn: models.NewTimestamp(created), UpdatedOn: models.NewTimestamp(created.Add(36 * time.Hour)), DueDate: models.NewDate(2024, 1, 5)},
		{ID: 3, DoneRatio: 75},
	}

	m := CalculateProjectMetrics(rows, issues, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, m.TimeTracking)
	assert.Equal(t, 10.0, m.TimeTracking.TotalHours)
	assert.InDelta(t, 60.0, m.TimeTracking.PaidRatio, 1e-9)
	assert.InDelta(t, 80.0, m.TimeTracking.ApprovalRatio, 1e-9)
	assert.Equal(t, map[string]float64{"Dev": 8, "QA": 2}, m.TimeTracking.HoursByActivity)
	assert.Equal(t, map[string]float64{"ann": 8, "bob": 2}, m.TimeTracking.HoursByUser)

	require.NotNil(t, m.Issues)
	assert.Equal(t, 75.0, m.Issues.CompletionRate)
	assert.Equal(t, 2, m.Issues.AverageDurationDays)
	assert.InDelta(t, 100.0/3, m.Issues.OverdueRate, 1e-9)
}

func TestValidateDataQuality(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.TimeEntryRow{
		row(1, "A", "ann", 2, "2024-02-01", false, false),
		row(2, "", "bob", -1, "2024-04-01", false, false),
		row(3, "A", "", 1, "", false, false),
	}

	report := ValidateDataQuality(rows, now)
	assert.Equal(t, 1, report.NegativeHours)
	assert.Equal(t, 1, report.FutureDates)
	assert.Equal(t, 1, report.InvalidProjects)
	assert.Equal(t, 1, report.InvalidUsers)
	assert.Equal(t, 1, report.MissingValues["spent_on"])
	assert.Equal(t, 3, report.MissingValues["issue_id"])
	assert.Equal(t, 3, report.MissingValues["created_on"])
}

func TestValidateDataTypes(t *testing.T) {
	rows := NewTransformer(1).ProcessTimeEntries(decodeEntries(t, sampleEntries))
	assert.Equal(t, TypeReport{DatesValid: true, HoursNumeric: true, FlagsBoolean: true}, ValidateDataTypes(rows))

	rows[0].IsPaid = true
	rows[1].CreatedOn = time.Time{}
	report := ValidateDataTypes(rows)
	assert.False(t, report.FlagsBoolean)
	assert.False(t, report.DatesValid)
	assert.True(t, report.HoursNumeric)
}

func TestAnalyzeComments(t *testing.T) {
	rows := []models.TimeEntryRow{
		{Comments: "DEV: api"},
		{Comments: "DEV: ui"},
		{Comments: "QA:smoke"},
		{Comments: ""},
		{Comments: ":no prefix"},
	}
	a := AnalyzeComments(rows)
	assert.Equal(t, 4, a.HasComments)
	assert.Equal(t, map[string]int{"DEV": 2, "QA": 1}, a.CommonPrefixes)
	assert.InDelta(t, float64(8+7+8+0+10)/5, a.AvgCommentLength, 1e-9)

	assert.Equal(t, 0.0, AnalyzeComments(nil).AvgCommentLength)
}

func TestFilterTimeEntries(t *testing.T) {
	rows := []models.TimeEntryRow{
		row(1, "A", "ann", 2, "2024-01-01", true, false),
		row(2, "A", "bob", 8, "2024-01-01", false, false),
		row(3, "B", "ann", 5, "2024-01-01", true, true),
	}
	paid := true
	minHours := 3.0
	maxHours := 6.0

	assert.Len(t, FilterTimeEntries(rows, TimeEntryFilter{}), 3)

	got := FilterTimeEntries(rows, TimeEntryFilter{PaymentStatus: &paid})
	assert.Equal(t, []int{1, 3}, ids(got))

	got = FilterTimeEntries(rows, TimeEntryFilter{PaymentStatus: &paid, MinHours: &minHours})
	assert.Equal(t, []int{3}, ids(got))

	got = FilterTimeEntries(rows, TimeEntryFilter{ProjectName: "A", MaxHours: &maxHours})
	assert.Equal(t, []int{1}, ids(got))

	got = FilterTimeEntries(rows, TimeEntryFilter{UserName: "carl"})
	assert.Empty(t, got)
}

func ids(rows []models.TimeEntryRow) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}
