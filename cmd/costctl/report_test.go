package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/auth"
	"Mansoor88-6/labor-cost-dashboard/internal/dashboard"
	"Mansoor88-6/labor-cost-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	entries []models.TimeEntry
}

func (s staticSource) GetProjects() ([]models.Project, error) {
	return []models.Project{{ID: 1, Name: "Alpha"}}, nil
}

func (s staticSource) GetProjectTree() ([]*models.ProjectNode, error) { return nil, nil }

func (s staticSource) GetTimeEntries(models.TimeEntryQuery) ([]models.TimeEntry, error) {
	return s.entries, nil
}

func (s staticSource) GetProjectIssues(int, string) ([]models.Issue, error) { return nil, nil }

func (s staticSource) InvalidateCache(string) {}

func testOverview(t *testing.T) (*dashboard.State, dashboard.Overview) {
	t.Helper()
	d1, _ := models.ParseDate("2024-01-02")
	d2, _ := models.ParseDate("2024-01-03")
	src := staticSource{entries: []models.TimeEntry{
		{
			ID: 1, Project: &models.Ref{ID: 1, Name: "Alpha, Inc"}, User: &models.Ref{ID: 5, Name: "Ann"},
			Hours: 4, SpentOn: d1,
			CustomFields: []models.CustomField{{ID: models.FieldTMSPayment, Value: "1"}, {ID: models.FieldHoursApproved, Value: "1"}},
		},
		{
			ID: 2, Project: &models.Ref{ID: 1, Name: "Alpha, Inc"}, User: &models.Ref{ID: 6, Name: "Bob"},
			Hours: 2, SpentOn: d2,
		},
	}}
	svc := dashboard.NewService(src, 100, time.Minute, nil)

	state, err := reportState(time.Now(), "2024-01-01", "2024-01-31", "")
	require.NoError(t, err)
	rows, err := svc.LoadData(state.StartDate, state.EndDate, []int{1})
	require.NoError(t, err)
	return state, svc.Overview(rows, auth.RoleSuperadmin)
}

func TestReportState(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

	state, err := reportState(now, "", "", "last_7")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-23", state.StartDate.Format(models.DateLayout))
	assert.Equal(t, "2024-06-30", state.EndDate.Format(models.DateLayout))

	state, err = reportState(now, "2024-06-01", "", "last_7")
	require.NoError(t, err)
	assert.Equal(t, dashboard.RangeCustom, state.Range)
	assert.Equal(t, "2024-06-01", state.StartDate.Format(models.DateLayout))
	assert.Equal(t, "2024-06-30", state.EndDate.Format(models.DateLayout))

	_, err = reportState(now, "june", "", "")
	assert.Error(t, err)
	_, err = reportState(now, "2024-07-01", "2024-06-01", "")
	assert.ErrorIs(t, err, dashboard.ErrInvalidRange)
	_, err = reportState(now, "", "", "forever")
	assert.ErrorIs(t, err, dashboard.ErrInvalidRange)
}

func TestRenderReport_Markdown(t *testing.T) {
	state, overview := testOverview(t)

	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, "md", state, overview))
	out := buf.String()

	assert.Contains(t, out, "# Labor cost 2024-01-01 to 2024-01-31")
	assert.Contains(t, out, "| Hours | 6.00 |")
	assert.Contains(t, out, "| Cost | 600.00 |")
	assert.Contains(t, out, "| Paid & Approved | 4.00 | 400.00 |")
	assert.Contains(t, out, "## Performance")
}

func TestRenderReport_CSV(t *testing.T) {
	state, overview := testOverview(t)

	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, "csv", state, overview))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "project,status,hours,cost", lines[0])
	assert.Equal(t, `"Alpha, Inc",Paid & Approved,4.00,400.00`, lines[1])
	assert.Equal(t, `"Alpha, Inc",Unpaid & Not Approved,2.00,200.00`, lines[2])
}

func TestRenderReport_JSON(t *testing.T) {
	state, overview := testOverview(t)

	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, "json", state, overview))

	var decoded struct {
		From     string `json:"from"`
		Overview struct {
			Summary struct {
				TotalHours float64 `json:"total_hours"`
			} `json:"summary"`
		} `json:"overview"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2024-01-01", decoded.From)
	assert.Equal(t, 6.0, decoded.Overview.Summary.TotalHours)

	assert.Error(t, renderReport(&buf, "xml", state, overview))
}

func TestPrintTree(t *testing.T) {
	root := &models.ProjectNode{Project: models.Project{ID: 1, Name: "Alpha"}}
	child := &models.ProjectNode{Project: models.Project{ID: 2, Name: "Beta"}, Parent: root}
	root.Children = []*models.ProjectNode{child}

	var buf bytes.Buffer
	printTree(&buf, []*models.ProjectNode{root})
	assert.Equal(t, "1  Alpha\n  2  Beta\n", buf.String())
}

func TestRenderQuality(t *testing.T) {
	svc := dashboard.NewService(staticSource{}, 100, time.Minute, nil)
	q := svc.Quality(nil, time.Now())

	var buf bytes.Buffer
	require.NoError(t, renderQuality(&buf, "md", q))
	assert.Contains(t, buf.String(), "| negative hours | 0 |")

	buf.Reset()
	require.NoError(t, renderQuality(&buf, "json", q))
	assert.Contains(t, buf.String(), `"negative_hours": 0`)

	assert.Error(t, renderQuality(&buf, "html", q))
}
