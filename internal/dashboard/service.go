package dashboard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/auth"
	"Mansoor88-6/labor-cost-dashboard/internal/cache"
	"Mansoor88-6/labor-cost-dashboard/internal/models"
	"Mansoor88-6/labor-cost-dashboard/internal/processor"

	"go.uber.org/zap"
)

// DataSource is the upstream API used by the service
type DataSource interface {
	GetProjects() ([]models.Project, error)
	GetProjectTree() ([]*models.ProjectNode, error)
	GetTimeEntries(query models.TimeEntryQuery) ([]models.TimeEntry, error)
	GetProjectIssues(projectID int, statusID string) ([]models.Issue, error)
	InvalidateCache(key string)
}

// Service loads and analyzes time entries for the dashboard
type Service struct {
	source      DataSource
	transformer *processor.Transformer
	data        *cache.Cache[[]models.TimeEntryRow]
	dataTTL     time.Duration
	logger      *zap.Logger
}

// NewService creates a new dashboard service
func NewService(source DataSource, hourlyRate float64, dataTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:      source,
		transformer: processor.NewTransformer(hourlyRate),
		data:        cache.New[[]models.TimeEntryRow](logger),
		dataTTL:     dataTTL,
		logger:      logger,
	}
}

// HourlyRate returns the rate used for cost columns
func (s *Service) HourlyRate() float64 {
	return s.transformer.HourlyRate
}

// ProjectTree returns the project hierarchy
func (s *Service) ProjectTree() ([]*models.ProjectNode, error) {
	return s.source.GetProjectTree()
}

// LoadData returns normalized rows for the selected projects between from
// and to inclusive. With no selection the first project is used. Results
// are cached for the data TTL.
func (s *Service) LoadData(from, to time.Time, projectIDs []int) ([]models.TimeEntryRow, error) {
	if len(projectIDs) == 0 {
		projects, err := s.source.GetProjects()
		if err != nil {
			return nil, fmt.Errorf("failed to load projects: %w", err)
		}
		if len(projects) == 0 {
			return []models.TimeEntryRow{}, nil
		}
		projectIDs = []int{projects[0].ID}
	}

	key := dataKey(from, to, projectIDs)
	if rows, ok := s.data.Get(key); ok {
		s.logger.Debug("Dashboard data served from cache", zap.String("key", key))
		return rows, nil
	}

	selected := make(map[int]bool, len(projectIDs))
	for _, id := range projectIDs {
		selected[id] = true
	}

	var entries []models.TimeEntry
	seen := make(map[int]bool)
	for _, id := range projectIDs {
		batch, err := s.source.GetTimeEntries(models.TimeEntryQuery{From: from, To: to, ProjectID: id})
		if err != nil {
			return nil, fmt.Errorf("failed to load time entries for project %d: %w", id, err)
		}
		for _, e := range batch {
			if seen[e.ID] || e.Project == nil || !selected[e.Project.ID] {
				continue
			}
			seen[e.ID] = true
			entries = append(entries, e)
		}
	}

	rows := s.transformer.ProcessTimeEntries(entries)
	window := processor.DateRange{Start: from, End: to}
	filtered := rows[:0]
	for _, r := range rows {
		if window.Contains(r.SpentOn) {
			filtered = append(filtered, r)
		}
	}

	s.logger.Info("Dashboard data loaded",
		zap.Ints("project_ids", projectIDs),
		zap.String("from", from.Format(models.DateLayout)),
		zap.String("to", to.Format(models.DateLayout)),
		zap.Int("rows", len(filtered)),
	)
	s.data.Set(key, filtered, s.dataTTL)
	return filtered, nil
}

// InvalidateData drops cached dashboard data and the client's reference
// data cache entry named key (all entries when key is empty)
func (s *Service) InvalidateData(key string) {
	s.data.Clear()
	s.source.InvalidateCache(key)
}

func dataKey(from, to time.Time, projectIDs []int) string {
	ids := append([]int(nil), projectIDs...)
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return from.Format(models.DateLayout) + "|" + to.Format(models.DateLayout) + "|" + strings.Join(parts, ",")
}

// Overview is the role-shaped dashboard payload
type Overview struct {
	Role            auth.Role               `json:"role"`
	Summary         processor.Summary       `json:"summary"`
	StatusBreakdown []processor.StatusTotal `json:"status_breakdown"`
	Analysis        *Analysis               `json:"analysis,omitempty"`
	Limited         *LimitedAnalysis        `json:"limited_analysis,omitempty"`
}

// Analysis is shown to admins and above
type Analysis struct {
	ProjectStatus []processor.ProjectStatusTotal `json:"project_status"`
	Timeline      []processor.ProjectCost        `json:"timeline"`
	Activities    []processor.ProjectCost        `json:"activities"`
	UserCosts     []processor.ProjectCost        `json:"user_costs"`
	Users         []processor.UserPerformance    `json:"users"`
	Performance   processor.Performance          `json:"performance"`
}

// LimitedAnalysis is shown to managers
type LimitedAnalysis struct {
	ProjectStatus []processor.ProjectStatusTotal `json:"project_status"`
	Timeline      []processor.ProjectCost        `json:"timeline"`
}

// Overview builds the dashboard payload for role
func (s *Service) Overview(rows []models.TimeEntryRow, role auth.Role) Overview {
	rate := s.HourlyRate()
	out := Overview{
		Role:            role,
		Summary:         processor.Summarize(rows, rate),
		StatusBreakdown: processor.StatusBreakdown(rows, rate),
	}

	switch {
	case role.Rank() >= auth.RoleAdmin.Rank():
		out.Analysis = &Analysis{
			ProjectStatus: processor.ProjectStatusBreakdown(rows, rate),
			Timeline:      processor.Timeline(rows, rate),
			Activities:    processor.ActivityCosts(rows, rate),
			UserCosts:     processor.UserCosts(rows, rate),
			Users:         processor.UserPerformances(rows, rate),
			Performance:   processor.PerformanceIndicators(rows),
		}
	case role.Rank() >= auth.RoleManager.Rank():
		out.Limited = &LimitedAnalysis{
			ProjectStatus: processor.ProjectStatusBreakdown(rows, rate),
			Timeline:      processor.Timeline(rows, rate),
		}
	}
	return out
}

// Quality bundles the data checks shown on the quality page
type Quality struct {
	Quality  processor.QualityReport   `json:"quality"`
	Types    processor.TypeReport      `json:"types"`
	Comments processor.CommentAnalysis `json:"comments"`
}

// Quality runs the data quality checks over rows
func (s *Service) Quality(rows []models.TimeEntryRow, now time.Time) Quality {
	return Quality{
		Quality:  processor.ValidateDataQuality(rows, now),
		Types:    processor.ValidateDataTypes(rows),
		Comments: processor.AnalyzeComments(rows),
	}
}

// ProjectStatus analyzes the issues of a project together with its rows
func (s *Service) ProjectStatus(projectID int, rows []models.TimeEntryRow, ref time.Time) (processor.ProjectStatus, error) {
	issues, err := s.source.GetProjectIssues(projectID, "")
	if err != nil {
		return processor.ProjectStatus{}, fmt.Errorf("failed to load issues for project %d: %w", projectID, err)
	}

	projectRows := make([]models.TimeEntryRow, 0, len(rows))
	for _, r := range rows {
		if r.ProjectID == projectID {
			projectRows = append(projectRows, r)
		}
	}
	return processor.AnalyzeProjectStatus(issues, projectRows, ref), nil
}
