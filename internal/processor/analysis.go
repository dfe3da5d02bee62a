package processor

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"Mansoor88-6/labor-cost-dashboard/internal/models"
)

// Status and priority labels used when an issue lacks one
const (
	UnknownStatus   = "Unknown"
	DefaultPriority = "Normal"
)

var openStatuses = map[string]bool{
	"New":         true,
	"In Progress": true,
}

// ProjectStatus summarizes the issues of a project
type ProjectStatus struct {
	TotalIssues          int            `json:"total_issues"`
	OpenIssues           int            `json:"open_issues"`
	OverdueIssues        int            `json:"overdue_issues"`
	PriorityDistribution map[string]int `json:"priority_distribution"`
	StatusDistribution   map[string]int `json:"status_distribution"`
	Time                 *TimeAnalysis  `json:"time_analysis,omitempty"`
}

// TimeAnalysis is merged into ProjectStatus when time entries are given
type TimeAnalysis struct {
	TotalLoggedHours float64 `json:"total_logged_hours"`
	PaidHours        float64 `json:"paid_hours"`
	ApprovedHours    float64 `json:"approved_hours"`
	HoursPerIssue    float64 `json:"hours_per_issue"`
	ActiveUsers      int     `json:"active_users"`
}

// AnalyzeProjectStatus counts issues by status and priority. An issue is
// overdue when its due date is before ref. A zero ref means now.
func AnalyzeProjectStatus(issues []models.Issue, rows []models.TimeEntryRow, ref time.Time) ProjectStatus {
	status := ProjectStatus{
		PriorityDistribution: map[string]int{},
		StatusDistribution:   map[string]int{},
	}
	if len(issues) == 0 {
		return status
	}
	if ref.IsZero() {
		ref = time.Now()
	}

	for _, issue := range issues {
		statusName := refName(issue.Status, UnknownStatus)
		priorityName := refName(issue.Priority, DefaultPriority)

		status.TotalIssues++
		if openStatuses[statusName] {
			status.OpenIssues++
		}
		if !issue.DueDate.IsZero() && issue.DueDate.Before(ref) {
			status.OverdueIssues++
		}
		status.StatusDistribution[statusName]++
		status.PriorityDistribution[priorityName]++
	}

	if len(rows) > 0 {
		status.Time = analyzeTime(rows)
	}
	return status
}

func analyzeTime(rows []models.TimeEntryRow) *TimeAnalysis {
	ta := &TimeAnalysis{}
	perIssue := make(map[int]float64)
	users := make(map[int]struct{})

	for _, r := range rows {
		ta.TotalLoggedHours += r.Hours
		if r.IsPaid {
			ta.PaidHours += r.Hours
		}
		if r.IsApproved {
			ta.ApprovedHours += r.Hours
		}
		if r.IssueID != 0 {
			perIssue[r.IssueID] += r.Hours
		}
		users[r.UserID] = struct{}{}
	}

	if len(perIssue) > 0 {
		sum := 0.0
		for _, h := range perIssue {
			sum += h
		}
		ta.HoursPerIssue = sum / float64(len(perIssue))
	}
	ta.ActiveUsers = len(users)
	return ta
}

func refName(ref *models.Ref, def string) string {
	if ref == nil || ref.Name == "" {
		return def
	}
	return ref.Name
}

// ProjectMetrics combines time tracking and issue metrics
type ProjectMetrics struct {
	TimeTracking *TimeTrackingMetrics `json:"time_tracking,omitempty"`
	Issues       *IssueMetrics        `json:"issues,omitempty"`
}

type TimeTrackingMetrics struct {
	TotalHours      float64            `json:"total_hours"`
	PaidRatio       float64            `json:"paid_ratio"`
	ApprovalRatio   float64            `json:"approval_ratio"`
	HoursByActivity map[string]float64 `json:"hours_by_activity"`
	HoursByUser     map[string]float64 `json:"hours_by_user"`
}

type IssueMetrics struct {
	CompletionRate      float64 `json:"completion_rate"`
	AverageDurationDays int     `json:"average_duration_days"`
	OverdueRate         float64 `json:"overdue_rate"`
}

// CalculateProjectMetrics derives cost-efficiency indicators. Empty rows
// yield an empty result.
func CalculateProjectMetrics(rows []models.TimeEntryRow, issues []models.Issue, ref time.Time) ProjectMetrics {
	var metrics ProjectMetrics
	if len(rows) == 0 {
		return metrics
	}
	if ref.IsZero() {
		ref = time.Now()
	}

	tt := &TimeTrackingMetrics{
		HoursByActivity: map[string]float64{},
		HoursByUser:     map[string]float64{},
	}
	var paid, approved float64
	for _, r := range rows {
		tt.TotalHours += r.Hours
		if r.IsPaid {
			paid += r.Hours
		}
		if r.IsApproved {
			approved += r.Hours
		}
		tt.HoursByActivity[r.ActivityName] += r.Hours
		tt.HoursByUser[r.UserName] += r.Hours
	}
	tt.PaidRatio = percent(paid, tt.TotalHours)
	tt.ApprovalRatio = percent(approved, tt.TotalHours)
	metrics.TimeTracking = tt

	if len(issues) > 0 {
		im := &IssueMetrics{}
		var done float64
		var duration time.Duration
		overdue, timed := 0, 0
		for _, issue := range issues {
			done += issue.DoneRatio
			if !issue.CreatedOn.IsZero() && !issue.UpdatedOn.IsZero() {
				duration += issue.UpdatedOn.Sub(issue.CreatedOn.Time)
				timed++
			}
			if !issue.DueDate.IsZero() && issue.DueDate.Before(ref) {
				overdue++
			}
		}
		n := float64(len(issues))
		im.CompletionRate = done / n
		if timed > 0 {
			im.AverageDurationDays = int(math.Floor((duration / time.Duration(timed)).Hours() / 24))
		}
		im.OverdueRate = float64(overdue) / n * 100
		metrics.Issues = im
	}
	return metrics
}

// QualityReport lists sanity-check counts over normalized rows
type QualityReport struct {
	MissingValues   map[string]int `json:"missing_values"`
	NegativeHours   int            `json:"negative_hours"`
	FutureDates     int            `json:"future_dates"`
	InvalidProjects int            `json:"invalid_projects"`
	InvalidUsers    int            `json:"invalid_users"`
}

// ValidateDataQuality counts missing values, negative hours and entries
// dated after now
func ValidateDataQuality(rows []models.TimeEntryRow, now time.Time) QualityReport {
	report := QualityReport{
		MissingValues: map[string]int{
			"project_name":  0,
			"user_name":     0,
			"activity_name": 0,
			"issue_id":      0,
			"spent_on":      0,
			"created_on":    0,
			"updated_on":    0,
		},
	}

	for _, r := range rows {
		if r.ProjectName == "" {
			report.MissingValues["project_name"]++
			report.InvalidProjects++
		}
		if r.UserName == "" {
			report.MissingValues["user_name"]++
			report.InvalidUsers++
		}
		if r.ActivityName == "" {
			report.MissingValues["activity_name"]++
		}
		if r.IssueID == 0 {
			report.MissingValues["issue_id"]++
		}
		if r.SpentOn.IsZero() {
			report.MissingValues["spent_on"]++
		}
		if r.CreatedOn.IsZero() {
			report.MissingValues["created_on"]++
		}
		if r.UpdatedOn.IsZero() {
			report.MissingValues["updated_on"]++
		}
		if r.Hours < 0 {
			report.NegativeHours++
		}
		if !r.SpentOn.IsZero() && r.SpentOn.After(now) {
			report.FutureDates++
		}
	}
	return report
}

// TypeReport tells whether critical columns hold well-formed values
type TypeReport struct {
	DatesValid   bool `json:"dates_valid"`
	HoursNumeric bool `json:"hours_numeric"`
	FlagsBoolean bool `json:"flags_boolean"`
}

// ValidateDataTypes checks that dates are set, hours are finite and the
// boolean flags agree with their source custom fields
func ValidateDataTypes(rows []models.TimeEntryRow) TypeReport {
	report := TypeReport{DatesValid: true, HoursNumeric: true, FlagsBoolean: true}
	for _, r := range rows {
		if r.SpentOn.IsZero() || r.CreatedOn.IsZero() || r.UpdatedOn.IsZero() {
			report.DatesValid = false
		}
		if math.IsNaN(r.Hours) || math.IsInf(r.Hours, 0) {
			report.HoursNumeric = false
		}
		if r.IsPaid != (r.TMSPayment == "1") ||
			r.IsApproved != (r.HoursApproved == "1") ||
			r.IsLoaded != (r.HoursLoaded == "1") {
			report.FlagsBoolean = false
		}
	}
	return report
}

// CommentAnalysis describes comment usage
type CommentAnalysis struct {
	HasComments      int            `json:"has_comments"`
	AvgCommentLength float64        `json:"avg_comment_length"`
	CommonPrefixes   map[string]int `json:"common_prefixes"`
}

// AnalyzeComments counts commented entries and "PREFIX:" style tags
func AnalyzeComments(rows []models.TimeEntryRow) CommentAnalysis {
	analysis := CommentAnalysis{CommonPrefixes: map[string]int{}}
	if len(rows) == 0 {
		return analysis
	}

	total := 0
	for _, r := range rows {
		if r.Comments != "" {
			analysis.HasComments++
		}
		total += utf8.RuneCountInString(r.Comments)
		if prefix, _, found := strings.Cut(r.Comments, ":"); found && prefix != "" {
			analysis.CommonPrefixes[prefix]++
		}
	}
	analysis.AvgCommentLength = float64(total) / float64(len(rows))
	return analysis
}

// TimeEntryFilter holds optional predicates. Nil or empty fields match everything.
type TimeEntryFilter struct {
	PaymentStatus *bool    `json:"payment_status,omitempty"`
	ProjectName   string   `json:"project_name,omitempty"`
	UserName      string   `json:"user_name,omitempty"`
	MinHours      *float64 `json:"min_hours,omitempty"`
	MaxHours      *float64 `json:"max_hours,omitempty"`
}

// Match reports whether r satisfies every set predicate
func (f TimeEntryFilter) Match(r models.TimeEntryRow) bool {
	if f.PaymentStatus != nil && r.IsPaid != *f.PaymentStatus {
		return false
	}
	if f.ProjectName != "" && r.ProjectName != f.ProjectName {
		return false
	}
	if f.UserName != "" && r.UserName != f.UserName {
		return false
	}
	if f.MinHours != nil && r.Hours < *f.MinHours {
		return false
	}
	if f.MaxHours != nil && r.Hours > *f.MaxHours {
		return false
	}
	return true
}

// FilterTimeEntries returns the rows matching filter, in input order
func FilterTimeEntries(rows []models.TimeEntryRow, filter TimeEntryFilter) []models.TimeEntryRow {
	out := make([]models.TimeEntryRow, 0, len(rows))
	for _, r := range rows {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}
