package processor

import (
	"math"
	"sort"

	"Mansoor88-6/labor-cost-dashboard/internal/models"
)

// Payment/approval status labels
const (
	StatusPaidApproved      = "Paid & Approved"
	StatusPaidNotApproved   = "Paid & Not Approved"
	StatusUnpaidApproved    = "Unpaid & Approved"
	StatusUnpaidNotApproved = "Unpaid & Not Approved"
)

// StatusOrder is the display order of payment/approval statuses
var StatusOrder = []string{
	StatusPaidApproved,
	StatusPaidNotApproved,
	StatusUnpaidApproved,
	StatusUnpaidNotApproved,
}

// PaymentStatus labels a row by its paid/approved flags
func PaymentStatus(r models.TimeEntryRow) string {
	switch {
	case r.IsPaid && r.IsApproved:
		return StatusPaidApproved
	case r.IsPaid:
		return StatusPaidNotApproved
	case r.IsApproved:
		return StatusUnpaidApproved
	default:
		return StatusUnpaidNotApproved
	}
}

// Summary holds the headline metrics
type Summary struct {
	Entries       int         `json:"entries"`
	TotalHours    float64     `json:"total_hours"`
	TotalCost     float64     `json:"total_cost"`
	PaidHours     float64     `json:"paid_hours"`
	ApprovedHours float64     `json:"approved_hours"`
	PaidRatio     float64     `json:"paid_ratio"`
	ApprovedRatio float64     `json:"approved_ratio"`
	ActiveUsers   int         `json:"active_users"`
	StartDate     models.Date `json:"start_date"`
	EndDate       models.Date `json:"end_date"`
}

// Summarize computes totals, ratios and the covered date span
func Summarize(rows []models.TimeEntryRow, hourlyRate float64) Summary {
	s := Summary{Entries: len(rows)}
	users := make(map[string]struct{})

	for _, r := range rows {
		s.TotalHours += r.Hours
		if r.IsPaid {
			s.PaidHours += r.Hours
		}
		if r.IsApproved {
			s.ApprovedHours += r.Hours
		}
		if r.UserName != "" {
			users[r.UserName] = struct{}{}
		}
		if r.SpentOn.IsZero() {
			continue
		}
		if s.StartDate.IsZero() || r.SpentOn.Before(s.StartDate.Time) {
			s.StartDate = r.SpentOn
		}
		if s.EndDate.IsZero() || r.SpentOn.After(s.EndDate.Time) {
			s.EndDate = r.SpentOn
		}
	}

	s.TotalCost = s.TotalHours * hourlyRate
	s.PaidRatio = percent(s.PaidHours, s.TotalHours)
	s.ApprovedRatio = percent(s.ApprovedHours, s.TotalHours)
	s.ActiveUsers = len(users)
	return s
}

// StatusTotal is the hours and cost of one payment/approval status
type StatusTotal struct {
	Status string  `json:"status"`
	Hours  float64 `json:"hours"`
	Cost   float64 `json:"cost"`
}

// StatusBreakdown totals hours per payment/approval status. Every status
// is present, in StatusOrder. Duplicate ids count once.
func StatusBreakdown(rows []models.TimeEntryRow, hourlyRate float64) []StatusTotal {
	hours := make(map[string]float64, len(StatusOrder))
	for _, r := range uniqueRows(rows) {
		hours[PaymentStatus(r)] += r.Hours
	}

	out := make([]StatusTotal, 0, len(StatusOrder))
	for _, status := range StatusOrder {
		out = append(out, StatusTotal{Status: status, Hours: hours[status], Cost: hours[status] * hourlyRate})
	}
	return out
}

// ProjectStatusTotal is a StatusTotal within one project
type ProjectStatusTotal struct {
	Project string `json:"project"`
	StatusTotal
}

// ProjectStatusBreakdown totals hours per project and status, ordered by
// project name then StatusOrder. Statuses without hours are omitted.
func ProjectStatusBreakdown(rows []models.TimeEntryRow, hourlyRate float64) []ProjectStatusTotal {
	type key struct{ project, status string }
	hours := make(map[key]float64)
	projects := make(map[string]struct{})
	for _, r := range uniqueRows(rows) {
		hours[key{r.ProjectName, PaymentStatus(r)}] += r.Hours
		projects[r.ProjectName] = struct{}{}
	}

	out := make([]ProjectStatusTotal, 0, len(hours))
	for _, project := range sortedKeys(projects) {
		for _, status := range StatusOrder {
			h, ok := hours[key{project, status}]
			if !ok {
				continue
			}
			out = append(out, ProjectStatusTotal{
				Project:     project,
				StatusTotal: StatusTotal{Status: status, Hours: h, Cost: h * hourlyRate},
			})
		}
	}
	return out
}

// Performance holds the KPI gauge values, in percent unless noted
type Performance struct {
	CPI               float64 `json:"cpi"`
	SPI               float64 `json:"spi"`
	Utilization       float64 `json:"utilization"`
	Quality           float64 `json:"quality"`
	AvgDailyHours     float64 `json:"avg_daily_hours"`
	EfficiencyRate    float64 `json:"efficiency_rate"`
	ProductivityTrend float64 `json:"productivity_trend"`
}

// PerformanceIndicators computes CPI, SPI, utilization and quality.
// CPI is the share of paid-and-approved rows, SPI is one plus the mean
// day-over-day change of daily hours, both scaled to percent.
func PerformanceIndicators(rows []models.TimeEntryRow) Performance {
	var p Performance
	if len(rows) == 0 {
		return p
	}

	var paidApproved, approved, positive int
	for _, r := range rows {
		if r.IsPaid && r.IsApproved {
			paidApproved++
		}
		if r.IsApproved {
			approved++
		}
		if r.Hours > 0 {
			positive++
		}
	}
	n := float64(len(rows))
	p.CPI = float64(paidApproved) / n * 100
	p.EfficiencyRate = p.CPI
	p.Utilization = float64(positive) / n * 100
	p.Quality = float64(approved) / n * 100

	daily := DailyHours(rows)
	if len(daily) > 0 {
		sum := 0.0
		for _, d := range daily {
			sum += d.Hours
		}
		p.AvgDailyHours = sum / float64(len(daily))
	}

	trend := meanChange(daily)
	p.SPI = (trend + 1) * 100
	p.ProductivityTrend = trend * 100
	return p
}

// meanChange averages the relative change between consecutive days,
// skipping undefined changes
func meanChange(daily []DailyTotal) float64 {
	sum := 0.0
	n := 0
	for i := 1; i < len(daily); i++ {
		prev := daily[i-1].Hours
		change := (daily[i].Hours - prev) / prev
		if math.IsNaN(change) || math.IsInf(change, 0) {
			continue
		}
		sum += change
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// DailyTotal is the hours logged on one day
type DailyTotal struct {
	Date  models.Date `json:"date"`
	Hours float64     `json:"hours"`
}

// DailyHours sums hours per spent_on day in date order. Rows without a
// date are skipped.
func DailyHours(rows []models.TimeEntryRow) []DailyTotal {
	byDay := make(map[string]*DailyTotal)
	for _, r := range rows {
		if r.SpentOn.IsZero() {
			continue
		}
		day := r.SpentOn.String()
		if _, ok := byDay[day]; !ok {
			byDay[day] = &DailyTotal{Date: r.SpentOn}
		}
		byDay[day].Hours += r.Hours
	}

	out := make([]DailyTotal, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

// UserPerformance is one row of the per-user table
type UserPerformance struct {
	User         string      `json:"user"`
	Hours        float64     `json:"hours"`
	Cost         float64     `json:"cost"`
	PaymentRate  float64     `json:"payment_rate"`
	ApprovalRate float64     `json:"approval_rate"`
	Projects     int         `json:"projects"`
	FirstEntry   models.Date `json:"first_entry"`
	LastEntry    models.Date `json:"last_entry"`
}

// UserPerformances aggregates rows per user, ordered by user name
func UserPerformances(rows []models.TimeEntryRow, hourlyRate float64) []UserPerformance {
	type acc struct {
		perf     UserPerformance
		paid     int
		approved int
		count    int
		projects map[string]struct{}
	}
	users := make(map[string]*acc)

	for _, r := range rows {
		a, ok := users[r.UserName]
		if !ok {
			a = &acc{perf: UserPerformance{User: r.UserName}, projects: map[string]struct{}{}}
			users[r.UserName] = a
		}
		a.perf.Hours += r.Hours
		a.count++
		if r.IsPaid {
			a.paid++
		}
		if r.IsApproved {
			a.approved++
		}
		a.projects[r.ProjectName] = struct{}{}
		if !r.SpentOn.IsZero() {
			if a.perf.FirstEntry.IsZero() || r.SpentOn.Before(a.perf.FirstEntry.Time) {
				a.perf.FirstEntry = r.SpentOn
			}
			if a.perf.LastEntry.IsZero() || r.SpentOn.After(a.perf.LastEntry.Time) {
				a.perf.LastEntry = r.SpentOn
			}
		}
	}

	out := make([]UserPerformance, 0, len(users))
	for _, a := range users {
		a.perf.Cost = a.perf.Hours * hourlyRate
		a.perf.PaymentRate = float64(a.paid) / float64(a.count) * 100
		a.perf.ApprovalRate = float64(a.approved) / float64(a.count) * 100
		a.perf.Projects = len(a.projects)
		out = append(out, a.perf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out
}

// ProjectCost is hours and cost for a (label, project) pair
type ProjectCost struct {
	Label   string  `json:"label"`
	Project string  `json:"project"`
	Hours   float64 `json:"hours"`
	Cost    float64 `json:"cost"`
}

// Timeline sums cost per day and project, ordered by date then project
func Timeline(rows []models.TimeEntryRow, hourlyRate float64) []ProjectCost {
	dated := make([]models.TimeEntryRow, 0, len(rows))
	for _, r := range rows {
		if !r.SpentOn.IsZero() {
			dated = append(dated, r)
		}
	}
	return costBy(dated, hourlyRate, func(r models.TimeEntryRow) string { return r.SpentOn.String() })
}

// ActivityCosts sums cost per activity and project
func ActivityCosts(rows []models.TimeEntryRow, hourlyRate float64) []ProjectCost {
	return costBy(rows, hourlyRate, func(r models.TimeEntryRow) string { return r.ActivityName })
}

// UserCosts sums cost per user and project
func UserCosts(rows []models.TimeEntryRow, hourlyRate float64) []ProjectCost {
	return costBy(rows, hourlyRate, func(r models.TimeEntryRow) string { return r.UserName })
}

func costBy(rows []models.TimeEntryRow, hourlyRate float64, label func(models.TimeEntryRow) string) []ProjectCost {
	type key struct{ label, project string }
	hours := make(map[key]float64)
	for _, r := range rows {
		hours[key{label(r), r.ProjectName}] += r.Hours
	}

	out := make([]ProjectCost, 0, len(hours))
	for k, h := range hours {
		out = append(out, ProjectCost{Label: k.label, Project: k.project, Hours: h, Cost: h * hourlyRate})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Project < out[j].Project
	})
	return out
}

func uniqueRows(rows []models.TimeEntryRow) []models.TimeEntryRow {
	seen := make(map[int]struct{}, len(rows))
	out := make([]models.TimeEntryRow, 0, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
