package processor

import (
	"Mansoor88-6/labor-cost-dashboard/internal/models"
)

// DefaultHourlyRate is the labor rate used when none is configured
const DefaultHourlyRate = 1650.0

// Transformer converts raw time entries into normalized rows. It holds no
// state besides the hourly rate and is safe for concurrent use.
type Transformer struct {
	HourlyRate float64
}

// NewTransformer creates a new transformer
func NewTransformer(hourlyRate float64) *Transformer {
	return &Transformer{HourlyRate: hourlyRate}
}

// ProcessTimeEntries flattens entries and derives flags, calendar buckets
// and cost. Duplicate ids keep their first occurrence.
func (t *Transformer) ProcessTimeEntries(entries []models.TimeEntry) []models.TimeEntryRow {
	rows := make([]models.TimeEntryRow, 0, len(entries))
	seen := make(map[int]struct{}, len(entries))

	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		rows = append(rows, t.normalize(e))
	}
	return rows
}

func (t *Transformer) normalize(e models.TimeEntry) models.TimeEntryRow {
	row := models.TimeEntryRow{
		ID:        e.ID,
		Hours:     float64(e.Hours),
		Comments:  e.Comments,
		SpentOn:   e.SpentOn,
		CreatedOn: e.CreatedOn.Time,
		UpdatedOn: e.UpdatedOn.Time,
	}

	if e.Project != nil {
		row.ProjectID, row.ProjectName = e.Project.ID, e.Project.Name
	}
	if e.User != nil {
		row.UserID, row.UserName = e.User.ID, e.User.Name
	}
	if e.Activity != nil {
		row.ActivityID, row.ActivityName = e.Activity.ID, e.Activity.Name
	}
	if e.Issue != nil {
		row.IssueID = e.Issue.ID
	}

	row.TMSPayment = fieldOrDefault(e, models.FieldTMSPayment, "0")
	row.HoursApproved = fieldOrDefault(e, models.FieldHoursApproved, "0")
	row.ErrorText = fieldOrDefault(e, models.FieldErrorText, "")
	row.HoursLoaded = fieldOrDefault(e, models.FieldHoursLoaded, "0")
	row.WorkTypeCode = fieldOrDefault(e, models.FieldWorkTypeCode, "0")

	row.IsPaid = row.TMSPayment == "1"
	row.IsApproved = row.HoursApproved == "1"
	row.IsLoaded = row.HoursLoaded == "1"

	if !e.SpentOn.IsZero() {
		_, row.Week = e.SpentOn.ISOWeek()
		row.Month = int(e.SpentOn.Month())
		row.Quarter = (row.Month-1)/3 + 1
		row.Year = e.SpentOn.Year()
	}

	row.Cost = row.Hours * t.HourlyRate
	return row
}

func fieldOrDefault(e models.TimeEntry, id int, def string) string {
	if v, ok := e.CustomFieldValue(id); ok {
		return v
	}
	return def
}
