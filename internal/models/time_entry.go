package models

import "time"

// Custom field ids used by the payment/approval workflow
const (
	FieldTMSPayment    = 25
	FieldHoursApproved = 26
	FieldErrorText     = 62
	FieldHoursLoaded   = 80
	FieldWorkTypeCode  = 86
)

// TimeEntry is a time entry as returned by /time_entries.json
type TimeEntry struct {
	ID           int           `json:"id"`
	Project      *Ref          `json:"project,omitempty"`
	User         *Ref          `json:"user,omitempty"`
	Activity     *Ref          `json:"activity,omitempty"`
	Issue        *Ref          `json:"issue,omitempty"`
	Hours        Hours         `json:"hours"`
	Comments     string        `json:"comments"`
	SpentOn      Date          `json:"spent_on"`
	CreatedOn    Timestamp     `json:"created_on"`
	UpdatedOn    Timestamp     `json:"updated_on"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

// CustomFieldValue returns the value of the custom field with the given id
func (e TimeEntry) CustomFieldValue(id int) (string, bool) {
	for _, f := range e.CustomFields {
		if f.ID == id {
			return string(f.Value), true
		}
	}
	return "", false
}

// TimeEntryRow is a flattened time entry with derived payment, calendar
// and cost columns
type TimeEntryRow struct {
	ID           int       `json:"id"`
	ProjectID    int       `json:"project_id"`
	ProjectName  string    `json:"project_name"`
	UserID       int       `json:"user_id"`
	UserName     string    `json:"user_name"`
	ActivityID   int       `json:"activity_id"`
	ActivityName string    `json:"activity_name"`
	IssueID      int       `json:"issue_id,omitempty"`
	Hours        float64   `json:"hours"`
	Comments     string    `json:"comments"`
	SpentOn      Date      `json:"spent_on"`
	CreatedOn    time.Time `json:"created_on"`
	UpdatedOn    time.Time `json:"updated_on"`

	TMSPayment    string `json:"tms_payment"`
	HoursApproved string `json:"hours_approved"`
	ErrorText     string `json:"error_text"`
	HoursLoaded   string `json:"hours_loaded"`
	WorkTypeCode  string `json:"work_type_code"`

	IsPaid     bool `json:"is_paid"`
	IsApproved bool `json:"is_approved"`
	IsLoaded   bool `json:"is_loaded"`

	Week    int     `json:"week"`
	Month   int     `json:"month"`
	Quarter int     `json:"quarter"`
	Year    int     `json:"year"`
	Cost    float64 `json:"cost"`
}

// TimeEntryQuery filters a /time_entries.json listing. Zero values are omitted.
type TimeEntryQuery struct {
	From      time.Time
	To        time.Time
	ProjectID int
	UserID    int
}
