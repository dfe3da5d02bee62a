package models

// Issue is a Redmine issue as returned by /issues.json
type Issue struct {
	ID             int       `json:"id"`
	Project        *Ref      `json:"project,omitempty"`
	Tracker        *Ref      `json:"tracker,omitempty"`
	Status         *Ref      `json:"status,omitempty"`
	Priority       *Ref      `json:"priority,omitempty"`
	AssignedTo     *Ref      `json:"assigned_to,omitempty"`
	Subject        string    `json:"subject"`
	StartDate      Date      `json:"start_date"`
	DueDate        Date      `json:"due_date"`
	DoneRatio      float64   `json:"done_ratio"`
	EstimatedHours *float64  `json:"estimated_hours,omitempty"`
	CreatedOn      Timestamp `json:"created_on"`
	UpdatedOn      Timestamp `json:"updated_on"`
}

type IssueStatus struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsClosed bool   `json:"is_closed"`
}

type IssuePriority struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	Active    bool   `json:"active"`
}
