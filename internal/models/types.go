package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format Redmine uses for calendar dates
const DateLayout = "2006-01-02"

// Ref is the {id, name} pair Redmine embeds for related resources
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// Date is a calendar date. Unparseable or missing values decode to the zero date.
type Date struct {
	time.Time
}

// NewDate truncates t to a UTC calendar date
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD or RFC3339, returning false for anything else
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return NewDate(y, m, d), true
	}
	return Date{}, false
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*d = Date{}
		return nil
	}
	parsed, _ := ParseDate(s)
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Timestamp is a point in time such as created_on. Values that are not
// RFC3339 decode to the zero time.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err == nil {
		ts.Time = t
	}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Format(time.RFC3339))
}

// Hours is a decimal hour count. Numbers and numeric strings are accepted;
// anything else decodes to 0.
type Hours float64

func (h *Hours) UnmarshalJSON(data []byte) error {
	*h = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*h = Hours(v)
	return nil
}

// CustomFieldValue is the string form of a custom field value. Redmine
// sends strings for most field formats, arrays for multi-value fields.
type CustomFieldValue string

func (v *CustomFieldValue) UnmarshalJSON(data []byte) error {
	*v = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*v = CustomFieldValue(s)
	case '[':
		var items []CustomFieldValue
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, string(item))
		}
		*v = CustomFieldValue(strings.Join(parts, ","))
	case 't':
		*v = "1"
	case 'f':
		*v = "0"
	default:
		*v = CustomFieldValue(string(data))
	}
	return nil
}

// CustomField is a schema-extension value attached to a time entry
type CustomField struct {
	ID    int              `json:"id"`
	Name  string           `json:"name,omitempty"`
	Value CustomFieldValue `json:"value"`
}
