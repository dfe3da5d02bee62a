package processor

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/models"
)

// Aggregate function names accepted by SegmentTimeEntries
const (
	AggSum     = "sum"
	AggMean    = "mean"
	AggCount   = "count"
	AggMin     = "min"
	AggMax     = "max"
	AggNUnique = "nunique"
)

// Aggregation applies Funcs to Column within each group
type Aggregation struct {
	Column string   `json:"column"`
	Funcs  []string `json:"funcs"`
}

// DateRange is an inclusive spent_on filter
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Contains reports whether d falls inside the range. Missing dates never match.
func (r DateRange) Contains(d models.Date) bool {
	if d.IsZero() {
		return false
	}
	day := d.Time
	start := truncateDay(r.Start)
	end := truncateDay(r.End)
	return !day.Before(start) && !day.After(end)
}

// SegmentResult is a grouped table. Each row maps column name to value.
type SegmentResult struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

type group struct {
	key  []any
	rows []models.TimeEntryRow
}

// SegmentTimeEntries groups rows by the groupBy columns and aggregates
// each group. Aggregate columns are named {column}_{func}. Unknown
// columns and functions are skipped. Groups are ordered by key.
func SegmentTimeEntries(rows []models.TimeEntryRow, groupBy []string, aggs []Aggregation, dateRange *DateRange) SegmentResult {
	keys := make([]string, 0, len(groupBy))
	for _, col := range groupBy {
		if IsColumn(col) {
			keys = append(keys, col)
		}
	}

	type aggColumn struct {
		name, column, fn string
	}
	var aggCols []aggColumn
	for _, agg := range aggs {
		if !IsColumn(agg.Column) {
			continue
		}
		for _, fn := range agg.Funcs {
			if !isAggFunc(fn) {
				continue
			}
			aggCols = append(aggCols, aggColumn{name: agg.Column + "_" + fn, column: agg.Column, fn: fn})
		}
	}

	result := SegmentResult{
		Columns: append([]string(nil), keys...),
		Rows:    []map[string]any{},
	}
	for _, ac := range aggCols {
		result.Columns = append(result.Columns, ac.name)
	}

	groups := make(map[string]*group)
	var order []*group
	for _, r := range rows {
		if dateRange != nil && !dateRange.Contains(r.SpentOn) {
			continue
		}
		key := make([]any, len(keys))
		parts := make([]string, len(keys))
		for i, col := range keys {
			v, _ := ColumnValue(r, col)
			key[i] = v
			parts[i] = formatKey(v)
		}
		id := strings.Join(parts, "\x00")
		g, ok := groups[id]
		if !ok {
			g = &group{key: key}
			groups[id] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, r)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return compareKeys(order[i].key, order[j].key) < 0
	})

	for _, g := range order {
		out := make(map[string]any, len(result.Columns))
		for i, col := range keys {
			out[col] = g.key[i]
		}
		for _, ac := range aggCols {
			out[ac.name] = aggregate(g.rows, ac.column, ac.fn)
		}
		result.Rows = append(result.Rows, out)
	}
	return result
}

func isAggFunc(fn string) bool {
	switch fn {
	case AggSum, AggMean, AggCount, AggMin, AggMax, AggNUnique:
		return true
	}
	return false
}

func aggregate(rows []models.TimeEntryRow, column, fn string) any {
	switch fn {
	case AggCount:
		return len(rows)
	case AggNUnique:
		seen := make(map[string]struct{})
		for _, r := range rows {
			v, _ := ColumnValue(r, column)
			seen[formatKey(v)] = struct{}{}
		}
		return len(seen)
	case AggMin, AggMax:
		var best any
		for _, r := range rows {
			v, _ := ColumnValue(r, column)
			if best == nil {
				best = v
				continue
			}
			c := compareValues(v, best)
			if (fn == AggMin && c < 0) || (fn == AggMax && c > 0) {
				best = v
			}
		}
		return best
	case AggSum, AggMean:
		sum := 0.0
		n := 0
		for _, r := range rows {
			v, _ := ColumnValue(r, column)
			f, ok := numeric(v)
			if !ok {
				continue
			}
			sum += f
			n++
		}
		if fn == AggSum {
			return sum
		}
		if n == 0 {
			return 0.0
		}
		return sum / float64(n)
	}
	return nil
}

// columns maps column names to row accessors
var columns = map[string]func(models.TimeEntryRow) any{
	"id":             func(r models.TimeEntryRow) any { return r.ID },
	"project_id":     func(r models.TimeEntryRow) any { return r.ProjectID },
	"project_name":   func(r models.TimeEntryRow) any { return r.ProjectName },
	"user_id":        func(r models.TimeEntryRow) any { return r.UserID },
	"user_name":      func(r models.TimeEntryRow) any { return r.UserName },
	"activity_id":    func(r models.TimeEntryRow) any { return r.ActivityID },
	"activity_name":  func(r models.TimeEntryRow) any { return r.ActivityName },
	"issue_id":       func(r models.TimeEntryRow) any { return r.IssueID },
	"hours":          func(r models.TimeEntryRow) any { return r.Hours },
	"cost":           func(r models.TimeEntryRow) any { return r.Cost },
	"comments":       func(r models.TimeEntryRow) any { return r.Comments },
	"spent_on":       func(r models.TimeEntryRow) any { return r.SpentOn.String() },
	"tms_payment":    func(r models.TimeEntryRow) any { return r.TMSPayment },
	"hours_approved": func(r models.TimeEntryRow) any { return r.HoursApproved },
	"error_text":     func(r models.TimeEntryRow) any { return r.ErrorText },
	"hours_loaded":   func(r models.TimeEntryRow) any { return r.HoursLoaded },
	"work_type_code": func(r models.TimeEntryRow) any { return r.WorkTypeCode },
	"is_paid":        func(r models.TimeEntryRow) any { return r.IsPaid },
	"is_approved":    func(r models.TimeEntryRow) any { return r.IsApproved },
	"is_loaded":      func(r models.TimeEntryRow) any { return r.IsLoaded },
	"week":           func(r models.TimeEntryRow) any { return r.Week },
	"month":          func(r models.TimeEntryRow) any { return r.Month },
	"quarter":        func(r models.TimeEntryRow) any { return r.Quarter },
	"year":           func(r models.TimeEntryRow) any { return r.Year },
}

// IsColumn reports whether name is a known row column
func IsColumn(name string) bool {
	_, ok := columns[name]
	return ok
}

// ColumnValue returns the value of a named column
func ColumnValue(r models.TimeEntryRow, name string) (any, bool) {
	fn, ok := columns[name]
	if !ok {
		return nil, false
	}
	return fn(r), true
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func compareValues(a, b any) int {
	fa, okA := numeric(a)
	fb, okB := numeric(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(formatKey(a), formatKey(b))
}

func compareKeys(a, b []any) int {
	for i := range a {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func formatKey(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return ""
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
