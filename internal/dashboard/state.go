package dashboard

import (
	"errors"
	"fmt"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/auth"
)

// RangePreset names a date range selectable in the filter panel
type RangePreset string

const (
	RangeLast7       RangePreset = "last_7"
	RangeLast30      RangePreset = "last_30"
	RangeLastQuarter RangePreset = "last_quarter"
	RangeThisYear    RangePreset = "this_year"
	RangeCustom      RangePreset = "custom"
)

var presetDays = map[RangePreset]int{
	RangeLast7:       7,
	RangeLast30:      30,
	RangeLastQuarter: 90,
	RangeThisYear:    365,
}

// ErrInvalidRange is returned for unknown presets and inverted custom ranges
var ErrInvalidRange = errors.New("invalid date range")

// State is the per-user filter and authentication state passed to the
// dashboard service
type State struct {
	Language         string        `json:"language"`
	Range            RangePreset   `json:"range"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          time.Time     `json:"end_date"`
	SelectedProjects []int         `json:"selected_projects"`
	DataLoaded       bool          `json:"data_loaded"`
	Session          *auth.Session `json:"-"`
}

// NewState returns the initial state: English, last 30 days ending today
func NewState(now time.Time) *State {
	end := day(now)
	return &State{
		Language:         "en",
		Range:            RangeLast30,
		StartDate:        end.AddDate(0, 0, -30),
		EndDate:          end,
		SelectedProjects: []int{},
		Session:          &auth.Session{},
	}
}

// ApplyRange updates the date range. start and end are used only for
// RangeCustom.
func (s *State) ApplyRange(preset RangePreset, now, start, end time.Time) error {
	if preset == RangeCustom {
		start, end = day(start), day(end)
		if start.IsZero() || end.IsZero() || end.Before(start) {
			return fmt.Errorf("%w: custom range %s to %s", ErrInvalidRange, start.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		s.Range, s.StartDate, s.EndDate = preset, start, end
		return nil
	}

	days, ok := presetDays[preset]
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidRange, preset)
	}
	s.Range = preset
	s.EndDate = day(now)
	s.StartDate = s.EndDate.AddDate(0, 0, -days)
	return nil
}

// SelectProjects replaces the project selection
func (s *State) SelectProjects(ids []int) {
	s.SelectedProjects = append([]int{}, ids...)
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
