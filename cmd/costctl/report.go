package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/auth"
	"Mansoor88-6/labor-cost-dashboard/internal/dashboard"
	"Mansoor88-6/labor-cost-dashboard/internal/models"
	"Mansoor88-6/labor-cost-dashboard/internal/processor"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reportFrom        string
	reportTo          string
	reportRange       string
	reportProjects    []int
	reportSubprojects bool
	reportFormat      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show labor cost report",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "End date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportRange, "range", string(dashboard.RangeLast30), "Preset range: last_7, last_30, last_quarter, this_year")
	reportCmd.Flags().IntSliceVar(&reportProjects, "project", nil, "Project id (repeatable, default first project)")
	reportCmd.Flags().BoolVar(&reportSubprojects, "subprojects", false, "Include entries of subprojects")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

func runReport(cmd *cobra.Command, args []string) error {
	state, err := reportState(time.Now(), reportFrom, reportTo, reportRange)
	if err != nil {
		return err
	}
	state.SelectProjects(reportProjects)

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.log.Sync()

	var rows []models.TimeEntryRow
	if reportSubprojects && len(state.SelectedProjects) > 0 {
		rows, err = loadWithSubprojects(e, state)
	} else {
		rows, err = e.service.LoadData(state.StartDate, state.EndDate, state.SelectedProjects)
	}
	if err != nil {
		return err
	}

	overview := e.service.Overview(rows, auth.RoleSuperadmin)
	return renderReport(cmd.OutOrStdout(), reportFormat, state, overview)
}

// loadWithSubprojects walks each selected project's subtree
func loadWithSubprojects(e *env, state *dashboard.State) ([]models.TimeEntryRow, error) {
	var entries []models.TimeEntry
	for _, id := range state.SelectedProjects {
		batch, err := e.client.GetTimeEntriesForProject(id, state.StartDate, state.EndDate, true)
		if err != nil {
			return nil, err
		}
		entries = append(entries, batch...)
	}

	rows := processor.NewTransformer(e.cfg.Dashboard.HourlyRate).ProcessTimeEntries(entries)
	window := processor.DateRange{Start: state.StartDate, End: state.EndDate}
	out := make([]models.TimeEntryRow, 0, len(rows))
	for _, r := range rows {
		if window.Contains(r.SpentOn) {
			out = append(out, r)
		}
	}
	e.log.Info("Loaded time entries with subprojects",
		zap.Ints("project_ids", state.SelectedProjects),
		zap.Int("rows", len(out)),
	)
	return out, nil
}

func reportState(now time.Time, from, to, preset string) (*dashboard.State, error) {
	state := dashboard.NewState(now)
	if from == "" && to == "" {
		if err := state.ApplyRange(dashboard.RangePreset(preset), now, time.Time{}, time.Time{}); err != nil {
			return nil, err
		}
		return state, nil
	}

	start, end := state.StartDate, state.EndDate
	if from != "" {
		d, ok := models.ParseDate(from)
		if !ok {
			return nil, fmt.Errorf("invalid --from date %q", from)
		}
		start = d.Time
	}
	if to != "" {
		d, ok := models.ParseDate(to)
		if !ok {
			return nil, fmt.Errorf("invalid --to date %q", to)
		}
		end = d.Time
	}
	if err := state.ApplyRange(dashboard.RangeCustom, now, start, end); err != nil {
		return nil, err
	}
	return state, nil
}

func renderReport(w io.Writer, format string, state *dashboard.State, o dashboard.Overview) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			From     string             `json:"from"`
			To       string             `json:"to"`
			Overview dashboard.Overview `json:"overview"`
		}{
			From:     state.StartDate.Format(models.DateLayout),
			To:       state.EndDate.Format(models.DateLayout),
			Overview: o,
		})
	case "csv":
		cw := csv.NewWriter(w)
		cw.Write([]string{"project", "status", "hours", "cost"})
		if o.Analysis != nil {
			for _, p := range o.Analysis.ProjectStatus {
				cw.Write([]string{p.Project, p.Status, formatFloat(p.Hours), formatFloat(p.Cost)})
			}
		}
		cw.Flush()
		return cw.Error()
	case "md", "":
		return renderMarkdown(w, state, o)
	}
	return fmt.Errorf("unsupported format %q", format)
}

func renderMarkdown(w io.Writer, state *dashboard.State, o dashboard.Overview) error {
	s := o.Summary
	fmt.Fprintf(w, "# Labor cost %s to %s\n\n",
		state.StartDate.Format(models.DateLayout), state.EndDate.Format(models.DateLayout))

	fmt.Fprintln(w, "| Metric | Value |")
	fmt.Fprintln(w, "|---|---|")
	fmt.Fprintf(w, "| Entries | %d |\n", s.Entries)
	fmt.Fprintf(w, "| Hours | %.2f |\n", s.TotalHours)
	fmt.Fprintf(w, "| Cost | %.2f |\n", s.TotalCost)
	fmt.Fprintf(w, "| Paid | %.1f%% |\n", s.PaidRatio)
	fmt.Fprintf(w, "| Approved | %.1f%% |\n", s.ApprovedRatio)
	fmt.Fprintf(w, "| Active users | %d |\n", s.ActiveUsers)

	fmt.Fprintln(w, "\n## Payment status")
	fmt.Fprintln(w, "| Status | Hours | Cost |")
	fmt.Fprintln(w, "|---|---|---|")
	for _, st := range o.StatusBreakdown {
		fmt.Fprintf(w, "| %s | %.2f | %.2f |\n", st.Status, st.Hours, st.Cost)
	}

	if o.Analysis == nil {
		return nil
	}
	p := o.Analysis.Performance
	fmt.Fprintln(w, "\n## Performance")
	fmt.Fprintf(w, "- CPI: %.1f\n", p.CPI)
	fmt.Fprintf(w, "- SPI: %.1f\n", p.SPI)
	fmt.Fprintf(w, "- Utilization: %.1f%%\n", p.Utilization)
	fmt.Fprintf(w, "- Average daily hours: %.2f\n", p.AvgDailyHours)

	fmt.Fprintln(w, "\n## Users")
	fmt.Fprintln(w, "| User | Hours | Cost |")
	fmt.Fprintln(w, "|---|---|---|")
	for _, u := range o.Analysis.UserCosts {
		fmt.Fprintf(w, "| %s (%s) | %.2f | %.2f |\n", u.Label, u.Project, u.Hours, u.Cost)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
