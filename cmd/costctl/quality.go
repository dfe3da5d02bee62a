package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/dashboard"

	"github.com/spf13/cobra"
)

var (
	qualityFrom     string
	qualityTo       string
	qualityProjects []int
	qualityFormat   string
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Run data quality checks over time entries",
	Args:  cobra.NoArgs,
	RunE:  runQuality,
}

func init() {
	qualityCmd.Flags().StringVar(&qualityFrom, "from", "", "Start date (YYYY-MM-DD)")
	qualityCmd.Flags().StringVar(&qualityTo, "to", "", "End date (YYYY-MM-DD)")
	qualityCmd.Flags().IntSliceVar(&qualityProjects, "project", nil, "Project id (repeatable, default first project)")
	qualityCmd.Flags().StringVar(&qualityFormat, "format", "md", "Output format: md, json")
}

func runQuality(cmd *cobra.Command, args []string) error {
	now := time.Now()
	state, err := reportState(now, qualityFrom, qualityTo, string(dashboard.RangeLast30))
	if err != nil {
		return err
	}
	state.SelectProjects(qualityProjects)

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.log.Sync()

	rows, err := e.service.LoadData(state.StartDate, state.EndDate, state.SelectedProjects)
	if err != nil {
		return err
	}
	return renderQuality(cmd.OutOrStdout(), qualityFormat, e.service.Quality(rows, now))
}

func renderQuality(w io.Writer, format string, q dashboard.Quality) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(q)
	case "md", "":
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	fmt.Fprintln(w, "# Data quality")
	fmt.Fprintln(w, "\n| Check | Count |")
	fmt.Fprintln(w, "|---|---|")

	columns := make([]string, 0, len(q.Quality.MissingValues))
	for col := range q.Quality.MissingValues {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		fmt.Fprintf(w, "| missing %s | %d |\n", col, q.Quality.MissingValues[col])
	}
	fmt.Fprintf(w, "| negative hours | %d |\n", q.Quality.NegativeHours)
	fmt.Fprintf(w, "| future dates | %d |\n", q.Quality.FutureDates)
	fmt.Fprintf(w, "| invalid projects | %d |\n", q.Quality.InvalidProjects)
	fmt.Fprintf(w, "| invalid users | %d |\n", q.Quality.InvalidUsers)

	fmt.Fprintf(w, "\nComments: %d with text, average length %.1f\n",
		q.Comments.HasComments, q.Comments.AvgCommentLength)
	return nil
}
