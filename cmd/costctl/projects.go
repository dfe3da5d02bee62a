package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/models"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the project hierarchy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		tree, err := e.service.ProjectTree()
		if err != nil {
			return err
		}
		printTree(cmd.OutOrStdout(), tree)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that Redmine is reachable with the configured API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		start := time.Now()
		if err := e.client.HealthCheck(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok (%s)\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func printTree(w io.Writer, roots []*models.ProjectNode) {
	for _, root := range roots {
		root.Walk(func(node *models.ProjectNode, depth int) {
			fmt.Fprintf(w, "%s%d  %s\n", strings.Repeat("  ", depth), node.ID, node.Name)
		})
	}
}
