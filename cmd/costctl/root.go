package main

import (
	"fmt"
	"os"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/client"
	"Mansoor88-6/labor-cost-dashboard/internal/config"
	"Mansoor88-6/labor-cost-dashboard/internal/dashboard"
	"Mansoor88-6/labor-cost-dashboard/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "costctl",
	Short: "Labor cost reports from Redmine time entries",
	Long: `costctl reads Redmine time entries and prints cost summaries,
payment/approval breakdowns and data quality checks.
Settings come from the config file and the environment.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/local.yaml", "Path to configuration file")
	rootCmd.SetUsageTemplate(rootCmd.UsageTemplate() + "\n" + config.Usage())

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(qualityCmd)
	rootCmd.AddCommand(healthCmd)
}

// env is what every subcommand needs
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	client  *client.Client
	service *dashboard.Service
}

func setup() (*env, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	apiClient := client.NewClient(cfg.ClientOptions(), log.Logger)
	service := dashboard.NewService(
		apiClient,
		cfg.Dashboard.HourlyRate,
		time.Duration(cfg.Dashboard.DataTTL)*time.Second,
		log.Logger,
	)
	log.Debug("Configuration loaded",
		zap.String("config_path", configPath),
		zap.String("redmine_url", cfg.Redmine.BaseURL),
	)
	return &env{cfg: cfg, log: log, client: apiClient, service: service}, nil
}
