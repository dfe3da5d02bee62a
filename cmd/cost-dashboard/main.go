package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/auth"
	"Mansoor88-6/labor-cost-dashboard/internal/client"
	"Mansoor88-6/labor-cost-dashboard/internal/config"
	"Mansoor88-6/labor-cost-dashboard/internal/dashboard"
	"Mansoor88-6/labor-cost-dashboard/internal/handler"
	"Mansoor88-6/labor-cost-dashboard/internal/logger"
	"Mansoor88-6/labor-cost-dashboard/internal/router"

	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output(), config.Usage())
	}
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	log.Info("Starting labor cost dashboard",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
	)

	// Initialize Redmine client
	apiClient := client.NewClient(cfg.ClientOptions(), log.Logger)
	if err := apiClient.HealthCheck(); err != nil {
		log.Warn("Redmine health check failed, continuing", zap.Error(err))
	}

	// Initialize authentication
	secrets, err := auth.LoadSecretsFile(cfg.Auth.SecretsFile)
	if err != nil {
		log.Fatal("Failed to load secrets file", zap.Error(err))
	}
	authenticator := auth.New(auth.Options{
		Resolver: auth.DefaultResolver(secrets),
		Users:    secrets.Users,
	}, log.Logger)
	sessions := auth.NewSessionStore(time.Duration(cfg.Auth.SessionTTL)*time.Second, log.Logger)

	// Initialize dashboard service
	service := dashboard.NewService(
		apiClient,
		cfg.Dashboard.HourlyRate,
		time.Duration(cfg.Dashboard.DataTTL)*time.Second,
		log.Logger,
	)

	h := router.New(
		handler.NewAuthHandler(authenticator, sessions, log.Logger),
		handler.NewDashboardHandler(service, apiClient, log.Logger),
		log.Logger,
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("Labor cost dashboard stopped")
}
