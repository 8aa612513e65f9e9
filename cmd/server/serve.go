package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/warp/vacation-engine/api"
	"github.com/warp/vacation-engine/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server",
	Long:  `Start the HTTP API and the expiry reminder scheduler.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

func startHTTPServer() error {
	deps, err := initializeDependencies()
	if err != nil {
		return err
	}
	defer deps.Close()

	cfg := deps.Config
	log := logger.LoggerWrapper()

	var metrics *api.Metrics
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metrics = api.NewMetrics()
		metricsPath = cfg.Metrics.Path
	}

	handler := api.NewHandler(deps.Service, deps.Store, cfg.Vacation.DepartmentsByAdmin(), metrics)
	handler.Health = deps.Store

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.Server.Origins(),
		Auth:           api.NewAuthenticator(cfg.Security.JWTSecret, cfg.Security.JWTIssuer),
		MetricsPath:    metricsPath,
	})

	scheduler := api.NewReminderScheduler(deps.Service, metrics)
	scheduler.CheckInterval = cfg.Vacation.ReminderInterval
	scheduler.Enabled = cfg.Vacation.ReminderInterval > 0
	scheduler.Start()
	defer scheduler.Stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", addr, "next_reminder_run", scheduler.NextRunTime())
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	log.Info("server stopped")
	return nil
}
