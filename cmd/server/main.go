/*
main.go - Application entry point

PURPOSE:
  Command line for the vacation service. Every subcommand loads the same
  configuration and builds the same Service, so a one-off reminder run sees
  exactly the balances the HTTP API would report.

COMMANDS:
  serve       Start the HTTP API and the reminder scheduler
  reminders   Send the expiry reminders due on a date, then exit
  periods     Print an employee's period balances
  token       Issue a bearer token for local testing

FLAGS:
  --config    Directory containing config.yml (default: ".")

ENVIRONMENT:
  Any config key can be overridden with VACATION_<SECTION>_<KEY>, e.g.
  VACATION_DATABASE_PATH=":memory:" or VACATION_SECURITY_JWT_SECRET.

SEE ALSO:
  - config/config.go: Configuration schema and validation
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/warp/vacation-engine/config"
	"github.com/warp/vacation-engine/logger"
	"github.com/warp/vacation-engine/store/sqlite"
	"github.com/warp/vacation-engine/timeoff"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "vacation",
	Short: "Vacation entitlement service",
	Long:  `Computes vacation balances from hire dates and approved requests, and serves the HR vacation API.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing config.yml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(remindersCmd)
	rootCmd.AddCommand(periodsCmd)
	rootCmd.AddCommand(tokenCmd)
}

// dependencies are shared by every subcommand.
type dependencies struct {
	Config  *config.Config
	Store   *sqlite.Store
	Service *timeoff.Service
}

func (d *dependencies) Close() {
	if err := d.Store.Close(); err != nil {
		logger.LoggerWrapper().Error("database close error", "error", err)
	}
}

func initializeDependencies() (*dependencies, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Logging.Env, cfg.Logging.Level)

	policy, err := cfg.Vacation.Policy()
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	holidays, err := cfg.Vacation.HolidayCalendar()
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	svc, err := timeoff.NewService(store, policy,
		timeoff.WithAuditLog(store),
		timeoff.WithHolidays(holidays),
		timeoff.WithSupervisors(cfg.Vacation.Supervisors),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	logger.LoggerWrapper().Info("vacation service initialized",
		"policy", policy.ID,
		"holidays", holidays.Len(),
		"supervisors", len(cfg.Vacation.Supervisors),
		"database", cfg.Database.Path,
	)
	return &dependencies{Config: cfg, Store: store, Service: svc}, nil
}
