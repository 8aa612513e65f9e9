package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/vacation-engine/api"
	"github.com/warp/vacation-engine/config"
	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/timeoff"
)

var (
	onDate    string
	forEmail  string
	tokenRole string
	tokenTTL  time.Duration
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Send expiry reminders",
	Long:  `Send the expiry reminders due on --date (default today), then exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag(onDate)
		if err != nil {
			return err
		}
		deps, err := initializeDependencies()
		if err != nil {
			return err
		}
		defer deps.Close()

		sent, err := api.NewReminderScheduler(deps.Service, nil).RunNow(cmd.Context(), date)
		fmt.Fprintf(cmd.OutOrStdout(), "%d reminder(s) sent for %s\n", sent, date)
		return err
	},
}

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "Print an employee's period balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		if forEmail == "" {
			return fmt.Errorf("--email is required")
		}
		date, err := dateFlag(onDate)
		if err != nil {
			return err
		}
		deps, err := initializeDependencies()
		if err != nil {
			return err
		}
		defer deps.Close()

		periods, err := deps.Service.Periods(cmd.Context(), forEmail, date)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "YEAR\tSTART\tEXPIRY\tENABLED\tUSED\tAVAILABLE")
		total := generic.ZeroDays()
		for _, p := range periods {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", p.Index, p.Start, p.Expiry, p.Enabled, p.Used, p.Available)
			total = total.Add(p.Available)
		}
		fmt.Fprintf(tw, "\t\t\t\tTOTAL\t%s\n", total)
		return tw.Flush()
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if forEmail == "" {
			return fmt.Errorf("--email is required")
		}
		role := timeoff.Role(tokenRole)
		if err := (timeoff.Employee{Email: forEmail, HireDate: generic.Today(), Role: role}).Validate(); err != nil {
			return err
		}
		cfg, err := config.Load(configDir)
		if err != nil {
			return err
		}

		tok, err := api.NewAuthenticator(cfg.Security.JWTSecret, cfg.Security.JWTIssuer).Sign(forEmail, role, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	remindersCmd.Flags().StringVar(&onDate, "date", "", "date to process, YYYY-MM-DD (default today)")

	periodsCmd.Flags().StringVar(&forEmail, "email", "", "employee email")
	periodsCmd.Flags().StringVar(&onDate, "date", "", "reference date, YYYY-MM-DD (default today)")

	tokenCmd.Flags().StringVar(&forEmail, "email", "", "email claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(timeoff.RoleEmployee), "role claim: employee, coordinator, admin or admin2")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
}

func dateFlag(value string) (generic.TimePoint, error) {
	if value == "" {
		return generic.Today(), nil
	}
	date, err := generic.ParseDate(value)
	if err != nil {
		return generic.TimePoint{}, fmt.Errorf("invalid --date %q: use YYYY-MM-DD", value)
	}
	return date, nil
}
