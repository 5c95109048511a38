// Command reconcile runs maintenance jobs against the donation store outside
// the API process. Table bootstrap only needs DynamoDB settings.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"trust_donations/internal/app"
	"trust_donations/internal/config"
	"trust_donations/internal/infrastructure/database"
	"trust_donations/pkg/logger"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "reconcile",
		Short:        "Maintenance jobs for the donation store",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(createTablesCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Resolve stale PENDING donations against the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.New(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := c.Reconciliation.Sweep(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			if report.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "skipped: another sweep holds the lease")
				return nil
			}

			for _, res := range report.Results {
				line := fmt.Sprintf("%s\t%s", res.OrderID, res.Outcome)
				if res.Err != nil {
					line += "\t" + res.Err.Error()
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked %d\n", report.Checked)
			return nil
		},
	}
}

func createTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-tables",
		Short: "Create the donation tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(app.ServiceName, cfg.Environment)
			defer func() { _ = log.Sync() }()

			ddb, err := database.NewDynamoDBClient(cmd.Context(), database.SettingsFromEnv())
			if err != nil {
				return err
			}

			created, err := database.EnsureTables(cmd.Context(), ddb, cfg.DonationsTable, cfg.DonationKeysTable)
			if err != nil {
				return err
			}
			log.Info("tables ready", zap.Strings("created", created))
			return nil
		},
	}
}
