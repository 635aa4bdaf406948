// cmd/migrate/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/artisans-backend/internal/config"
	"github.com/javajoker/artisans-backend/internal/database"
)

var databaseURL string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply and revert the artisans database schema migrations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if databaseURL != "" {
			return nil
		}
		if env := os.Getenv("DATABASE_URL"); env != "" {
			databaseURL = env
			return nil
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		databaseURL = cfg.Database.URL()
		return nil
	},
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, m *database.Migrator) error {
			ran, err := m.Up(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(ran))
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Revert the last applied migrations (default 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("steps must be a positive integer")
			}
			steps = n
		}
		return withMigrator(cmd.Context(), func(ctx context.Context, m *database.Migrator) error {
			reverted, err := m.Down(ctx, steps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reverted %d migration(s)\n", len(reverted))
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, m *database.Migrator) error {
			status, err := m.Status(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
			for _, s := range status {
				applied := "pending"
				if s.Applied() {
					applied = s.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", s.Version, s.Name, applied)
			}
			return w.Flush()
		})
	},
}

func withMigrator(ctx context.Context, fn func(context.Context, *database.Migrator) error) error {
	m, err := database.OpenMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(ctx, m)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "postgres URL (defaults to DATABASE_URL or DB_* settings)")
	rootCmd.AddCommand(upCmd, downCmd, statusCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logrus.WithError(err).Error("Migration command failed")
		os.Exit(1)
	}
}
