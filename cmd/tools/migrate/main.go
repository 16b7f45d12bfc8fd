package main

import (
	"errors"
	"fmt"
	"os"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-proposal/internal/db"
)

func main() {
	_ = godotenv.Load()
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the proposal database schema",
	}
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL URL (defaults to DATABASE_URL)")

	rootCmd.AddCommand(upCmd(), downCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			defer closeMigrator(m)
			if err := db.Up(m); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			return printVersion(cmd, m)
		},
	}
}

func downCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			defer closeMigrator(m)
			if err := db.Down(m, steps); err != nil {
				return fmt.Errorf("revert migrations: %w", err)
			}
			return printVersion(cmd, m)
		},
	}
	cmd.Flags().Int("steps", 1, "Number of migrations to revert")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			defer closeMigrator(m)
			return printVersion(cmd, m)
		},
	}
}

func migrator(cmd *cobra.Command) (*migrate.Migrate, error) {
	url, _ := cmd.Flags().GetString("database-url")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	return db.NewMigrator(url)
}

func closeMigrator(m *migrate.Migrate) {
	_, _ = m.Close()
}

func printVersion(cmd *cobra.Command, m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		cmd.Println("no migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	cmd.Printf("version %d (dirty=%t)\n", version, dirty)
	return nil
}
