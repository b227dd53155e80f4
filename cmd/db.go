package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/voice-support/internal/config"
	"github.com/Taichi-iskw/voice-support/internal/migrations"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the chat history database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL, err := loadDatabaseURL()
		if err != nil {
			return err
		}
		if err := migrations.Up(databaseURL); err != nil {
			return err
		}
		cmd.Println("Database schema is up to date")
		return nil
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back every migration (drops chat history)",
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL, err := loadDatabaseURL()
		if err != nil {
			return err
		}
		if err := migrations.Down(databaseURL); err != nil {
			return err
		}
		cmd.Println("All migrations rolled back")
		return nil
	},
}

var dbVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL, err := loadDatabaseURL()
		if err != nil {
			return err
		}
		version, dirty, err := migrations.Version(databaseURL)
		if err != nil {
			return err
		}
		if dirty {
			cmd.Printf("Schema version: %d (dirty)\n", version)
			return nil
		}
		cmd.Printf("Schema version: %d\n", version)
		return nil
	},
}

func loadDatabaseURL() (string, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return "", fmt.Errorf("database_url is not configured")
	}
	return cfg.DatabaseURL, nil
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbRollbackCmd)
	dbCmd.AddCommand(dbVersionCmd)
}
