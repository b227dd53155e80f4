package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/voice-support/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long:  `Manage configuration settings for vsupport.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init [DATABASE_URL]",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with database, storage, speech and language settings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var databaseURL string
		if len(args) > 0 {
			databaseURL = args[0]
		}

		if err := config.InitConfig(databaseURL); err != nil {
			return err
		}

		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		cmd.Printf("Created configuration file: %s\n", configPath)
		cmd.Println("Please edit database_url and the speech/language endpoints to match your environment.")

		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration file path and effective settings. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		cmd.Printf("Configuration file: %s\n\n", configPath)

		// Load and display current config
		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		cmd.Printf("DATABASE_URL:    %s\n", cfg.DatabaseURL)
		cmd.Printf("Compartment:     %s\n", cfg.CompartmentID)
		cmd.Printf("Storage:         %s/%s (%s)\n", cfg.Storage.Namespace, cfg.Storage.Bucket, storageBackend(cfg))
		cmd.Printf("Speech engine:   %s %s\n", cfg.Speech.Engine, cfg.Speech.Endpoint)
		cmd.Printf("Polling:         every %s for up to %s\n", cfg.Speech.PollInterval, cfg.Speech.PollTimeout)
		cmd.Printf("Language engine: %s %s (%s -> %s)\n", cfg.Language.Engine, cfg.Language.Endpoint, cfg.Language.SourceLang, cfg.Language.TargetLang)
		cmd.Printf("Storage token:   %s\n", mask(cfg.Storage.Token))
		cmd.Printf("Speech token:    %s\n", mask(cfg.Speech.Token))
		cmd.Printf("Language key:    %s\n", mask(cfg.Language.APIKey))
		cmd.Printf("DeepL key:       %s\n", mask(cfg.Language.DeepLAPIKey))
		cmd.Printf("Server port:     %d\n", cfg.Server.Port)

		return nil
	},
}

func storageBackend(cfg *config.Config) string {
	if cfg.Storage.Endpoint != "" {
		return cfg.Storage.Endpoint
	}
	return cfg.Storage.Root
}

// mask hides all but the last four characters of a secret
func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
