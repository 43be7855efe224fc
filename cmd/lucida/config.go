package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lucidaflow/pkg/config"
	"lucidaflow/pkg/ui"
)

const defaultConfigPath = ".lucida.yaml"

var configForce bool

// configCmd loads configuration itself so a broken file can still be inspected
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Lucida Flow configuration files.

Configuration is layered, highest priority first:
  - Command line flags
  - Environment variables (LUCIDA_*, REQUEST_TIMEOUT, DOWNLOAD_DIR, API_HOST, API_PORT)
  - .env file
  - Configuration file
  - Default values`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		printer := ui.NewPrinter(cmd.OutOrStdout())
		if noColor {
			printer.DisableColor()
		}
		current = &app{printer: printer}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if path == "" {
			path = defaultConfigPath
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}

		p := current.printer
		p.Success("Configuration file created: " + path)
		p.Println("\nNext steps:")
		p.Println("1. Adjust rate limits or the download directory if needed")
		p.Println("2. Run 'lucida config validate' to check the configuration")
		p.Println("3. Search with 'lucida search \"artist or title\"'")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadForDisplay()
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to format configuration: %w", err)
		}

		p := current.printer
		p.Highlight("Current Configuration")
		p.Println("")
		p.Println(string(data))
		if configFile != "" {
			p.Info("Configuration file", configFile)
		}
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadForDisplay()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration has errors:\n%w", err)
		}

		p := current.printer
		p.Success("Configuration is valid")
		p.Info("Base URL", cfg.Lucida.BaseURL)
		p.Info("Rate limit", fmt.Sprintf("%d/min, %d/hour, %s between requests",
			cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.RequestsPerHour, cfg.RateLimit.MinDelay))
		p.Info("Download directory", cfg.Download.Directory)
		p.Info("API address", cfg.Server.Addr())
		p.Info("Log level", cfg.Logging.Level)
		return nil
	},
}

// loadForDisplay applies file, environment and flags without validating
func loadForDisplay() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"base-url":  baseURL,
		"log-level": logLevel,
		"log-file":  logFile,
	})
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
}
