package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"lucidaflow/pkg/config"
	"lucidaflow/pkg/logger"
	"lucidaflow/pkg/lucida"
	"lucidaflow/pkg/ratelimit"
	"lucidaflow/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	baseURL    string
	noColor    bool
)

// app holds what every subcommand needs once configuration is loaded
type app struct {
	cfg      *config.Config
	log      logger.Logger
	registry *ratelimit.Registry
	printer  *ui.Printer
}

var current *app

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lucida",
	Short: "Search and download music through lucida.to",
	Long: `Lucida Flow searches streaming services through lucida.to and downloads
tracks to disk, pacing every request so the site is never hammered.

Supported services: tidal, qobuz, deezer, soundcloud, amazon_music,
yandex_music, spotify.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		printer := ui.NewPrinter(cmd.OutOrStdout())
		if noColor {
			printer.DisableColor()
		}

		cfg, err := config.Load(configFile, map[string]interface{}{
			"base-url":  baseURL,
			"log-level": logLevel,
			"log-file":  logFile,
		})
		if err != nil {
			return err
		}

		if err := logger.Initialize(&cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log := logger.GetLogger()

		current = &app{
			cfg: cfg,
			log: log,
			registry: ratelimit.NewRegistry(ratelimit.PolicyFromConfig(&cfg.RateLimit),
				ratelimit.WithLogger(log)),
			printer: printer,
		}
		return nil
	},
}

// newClient builds a client whose limiter is shared by every client of this process
func (a *app) newClient(opts ...lucida.Option) *lucida.Client {
	base := []lucida.Option{
		lucida.WithLogger(a.log),
		lucida.WithRegistry(a.registry),
	}
	return lucida.NewClient(a.cfg, append(base, opts...)...)
}

// Execute runs the root command and returns the process exit code
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printer := ui.NewPrinter(rootCmd.ErrOrStderr())
		if noColor {
			printer.DisableColor()
		}
		printer.Error("Error", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .lucida.yaml or $HOME/.config/lucida/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "lucida origin (default https://lucida.to)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.SetVersionTemplate(`Lucida Flow {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
