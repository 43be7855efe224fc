package main

import (
	"github.com/spf13/cobra"

	"lucidaflow/pkg/lucida"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the supported streaming services",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		current.printer.Services(lucida.Services())
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show rate limiter usage and limits",
	Long: `Show rate limiter usage and limits.

Counts cover requests made by this process only, so a fresh invocation
reports the configured limits with zero usage.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		current.printer.Stats(current.newClient().Stats())
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(statsCmd)
}
