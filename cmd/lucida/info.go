package main

import (
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:     "info <track-url>",
	Short:   "Show what lucida knows about a track",
	Example: `  lucida info https://tidal.com/browse/track/12345`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := current.newClient().TrackInfo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		current.printer.TrackInfo(info)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
