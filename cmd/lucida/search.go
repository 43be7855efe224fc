package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lucidaflow/pkg/lucida"
)

var (
	searchService string
	searchLimit   int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a streaming service for tracks",
	Example: `  lucida search "Daft Punk"
  lucida search "Daft Punk" -s tidal -l 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		p := current.printer

		p.Info("Searching", fmt.Sprintf("%q on %s", query, searchService))
		result, err := current.newClient().Search(cmd.Context(), query, searchService, searchLimit)
		if err != nil {
			return err
		}

		if len(result.Tracks) == 0 {
			p.Warning("No tracks found")
			return nil
		}
		p.Tracks(result.Tracks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchService, "service", "s", "amazon_music",
		"service to search ("+strings.Join(lucida.Services(), ", ")+")")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", lucida.DefaultSearchLimit, "maximum number of results")
}
