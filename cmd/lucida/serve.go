package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lucidaflow/internal/api"
)

const shutdownTimeout = 10 * time.Second

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API",
	Long: `Run the REST API. All requests share one client, so the rate limits apply
to the server as a whole rather than per request.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := current.cfg
		if serveHost != "" {
			cfg.Server.Host = serveHost
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		server := api.New(current.newClient(), cfg.Server, current.log)
		current.printer.Info("Listening on", "http://"+server.Addr())

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(server.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind host (default from API_HOST or 0.0.0.0)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "bind port (default from API_PORT or 8000)")
}
