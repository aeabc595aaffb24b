package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/panyam/queuesim/web"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the simulator over HTTP",
	Long: `Starts an HTTP API:

  GET  /healthz
  GET  /api/theory?lambda=5&mu=6&k=10
  POST /api/simulate
  GET  /api/runs
  GET  /api/runs/{id}
  GET  /api/runs/{id}/trajectory.svg
  GET  /api/runs/{id}/distribution.svg`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config := web.DefaultServerConfig()
		config.Address = viper.GetString("address")
		config.MaxArrivals = viper.GetInt("max_arrivals_cap")
		config.StoredRuns = viper.GetInt("stored_runs")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return web.NewServer(config).Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringP("address", "a", ":8080", "listen address")
	serveCmd.Flags().Int("max-arrivals-cap", 1_000_000, "largest max_arrivals a request may ask for")
	serveCmd.Flags().Int("stored-runs", 64, "number of recent runs kept for /api/runs")
	rootCmd.AddCommand(serveCmd)
}
