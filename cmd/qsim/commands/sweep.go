package commands

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/panyam/queuesim/runtime"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <plan.yaml>",
	Short: "Runs a batch of independent simulations in parallel",
	Long: `Reads a YAML sweep plan listing explicit points and/or a grid of arrival
rates, service rates and capacities, runs every point on its own random
stream and prints one summary line per run. Example plan:

  params: {horizon: 2000, max_arrivals: 10000}
  seed: 7
  grid:
    arrival_rates: [1, 3, 5, 7]
    process_rates: [6]
    capacities: [5, 10]`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		plan, err := runtime.LoadSweepPlan(f)
		f.Close()
		if err != nil {
			return err
		}
		if w := viper.GetInt("workers"); w > 0 {
			plan.Workers = w
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		results, err := runtime.Sweep(ctx, plan)
		if err != nil {
			return err
		}
		newReporter(cmd).WriteSweep(results)

		if out := viper.GetString("out"); out != "" {
			if err := writeExport(out, results...); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", out)
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().IntP("workers", "w", 0, "parallel runs (default: plan value or number of CPUs)")
	sweepCmd.Flags().StringP("out", "o", "", "save all results to a .json or .yaml file")
	rootCmd.AddCommand(sweepCmd)
}
