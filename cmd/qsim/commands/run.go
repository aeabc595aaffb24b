package commands

import (
	"fmt"

	"github.com/panyam/queuesim/runtime"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs one simulation and compares it with the closed form",
	Long: `Simulates the router until the time horizon is passed or all arrivals
have been generated and served, then prints the measured statistics next to
the theoretical M/M/1/K values.

Use --out to save the full result (including the occupancy trajectory) as
JSON or YAML for 'qsim plot', or --plot-dir to write SVG charts directly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := modelConfig()
		params := runParams()

		var opts []runtime.Option
		if seed := viper.GetUint64("seed"); seed != 0 {
			opts = append(opts, runtime.WithSeed(seed))
		}
		outFile := viper.GetString("out")
		plotDir := viper.GetString("plot_dir")
		if outFile == "" && plotDir == "" {
			opts = append(opts, runtime.WithoutTrajectory())
		}

		sim, err := runtime.New(cfg, opts...)
		if err != nil {
			return err
		}
		res, err := sim.Run(params)
		if err != nil {
			return err
		}
		newReporter(cmd).WriteRun(res)

		if outFile != "" {
			if err := writeExport(outFile, res); err != nil {
				return fmt.Errorf("writing %s: %w", outFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outFile)
		}
		if plotDir != "" {
			files, err := writePlots(plotDir, res)
			if err != nil {
				return fmt.Errorf("writing plots: %w", err)
			}
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "Plot written to %s\n", f)
			}
		}
		return nil
	},
}

func init() {
	addModelFlags(runCmd)
	addRunFlags(runCmd)
	runCmd.Flags().StringP("out", "o", "", "save the result to a .json or .yaml file")
	runCmd.Flags().String("plot-dir", "", "write trajectory and distribution SVGs into this directory")
	rootCmd.AddCommand(runCmd)
}
