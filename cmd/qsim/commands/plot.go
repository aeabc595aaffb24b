package commands

import (
	"fmt"
	"os"

	"github.com/panyam/queuesim/console"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var plotCmd = &cobra.Command{
	Use:   "plot <results.json|results.yaml>",
	Short: "Renders SVG charts from saved results",
	Long: `Reads results saved with 'qsim run --out' or 'qsim sweep --out' and writes,
for every run, an occupancy trajectory step plot (when the trajectory was
recorded) and a histogram of simulated vs. theoretical state probabilities.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		results, err := console.LoadResults(f, console.FormatFromPath(args[0]))
		if err != nil {
			return err
		}
		dir := viper.GetString("dir")
		for _, res := range results {
			files, err := writePlots(dir, res)
			if err != nil {
				return fmt.Errorf("run %s: %w", res.RunID, err)
			}
			for _, path := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "Plot written to %s\n", path)
			}
		}
		return nil
	},
}

func init() {
	plotCmd.Flags().StringP("dir", "d", ".", "output directory")
	rootCmd.AddCommand(plotCmd)
}
