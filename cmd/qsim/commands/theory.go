package commands

import (
	"encoding/json"

	"github.com/panyam/queuesim/components"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var theoryCmd = &cobra.Command{
	Use:   "theory",
	Short: "Prints the closed-form M/M/1/K steady state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := modelConfig()
		m, err := components.NewMM1K(cfg.ArrivalRate, cfg.ProcessRate, cfg.Capacity)
		if err != nil {
			return err
		}
		if viper.GetBool("json") {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		}
		newReporter(cmd).WriteTheory(m)
		return nil
	},
}

func init() {
	addModelFlags(theoryCmd)
	theoryCmd.Flags().Bool("json", false, "print as JSON")
	rootCmd.AddCommand(theoryCmd)
}
