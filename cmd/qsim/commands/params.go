package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/panyam/queuesim/console"
	"github.com/panyam/queuesim/runtime"
	"github.com/panyam/queuesim/viz"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Float64P("arrival-rate", "l", 5.0, "packet arrival rate λ (packets/s)")
	cmd.Flags().Float64P("process-rate", "m", 6.0, "service rate μ (packets/s)")
	cmd.Flags().IntP("capacity", "k", 10, "maximum packets in the system, K")
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64P("horizon", "t", 2000, "simulated time horizon T (s)")
	cmd.Flags().IntP("max-arrivals", "n", 10000, "maximum number of arrivals N")
	cmd.Flags().Uint64("seed", 0, "random seed, 0 picks one from the clock")
}

func modelConfig() runtime.Config {
	return runtime.Config{
		ArrivalRate: viper.GetFloat64("arrival_rate"),
		ProcessRate: viper.GetFloat64("process_rate"),
		Capacity:    viper.GetInt("capacity"),
	}
}

func runParams() runtime.RunParams {
	return runtime.RunParams{
		Horizon:     viper.GetFloat64("horizon"),
		MaxArrivals: viper.GetInt("max_arrivals"),
	}
}

func newReporter(cmd *cobra.Command) *console.Reporter {
	return console.NewReporter(cmd.OutOrStdout(), !viper.GetBool("no_color"))
}

// writeExport saves results to path in the format implied by its extension.
func writeExport(path string, results ...*runtime.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := console.Export(f, console.FormatFromPath(path), results...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writePlots renders the trajectory (when recorded) and the state
// distribution of res into dir.
func writePlots(dir string, res *runtime.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	plotter := viz.NewSVGPlotter(viz.DefaultPlotConfig())
	var written []string

	if len(res.Trajectory) > 0 {
		svg, err := viz.RenderTrajectory(plotter, res)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s-trajectory.svg", res.RunID))
		if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
			return nil, err
		}
		written = append(written, path)
	}

	svg, err := viz.RenderDistribution(plotter, res)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-distribution.svg", res.RunID))
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return nil, err
	}
	return append(written, path), nil
}
