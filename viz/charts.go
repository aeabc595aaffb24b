package viz

import (
	"fmt"

	"github.com/panyam/queuesim/runtime"
)

// TrajectorySeries converts the occupancy samples of a run into a step series
// plus a dashed reference at the theoretical mean occupancy.
func TrajectorySeries(res *runtime.Result) []DataSeries {
	occ := DataSeries{Name: "occupancy", Style: StyleStep}
	for _, s := range res.Trajectory {
		occ.Points = append(occ.Points, DataPoint{X: s.Time, Y: float64(s.Occupancy)})
	}
	// hold the final level until the end of the run
	if n := len(occ.Points); n > 0 && occ.Points[n-1].X < res.Metrics.SimulationDuration {
		occ.Points = append(occ.Points, DataPoint{X: res.Metrics.SimulationDuration, Y: occ.Points[n-1].Y})
	}
	out := []DataSeries{occ}
	if res.Theory != nil && len(occ.Points) > 0 {
		first, last := occ.Points[0].X, occ.Points[len(occ.Points)-1].X
		out = append(out, DataSeries{
			Name:   "theory L",
			Style:  StyleDashed,
			Points: []DataPoint{{X: first, Y: res.Theory.MeanOccupancy}, {X: last, Y: res.Theory.MeanOccupancy}},
		})
	}
	return out
}

// DistributionBars pairs the simulated time fraction at each occupancy with
// the stationary probability.
func DistributionBars(res *runtime.Result) []Bar {
	bars := make([]Bar, len(res.StateDistribution))
	for k, p := range res.StateDistribution {
		bars[k] = Bar{Label: fmt.Sprintf("%d", k), Values: []float64{p}}
		if res.Theory != nil && k < len(res.Theory.Stationary) {
			bars[k].Values = append(bars[k].Values, res.Theory.Stationary[k])
		}
	}
	return bars
}

// RenderTrajectory draws the occupancy over time of a single run.
func RenderTrajectory(p Plotter, res *runtime.Result) (string, error) {
	if len(res.Trajectory) == 0 {
		return "", fmt.Errorf("run %s has no recorded trajectory", res.RunID)
	}
	title := fmt.Sprintf("Occupancy (λ=%g, μ=%g, K=%d)", res.Config.ArrivalRate, res.Config.ProcessRate, res.Config.Capacity)
	return p.Generate(TrajectorySeries(res), title, "time", "packets in system")
}

// RenderDistribution draws simulated vs. theoretical state probabilities.
func RenderDistribution(p BarPlotter, res *runtime.Result) (string, error) {
	groups := []string{"simulated"}
	if res.Theory != nil {
		groups = append(groups, "theory")
	}
	title := fmt.Sprintf("State distribution (ρ=%.3f, K=%d)", res.Config.Rho(), res.Config.Capacity)
	return p.GenerateBars(groups, DistributionBars(res), title, "packets in system", "probability")
}
