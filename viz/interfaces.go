// Package viz renders simulation results as standalone SVG charts.
package viz

// DataPoint is a single plot point. X is simulated time (or a state index
// for bar charts).
type DataPoint struct {
	X float64
	Y float64
}

// SeriesStyle controls how a series' points are joined.
type SeriesStyle int

const (
	// StyleLine joins consecutive points with straight segments.
	StyleLine SeriesStyle = iota
	// StyleStep holds each value until the next point, the natural shape of
	// an occupancy trajectory.
	StyleStep
	// StyleDashed is a straight line drawn dashed, used for reference levels.
	StyleDashed
)

// DataSeries represents a single named series of data points.
type DataSeries struct {
	Name   string
	Style  SeriesStyle
	Points []DataPoint
}

// Bar is one category of a grouped bar chart; Values holds one entry per group.
type Bar struct {
	Label  string
	Values []float64
}

// Plotter creates line charts.
type Plotter interface {
	Generate(series []DataSeries, title, xLabel, yLabel string) (string, error)
}

// BarPlotter creates grouped bar charts.
type BarPlotter interface {
	GenerateBars(groups []string, bars []Bar, title, xLabel, yLabel string) (string, error)
}
