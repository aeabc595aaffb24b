// Package console formats simulation results for terminals and files.
package console

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/panyam/queuesim/components"
	"github.com/panyam/queuesim/runtime"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const ruleWidth = 60

// Deviation thresholds, relative to the theoretical value, used to color the
// comparison column.
const (
	closeEnough = 0.10
	noticeable  = 0.25
)

// Reporter writes human readable summaries. Counts are printed with digit
// grouping and comparisons are colored by how far the simulation landed from
// the closed form.
type Reporter struct {
	out     io.Writer
	printer *message.Printer

	header *color.Color
	good   *color.Color
	warn   *color.Color
	bad    *color.Color
}

func NewReporter(out io.Writer, useColor bool) *Reporter {
	r := &Reporter{
		out:     out,
		printer: message.NewPrinter(language.English),
		header:  color.New(color.FgCyan, color.Bold),
		good:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		bad:     color.New(color.FgRed),
	}
	for _, c := range []*color.Color{r.header, r.good, r.warn, r.bad} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *Reporter) rule(ch string) {
	fmt.Fprintln(r.out, strings.Repeat(ch, ruleWidth))
}

func (r *Reporter) title(s string) {
	r.rule("=")
	fmt.Fprintln(r.out, r.header.Sprint(s))
	r.rule("=")
}

// WriteRun prints the measured statistics of a run followed by the
// theoretical comparison.
func (r *Reporter) WriteRun(res *runtime.Result) {
	m := res.Metrics
	r.title("Statistics")
	r.printer.Fprintf(r.out, "Run:                    %s (seed %d)\n", res.RunID, res.Seed)
	r.printer.Fprintf(r.out, "Stopped by:             %s after %d events\n", res.StopReason, res.EventsProcessed)
	r.printer.Fprintf(r.out, "Simulated time:         %.4f s\n", m.SimulationDuration)
	r.printer.Fprintf(r.out, "Packets delivered:      %d\n", m.PacketsDelivered)
	r.printer.Fprintf(r.out, "Packets lost:           %d\n", m.PacketsLost)
	r.printer.Fprintf(r.out, "Packets in system:      %d\n", m.PacketsInSystem)
	fmt.Fprintf(r.out, "Drop probability:       %s\n", percent(m.DropProbability))
	fmt.Fprintf(r.out, "Server utilization:     %s\n", percent(m.Utilization))
	fmt.Fprintf(r.out, "Mean wait in queue:     %s s\n", decimal(m.MeanWait))
	fmt.Fprintf(r.out, "Max wait in queue:      %s s\n", decimal(m.MaxWait))
	fmt.Fprintf(r.out, "Throughput:             %s packets/s\n", decimal(m.Throughput))
	fmt.Fprintf(r.out, "Mean occupancy:         %s\n", decimal(m.MeanOccupancy))

	if res.Theory == nil {
		r.rule("=")
		return
	}
	th := res.Theory
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.header.Sprint("Theoretical comparison (M/M/1/K)"))
	r.rule("-")
	fmt.Fprintf(r.out, "Rho (traffic intensity): %.4f\n", th.Rho)
	fmt.Fprintf(r.out, "%-20s %12s %12s %10s\n", "metric", "simulated", "theory", "rel.err")
	r.compare("drop probability", m.DropProbability, th.BlockingProbability)
	r.compare("utilization", m.Utilization, th.Utilization)
	r.compare("mean wait", m.MeanWait, th.MeanWait)
	r.compare("throughput", m.Throughput, th.EffectiveThroughput)
	r.compare("mean occupancy", m.MeanOccupancy, th.MeanOccupancy)
	r.rule("=")
}

func (r *Reporter) compare(name string, simulated, theory float64) {
	rel := relativeError(simulated, theory)
	c := r.bad
	switch {
	case math.IsNaN(rel):
		c = r.warn
	case rel <= closeEnough:
		c = r.good
	case rel <= noticeable:
		c = r.warn
	}
	fmt.Fprintf(r.out, "%-20s %12s %12s %10s\n", name, decimal(simulated), decimal(theory), c.Sprint(percent(rel)))
}

// WriteTheory prints the closed-form quantities of a model.
func (r *Reporter) WriteTheory(m *components.MM1K) {
	r.title(fmt.Sprintf("M/M/1/K: λ=%g μ=%g K=%d", m.ArrivalRate, m.ServiceRate, m.Capacity))
	fmt.Fprintf(r.out, "Rho:                    %.4f\n", m.Rho)
	fmt.Fprintf(r.out, "Blocking probability:   %s\n", percent(m.BlockingProbability))
	fmt.Fprintf(r.out, "Utilization:            %s\n", percent(m.Utilization))
	fmt.Fprintf(r.out, "Effective throughput:   %.4f packets/s\n", m.EffectiveThroughput)
	fmt.Fprintf(r.out, "Mean occupancy (L):     %.4f\n", m.MeanOccupancy)
	fmt.Fprintf(r.out, "Mean wait (Wq):         %.4f s\n", m.MeanWait)
	r.rule("-")
	for k, p := range m.Stationary {
		fmt.Fprintf(r.out, "  π_%-3d %.6f\n", k, p)
	}
	r.rule("=")
}

// WriteSweep prints one line per run.
func (r *Reporter) WriteSweep(results []*runtime.Result) {
	r.title(r.printer.Sprintf("Sweep: %d runs", len(results)))
	fmt.Fprintf(r.out, "%8s %8s %5s %10s %10s %10s %10s\n", "lambda", "mu", "K", "drop", "theory", "util", "wait")
	for _, res := range results {
		drop := percent(res.Metrics.DropProbability)
		theory := "-"
		if res.Theory != nil {
			theory = percent(res.Theory.BlockingProbability)
			rel := relativeError(res.Metrics.DropProbability, res.Theory.BlockingProbability)
			if !math.IsNaN(rel) && rel > noticeable {
				drop = r.warn.Sprint(drop)
			}
		}
		fmt.Fprintf(r.out, "%8.3f %8.3f %5d %10s %10s %10s %10s\n",
			res.Config.ArrivalRate, res.Config.ProcessRate, res.Config.Capacity,
			drop, theory, percent(res.Metrics.Utilization), decimal(res.Metrics.MeanWait))
	}
	r.rule("=")
}

// relativeError is |sim-theory|/theory, or the absolute difference when the
// theoretical value is zero.
func relativeError(simulated, theory float64) float64 {
	if math.IsNaN(simulated) || math.IsNaN(theory) {
		return math.NaN()
	}
	diff := math.Abs(simulated - theory)
	if theory == 0 {
		return diff
	}
	return diff / math.Abs(theory)
}

func percent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func decimal(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}
