package console

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/panyam/queuesim/components"
	"github.com/panyam/queuesim/core"
	"github.com/panyam/queuesim/runtime"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", core.InvalidConfig("unknown export format %q", s)
	}
}

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatJSON
}

// MetricsView mirrors runtime.Metrics with undefined ratios as null.
type MetricsView struct {
	DropProbability    *float64 `json:"drop_probability" yaml:"drop_probability"`
	Utilization        *float64 `json:"utilization" yaml:"utilization"`
	MeanWait           *float64 `json:"mean_wait" yaml:"mean_wait"`
	MaxWait            float64  `json:"max_wait" yaml:"max_wait"`
	Throughput         *float64 `json:"throughput" yaml:"throughput"`
	MeanOccupancy      *float64 `json:"mean_occupancy" yaml:"mean_occupancy"`
	PacketsDelivered   int      `json:"packets_delivered" yaml:"packets_delivered"`
	PacketsLost        int      `json:"packets_lost" yaml:"packets_lost"`
	PacketsInSystem    int      `json:"packets_in_system" yaml:"packets_in_system"`
	ArrivalsProcessed  int      `json:"arrivals_processed" yaml:"arrivals_processed"`
	WaitSamples        int      `json:"wait_samples" yaml:"wait_samples"`
	SimulationDuration float64  `json:"simulation_duration" yaml:"simulation_duration"`
}

// ResultView is the exported shape of a run.
type ResultView struct {
	RunID             string                     `json:"run_id" yaml:"run_id"`
	Seed              uint64                     `json:"seed" yaml:"seed"`
	Config            runtime.Config             `json:"config" yaml:"config"`
	Params            runtime.RunParams          `json:"params" yaml:"params"`
	StopReason        runtime.StopReason         `json:"stop_reason" yaml:"stop_reason"`
	EventsProcessed   int                        `json:"events_processed" yaml:"events_processed"`
	Metrics           MetricsView                `json:"metrics" yaml:"metrics"`
	Theory            *components.MM1K           `json:"theory,omitempty" yaml:"theory,omitempty"`
	StateDistribution []*float64                 `json:"state_distribution" yaml:"state_distribution"`
	Trajectory        []runtime.TrajectorySample `json:"trajectory,omitempty" yaml:"trajectory,omitempty"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func NewResultView(res *runtime.Result) ResultView {
	m := res.Metrics
	v := ResultView{
		RunID:           res.RunID,
		Seed:            res.Seed,
		Config:          res.Config,
		Params:          res.Params,
		StopReason:      res.StopReason,
		EventsProcessed: res.EventsProcessed,
		Theory:          res.Theory,
		Trajectory:      res.Trajectory,
		Metrics: MetricsView{
			DropProbability:    nullable(m.DropProbability),
			Utilization:        nullable(m.Utilization),
			MeanWait:           nullable(m.MeanWait),
			MaxWait:            m.MaxWait,
			Throughput:         nullable(m.Throughput),
			MeanOccupancy:      nullable(m.MeanOccupancy),
			PacketsDelivered:   m.PacketsDelivered,
			PacketsLost:        m.PacketsLost,
			PacketsInSystem:    m.PacketsInSystem,
			ArrivalsProcessed:  m.ArrivalsProcessed,
			WaitSamples:        m.WaitSamples,
			SimulationDuration: m.SimulationDuration,
		},
	}
	for _, p := range res.StateDistribution {
		v.StateDistribution = append(v.StateDistribution, nullable(p))
	}
	return v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Result converts the view back, restoring null ratios as NaN.
func (v ResultView) Result() *runtime.Result {
	m := v.Metrics
	res := &runtime.Result{
		RunID:           v.RunID,
		Seed:            v.Seed,
		Config:          v.Config,
		Params:          v.Params,
		StopReason:      v.StopReason,
		EventsProcessed: v.EventsProcessed,
		Theory:          v.Theory,
		Trajectory:      v.Trajectory,
		Metrics: runtime.Metrics{
			DropProbability:    orNaN(m.DropProbability),
			Utilization:        orNaN(m.Utilization),
			MeanWait:           orNaN(m.MeanWait),
			MaxWait:            m.MaxWait,
			Throughput:         orNaN(m.Throughput),
			MeanOccupancy:      orNaN(m.MeanOccupancy),
			PacketsDelivered:   m.PacketsDelivered,
			PacketsLost:        m.PacketsLost,
			PacketsInSystem:    m.PacketsInSystem,
			ArrivalsProcessed:  m.ArrivalsProcessed,
			WaitSamples:        m.WaitSamples,
			SimulationDuration: m.SimulationDuration,
		},
	}
	for _, p := range v.StateDistribution {
		res.StateDistribution = append(res.StateDistribution, orNaN(p))
	}
	return res
}

// LoadResults reads a file written by Export. Both the single-object and the
// list form are accepted.
func LoadResults(r io.Reader, format Format) ([]*runtime.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	unmarshal := json.Unmarshal
	if format == FormatYAML {
		unmarshal = yaml.Unmarshal
	}

	var views []ResultView
	if err := unmarshal(data, &views); err != nil {
		var single ResultView
		if err2 := unmarshal(data, &single); err2 != nil {
			return nil, fmt.Errorf("decoding results: %w", err2)
		}
		views = []ResultView{single}
	}
	out := make([]*runtime.Result, len(views))
	for i, v := range views {
		out[i] = v.Result()
	}
	return out, nil
}

// Export writes a single result as an object and several as a list.
func Export(w io.Writer, format Format, results ...*runtime.Result) error {
	views := make([]ResultView, len(results))
	for i, r := range results {
		views[i] = NewResultView(r)
	}
	var doc any = views
	if len(views) == 1 {
		doc = views[0]
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	default:
		return core.InvalidConfig("unknown export format %q", format)
	}
}
