package runtime

import (
	"context"
	"fmt"
	"io"
	goruntime "runtime"

	"github.com/iti/rngstream"
	"github.com/panyam/queuesim/core"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	StreamsSeeded    = "seeded"
	StreamsRngStream = "rngstream"
)

// SweepGrid is the cartesian product of the listed rates and capacities.
type SweepGrid struct {
	ArrivalRates []float64 `yaml:"arrival_rates"`
	ProcessRates []float64 `yaml:"process_rates"`
	Capacities   []int     `yaml:"capacities"`
}

func (g SweepGrid) Expand() []Config {
	var out []Config
	for _, lambda := range g.ArrivalRates {
		for _, mu := range g.ProcessRates {
			for _, k := range g.Capacities {
				out = append(out, Config{ArrivalRate: lambda, ProcessRate: mu, Capacity: k})
			}
		}
	}
	return out
}

// SweepPlan is a batch of independent runs sharing the same run bounds.
//
//	params: {horizon: 2000, max_arrivals: 10000}
//	seed: 7
//	streams: rngstream
//	grid:
//	  arrival_rates: [1, 3, 5]
//	  process_rates: [6]
//	  capacities: [5, 10]
type SweepPlan struct {
	Name           string     `yaml:"name"`
	Params         RunParams  `yaml:"params"`
	Seed           uint64     `yaml:"seed"`
	Streams        string     `yaml:"streams"`
	Workers        int        `yaml:"workers"`
	KeepTrajectory bool       `yaml:"keep_trajectory"`
	Points         []Config   `yaml:"points"`
	Grid           *SweepGrid `yaml:"grid"`
}

// LoadSweepPlan decodes a YAML plan. Unknown keys are rejected so typos do
// not silently fall back to defaults.
func LoadSweepPlan(r io.Reader) (*SweepPlan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	plan := &SweepPlan{}
	if err := dec.Decode(plan); err != nil {
		return nil, fmt.Errorf("decoding sweep plan: %w", err)
	}
	return plan, nil
}

// Configs lists explicit points first, then the grid expansion.
func (p *SweepPlan) Configs() []Config {
	out := append([]Config(nil), p.Points...)
	if p.Grid != nil {
		out = append(out, p.Grid.Expand()...)
	}
	return out
}

func (p *SweepPlan) Validate() error {
	if err := p.Params.Validate(); err != nil {
		return err
	}
	switch p.Streams {
	case "", StreamsSeeded, StreamsRngStream:
	default:
		return core.InvalidConfig("unknown stream kind %q", p.Streams)
	}
	configs := p.Configs()
	if len(configs) == 0 {
		return core.InvalidConfig("sweep has no points")
	}
	for i, c := range configs {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}

// Sweep runs every point of the plan on its own Simulation with its own
// random stream. Results are returned in plan order.
func Sweep(ctx context.Context, plan *SweepPlan) ([]*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	configs := plan.Configs()

	scope := "sweep"
	if plan.Name != "" {
		scope += " " + plan.Name
	}
	log := Default().With(scope)

	// Streams are handed out before any worker starts so the assignment does
	// not depend on scheduling.
	opts := make([][]Option, len(configs))
	for i := range configs {
		switch plan.Streams {
		case StreamsRngStream:
			opts[i] = append(opts[i], WithSource(rngstream.New(fmt.Sprintf("sweep-%d", i))))
		default:
			opts[i] = append(opts[i], WithSeed(plan.Seed+uint64(i)))
		}
		opts[i] = append(opts[i], WithLogger(log.With(fmt.Sprintf("point %d", i))))
		if !plan.KeepTrajectory {
			opts[i] = append(opts[i], WithoutTrajectory())
		}
	}

	workers := plan.Workers
	if workers <= 0 {
		workers = goruntime.NumCPU()
	}

	log.Info("starting %d runs on %d workers", len(configs), workers)
	results := make([]*Result, len(configs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, cfg := range configs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sim, err := New(cfg, opts[i]...)
			if err != nil {
				return fmt.Errorf("point %d: %w", i, err)
			}
			res, err := sim.Run(plan.Params)
			if err != nil {
				return fmt.Errorf("point %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info("finished %d runs on %d workers", len(results), workers)
	return results, nil
}
