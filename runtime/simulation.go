package runtime

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/panyam/queuesim/components"
	"github.com/panyam/queuesim/core"
)

// StopReason records which bound ended a run.
type StopReason string

const (
	// StopHorizon means the next pending event lay beyond the time horizon.
	StopHorizon StopReason = "horizon"
	// StopDrained means all arrivals were generated and the system emptied.
	StopDrained StopReason = "drained"
)

// Result bundles everything a run produces for reporting and rendering.
type Result struct {
	RunID             string             `json:"run_id" yaml:"run_id"`
	Seed              uint64             `json:"seed" yaml:"seed"`
	Config            Config             `json:"config" yaml:"config"`
	Params            RunParams          `json:"params" yaml:"params"`
	StopReason        StopReason         `json:"stop_reason" yaml:"stop_reason"`
	EventsProcessed   int                `json:"events_processed" yaml:"events_processed"`
	Metrics           Metrics            `json:"metrics" yaml:"metrics"`
	Theory            *components.MM1K   `json:"theory" yaml:"theory"`
	StateDistribution []float64          `json:"state_distribution" yaml:"state_distribution"`
	Trajectory        []TrajectorySample `json:"trajectory,omitempty" yaml:"trajectory,omitempty"`
}

type Option func(*Simulation)

// WithSeed makes the run reproducible: the stream is reset to seed at the
// start of every Run.
func WithSeed(seed uint64) Option {
	return func(s *Simulation) {
		s.seed = seed
		s.src = core.NewSeededSource(seed)
		s.reseed = true
	}
}

// WithSource injects the uniform stream, e.g. a fixed sequence in tests or an
// rngstream.RngStream in sweeps. The stream is never reset by the simulation,
// so consecutive runs continue where the previous one stopped. The reported
// seed is the source's own when it is a *core.SeededSource, else 0.
func WithSource(src core.Uniform) Option {
	return func(s *Simulation) {
		s.src = src
		s.reseed = false
		s.seed = 0
		if seeded, ok := src.(*core.SeededSource); ok {
			s.seed = seeded.CurrentSeed()
		}
	}
}

// WithLogger sets the parent logger. The simulation logs under a child
// scoped to its run id; the default parent is Default().
func WithLogger(l Logger) Option {
	return func(s *Simulation) {
		s.parentLog = l
	}
}

// WithoutTrajectory skips recording the occupancy step function. Metrics and
// the state distribution are unaffected.
func WithoutTrajectory() Option {
	return func(s *Simulation) {
		s.recordTrajectory = false
	}
}

func WithRunID(id string) Option {
	return func(s *Simulation) {
		s.runID = id
	}
}

// Simulation is one independent M/M/1/K experiment. It exclusively owns its
// random stream and everything a run creates, so separate instances can run
// in parallel.
type Simulation struct {
	cfg              Config
	theory           *components.MM1K
	src              core.Uniform
	seed             uint64
	reseed           bool
	recordTrajectory bool
	runID            string
	parentLog        Logger
	log              Logger

	collector *Collector
}

// New validates cfg and builds a simulation. Without WithSeed or WithSource
// the stream is seeded from the wall clock and the seed is reported in the
// Result.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	theory, err := components.NewMM1K(cfg.ArrivalRate, cfg.ProcessRate, cfg.Capacity)
	if err != nil {
		return nil, err
	}
	s := &Simulation{cfg: cfg, theory: theory, recordTrajectory: true}
	for _, opt := range opts {
		opt(s)
	}
	if s.src == nil {
		WithSeed(uint64(time.Now().UnixNano()))(s)
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if s.parentLog == nil {
		s.parentLog = Default()
	}
	s.log = s.parentLog.With("run " + s.runID)
	return s, nil
}

func (s *Simulation) Config() Config {
	return s.cfg
}

func (s *Simulation) Logger() Logger {
	return s.log
}

func (s *Simulation) Theory() *components.MM1K {
	return s.theory
}

// Collector returns the statistics of the most recent run, or nil.
func (s *Simulation) Collector() *Collector {
	return s.collector
}

// Run executes the event loop until the horizon is passed or all p.MaxArrivals
// arrivals have been generated and served, whichever happens first.
func (s *Simulation) Run(p RunParams) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if s.reseed {
		s.src.(*core.SeededSource).Seed(s.seed)
	}

	sched := NewScheduler()
	stats := NewCollector(s.cfg.Capacity, s.recordTrajectory)
	router := NewRouter(s.cfg, core.NewVariates(s.src), sched, stats, p.MaxArrivals, s.log)
	s.collector = stats

	s.log.Info("lambda=%.4f mu=%.4f K=%d horizon=%.2f max_arrivals=%d seed=%d",
		s.cfg.ArrivalRate, s.cfg.ProcessRate, s.cfg.Capacity, p.Horizon, p.MaxArrivals, s.seed)

	if err := router.Start(); err != nil {
		return nil, fmt.Errorf("run %s: %w", s.runID, err)
	}

	stop := StopDrained
	var end core.Duration
	for {
		next, ok := sched.Peek()
		if !ok {
			end = sched.Now()
			break
		}
		if next.Time > p.Horizon {
			end = p.Horizon
			stop = StopHorizon
			break
		}
		e, _ := sched.Next()
		if err := router.Handle(e); err != nil {
			s.log.Error("aborted: %v", err)
			return nil, fmt.Errorf("run %s: %w", s.runID, err)
		}
	}

	metrics := stats.Finalize(end)
	s.log.Info("stopped by %s at t=%.4f after %d events: delivered=%d lost=%d",
		stop, end, sched.Processed(), metrics.PacketsDelivered, metrics.PacketsLost)

	return &Result{
		RunID:             s.runID,
		Seed:              s.seed,
		Config:            s.cfg,
		Params:            p,
		StopReason:        stop,
		EventsProcessed:   sched.Processed(),
		Metrics:           metrics,
		Theory:            s.theory,
		StateDistribution: stats.StateDistribution(),
		Trajectory:        stats.Trajectory(),
	}, nil
}

// Simulate is a convenience for a single seeded run.
func Simulate(cfg Config, p RunParams, seed uint64) (*Result, error) {
	sim, err := New(cfg, WithSeed(seed))
	if err != nil {
		return nil, err
	}
	return sim.Run(p)
}
