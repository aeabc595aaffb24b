package runtime

import (
	"fmt"

	"github.com/panyam/queuesim/core"
)

type TransitionKind int

const (
	Admitted TransitionKind = iota
	Dropped
	Departed
)

func (k TransitionKind) String() string {
	switch k {
	case Admitted:
		return "admitted"
	case Dropped:
		return "dropped"
	case Departed:
		return "departed"
	default:
		return fmt.Sprintf("TransitionKind(%d)", int(k))
	}
}

// Transition is what the router reports for every processed event.
// A dropped arrival has Before == After.
type Transition struct {
	Time   core.Duration
	Kind   TransitionKind
	Before int
	After  int
}

// TrajectorySample is one point of the occupancy step function.
type TrajectorySample struct {
	Time      core.Duration `json:"time" yaml:"time"`
	Occupancy int           `json:"occupancy" yaml:"occupancy"`
}

// Metrics is the finalized summary of a run. Ratios with a zero denominator
// are NaN, meaning nothing was observed.
type Metrics struct {
	DropProbability    float64       `json:"drop_probability" yaml:"drop_probability"`
	Utilization        float64       `json:"utilization" yaml:"utilization"`
	MeanWait           core.Duration `json:"mean_wait" yaml:"mean_wait"`
	MaxWait            core.Duration `json:"max_wait" yaml:"max_wait"`
	Throughput         float64       `json:"throughput" yaml:"throughput"`
	MeanOccupancy      float64       `json:"mean_occupancy" yaml:"mean_occupancy"`
	PacketsDelivered   int           `json:"packets_delivered" yaml:"packets_delivered"`
	PacketsLost        int           `json:"packets_lost" yaml:"packets_lost"`
	PacketsInSystem    int           `json:"packets_in_system" yaml:"packets_in_system"`
	ArrivalsProcessed  int           `json:"arrivals_processed" yaml:"arrivals_processed"`
	WaitSamples        int           `json:"wait_samples" yaml:"wait_samples"`
	SimulationDuration core.Duration `json:"simulation_duration" yaml:"simulation_duration"`
}

// Collector turns the transition stream into time-weighted statistics.
// It only observes; admission decisions belong to the router.
type Collector struct {
	capacity         int
	recordTrajectory bool

	lastTime  core.Duration
	occupancy int

	delivered int
	lost      int
	admitted  int

	busyTime    core.Duration
	timeInState []core.Duration
	area        float64 // ∫ occupancy dt

	// admission times of packets not yet in service, oldest first
	waiting   []core.Duration
	waitHead  int
	waitSum   core.Duration
	waitMax   core.Duration
	waitCount int

	trajectory []TrajectorySample

	final     *Metrics
	finalDist []float64
}

func NewCollector(capacity int, recordTrajectory bool) *Collector {
	c := &Collector{
		capacity:         capacity,
		recordTrajectory: recordTrajectory,
		timeInState:      make([]core.Duration, capacity+1),
	}
	if recordTrajectory {
		c.trajectory = append(c.trajectory, TrajectorySample{Time: 0, Occupancy: 0})
	}
	return c
}

// Observe accounts for the interval since the previous transition and then
// applies the transition itself. A transition whose occupancy leaves [0, K]
// panics with an *core.InvariantViolationError; the router reports those as
// errors before they reach an observer.
func (c *Collector) Observe(tr Transition) {
	if tr.Before < 0 || tr.Before > c.capacity || tr.After < 0 || tr.After > c.capacity {
		panic(&core.InvariantViolationError{
			Time:      tr.Time,
			Event:     tr.Kind.String(),
			Occupancy: tr.After,
			Capacity:  c.capacity,
			Reason:    fmt.Sprintf("observed occupancy %d -> %d", tr.Before, tr.After),
		})
	}
	dt := tr.Time - c.lastTime
	if dt > 0 {
		c.accumulate(tr.Before, dt)
	}
	c.lastTime = tr.Time
	c.occupancy = tr.After

	switch tr.Kind {
	case Admitted:
		c.admitted++
		c.waiting = append(c.waiting, tr.Time)
		if tr.After == 1 {
			// arrived to an idle server, service starts immediately
			c.startService(tr.Time)
		}
	case Dropped:
		c.lost++
	case Departed:
		c.delivered++
		if tr.After > 0 {
			c.startService(tr.Time)
		}
	}

	if c.recordTrajectory {
		c.trajectory = append(c.trajectory, TrajectorySample{Time: tr.Time, Occupancy: tr.After})
	}
}

func (c *Collector) accumulate(occupancy int, dt core.Duration) {
	c.timeInState[occupancy] += dt
	c.area += float64(occupancy) * dt
	if occupancy >= 1 {
		c.busyTime += dt
	}
}

// startService pops the head of the waiting line and records its wait.
func (c *Collector) startService(at core.Duration) {
	if c.waitHead >= len(c.waiting) {
		return
	}
	wait := at - c.waiting[c.waitHead]
	c.waitHead++
	if c.waitHead > 1024 && c.waitHead*2 > len(c.waiting) {
		c.waiting = append(c.waiting[:0], c.waiting[c.waitHead:]...)
		c.waitHead = 0
	}
	c.waitSum += wait
	c.waitCount++
	if wait > c.waitMax {
		c.waitMax = wait
	}
}

// Finalize closes the last interval at end and computes the metrics. Only
// the first call computes; later calls return the same values.
func (c *Collector) Finalize(end core.Duration) Metrics {
	if c.final != nil {
		return *c.final
	}

	tail := core.MaxDuration(end-c.lastTime, 0)
	busy := c.busyTime
	area := c.area
	tis := make([]core.Duration, len(c.timeInState))
	copy(tis, c.timeInState)
	if tail > 0 {
		tis[c.occupancy] += tail
		area += float64(c.occupancy) * tail
		if c.occupancy >= 1 {
			busy += tail
		}
	}

	m := Metrics{
		DropProbability:    core.SafeDiv(float64(c.lost), float64(c.delivered+c.lost)),
		Utilization:        core.SafeDiv(busy, end),
		MeanWait:           core.SafeDiv(c.waitSum, float64(c.waitCount)),
		MaxWait:            c.waitMax,
		Throughput:         core.SafeDiv(float64(c.delivered), end),
		MeanOccupancy:      core.SafeDiv(area, end),
		PacketsDelivered:   c.delivered,
		PacketsLost:        c.lost,
		PacketsInSystem:    c.occupancy,
		ArrivalsProcessed:  c.admitted + c.lost,
		WaitSamples:        c.waitCount,
		SimulationDuration: end,
	}

	dist := make([]float64, len(tis))
	for k, d := range tis {
		dist[k] = core.SafeDiv(d, end)
	}

	c.final = &m
	c.finalDist = dist
	return m
}

// StateDistribution is the fraction of simulated time spent at each
// occupancy 0..K. It is nil until Finalize has been called.
func (c *Collector) StateDistribution() []float64 {
	return c.finalDist
}

// Trajectory returns the recorded (time, occupancy) samples. The slice is
// shared with the collector and must not be modified.
func (c *Collector) Trajectory() []TrajectorySample {
	return c.trajectory
}

func (c *Collector) Occupancy() int {
	return c.occupancy
}
