package runtime

import (
	"github.com/panyam/queuesim/core"
)

// TransitionObserver receives every state change the router makes.
type TransitionObserver interface {
	Observe(Transition)
}

// SystemState is the router's view of the queue. It is the only authority
// for admission decisions.
type SystemState struct {
	Occupancy      int
	LastTransition core.Duration
}

// Router is the finite-capacity state machine of an M/M/1/K queue. It turns
// scheduled events into occupancy changes and schedules the events that
// follow from them.
type Router struct {
	capacity    int
	arrivalRate float64
	processRate float64
	maxArrivals int
	generated   int

	state    SystemState
	variates *core.Variates
	sched    *Scheduler
	observer TransitionObserver
	log      Logger
}

// NewRouter wires a state machine to its scheduler, random source and
// observer. cfg must already be validated. A nil logger means Default().
func NewRouter(cfg Config, variates *core.Variates, sched *Scheduler, observer TransitionObserver, maxArrivals int, logger Logger) *Router {
	if logger == nil {
		logger = Default()
	}
	return &Router{
		capacity:    cfg.Capacity,
		arrivalRate: cfg.ArrivalRate,
		processRate: cfg.ProcessRate,
		maxArrivals: maxArrivals,
		variates:    variates,
		sched:       sched,
		observer:    observer,
		log:         logger,
	}
}

// Start schedules the first arrival of the Poisson stream.
func (r *Router) Start() error {
	return r.scheduleArrival(r.sched.Now())
}

func (r *Router) State() SystemState {
	return r.state
}

// Generated is the number of arrivals scheduled so far.
func (r *Router) Generated() int {
	return r.generated
}

// Handle applies one event. An error means the run can not continue.
func (r *Router) Handle(e Event) error {
	switch e.Kind {
	case Arrival:
		return r.onArrival(e.Time)
	case Departure:
		return r.onDeparture(e.Time)
	}
	return &core.InvariantViolationError{
		Time: e.Time, Event: e.Kind.String(), Occupancy: r.state.Occupancy, Capacity: r.capacity,
		Reason: "unknown event kind",
	}
}

func (r *Router) onArrival(now core.Duration) error {
	// the arrival stream does not depend on whether this packet gets in
	if err := r.scheduleArrival(now); err != nil {
		return err
	}

	before := r.state.Occupancy
	if before > r.capacity {
		return r.violation(now, Arrival, "occupancy exceeds capacity")
	}
	if before == r.capacity {
		r.transition(now, Dropped, before, before)
		return nil
	}

	after := before + 1
	if after == 1 {
		if err := r.sched.Schedule(Departure, now+r.variates.Exp(r.processRate)); err != nil {
			return err
		}
	}
	r.transition(now, Admitted, before, after)
	return nil
}

func (r *Router) onDeparture(now core.Duration) error {
	before := r.state.Occupancy
	if before <= 0 {
		return r.violation(now, Departure, "departure from an empty system")
	}

	after := before - 1
	if after > 0 {
		// memoryless service: the next packet gets a fresh draw
		if err := r.sched.Schedule(Departure, now+r.variates.Exp(r.processRate)); err != nil {
			return err
		}
	}
	r.transition(now, Departed, before, after)
	return nil
}

func (r *Router) scheduleArrival(now core.Duration) error {
	if r.generated >= r.maxArrivals {
		return nil
	}
	if err := r.sched.Schedule(Arrival, now+r.variates.Exp(r.arrivalRate)); err != nil {
		return err
	}
	r.generated++
	return nil
}

func (r *Router) transition(now core.Duration, kind TransitionKind, before, after int) {
	r.state.Occupancy = after
	r.state.LastTransition = now
	if r.log.Enabled(LogLevelDebug) {
		r.log.Debug("t=%.6f %s occupancy %d -> %d", now, kind, before, after)
	}
	if r.observer != nil {
		r.observer.Observe(Transition{Time: now, Kind: kind, Before: before, After: after})
	}
}

func (r *Router) violation(now core.Duration, kind EventKind, reason string) error {
	return &core.InvariantViolationError{
		Time:      now,
		Event:     kind.String(),
		Occupancy: r.state.Occupancy,
		Capacity:  r.capacity,
		Reason:    reason,
	}
}
