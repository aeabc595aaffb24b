package runtime

import (
	"container/heap"
	"fmt"

	"github.com/panyam/queuesim/core"
)

// EventKind tags what an event means to the router. The scheduler itself
// does not interpret it beyond tie-breaking.
type EventKind int

const (
	// Departure sorts before Arrival at equal timestamps so a service
	// completion frees its slot before a simultaneous arrival is judged.
	Departure EventKind = iota
	Arrival
)

func (k EventKind) String() string {
	switch k {
	case Arrival:
		return "arrival"
	case Departure:
		return "departure"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is an immutable pending occurrence on the simulated timeline.
type Event struct {
	Kind EventKind
	Time core.Duration
	seq  uint64
}

type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.seq < b.seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Scheduler keeps pending events ordered by timestamp and owns the
// simulation clock.
type Scheduler struct {
	events eventHeap
	now    core.Duration
	seq    uint64
	popped int
}

func NewScheduler() *Scheduler {
	s := &Scheduler{events: make(eventHeap, 0, 16)}
	heap.Init(&s.events)
	return s
}

// Schedule inserts an event. Events in the past of the clock are rejected
// since handling them would move time backwards.
func (s *Scheduler) Schedule(kind EventKind, at core.Duration) error {
	if at < s.now {
		return fmt.Errorf("cannot schedule %s at %.9f before current time %.9f", kind, at, s.now)
	}
	s.seq++
	heap.Push(&s.events, Event{Kind: kind, Time: at, seq: s.seq})
	return nil
}

// Next removes and returns the earliest pending event and advances the clock
// to its timestamp. ok is false when nothing is pending.
func (s *Scheduler) Next() (e Event, ok bool) {
	if len(s.events) == 0 {
		return Event{}, false
	}
	e = heap.Pop(&s.events).(Event)
	s.now = e.Time
	s.popped++
	return e, true
}

// Peek returns the earliest pending event without removing it.
func (s *Scheduler) Peek() (Event, bool) {
	if len(s.events) == 0 {
		return Event{}, false
	}
	return s.events[0], true
}

// Now is the timestamp of the most recently returned event.
func (s *Scheduler) Now() core.Duration {
	return s.now
}

func (s *Scheduler) Len() int {
	return len(s.events)
}

func (s *Scheduler) IsEmpty() bool {
	return len(s.events) == 0
}

// Processed is the number of events handed out by Next.
func (s *Scheduler) Processed() int {
	return s.popped
}
