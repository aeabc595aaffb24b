package runtime

import (
	"github.com/panyam/queuesim/core"
)

// Config describes the router being modelled.
type Config struct {
	ArrivalRate float64 `json:"arrival_rate" yaml:"arrival_rate" mapstructure:"arrival_rate"` // λ
	ProcessRate float64 `json:"process_rate" yaml:"process_rate" mapstructure:"process_rate"` // μ
	Capacity    int     `json:"capacity" yaml:"capacity" mapstructure:"capacity"`             // K, packets in system
}

func (c Config) Validate() error {
	if !core.IsPositive(c.ArrivalRate) {
		return core.InvalidConfig("arrival rate must be > 0, got %v", c.ArrivalRate)
	}
	if !core.IsPositive(c.ProcessRate) {
		return core.InvalidConfig("process rate must be > 0, got %v", c.ProcessRate)
	}
	if c.Capacity < 1 {
		return core.InvalidConfig("capacity must be >= 1, got %d", c.Capacity)
	}
	return nil
}

// Rho is the offered traffic intensity λ/μ.
func (c Config) Rho() float64 {
	return c.ArrivalRate / c.ProcessRate
}

// RunParams bounds a single run. Whichever limit is reached first ends it.
type RunParams struct {
	Horizon     core.Duration `json:"horizon" yaml:"horizon" mapstructure:"horizon"`
	MaxArrivals int           `json:"max_arrivals" yaml:"max_arrivals" mapstructure:"max_arrivals"`
}

func (p RunParams) Validate() error {
	if !core.IsPositive(p.Horizon) {
		return core.InvalidConfig("time horizon must be > 0, got %v", p.Horizon)
	}
	if p.MaxArrivals < 1 {
		return core.InvalidConfig("max arrivals must be > 0, got %d", p.MaxArrivals)
	}
	return nil
}
