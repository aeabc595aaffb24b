package core

import (
	"math"
	"math/rand/v2"
)

// Uniform produces draws from the open interval (0, 1).
//
// *rngstream.RngStream satisfies this interface directly, so independent
// L'Ecuyer streams can be plugged in wherever a SeededSource is accepted.
type Uniform interface {
	RandU01() float64
}

// SeededSource is a reproducible Uniform backed by a PCG generator.
// Calling Seed resets the stream to the start of the sequence for that seed.
type SeededSource struct {
	seed uint64
	pcg  *rand.PCG
	rng  *rand.Rand
}

// Mixes the seed into the second PCG word so nearby seeds do not share state.
const seedMix = 0x9e3779b97f4a7c15

func NewSeededSource(seed uint64) *SeededSource {
	pcg := rand.NewPCG(seed, seed^seedMix)
	return &SeededSource{seed: seed, pcg: pcg, rng: rand.New(pcg)}
}

// Seed resets the stream.
func (s *SeededSource) Seed(seed uint64) {
	s.seed = seed
	s.pcg.Seed(seed, seed^seedMix)
}

func (s *SeededSource) CurrentSeed() uint64 {
	return s.seed
}

// RandU01 never returns 0; Float64 already excludes 1.
func (s *SeededSource) RandU01() float64 {
	for {
		if u := s.rng.Float64(); u > 0 {
			return u
		}
	}
}

// FixedSource replays a fixed sequence of uniforms, cycling when exhausted.
// Tests use it to pin down event timing without touching the scheduler.
type FixedSource struct {
	Values []float64
	next   int
}

func (f *FixedSource) RandU01() float64 {
	if len(f.Values) == 0 {
		return 0.5
	}
	u := f.Values[f.next%len(f.Values)]
	f.next++
	return u
}

// Variates turns uniforms into exponential durations by inverse CDF.
type Variates struct {
	src Uniform
}

func NewVariates(src Uniform) *Variates {
	return &Variates{src: src}
}

// Exp returns -ln(U)/rate, a duration with mean 1/rate.
// rate must be positive; callers validate it once at construction.
func (v *Variates) Exp(rate float64) Duration {
	return -math.Log(v.src.RandU01()) / rate
}
