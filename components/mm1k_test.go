package components

import (
	"errors"
	"math"
	"testing"

	"github.com/panyam/queuesim/core"
)

func approxEqualTest(a, b, tolerance float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) < tolerance
}

func closedFormPi(rho float64, k, i int) float64 {
	return (1 - rho) * math.Pow(rho, float64(i)) / (1 - math.Pow(rho, float64(k+1)))
}

func TestMM1K_Init_Params(t *testing.T) {
	q, err := NewMM1K(5.0, 6.0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Capacity != 10 {
		t.Errorf("Capacity mismatch")
	}
	if !approxEqualTest(q.Rho, 5.0/6.0, 1e-12) {
		t.Errorf("Rho mismatch: exp 0.8333, got %.6f", q.Rho)
	}
	if len(q.Stationary) != 11 {
		t.Fatalf("expected 11 stationary probabilities, got %d", len(q.Stationary))
	}
	for i, p := range q.Stationary {
		want := closedFormPi(q.Rho, 10, i)
		if !approxEqualTest(p, want, 1e-12) {
			t.Errorf("pi[%d] = %.12f, closed form %.12f", i, p, want)
		}
	}
	if !approxEqualTest(q.BlockingProbability, 0.0311, 1e-4) {
		t.Errorf("Blocking probability %.6f, expected ~0.0311", q.BlockingProbability)
	}
	t.Logf("%s", q)
}

func TestMM1K_DistributionSumsToOne(t *testing.T) {
	cases := []struct {
		lambda, mu float64
		k          int
	}{
		{1, 10, 1},
		{5, 6, 10},
		{6, 5, 10},
		{3, 3, 7},
		{9.5, 10, 50},
		{100, 1, 400},
	}
	for _, c := range cases {
		q, err := NewMM1K(c.lambda, c.mu, c.k)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sum := 0.0
		for _, p := range q.Stationary {
			if p < 0 || p > 1 || math.IsNaN(p) {
				t.Errorf("%s: probability %v out of range", q, p)
			}
			sum += p
		}
		if !approxEqualTest(sum, 1.0, 1e-9) {
			t.Errorf("%s: stationary distribution sums to %.12f", q, sum)
		}
	}
}

func TestMM1K_UnitRho(t *testing.T) {
	q, err := NewMM1K(2.0, 2.0, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range q.Stationary {
		if !approxEqualTest(p, 0.2, 1e-12) {
			t.Errorf("pi[%d] = %.6f, expected uniform 0.2", i, p)
		}
	}
	if !approxEqualTest(q.BlockingProbability, 0.2, 1e-12) {
		t.Errorf("Blocking %.6f, expected 0.2", q.BlockingProbability)
	}
	if !approxEqualTest(q.MeanOccupancy, 2.0, 1e-12) {
		t.Errorf("L %.6f, expected 2", q.MeanOccupancy)
	}
	// Wq = L/λ_eff - 1/μ = 2/1.6 - 0.5
	if !approxEqualTest(q.MeanWait, 0.75, 1e-12) {
		t.Errorf("Wq %.6f, expected 0.75", q.MeanWait)
	}
}

func TestMM1K_PureLossSystem(t *testing.T) {
	q, err := NewMM1K(3.0, 4.0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rho := 0.75
	if !approxEqualTest(q.BlockingProbability, rho/(1+rho), 1e-12) {
		t.Errorf("Erlang loss mismatch: got %.6f, want %.6f", q.BlockingProbability, rho/(1+rho))
	}
	if !approxEqualTest(q.MeanWait, 0, 1e-12) {
		t.Errorf("K=1 has no waiting room, Wq should be 0, got %.6f", q.MeanWait)
	}
	if !approxEqualTest(q.Utilization, rho/(1+rho), 1e-12) {
		t.Errorf("Utilization %.6f, want %.6f", q.Utilization, rho/(1+rho))
	}
}

func TestMM1K_LargeCapacity(t *testing.T) {
	q, _ := NewMM1K(1.0, 2.0, 200)
	if q.BlockingProbability > 1e-50 {
		t.Errorf("Blocking should vanish for rho<1 and large K, got %g", q.BlockingProbability)
	}
	if !approxEqualTest(q.Utilization, 0.5, 1e-9) {
		t.Errorf("Utilization should approach rho, got %.6f", q.Utilization)
	}

	// Overloaded: no overflow, and blocking tends to 1 - 1/rho
	over, _ := NewMM1K(10.0, 1.0, 500)
	if math.IsNaN(over.BlockingProbability) || !approxEqualTest(over.BlockingProbability, 0.9, 1e-9) {
		t.Errorf("Overloaded blocking %.6f, expected ~0.9", over.BlockingProbability)
	}
	if !approxEqualTest(BlockingProbability(10.0, 1.0, 500), over.BlockingProbability, 1e-15) {
		t.Errorf("BlockingProbability helper disagrees with model")
	}
}

func TestMM1K_LittlesLaw(t *testing.T) {
	q, _ := NewMM1K(5.0, 6.0, 10)
	// W = Wq + 1/μ and L = λ_eff W
	w := q.MeanWait + 1/q.ServiceRate
	if !approxEqualTest(q.MeanOccupancy, q.EffectiveThroughput*w, 1e-9) {
		t.Errorf("Little's law violated: L=%.6f, λeff·W=%.6f", q.MeanOccupancy, q.EffectiveThroughput*w)
	}
	// Utilization equals carried load for a single server
	if !approxEqualTest(q.Utilization, q.EffectiveThroughput/q.ServiceRate, 1e-9) {
		t.Errorf("Utilization %.6f != λeff/μ %.6f", q.Utilization, q.EffectiveThroughput/q.ServiceRate)
	}
}

func TestMM1K_InvalidConfiguration(t *testing.T) {
	cases := []struct {
		name       string
		lambda, mu float64
		k          int
	}{
		{"zero lambda", 0, 1, 5},
		{"negative lambda", -1, 1, 5},
		{"zero mu", 1, 0, 5},
		{"nan mu", 1, math.NaN(), 5},
		{"zero capacity", 1, 1, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q, err := NewMM1K(c.lambda, c.mu, c.k)
			if q != nil {
				t.Errorf("expected nil model")
			}
			if !errors.Is(err, core.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}
