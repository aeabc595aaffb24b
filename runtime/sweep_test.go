package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/panyam/queuesim/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `
name: load
params:
  horizon: 500
  max_arrivals: 2000
seed: 7
workers: 3
points:
  - {arrival_rate: 5, process_rate: 6, capacity: 10}
grid:
  arrival_rates: [1, 3]
  process_rates: [6]
  capacities: [2, 5]
`

func TestLoadSweepPlan(t *testing.T) {
	plan, err := LoadSweepPlan(strings.NewReader(samplePlan))
	require.NoError(t, err)
	require.NoError(t, plan.Validate())

	assert.Equal(t, RunParams{Horizon: 500, MaxArrivals: 2000}, plan.Params)
	assert.Equal(t, uint64(7), plan.Seed)
	assert.Equal(t, 3, plan.Workers)

	want := []Config{
		{ArrivalRate: 5, ProcessRate: 6, Capacity: 10},
		{ArrivalRate: 1, ProcessRate: 6, Capacity: 2},
		{ArrivalRate: 1, ProcessRate: 6, Capacity: 5},
		{ArrivalRate: 3, ProcessRate: 6, Capacity: 2},
		{ArrivalRate: 3, ProcessRate: 6, Capacity: 5},
	}
	if diff := cmp.Diff(want, plan.Configs()); diff != "" {
		t.Fatalf("configs mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSweepPlan_UnknownField(t *testing.T) {
	_, err := LoadSweepPlan(strings.NewReader("params: {horizon: 1, max_arrivals: 1}\nseeds: 3\n"))
	assert.Error(t, err)
}

func TestSweepPlan_Validate(t *testing.T) {
	params := RunParams{Horizon: 10, MaxArrivals: 10}
	cases := []struct {
		name string
		plan SweepPlan
	}{
		{"no points", SweepPlan{Params: params}},
		{"bad params", SweepPlan{Points: []Config{{ArrivalRate: 1, ProcessRate: 1, Capacity: 1}}}},
		{"bad point", SweepPlan{Params: params, Points: []Config{{ArrivalRate: 1, ProcessRate: 0, Capacity: 1}}}},
		{"bad streams", SweepPlan{Params: params, Streams: "mt19937", Points: []Config{{ArrivalRate: 1, ProcessRate: 1, Capacity: 1}}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.plan.Validate()
			assert.True(t, errors.Is(err, core.ErrInvalidConfiguration), "got %v", err)
		})
	}
}

func TestSweep_SeededIsDeterministic(t *testing.T) {
	defer QuietTest(t)()
	plan, err := LoadSweepPlan(strings.NewReader(samplePlan))
	require.NoError(t, err)

	first, err := Sweep(context.Background(), plan)
	require.NoError(t, err)
	second, err := Sweep(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, first, 5)

	for i, res := range first {
		assert.Equal(t, plan.Configs()[i], res.Config)
		assert.Equal(t, plan.Seed+uint64(i), res.Seed)
		assert.Nil(t, res.Trajectory)
		assert.Equal(t, res.Metrics, second[i].Metrics, "point %d", i)
	}

	// each point matches a standalone run with the same seed
	solo, err := New(plan.Configs()[2], WithSeed(plan.Seed+2), WithoutTrajectory())
	require.NoError(t, err)
	res, err := solo.Run(plan.Params)
	require.NoError(t, err)
	assert.Equal(t, res.Metrics, first[2].Metrics)
}

func TestSweep_RngStreams(t *testing.T) {
	defer QuietTest(t)()
	plan := &SweepPlan{
		Params:         RunParams{Horizon: 200, MaxArrivals: 1000},
		Streams:        StreamsRngStream,
		KeepTrajectory: true,
		Points: []Config{
			{ArrivalRate: 2, ProcessRate: 3, Capacity: 4},
			{ArrivalRate: 2, ProcessRate: 3, Capacity: 4},
		},
	}
	results, err := Sweep(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.NotEmpty(t, res.Trajectory)
		m := res.Metrics
		assert.Equal(t, m.ArrivalsProcessed, m.PacketsDelivered+m.PacketsLost+m.PacketsInSystem)
	}
	// same parameters, independent streams
	assert.NotEmpty(t, cmp.Diff(results[0].Trajectory, results[1].Trajectory))
}

func TestSweep_Cancelled(t *testing.T) {
	defer QuietTest(t)()
	plan, err := LoadSweepPlan(strings.NewReader(samplePlan))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := Sweep(ctx, plan)
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}
