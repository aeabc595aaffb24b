package console

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/panyam/queuesim/components"
	"github.com/panyam/queuesim/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func fixedResult(t *testing.T) *runtime.Result {
	t.Helper()
	theory, err := components.NewMM1K(5, 6, 10)
	require.NoError(t, err)
	return &runtime.Result{
		RunID:           "run-1",
		Seed:            42,
		Config:          runtime.Config{ArrivalRate: 5, ProcessRate: 6, Capacity: 10},
		Params:          runtime.RunParams{Horizon: 2000, MaxArrivals: 10000},
		StopReason:      runtime.StopHorizon,
		EventsProcessed: 19500,
		Theory:          theory,
		Metrics: runtime.Metrics{
			DropProbability:    0.0305,
			Utilization:        0.80,
			MeanWait:           0.55,
			MaxWait:            4.2,
			Throughput:         4.84,
			MeanOccupancy:      3.4,
			PacketsDelivered:   9684,
			PacketsLost:        305,
			PacketsInSystem:    2,
			ArrivalsProcessed:  9991,
			WaitSamples:        9686,
			SimulationDuration: 2000,
		},
		StateDistribution: theory.Stationary,
	}
}

func TestReporter_WriteRun(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, false).WriteRun(fixedResult(t))
	out := buf.String()

	assert.Contains(t, out, "Statistics")
	assert.Contains(t, out, "Packets delivered:      9,684")
	assert.Contains(t, out, "Packets lost:           305")
	assert.Contains(t, out, "Drop probability:       3.05%")
	assert.Contains(t, out, "Server utilization:     80.00%")
	assert.Contains(t, out, "Rho (traffic intensity): 0.8333")
	assert.Contains(t, out, "drop probability")
	assert.NotContains(t, out, "\x1b[", "color disabled")
}

func TestReporter_Colors(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, true).WriteRun(fixedResult(t))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestReporter_NaNMetrics(t *testing.T) {
	res := fixedResult(t)
	res.Metrics.DropProbability = math.NaN()
	res.Metrics.MeanWait = math.NaN()
	var buf bytes.Buffer
	NewReporter(&buf, false).WriteRun(res)
	assert.Contains(t, buf.String(), "Drop probability:       n/a")
}

func TestReporter_WriteTheory(t *testing.T) {
	m, err := components.NewMM1K(1, 1, 4)
	require.NoError(t, err)
	var buf bytes.Buffer
	NewReporter(&buf, false).WriteTheory(m)
	out := buf.String()
	assert.Contains(t, out, "Blocking probability:   20.00%")
	assert.Equal(t, 5, strings.Count(out, "0.200000"))
}

func TestReporter_WriteSweep(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, false).WriteSweep([]*runtime.Result{fixedResult(t), fixedResult(t)})
	out := buf.String()
	assert.Contains(t, out, "Sweep: 2 runs")
	assert.Equal(t, 2, strings.Count(out, "3.05%"))
}

func TestRelativeError(t *testing.T) {
	assert.InDelta(t, 0.1, relativeError(1.1, 1.0), 1e-12)
	assert.InDelta(t, 0.5, relativeError(0.5, 0), 1e-12)
	assert.True(t, math.IsNaN(relativeError(math.NaN(), 1)))
}

func TestExport_JSONWithNaN(t *testing.T) {
	res := fixedResult(t)
	res.Metrics.DropProbability = math.NaN()
	res.Trajectory = []runtime.TrajectorySample{{Time: 0, Occupancy: 0}, {Time: 1.5, Occupancy: 1}}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, res))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	metrics := decoded["metrics"].(map[string]any)
	assert.Nil(t, metrics["drop_probability"])
	assert.Equal(t, 0.8, metrics["utilization"])
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, "horizon", decoded["stop_reason"])
	assert.Len(t, decoded["trajectory"], 2)
	theory := decoded["theory"].(map[string]any)
	assert.InDelta(t, 0.0311, theory["blocking_probability"], 1e-4)
}

func TestExport_YAMLList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatYAML, fixedResult(t), fixedResult(t)))

	var decoded []ResultView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, 9684, decoded[1].Metrics.PacketsDelivered)
	require.NotNil(t, decoded[0].Metrics.Utilization)
	assert.Equal(t, 0.8, *decoded[0].Metrics.Utilization)
	assert.NotContains(t, buf.String(), "trajectory")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)

	assert.Equal(t, FormatYAML, FormatFromPath("out/run.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("out/run.txt"))
	assert.Error(t, Export(&bytes.Buffer{}, Format("csv"), fixedResult(t)))
}

func TestLoadResults_RoundTrip(t *testing.T) {
	res := fixedResult(t)
	res.Metrics.MeanWait = math.NaN()

	for _, format := range []Format{FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, format, res))
		loaded, err := LoadResults(&buf, format)
		require.NoError(t, err, format)
		require.Len(t, loaded, 1)
		got := loaded[0]
		assert.True(t, math.IsNaN(got.Metrics.MeanWait), format)
		assert.Equal(t, res.Metrics.PacketsDelivered, got.Metrics.PacketsDelivered)
		assert.Equal(t, res.Config, got.Config)
		assert.InDelta(t, res.Theory.BlockingProbability, got.Theory.BlockingProbability, 1e-15)
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, res, res, res))
	loaded, err := LoadResults(&buf, FormatJSON)
	require.NoError(t, err)
	assert.Len(t, loaded, 3)

	_, err = LoadResults(strings.NewReader("not json"), FormatJSON)
	assert.Error(t, err)
}
