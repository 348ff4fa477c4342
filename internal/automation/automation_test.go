package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/storage"
)

func shortSettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.GetPreset("test_stp")
	require.NotNil(t, s)
	s.Afferents.SimTime = 0.05
	s.Afferents.SpikesPerSecond = []float64{10, 50}
	s.Seed = 3
	return s
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	st, err := storage.Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Save(filepath.Join(dir, "short.yaml"), shortSettings(t)))
	writeFile(t, filepath.Join(dir, "batch.yaml"), `
name: stp batch
description: two runs
steps:
  - settings: short.yaml
    save_as: base
  - preset: seminar
    description: lateral weight up
    params:
      synapses.afferents->LAT_PY.w_e: 0.02
`)

	sc, err := LoadScenario(filepath.Join(dir, "batch.yaml"))
	require.NoError(t, err)
	require.Len(t, sc.Steps, 2)
	assert.Equal(t, filepath.Join(dir, "short.yaml"), sc.Steps[0].Settings)
	assert.Equal(t, "short", sc.Steps[0].name())

	s, err := sc.Steps[1].Resolve()
	require.NoError(t, err)
	v, err := s.Param("synapses.afferents->LAT_PY.w_e")
	require.NoError(t, err)
	assert.Equal(t, 0.02, v)
}

func TestLoadScenario_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.yaml": "name: nothing\n",
		"both.yaml":  "steps:\n  - preset: seminar\n    settings: x.yaml\n",
		"none.yaml":  "steps:\n  - description: neither\n",
		"bad.yaml":   "steps: [\n",
	}
	for file, body := range cases {
		t.Run(file, func(t *testing.T) {
			path := filepath.Join(dir, file)
			writeFile(t, path, body)
			_, err := LoadScenario(path)
			assert.True(t, errors.Is(err, ErrInvalidScenario), "%v", err)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	_, err := ScenarioStep{Preset: "nope"}.Resolve()
	assert.True(t, errors.Is(err, ErrInvalidScenario))

	_, err = ScenarioStep{Preset: "seminar", Params: map[string]float64{"neurons.X.tau_m": 1}}.Resolve()
	assert.True(t, errors.Is(err, config.ErrUnknownParam))
}

func TestRunScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Save(filepath.Join(dir, "short.yaml"), shortSettings(t)))
	st := openStore(t)

	sc := &Scenario{
		Name:        "batch",
		Description: "scenario default",
		Steps: []ScenarioStep{
			{Settings: filepath.Join(dir, "short.yaml"), SaveAs: "first"},
			{Settings: filepath.Join(dir, "short.yaml"), Description: "own", Params: map[string]float64{"seed": 9}},
		},
	}
	results, err := NewRunner(st, WithWorkers(2)).RunScenario(context.Background(), sc)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].RunID)
	assert.NotEmpty(t, results[1].RunID)
	assert.Contains(t, results[0].Metrics, "MED_PY_rate")

	meta, err := st.Load("first")
	require.NoError(t, err)
	assert.Equal(t, "scenario default", meta.Description)

	meta, err = st.Load(results[1].RunID)
	require.NoError(t, err)
	assert.Equal(t, "own", meta.Description)
	assert.Equal(t, int64(9), meta.Seed)
}

func TestRunScenario_StopsAtFailure(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Preset: "test_stp", Params: map[string]float64{"afferents.sim_time": 0.02}},
		{Preset: "test_stp", Params: map[string]float64{"dt": -1}},
	}}
	results, err := NewRunner(nil).RunScenario(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2")
	require.Len(t, results, 1)
	assert.Empty(t, results[0].RunID)
}

func TestSweepValues(t *testing.T) {
	sw := &ParameterSweep{ParamMin: 0, ParamMax: 1, NumSteps: 5}
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, sw.Values())

	sw.NumSteps = 1
	assert.Equal(t, []float64{0}, sw.Values())

	sw.NumSteps = 0
	assert.Empty(t, sw.Values())
}

func TestRunSweep(t *testing.T) {
	st := openStore(t)
	sweep := &ParameterSweep{
		Name:      "weight",
		Settings:  shortSettings(t),
		ParamName: "synapses.afferents->MED_PY.w_e",
		ParamMin:  0,
		ParamMax:  2,
		NumSteps:  3,
	}
	results, err := NewRunner(st).RunSweep(context.Background(), sweep)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, sweep.Values()[i], r.ParamValue)
		meta, err := st.Load(r.RunID)
		require.NoError(t, err)
		got, err := meta.Settings.Param(sweep.ParamName)
		require.NoError(t, err)
		assert.Equal(t, r.ParamValue, got)
	}

	// The base settings are left alone.
	v, err := sweep.Settings.Param(sweep.ParamName)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestRunSweep_Invalid(t *testing.T) {
	r := NewRunner(nil)
	_, err := r.RunSweep(context.Background(), &ParameterSweep{Settings: shortSettings(t), ParamName: "dt"})
	assert.True(t, errors.Is(err, ErrInvalidScenario))

	_, err = r.RunSweep(context.Background(), &ParameterSweep{Settings: shortSettings(t), ParamName: "bogus", NumSteps: 2})
	assert.True(t, errors.Is(err, config.ErrUnknownParam))
}

func TestRunTrials(t *testing.T) {
	s := shortSettings(t)
	results, err := NewRunner(nil).RunTrials(context.Background(), &TrialConfig{
		Name:      "seeds",
		Settings:  s,
		NumTrials: 3,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []int64{3, 5, 7}, []int64{results[0].Seed, results[1].Seed, results[2].Seed})

	mean, std, n := TrialStats(results, "MED_PY_rate")
	assert.Equal(t, 3, n)
	assert.GreaterOrEqual(t, mean, 0.0)
	assert.GreaterOrEqual(t, std, 0.0)
}

func TestTrialStats(t *testing.T) {
	results := []TrialResult{
		{Outcome: Outcome{Metrics: map[string]float64{"r": 1}}},
		{Outcome: Outcome{Metrics: map[string]float64{"r": 3}}},
		{Outcome: Outcome{Metrics: map[string]float64{}}},
	}
	mean, std, n := TrialStats(results, "r")
	assert.Equal(t, 2, n)
	assert.Equal(t, 2.0, mean)
	assert.InDelta(t, 1.41421356, std, 1e-8)

	_, _, n = TrialStats(results, "missing")
	assert.Zero(t, n)
}

func TestMeanMetrics(t *testing.T) {
	got := MeanMetrics([]*storage.Bundle{
		{Metrics: map[string]float64{"a": 1, "b": 4}},
		{Metrics: map[string]float64{"a": 3}},
	})
	assert.Equal(t, map[string]float64{"a": 2, "b": 4}, got)
}
