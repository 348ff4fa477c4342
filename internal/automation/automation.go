package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/experiment"
	"github.com/san-kum/hvasim/internal/logging"
	"github.com/san-kum/hvasim/internal/storage"
)

var ErrInvalidScenario = errors.New("automation: invalid scenario")

// Scenario is a scripted batch of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run of a scenario. Exactly one of Preset and
// Settings names the base settings; Params then overrides scalar values
// by path (see config.Settings.SetParam).
type ScenarioStep struct {
	Preset      string             `yaml:"preset"`
	Settings    string             `yaml:"settings"`
	Description string             `yaml:"description"`
	Params      map[string]float64 `yaml:"params"`
	SaveAs      string             `yaml:"save_as"`
}

// LoadScenario reads a scenario from a YAML file. Relative settings paths
// are resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	dir := filepath.Dir(path)
	for i := range scenario.Steps {
		st := &scenario.Steps[i]
		if st.Settings != "" && !filepath.IsAbs(st.Settings) {
			st.Settings = filepath.Join(dir, st.Settings)
		}
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScenario)
	}
	for i, st := range sc.Steps {
		if (st.Preset == "") == (st.Settings == "") {
			return fmt.Errorf("%w: step %d: set exactly one of preset and settings", ErrInvalidScenario, i+1)
		}
	}
	return nil
}

// Resolve builds the settings for a step with its overrides applied.
func (st ScenarioStep) Resolve() (*config.Settings, error) {
	var s *config.Settings
	switch {
	case st.Preset != "":
		s = config.GetPreset(st.Preset)
		if s == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidScenario, st.Preset)
		}
	case st.Settings != "":
		var err error
		if s, err = config.Load(st.Settings); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: step has no settings", ErrInvalidScenario)
	}

	keys := make([]string, 0, len(st.Params))
	for k := range st.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.SetParam(k, st.Params[k]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (st ScenarioStep) name() string {
	if st.Preset != "" {
		return st.Preset
	}
	base := filepath.Base(st.Settings)
	return base[:len(base)-len(filepath.Ext(base))]
}

// Runner executes batches of experiments and saves each one as a run.
// A nil store runs without saving.
type Runner struct {
	store   *storage.Store
	workers int
	log     *slog.Logger
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func NewRunner(store *storage.Store, opts ...Option) *Runner {
	r := &Runner{store: store, workers: 1, log: logging.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome is one finished run of a batch.
type Outcome struct {
	RunID string

	// Metrics holds every metric averaged over the run's conditions.
	Metrics map[string]float64
}

func (r *Runner) run(ctx context.Context, runID, name, description string, s *config.Settings) (Outcome, error) {
	exp, err := experiment.New(experiment.Config{
		Name:        name,
		Settings:    s,
		Description: description,
		Workers:     r.workers,
	}, experiment.WithLogger(r.log))
	if err != nil {
		return Outcome{}, err
	}

	bundles, err := exp.Run(ctx, nil)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Metrics: MeanMetrics(bundles)}
	if r.store != nil {
		if out.RunID, err = r.store.Save(ctx, runID, name, bundles); err != nil {
			return Outcome{}, err
		}
	}
	return out, nil
}

// RunScenario executes all steps in order and stops at the first failure,
// returning the outcomes completed so far.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]Outcome, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	results := make([]Outcome, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		r.log.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "base", step.name())

		s, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		desc := step.Description
		if desc == "" {
			desc = scenario.Description
		}

		out, err := r.run(ctx, step.SaveAs, step.name(), desc, s)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, out)
	}

	return results, nil
}

// ParameterSweep runs the same settings across evenly spaced values of
// one parameter.
type ParameterSweep struct {
	Name      string
	Settings  *config.Settings
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// Values lists the swept values, ParamMin first and ParamMax last.
func (sw *ParameterSweep) Values() []float64 {
	if sw.NumSteps < 1 {
		return nil
	}
	if sw.NumSteps == 1 {
		return []float64{sw.ParamMin}
	}
	step := (sw.ParamMax - sw.ParamMin) / float64(sw.NumSteps-1)
	vals := make([]float64, sw.NumSteps)
	for i := range vals {
		vals[i] = sw.ParamMin + float64(i)*step
	}
	vals[len(vals)-1] = sw.ParamMax
	return vals
}

type SweepResult struct {
	ParamValue float64
	Outcome
}

func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.Settings == nil {
		return nil, fmt.Errorf("%w: sweep has no settings", ErrInvalidScenario)
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one step, got %d", ErrInvalidScenario, sweep.NumSteps)
	}
	if _, err := sweep.Settings.Param(sweep.ParamName); err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i, v := range sweep.Values() {
		s := sweep.Settings.Clone()
		if err := s.SetParam(sweep.ParamName, v); err != nil {
			return results, err
		}

		name := fmt.Sprintf("%s_%02d", sweep.Name, i)
		desc := fmt.Sprintf("%s sweep: %s=%g", sweep.Name, sweep.ParamName, v)
		out, err := r.run(ctx, "", name, desc, s)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}
		results = append(results, SweepResult{ParamValue: v, Outcome: out})

		r.log.Info("sweep step", "param", sweep.ParamName, "value", v, "step", i+1, "of", sweep.NumSteps, "run", out.RunID)
	}

	return results, nil
}

// TrialConfig repeats one set of settings under different seeds.
type TrialConfig struct {
	Name      string
	Settings  *config.Settings
	NumTrials int

	// Trial i uses Settings.Seed + i*SeedStride, so the per-condition
	// seeds of different trials never overlap.
	SeedStride int64
}

type TrialResult struct {
	Trial int
	Seed  int64
	Outcome
}

func (r *Runner) RunTrials(ctx context.Context, cfg *TrialConfig) ([]TrialResult, error) {
	if cfg.Settings == nil {
		return nil, fmt.Errorf("%w: trials have no settings", ErrInvalidScenario)
	}
	stride := cfg.SeedStride
	if stride <= 0 {
		stride = int64(len(cfg.Settings.Conditions()))
	}

	results := make([]TrialResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		s := cfg.Settings.Clone()
		s.Seed = cfg.Settings.Seed + int64(trial)*stride

		name := fmt.Sprintf("%s_trial%02d", cfg.Name, trial)
		out, err := r.run(ctx, "", name, fmt.Sprintf("%s trial %d", cfg.Name, trial), s)
		if err != nil {
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}
		results = append(results, TrialResult{Trial: trial, Seed: s.Seed, Outcome: out})

		if (trial+1)%10 == 0 {
			r.log.Info("trials progress", "done", trial+1, "of", cfg.NumTrials)
		}
	}

	return results, nil
}

// TrialStats returns the mean and sample standard deviation of one metric
// across trials. Trials missing the metric are skipped.
func TrialStats(results []TrialResult, metric string) (mean, std float64, n int) {
	var vals []float64
	for _, r := range results {
		if v, ok := r.Metrics[metric]; ok {
			vals = append(vals, v)
		}
	}
	n = len(vals)
	if n == 0 {
		return 0, 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(n)
	if n < 2 {
		return mean, 0, n
	}
	for _, v := range vals {
		std += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(std / float64(n-1)), n
}

// MeanMetrics averages each metric over the bundles that report it.
func MeanMetrics(bundles []*storage.Bundle) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, b := range bundles {
		for k, v := range b.Metrics {
			sums[k] += v
			counts[k]++
		}
	}
	for k := range sums {
		sums[k] /= float64(counts[k])
	}
	return sums
}
