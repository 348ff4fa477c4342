package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/hvasim/internal/automation"
	"github.com/san-kum/hvasim/internal/config"
)

// baseSettings loads the --settings file of cmd when set, else the preset
// named by the first argument.
func baseSettings(cmd *cobra.Command, args []string) (*config.Settings, string, error) {
	file, _ := cmd.Flags().GetString("settings")
	if file != "" {
		s, err := config.Load(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load settings: %w", err)
		}
		return s, strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)), nil
	}

	name := defaultPreset
	if len(args) > 0 {
		name = args[0]
	}
	s := config.GetPreset(name)
	if s == nil {
		return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}
	return s, name, nil
}

func newRunner(cmd *cobra.Command, save bool) (*automation.Runner, func(), error) {
	n, _ := cmd.Flags().GetInt("workers")
	if !cmd.Flags().Changed("workers") {
		n = env.Workers
	}
	opts := []automation.Option{automation.WithWorkers(n), automation.WithLogger(logger)}
	if !save {
		return automation.NewRunner(nil, opts...), func() {}, nil
	}

	st, err := openStore(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return automation.NewRunner(st, opts...), func() { st.Close() }, nil
}

func batchRun(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	runner, done, err := newRunner(cmd, true)
	if err != nil {
		return err
	}
	defer done()

	results, err := runner.RunScenario(cmd.Context(), sc)
	for i, r := range results {
		fmt.Printf("step %d: %s\n", i+1, r.RunID)
	}
	if err != nil {
		return err
	}
	fmt.Printf("scenario %q finished: %d runs\n", sc.Name, len(results))
	return nil
}

func sweepRun(cmd *cobra.Command, args []string) error {
	s, name, err := baseSettings(cmd, args)
	if err != nil {
		return err
	}
	param, _ := cmd.Flags().GetString("param")
	lo, _ := cmd.Flags().GetFloat64("min")
	hi, _ := cmd.Flags().GetFloat64("max")
	steps, _ := cmd.Flags().GetInt("steps")
	noSave, _ := cmd.Flags().GetBool("no-save")

	runner, done, err := newRunner(cmd, !noSave)
	if err != nil {
		return err
	}
	defer done()

	results, err := runner.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Name:      name,
		Settings:  s,
		ParamName: param,
		ParamMin:  lo,
		ParamMax:  hi,
		NumSteps:  steps,
	})
	if err != nil {
		return err
	}

	var keys []string
	if len(results) > 0 {
		keys = rateKeys(results[0].Metrics)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tRUN", param)
	for _, k := range keys {
		fmt.Fprintf(w, "\t%s", k)
	}
	fmt.Fprintln(w)
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%g\t%s", r.ParamValue, id)
		for _, k := range keys {
			fmt.Fprintf(w, "\t%.2f", r.Metrics[k])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func trialsRun(cmd *cobra.Command, args []string) error {
	s, name, err := baseSettings(cmd, args)
	if err != nil {
		return err
	}
	n, _ := cmd.Flags().GetInt("trials")
	save, _ := cmd.Flags().GetBool("save")

	runner, done, err := newRunner(cmd, save)
	if err != nil {
		return err
	}
	defer done()

	results, err := runner.RunTrials(cmd.Context(), &automation.TrialConfig{
		Name:      name,
		Settings:  s,
		NumTrials: n,
	})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no trials")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tN")
	for _, k := range rateKeys(results[0].Metrics) {
		mean, std, cnt := automation.TrialStats(results, k)
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%d\n", k, mean, std, cnt)
	}
	return w.Flush()
}

func rateKeys(m map[string]float64) []string {
	var keys []string
	for k := range m {
		if strings.HasSuffix(k, "_rate") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
