package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/experiment"
	"github.com/san-kum/hvasim/internal/storage"
	"github.com/san-kum/hvasim/internal/viz"
)

const defaultPreset = "ff_hva_only"

// resolveSettings picks the settings bundle for run: the --settings file
// when given, else the named preset, then applies flag overrides.
func resolveSettings(cmd *cobra.Command, args []string) (*config.Settings, string, error) {
	var (
		s    *config.Settings
		name string
	)
	switch {
	case settingsFile != "":
		loaded, err := config.Load(settingsFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load settings: %w", err)
		}
		s = loaded
		name = strings.TrimSuffix(filepath.Base(settingsFile), filepath.Ext(settingsFile))
	default:
		name = defaultPreset
		if len(args) > 0 {
			name = args[0]
		}
		s = config.GetPreset(name)
		if s == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if cmd.Flags().Changed("dt") {
		s.Dt = dt
	}
	if cmd.Flags().Changed("integrator") {
		s.Integrator = integrator
	}
	if cmd.Flags().Changed("seed") {
		s.Seed = seed
	}
	return s, name, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, name, err := resolveSettings(cmd, args)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("workers") {
		workers = env.Workers
	}

	exp, err := experiment.New(experiment.Config{
		Name:        name,
		Settings:    s,
		Description: description,
		Workers:     workers,
	}, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Printf("running %s: %d conditions, %.2fs each, dt=%g, %s\n",
		name, len(exp.Conditions()), s.Afferents.SimTime, s.Dt, s.Integrator)

	var bundles []*storage.Bundle
	if live {
		bundles, err = viz.RunWithProgress(ctx, name, exp, os.Stdout)
	} else {
		bundles, err = runQuiet(cmd, exp)
	}
	if err != nil {
		return err
	}

	runID, err := st.Save(ctx, "", name, bundles)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	logger.Info("run saved", "run_id", runID, "dir", filepath.Join(st.Dir(), runID))

	fmt.Printf("\nrun id: %s\n\n", runID)
	return printMetrics(bundles)
}

// runQuiet runs exp and logs each condition as it completes.
func runQuiet(cmd *cobra.Command, exp *experiment.Experiment) ([]*storage.Bundle, error) {
	progress := make(chan experiment.Progress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if !p.Done {
				continue
			}
			if p.Err != nil {
				logger.Warn("condition failed", "condition", p.Condition.Label, "err", p.Err)
				continue
			}
			logger.Info("condition done", "condition", p.Condition.Label)
		}
	}()

	bundles, err := exp.Run(cmd.Context(), progress)
	close(progress)
	<-done
	return bundles, err
}

func printMetrics(bundles []*storage.Bundle) error {
	if len(bundles) == 0 {
		return nil
	}
	names := rateKeys(bundles[0].Metrics)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "CONDITION")
	for _, n := range names {
		fmt.Fprintf(w, "\t%s", strings.ToUpper(n))
	}
	fmt.Fprintln(w)
	for _, b := range bundles {
		fmt.Fprint(w, b.Condition.Label)
		for _, n := range names {
			fmt.Fprintf(w, "\t%.2f", b.Metrics[n])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func dumpSettings(cmd *cobra.Command, args []string) error {
	s := config.GetPreset(args[0])
	if s == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}
