package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/hvasim/internal/config"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tCONDS\tSPIKES\tSIM\tDT\tINTEG\tDESCRIPTION")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2fs\t%gs\t%s\t%s\n",
			run.ID,
			run.Name,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.Conditions,
			run.Spikes,
			run.SimTime,
			run.Dt,
			run.Integrator,
			run.Description,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	bundles, err := st.LoadBundles(meta.ID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("time: %s\n", meta.Timestamp.Local().Format("2006-01-02 15:04:05"))
	if meta.Description != "" {
		fmt.Printf("description: %s\n", meta.Description)
	}
	fmt.Printf("dt: %g  integrator: %s  sim time: %gs  seed: %d\n\n", meta.Dt, meta.Integrator, meta.SimTime, meta.Seed)

	if s := meta.Settings; s != nil {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "GROUP\tN\tTAU_M\tTHRESH\tMONITORS")
		for _, g := range s.GroupNames() {
			p := s.Neurons[g]
			fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%s\n", g, p.N, p.TauM, p.Thresh, s.Monitors[g])
		}
		fmt.Fprintf(w, "%s\t%d\t\t\t%s\n", config.Afferents, s.Afferents.N, s.Monitors[config.Afferents])
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONDITION\tKIND\tRATE\tSEED\tMETRIC\tVALUE")
	for _, b := range bundles {
		keys := make([]string, 0, len(b.Metrics))
		for k := range b.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i == 0 {
				fmt.Fprintf(w, "%s\t%s\t%g\t%d\t%s\t%.4g\n", b.Condition.Label, b.Condition.Kind, b.Condition.Rate, b.Seed, k, b.Metrics[k])
				continue
			}
			fmt.Fprintf(w, "\t\t\t\t%s\t%.4g\n", k, b.Metrics[k])
		}
	}
	return w.Flush()
}

func deleteRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
