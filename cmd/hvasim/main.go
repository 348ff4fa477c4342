package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/logging"
	"github.com/san-kum/hvasim/internal/storage"
)

var (
	dataDir  string
	logLevel string
	logger   = logging.Discard()
	env      config.Env

	// run
	settingsFile string
	description  string
	workers      int
	seed         int64
	dt           float64
	integrator   string
	live         bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hvasim",
		Short:         "spiking network simulations of higher visual areas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			env = config.LoadEnv()
			if !cmd.Flags().Changed("data") {
				dataDir = env.DataDir
			}
			if !cmd.Flags().Changed("log-level") {
				logLevel = env.LogLevel
			}
			logger = logging.NewLogger(logLevel, os.Stderr)
			slog.SetDefault(logger)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory (env "+config.EnvDataDir+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "simulate every condition of a settings bundle and save the results",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&settingsFile, "settings", "", "settings file (yaml), overrides the preset")
	runCmd.Flags().StringVar(&description, "description", "", "free text stored with the run")
	runCmd.Flags().IntVar(&workers, "workers", 0, "conditions simulated at once (env "+config.EnvWorkers+")")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "base random seed")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	runCmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator: euler, rk4")
	runCmd.Flags().BoolVar(&live, "live", false, "show a live progress view")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run details and metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in settings bundles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("available presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "inspect settings bundles",
	}
	settingsCmd.AddCommand(&cobra.Command{
		Use:   "dump [preset]",
		Short: "print a preset as yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  dumpSettings,
	})

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a monitor across conditions",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().String("monitor", "v", "monitor: v, ge_total, gi_total, spikes")
	plotCmd.Flags().String("type", "overlay", "layout: overlay, grid")
	plotCmd.Flags().String("svg", "", "write the figure to an svg file")
	plotCmd.Flags().Float64("bin", 0.025, "psth bin size in seconds")
	plotCmd.Flags().Int("width", 80, "chart width")
	plotCmd.Flags().Int("height", 10, "chart height")

	rasterCmd := &cobra.Command{
		Use:   "raster [run_id] [condition] [group]",
		Short: "spike raster of one group",
		Args:  cobra.ExactArgs(3),
		RunE:  rasterRun,
	}
	rasterCmd.Flags().String("svg", "", "write the raster to an svg file")
	rasterCmd.Flags().Int("width", 80, "raster width in cells")
	rasterCmd.Flags().Int("height", 20, "maximum raster height in cells")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency response of every group",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64("bin", 0.005, "psth bin size in seconds")
	analyzeCmd.Flags().String("svg", "", "write the response figure to an svg file")
	analyzeCmd.Flags().Int("width", 60, "chart width")
	analyzeCmd.Flags().Int("height", 10, "chart height")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [condition] [monitor]",
		Short: "export one monitor as csv",
		Args:  cobra.ExactArgs(3),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().Bool("psth", false, "export the psth of a spike monitor instead of its events")
	exportCSVCmd.Flags().Float64("bin", 0.025, "psth bin size in seconds")
	exportCSVCmd.Flags().StringP("output", "o", "", "output file (default stdout)")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  batchRun,
	}
	batchCmd.Flags().Int("workers", 0, "conditions simulated at once (env "+config.EnvWorkers+")")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run one settings bundle across values of a parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepRun,
	}
	sweepCmd.Flags().String("settings", "", "settings file (yaml), overrides the preset")
	sweepCmd.Flags().String("param", "", "parameter path, e.g. synapses.afferents->MED_PY.w_e")
	sweepCmd.Flags().Float64("min", 0, "first value")
	sweepCmd.Flags().Float64("max", 1, "last value")
	sweepCmd.Flags().Int("steps", 5, "number of values")
	sweepCmd.Flags().Int("workers", 0, "conditions simulated at once (env "+config.EnvWorkers+")")
	sweepCmd.Flags().Bool("no-save", false, "print the rates without saving runs")
	sweepCmd.MarkFlagRequired("param")

	trialsCmd := &cobra.Command{
		Use:   "trials [preset]",
		Short: "repeat a settings bundle under different seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  trialsRun,
	}
	trialsCmd.Flags().String("settings", "", "settings file (yaml), overrides the preset")
	trialsCmd.Flags().Int("trials", 10, "number of trials")
	trialsCmd.Flags().Int("workers", 0, "conditions simulated at once (env "+config.EnvWorkers+")")
	trialsCmd.Flags().Bool("save", false, "save every trial as a run")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, deleteCmd, presetsCmd, settingsCmd,
		plotCmd, rasterCmd, analyzeCmd, exportCSVCmd, batchCmd, sweepCmd, trialsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func openStore(ctx context.Context) (*storage.Store, error) {
	st, err := storage.Open(ctx, dataDir)
	if err != nil {
		return nil, fmt.Errorf("open data directory %s: %w", dataDir, err)
	}
	return st, nil
}
