package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/san-kum/modrob/internal/config"
	"github.com/san-kum/modrob/internal/dynamo"
	"github.com/san-kum/modrob/internal/experiment"
	"github.com/san-kum/modrob/internal/logging"
	"github.com/san-kum/modrob/internal/storage"
	"github.com/san-kum/modrob/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir    string
	configFile string
	preset     string
	debug      bool

	dt         float64
	duration   float64
	integrator string
	controller string
	exportPath string
	pngPath    string
	reachTol   float64

	logger *zap.SugaredLogger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "modrob",
		Short:         "open-chain robot kinematics, dynamics and control",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger("modrob", debug)
		},
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".modrob", "data directory")
	pf.StringVar(&configFile, "config", "", "arm config file (yaml)")
	pf.StringVar(&preset, "preset", "ur5", "arm preset used when no config file is given")
	pf.BoolVar(&debug, "debug", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate the configured arm and store the run",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&exportPath, "export", "", "also write the run as JSON to this file")
	runCmd.Flags().Float64Var(&reachTol, "tol", 0.01, "joint tolerance for reporting when the target is reached")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "simulate the configured arm with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot joint angles of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngPath, "png", "", "write the plot to an image file instead of the terminal")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&exportPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list arm presets and components",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write the selected preset as an editable config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, presetsCmd, initCmd)
	rootCmd.AddCommand(armCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "control period")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (default from config)")
	cmd.Flags().StringVar(&controller, "controller", "", "controller (default from config)")
}

// loadConfig resolves the config file or preset. Flags that were set on the
// command line override the loaded values.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.GetPreset(preset)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func simConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if integrator != "" {
		cfg.Integrator = integrator
	}
	if controller != "" {
		cfg.Controller = controller
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := simConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir, logger)
	if err := st.Init(); err != nil {
		return err
	}
	meta := exp.Metadata()
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	printMetrics(result.Metrics)
	if runErr := result.Err(); runErr != nil {
		fmt.Printf("\nstopped early: %v\n", runErr)
	} else {
		at, ok, err := exp.ReachTime(ctx, reachTol)
		switch {
		case err != nil:
			logger.Warnw("reach time unavailable", "error", err)
		case ok:
			fmt.Printf("\ntarget reached within %g rad at t=%.3fs\n", reachTol, at)
		default:
			fmt.Printf("\ntarget not reached within %g rad\n", reachTol)
		}
	}

	if exportPath != "" {
		meta.ID = runID
		if err := storage.ExportJSONFile(exportPath, meta, result); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", exportPath)
	}
	return nil
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, metrics[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := simConfig(cmd)
	if err != nil {
		return err
	}
	// keep log output from tearing the alt screen
	exp, err := experiment.New(cfg, experiment.NewRegistry(), zap.NewNop().Sugar())
	if err != nil {
		return err
	}
	m := viz.NewModel(cfg.Name, exp.Simulator(), exp.Arm(), cfg.InitialState(), cfg.SimConfig())
	return viz.Run(m)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, logger)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tARM\tTIME\tDURATION\tDT\tINTEG\tCTRL\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%d\n",
			run.ID,
			run.Arm,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Controller,
			run.StepsTaken,
		)
	}
	return w.Flush()
}

// loadRun rebuilds a result from the store. Torques are not reloaded.
func loadRun(runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	st := storage.New(dataDir, logger)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(states) == 0 {
		return nil, nil, errors.Errorf("run %s has no samples", runID)
	}
	return meta, &dynamo.Result{
		States:      states,
		Times:       times,
		Metrics:     meta.Metrics,
		EnergyDrift: meta.EnergyDrift,
		StepsTaken:  meta.StepsTaken,
	}, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	n := meta.Joints
	series := make([][]float64, n)
	for j := range series {
		series[j] = make([]float64, len(result.States))
		for i, x := range result.States {
			series[j][i] = x[j]
		}
	}

	if pngPath != "" {
		fig := viz.Figure{
			Title:  fmt.Sprintf("%s joint angles", meta.ID),
			YLabel: "θ (rad)",
			Times:  result.Times,
			Series: series,
		}
		if err := fig.SavePNG(pngPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngPath)
		return nil
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("arm: %s (%d joints)\n", meta.Arm, n)
	fmt.Printf("samples: %d\n\n", len(result.States))
	fmt.Println(viz.PlotMany(series, viz.PlotOptions{Width: 80, Height: 12, Caption: "joint angles (rad)"}))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if exportPath == "" {
		return storage.ExportJSON(os.Stdout, *meta, result)
	}
	if err := storage.ExportJSONFile(exportPath, *meta, result); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", exportPath)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	fmt.Println("presets:")
	for _, name := range config.ListPresets() {
		cfg, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		fmt.Printf("  %-8s %d joints, %s, %s\n", name, cfg.Joints(), cfg.Integrator, cfg.Controller)
	}
	fmt.Printf("integrators: %v\n", reg.ListIntegrators())
	fmt.Printf("controllers: %v\n", reg.ListControllers())
	return nil
}
