package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/avolkov/looplab/internal/config"
	"github.com/avolkov/looplab/internal/control"
	"github.com/avolkov/looplab/internal/loop"
	"github.com/avolkov/looplab/internal/scenario"
	"github.com/avolkov/looplab/internal/storage"
	"github.com/avolkov/looplab/internal/tui"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string

	dt          float64
	duration    float64
	speed       float64
	steady      float64
	seed        int64
	kp          float64
	ki          float64
	kd          float64
	algorithm   string
	gain        float64
	tau         float64
	deadTime    float64
	disturbance float64
	stepAt      float64
	stepTo      float64
	frameRate   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "looplab",
		Short: "closed-loop PID control simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the live view when no command is given.
			return runLive(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".looplab", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	addScenarioFlags(rootCmd)
	rootCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario and save the trend",
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a saved run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "run one scenario under all three algorithms",
		RunE:  compareAlgorithms,
	}
	addScenarioFlags(compareCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive live trend view",
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, compareCmd, presetsCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "default", "preset configuration")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "tick duration")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "speed multiplier")
	cmd.Flags().Float64Var(&steady, "steady", config.DefaultSteady, "steady operating point")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "disturbance seed")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "integral gain")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "derivative gain")
	cmd.Flags().StringVar(&algorithm, "algorithm", "basic", "pid algorithm (basic, pi-d, i-pd)")
	cmd.Flags().Float64Var(&gain, "gain", config.DefaultGain, "process gain")
	cmd.Flags().Float64Var(&tau, "tau", config.DefaultTau, "process time constant")
	cmd.Flags().Float64Var(&deadTime, "dead-time", 0, "process dead time")
	cmd.Flags().Float64Var(&disturbance, "disturbance", 0, "disturbance factor (0-100)")
	cmd.Flags().Float64Var(&stepAt, "step-at", 5.0, "setpoint step time")
	cmd.Flags().Float64Var(&stepTo, "step-to", 70.0, "setpoint step target")
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

// buildConfig resolves preset, config file, and CLI flag overrides, in that
// order of increasing precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	resolved := *cfg

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		resolved = *loaded
	}

	if cmd.Flags().Changed("dt") {
		resolved.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		resolved.Duration = duration
	}
	if cmd.Flags().Changed("speed") {
		resolved.Speed = speed
	}
	if cmd.Flags().Changed("steady") {
		resolved.Steady = steady
	}
	if cmd.Flags().Changed("seed") {
		resolved.Seed = seed
	}
	if cmd.Flags().Changed("kp") {
		resolved.Controller.Kp = kp
	}
	if cmd.Flags().Changed("ki") {
		resolved.Controller.Ki = ki
	}
	if cmd.Flags().Changed("kd") {
		resolved.Controller.Kd = kd
	}
	if cmd.Flags().Changed("algorithm") {
		resolved.Controller.Algorithm = algorithm
	}
	if cmd.Flags().Changed("gain") {
		resolved.Process.Gain = gain
	}
	if cmd.Flags().Changed("tau") {
		resolved.Process.TimeConstant = tau
	}
	if cmd.Flags().Changed("dead-time") {
		resolved.Process.DeadTime = deadTime
	}
	if cmd.Flags().Changed("disturbance") {
		resolved.Process.Disturbance = disturbance
	}
	if cmd.Flags().Changed("step-at") || cmd.Flags().Changed("step-to") {
		resolved.Steps = []config.StepConfig{{At: stepAt, Setpoint: stepTo}}
	}

	return &resolved, nil
}

func scenarioConfig(cmd *cobra.Command, name string) (scenario.Config, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return scenario.Config{}, err
	}

	loopCfg, err := cfg.LoopConfig()
	if err != nil {
		return scenario.Config{}, err
	}

	steps := make([]scenario.Step, 0, len(cfg.Steps))
	for _, s := range cfg.Steps {
		steps = append(steps, scenario.Step{At: s.At, Setpoint: s.Setpoint})
	}

	return scenario.Config{
		Name:     name,
		Loop:     loopCfg,
		Duration: cfg.Duration,
		Steps:    steps,
	}, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scnCfg, err := scenarioConfig(cmd, preset)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	scn, err := scenario.New(scnCfg, newLogger())
	if err != nil {
		return err
	}

	fmt.Printf("running %s scenario...\n", scnCfg.Name)
	start := time.Now()

	result, err := scn.Run(context.Background())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(scnCfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.Times))
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)

	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tALGO\tDT\tDURATION\tKP\tKI\tKD\tTAU\tTD")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3fs\t%.1fs\t%.2f\t%.3f\t%.3f\t%.1f\t%.1f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Algorithm,
			run.Dt,
			run.Duration,
			run.Kp,
			run.Ki,
			run.Kd,
			run.Tau,
			run.DeadTime,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	trend, err := st.LoadTrend(runID)
	if err != nil {
		return err
	}

	if len(trend.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("algorithm: %s\n", meta.Algorithm)
	fmt.Printf("samples: %d\n\n", len(trend.Times))

	graph := asciigraph.PlotMany(
		[][]float64{trend.Setpoints, trend.PVs},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("SP / PV vs time"),
	)
	fmt.Println(graph)
	fmt.Println()

	graph = asciigraph.Plot(trend.MVs,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("MV vs time"),
	)
	fmt.Println(graph)

	fmt.Println("\nmetrics:")
	printMetrics(meta.Metrics)

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	trend, err := st.LoadTrend(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, meta, trend)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	trend, err := st.LoadTrend(runID)
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"time", "sp", "pv", "mv"}); err != nil {
		return err
	}

	for i := range trend.Times {
		row := []string{
			strconv.FormatFloat(trend.Times[i], 'f', 6, 64),
			strconv.FormatFloat(trend.Setpoints[i], 'f', 6, 64),
			strconv.FormatFloat(trend.PVs[i], 'f', 6, 64),
			strconv.FormatFloat(trend.MVs[i], 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func compareAlgorithms(cmd *cobra.Command, args []string) error {
	scnCfg, err := scenarioConfig(cmd, preset)
	if err != nil {
		return err
	}

	fmt.Printf("comparing algorithms (dt=%.3f, duration=%.1fs)\n\n", scnCfg.Loop.Dt, scnCfg.Duration)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALGO\tIAE\tISE\tOVERSHOOT%\tSETTLING\tEFFORT")

	for _, algo := range control.Algorithms() {
		cfg := scnCfg
		cfg.Loop.Algorithm = algo

		scn, err := scenario.New(cfg, newLogger())
		if err != nil {
			return err
		}

		result, err := scn.Run(context.Background())
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.2f\t%.2fs\t%.4f\n",
			algo,
			result.Metrics["iae"],
			result.Metrics["ise"],
			result.Metrics["overshoot_pct"],
			result.Metrics["settling_time"],
			result.Metrics["control_effort"],
		)
	}

	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	loopCfg, err := cfg.LoopConfig()
	if err != nil {
		return err
	}

	lp, err := loop.New(loopCfg, newLogger())
	if err != nil {
		return err
	}

	// Render at the frame rate, stepping enough ticks per frame to track
	// real time at the configured speed.
	fps := frameRate
	if fps <= 0 {
		fps = 30
	}
	stepsPerFrame := int(loopCfg.Speed / (loopCfg.Dt * float64(fps)))
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}

	p := tea.NewProgram(tui.NewModel(lp, fps, stepsPerFrame))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
