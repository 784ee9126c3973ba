package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/circsim/internal/automation"
	"github.com/san-kum/circsim/internal/config"
	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/export"
	"github.com/san-kum/circsim/internal/metrics"
	"github.com/san-kum/circsim/internal/sim"
	"github.com/san-kum/circsim/internal/storage"
	"github.com/san-kum/circsim/internal/viz"
	"github.com/san-kum/circsim/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	verbose    bool
	dt         float64
	steps      int
	metricList []string
	// Live view
	tickMS    int
	theme     string
	watchFile bool
	// analyze
	showMatrix bool
	// sweep and tolerance
	elementIdx int
	param      string
	paramMin   float64
	paramMax   float64
	points     int
	workers    int
	probeName  string
	tolerance  float64
	trials     int
	seed       int64
	// Output file
	outFile string
)

// main registers the circsim commands and runs the root command. With no
// subcommand the interactive preset picker starts.
func main() {
	rootCmd := &cobra.Command{
		Use:          "circsim",
		Short:        "linear circuit simulator",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return viz.RunInteractive(element.NewRegistry(), liveOptions(cfg))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	runCmd := &cobra.Command{
		Use:   "run [circuit]",
		Short: "run a circuit and store its probe traces",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCircuit,
	}
	runCmd.Flags().Float64Var(&dt, "dt", sim.DefaultTimeStep, "timestep")
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	runCmd.Flags().StringSliceVar(&metricList, "metrics", nil, "metrics to record ("+strings.Join(metrics.Names(), ", ")+")")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [circuit]",
		Short: "analyze a circuit and print its solved state",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeCircuit,
	}
	analyzeCmd.Flags().BoolVar(&showMatrix, "matrix", false, "print the MNA system")

	liveCmd := &cobra.Command{
		Use:   "live [circuit]",
		Short: "run a circuit with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&dt, "dt", sim.DefaultTimeStep, "timestep")
	liveCmd.Flags().IntVar(&tickMS, "tick", config.DefaultTickMS, "milliseconds per step")
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	liveCmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "reload the circuit file when it changes")

	watchCmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "re-analyze a circuit file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE:  watchCircuit,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [circuit]",
		Short: "sweep one element parameter and read a probe",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().IntVar(&elementIdx, "element", 0, "element index")
	sweepCmd.Flags().StringVar(&param, "param", element.ParamResistance, "parameter name")
	sweepCmd.Flags().Float64Var(&paramMin, "min", 100, "first value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 10000, "last value")
	sweepCmd.Flags().IntVar(&points, "points", 20, "number of points")
	sweepCmd.Flags().IntVar(&steps, "steps", 1, "steps per point")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel points (0 = GOMAXPROCS)")
	sweepCmd.Flags().StringVar(&probeName, "probe", "", "probe name (default: first probe)")

	toleranceCmd := &cobra.Command{
		Use:   "tolerance [circuit]",
		Short: "Monte Carlo over resistor tolerances",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTolerance,
	}
	toleranceCmd.Flags().Float64Var(&tolerance, "tolerance", 0.05, "relative resistor tolerance")
	toleranceCmd.Flags().IntVar(&trials, "trials", 200, "number of trials")
	toleranceCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	toleranceCmd.Flags().IntVar(&steps, "steps", 1, "steps per trial")
	toleranceCmd.Flags().StringVar(&probeName, "probe", "", "probe name (default: first probe)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run traces in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	imageCmd := &cobra.Command{
		Use:   "image [run_id]",
		Short: "render run traces to an image (png, svg, pdf)",
		Args:  cobra.ExactArgs(1),
		RunE:  imageRun,
	}
	imageCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.png)")

	schematicCmd := &cobra.Command{
		Use:   "schematic [circuit]",
		Short: "draw a circuit with its node voltages as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  drawSchematic,
	}
	schematicCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	dumpCmd := &cobra.Command{
		Use:   "dump [circuit]",
		Short: "print a circuit in the text dump format",
		Args:  cobra.MaximumNArgs(1),
		RunE:  dumpCircuit,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in circuits",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tELEMENTS\tPROBES")
			for _, name := range config.ListPresets() {
				c, err := config.GetPreset(name)
				if err != nil {
					return err
				}
				probes := make([]string, len(c.Probes))
				for i, p := range c.Probes {
					probes[i] = p.Name
				}
				fmt.Fprintf(w, "%s%s\t%d\t%s\n", config.PresetPrefix, name, len(c.Elements), strings.Join(probes, ", "))
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, analyzeCmd, liveCmd, watchCmd, scenarioCmd, sweepCmd, toleranceCmd,
		listCmd, plotCmd, imageCmd, schematicCmd, exportCmd, exportJSONCmd, dumpCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config when given and applies the flags the user set
// on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if flags.Lookup("dt") != nil && flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Lookup("steps") != nil && flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Lookup("metrics") != nil && flags.Changed("metrics") {
		cfg.Metrics = metricList
	}
	if flags.Lookup("tick") != nil && flags.Changed("tick") {
		cfg.TickMS = tickMS
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func liveOptions(cfg *config.Config) viz.Options {
	return viz.Options{
		Tick:   time.Duration(cfg.TickMS) * time.Millisecond,
		Theme:  theme,
		Logger: newLogger(),
	}
}

// loadCircuit resolves the circuit argument, falling back to the config.
// A circuit without its own timestep takes the configured one.
func loadCircuit(cfg *config.Config, args []string) (*config.Circuit, error) {
	ref := cfg.Circuit
	if len(args) > 0 {
		ref = args[0]
	}
	c, err := config.LoadCircuit(ref)
	if err != nil {
		return nil, err
	}
	if c.TimeStep <= 0 {
		c.TimeStep = cfg.Dt
	}
	return c, nil
}

// newSimulator builds c into an analyzed simulator. A singular circuit is
// returned along with its error so callers can still report on it.
func newSimulator(c *config.Circuit, reg *element.Registry) (*sim.Simulator, error) {
	elms, err := c.Build(reg)
	if err != nil {
		return nil, err
	}
	s := sim.New(sim.WithTimeStep(c.TimeStep), sim.WithLogger(newLogger()))
	return s, s.SetElements(elms)
}

func findProbe(c *config.Circuit, name string) (sim.Probe, error) {
	if len(c.Probes) == 0 {
		return sim.Probe{}, fmt.Errorf("circuit %q defines no probes", c.Name)
	}
	if name == "" {
		return c.Probes[0], nil
	}
	for _, p := range c.Probes {
		if p.Name == name {
			return p, nil
		}
	}
	return sim.Probe{}, fmt.Errorf("unknown probe %q", name)
}

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runCircuit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := loadCircuit(cfg, args)
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, err := newSimulator(c, element.NewRegistry())
	if err != nil {
		return err
	}
	for _, name := range cfg.Metrics {
		m, err := metrics.New(name)
		if err != nil {
			return err
		}
		s.AddMetric(m)
	}
	trace := sim.NewTrace(c.Probes...)
	s.AddObserver(trace)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s for %d steps...\n", c.Name, cfg.Steps)
	start := time.Now()
	result, err := s.Run(ctx, cfg.Steps)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(c.Name, s.TimeStep(), result, trace)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if len(result.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		for _, name := range cfg.Metrics {
			fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
		}
	}
	if len(c.Probes) > 0 {
		fmt.Println("\nprobes:")
		for i, p := range c.Probes {
			series := trace.Series(i)
			if len(series) > 0 {
				fmt.Printf("  %s: %.6g\n", p.Name, series[len(series)-1])
			}
		}
	}
	return nil
}

func analyzeCircuit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := loadCircuit(cfg, args)
	if err != nil {
		return err
	}

	s, err := newSimulator(c, element.NewRegistry())
	if s == nil {
		return err
	}
	topo := s.Topology()
	fmt.Printf("circuit: %s\n", c.Name)
	fmt.Printf("elements: %d\n", len(c.Elements))
	fmt.Printf("nodes: %d (including ground)\n", topo.NodeCount())
	fmt.Printf("voltage sources: %d\n", topo.VoltageSourceCount())
	fmt.Printf("matrix: %d×%d\n", topo.MatrixSize(), topo.MatrixSize())
	if err != nil {
		return err
	}

	if showMatrix {
		fmt.Println()
		if err := s.DumpMatrix(os.Stdout); err != nil {
			return err
		}
	}

	if err := s.Step(); err != nil {
		return err
	}
	fmt.Println()
	return printReadings(s)
}

func printReadings(s *sim.Simulator) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tVOLTAGE")
	for i, v := range s.NodeVoltages() {
		fmt.Fprintf(w, "%d\t%.6g V\n", i, v)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "#\tTYPE\tPOSTS\tVOLTAGES\tCURRENT")
	for _, r := range s.Snapshot() {
		posts := make([]string, len(r.Posts))
		volts := make([]string, len(r.Voltages))
		for i := range r.Posts {
			posts[i] = r.Posts[i].String()
			volts[i] = fmt.Sprintf("%.6g", r.Voltages[i])
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.6g A\n", r.Index, r.Type, strings.Join(posts, " "), strings.Join(volts, " "), r.Current)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := loadCircuit(cfg, args)
	if err != nil {
		return err
	}

	var reloads chan viz.ReloadMsg
	if watchFile {
		if len(args) == 0 || strings.HasPrefix(args[0], config.PresetPrefix) {
			return fmt.Errorf("--watch needs a circuit file")
		}
		w, err := watcher.New(args[0], watcher.WithLogger(newLogger()))
		if err != nil {
			return err
		}
		defer w.Close()

		reloads = make(chan viz.ReloadMsg)
		go func() {
			defer close(reloads)
			for r := range w.Reloads() {
				reloads <- viz.ReloadMsg{Circuit: r.Circuit, Err: r.Err}
			}
		}()
	}
	return viz.RunLive(c, element.NewRegistry(), liveOptions(cfg), reloads)
}

func watchCircuit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := loadCircuit(cfg, args)
	if err != nil {
		return err
	}

	reg := element.NewRegistry()
	s := sim.New(sim.WithTimeStep(c.TimeStep), sim.WithLogger(newLogger()))
	report := func(r watcher.Reload) {
		if err := watcher.Apply(s, reg, r); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		if err := s.Step(); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		if err := printReadings(s); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}

	w, err := watcher.New(args[0], watcher.WithLogger(newLogger()))
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Printf("watching %s (ctrl+c to stop)\n\n", w.Path())
	report(watcher.Reload{Circuit: c, Time: time.Now()})

	ctx, cancel := signalContext()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-w.Reloads():
			if !ok {
				return nil
			}
			fmt.Printf("\n[%s] reloaded\n", r.Time.Format("15:04:05"))
			report(r)
		case err, ok := <-w.Errors():
			if ok {
				fmt.Printf("watch error: %v\n", err)
			}
		}
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	res, err := automation.RunScenario(ctx, sc, element.NewRegistry(), os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("\ncompleted: %d steps, t=%g s\n\n", res.Simulator.Steps(), res.Simulator.Time())
	return printReadings(res.Simulator)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := loadCircuit(cfg, args)
	if err != nil {
		return err
	}
	probe, err := findProbe(c, probeName)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Circuit:  c,
		Element:  elementIdx,
		Param:    param,
		ParamMin: paramMin,
		ParamMax: paramMax,
		NumSteps: points,
		Steps:    steps,
		Dt:       c.TimeStep,
		Probe:    probe,
		Workers:  workers,
	}, element.NewRegistry())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(param), strings.ToUpper(probe.Name))
	values := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%.6g\terror: %v\n", r.ParamValue, r.Err)
			continue
		}
		fmt.Fprintf(w, "%.6g\t%.6g\n", r.ParamValue, r.Value)
		values = append(values, r.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(values) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(values,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("%s vs %s", probe.Name, param)),
		))
	}
	return nil
}

func runTolerance(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := loadCircuit(cfg, args)
	if err != nil {
		return err
	}
	probe, err := findProbe(c, probeName)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Circuit:   c,
		Tolerance: tolerance,
		NumTrials: trials,
		Steps:     steps,
		Dt:        c.TimeStep,
		Probe:     probe,
		Seed:      seed,
	}, element.NewRegistry())
	if err != nil {
		return err
	}

	minV, maxV, mean, solved := automation.MonteCarloStats(results)
	fmt.Printf("circuit: %s\n", c.Name)
	fmt.Printf("probe: %s\n", probe.Name)
	fmt.Printf("tolerance: ±%.1f%%\n", tolerance*100)
	fmt.Printf("trials: %d (%d solved)\n", len(results), solved)
	if solved == 0 {
		return nil
	}
	fmt.Printf("min: %.6g\n", minV)
	fmt.Printf("max: %.6g\n", maxV)
	fmt.Printf("mean: %.6g\n", mean)

	values := make([]float64, 0, solved)
	for _, r := range results {
		if r.Solved {
			values = append(values, r.Value)
		}
	}
	if len(values) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(values,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption(probe.Name+" per trial"),
		))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCIRCUIT\tTIME\tSTEPS\tDT\tPROBES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%gs\t%s\n",
			run.ID,
			run.Circuit,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			strings.Join(run.Probes, ", "),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(trace.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("circuit: %s\n", meta.Circuit)
	fmt.Printf("samples: %d\n\n", len(trace.Times))

	for i, p := range trace.Probes {
		graph := asciigraph.Plot(trace.Series(i),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s (%s)", p.Name, p.Kind)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func imageRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	path := outFile
	if path == "" {
		path = runID + ".png"
	}
	if err := export.SavePlot(path, trace, meta.Circuit); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s)\n", path, export.FormatOf(path))
	return nil
}

func drawSchematic(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := loadCircuit(cfg, args)
	if err != nil {
		return err
	}
	s, err := newSimulator(c, element.NewRegistry())
	if s == nil {
		return err
	}
	// Draw even a singular circuit, just without voltages.
	solved := err == nil && s.Step() == nil

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.SchematicSVG(out, s.Elements(), export.SchematicOptions{Voltages: solved})
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, trace)
}

func dumpCircuit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := loadCircuit(cfg, args)
	if err != nil {
		return err
	}
	return config.WriteDump(os.Stdout, c)
}
