package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sereven/lmfit/internal/config"
	"github.com/sereven/lmfit/internal/display"
	"github.com/sereven/lmfit/internal/export"
	"github.com/sereven/lmfit/internal/linsolve"
	"github.com/sereven/lmfit/internal/lm"
	"github.com/sereven/lmfit/internal/problems"
	"github.com/sereven/lmfit/internal/storage"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	solver     string
	xtol       float64
	ftol       float64
	grtol      float64
	iterations int
	initDelta  float64
	showTrace  bool
	showEvery  int
	noSave     bool
	start      string
	configFile string
	preset     string
	outFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lmfit",
		Short: "trust-region least-squares fitting lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".lmfit", "data directory")

	fitCmd := &cobra.Command{
		Use:   "fit [problem]",
		Short: "run a fit",
		Args:  cobra.ExactArgs(1),
		RunE:  runFit,
	}
	fitCmd.Flags().StringVar(&solver, "solver", "cholesky", "damped linear solver")
	fitCmd.Flags().Float64Var(&xtol, "xtol", config.DefaultXTol, "step-size tolerance")
	fitCmd.Flags().Float64Var(&ftol, "ftol", config.DefaultFTol, "residual-decrease tolerance")
	fitCmd.Flags().Float64Var(&grtol, "grtol", config.DefaultGrTol, "gradient tolerance")
	fitCmd.Flags().IntVar(&iterations, "iters", config.DefaultIterations, "iteration cap")
	fitCmd.Flags().Float64Var(&initDelta, "delta", config.DefaultInitDelta, "initial trust radius")
	fitCmd.Flags().BoolVar(&showTrace, "trace", false, "print per-iteration trace")
	fitCmd.Flags().IntVar(&showEvery, "every", 1, "trace-emission stride")
	fitCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")
	fitCmd.Flags().StringVar(&start, "x0", "", "initial guess, comma-separated")
	fitCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	fitCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show convergence of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "export convergence chart as PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&outFile, "out", "", "output path (default <run_id>.png)")

	exportCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [problem] [solver1] [solver2] ...",
		Short: "compare solver backends on the same problem",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareSolvers,
	}
	compareCmd.Flags().IntVar(&iterations, "iters", config.DefaultIterations, "iteration cap")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list built-in problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := problems.NewRegistry()
			for _, name := range registry.List() {
				fmt.Println(name)
			}
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [problem]",
		Short: "fit with live convergence replay",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&solver, "solver", "cholesky", "damped linear solver")
	liveCmd.Flags().IntVar(&iterations, "iters", config.DefaultIterations, "iteration cap")

	rootCmd.AddCommand(fitCmd, listCmd, showCmd, plotCmd, exportCmd, compareCmd, problemsCmd, presetsCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildSettings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	// CLI flags override preset and config file.
	if cmd.Flags().Changed("solver") || cfg.Solver == "" {
		cfg.Solver = solver
	}
	if cmd.Flags().Changed("xtol") {
		cfg.XTol = xtol
	}
	if cmd.Flags().Changed("ftol") {
		cfg.FTol = ftol
	}
	if cmd.Flags().Changed("grtol") {
		cfg.GrTol = grtol
	}
	if cmd.Flags().Changed("iters") {
		cfg.Iterations = iterations
	}
	if cmd.Flags().Changed("delta") {
		cfg.InitDelta = initDelta
	}
	if cmd.Flags().Changed("trace") {
		cfg.ShowTrace = showTrace
	}
	if cmd.Flags().Changed("every") {
		cfg.ShowEvery = showEvery
	}
	cfg.StoreTrace = true

	return cfg, nil
}

func settingsFromConfig(cfg *config.Config) lm.Settings {
	return lm.Settings{
		XTol:       cfg.XTol,
		FTol:       cfg.FTol,
		GrTol:      cfg.GrTol,
		Iterations: cfg.Iterations,
		InitDelta:  cfg.InitDelta,
		StoreTrace: cfg.StoreTrace,
		ShowTrace:  cfg.ShowTrace,
		ShowEvery:  cfg.ShowEvery,
	}
}

func parseStart(s string, fallback []float64) ([]float64, error) {
	if s == "" {
		return fallback, nil
	}
	parts := strings.Split(s, ",")
	x0 := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad x0 element %q: %w", p, err)
		}
		x0[i] = v
	}
	return x0, nil
}

func runFit(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := buildSettings(cmd)
	if err != nil {
		return err
	}

	registry := problems.NewRegistry()
	prob, err := registry.Get(name)
	if err != nil {
		return err
	}

	backend, err := linsolve.New(cfg.Solver)
	if err != nil {
		return err
	}

	x0, err := parseStart(start, prob.Start())
	if err != nil {
		return err
	}

	fitter := lm.New(prob, backend, settingsFromConfig(cfg))

	began := time.Now()
	res, err := fitter.Fit(context.Background(), x0)
	if err != nil {
		return err
	}
	elapsed := time.Since(began)

	fmt.Print(display.Summary(name, res))
	fmt.Printf("\ncompleted in %v\n", elapsed)

	if chart := display.Convergence(res.Trace, 80, 10); chart != "" {
		fmt.Println(chart)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(name, res)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	return nil
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
	fmt.Fprintln(w, "ID\tPROBLEM\tMETHOD\tTIME\tITER\tSSR\tCONVERGED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.3e\t%v\n",
			run.ID,
			run.Problem,
			run.Method,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Iter,
			run.SSR,
			run.Converged,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n", meta.Problem)
	fmt.Printf("method: %s\n", meta.Method)
	fmt.Printf("iterations: %d  ssr: %.6e  converged: %v\n\n", meta.Iter, meta.SSR, meta.Converged)

	if len(trace) < 2 {
		return fmt.Errorf("no trace to plot")
	}

	fmt.Println(display.Convergence(trace, 80, 12))
	fmt.Println()
	fmt.Println(display.GradientCurve(trace, 80, 12))

	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(trace) < 2 {
		return fmt.Errorf("no trace to plot")
	}

	out := outFile
	if out == "" {
		out = runID + ".png"
	}

	title := fmt.Sprintf("%s (%s)", meta.Problem, meta.Method)
	if err := export.ConvergencePNG(title, trace, out); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", out)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func compareSolvers(cmd *cobra.Command, args []string) error {
	name := args[0]
	backends := args[1:]

	registry := problems.NewRegistry()

	fmt.Printf("comparing solvers for %s\n\n", name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tITER\tSSR\tCONVERGED\tF_CALLS\tG_CALLS\tTIME")

	for _, backendName := range backends {
		prob, err := registry.Get(name)
		if err != nil {
			return err
		}

		backend, err := linsolve.New(backendName)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", backendName, err)
			continue
		}

		settings := lm.DefaultSettings()
		if cmd.Flags().Changed("iters") {
			settings.Iterations = iterations
		}

		fitter := lm.New(prob, backend, settings)

		began := time.Now()
		res, err := fitter.Fit(context.Background(), prob.Start())
		elapsed := time.Since(began)

		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", backendName, err)
			continue
		}

		fmt.Fprintf(w, "%s\t%d\t%.3e\t%v\t%d\t%d\t%v\n",
			backendName, res.Iter, res.SSR, res.Converged, res.FCalls, res.GCalls, elapsed)
	}

	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	name := args[0]

	registry := problems.NewRegistry()
	prob, err := registry.Get(name)
	if err != nil {
		return err
	}

	backend, err := linsolve.New(solver)
	if err != nil {
		return err
	}

	settings := lm.DefaultSettings()
	settings.StoreTrace = true
	if cmd.Flags().Changed("iters") {
		settings.Iterations = iterations
	}

	fitter := lm.New(prob, backend, settings)
	res, err := fitter.Fit(context.Background(), prob.Start())
	if err != nil {
		return err
	}

	m := display.NewLiveModel(name, res)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
