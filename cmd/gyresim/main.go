package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/san-kum/gyresim/internal/batch"
	"github.com/san-kum/gyresim/internal/config"
	"github.com/san-kum/gyresim/internal/flow"
	"github.com/san-kum/gyresim/internal/sim"
	"github.com/san-kum/gyresim/internal/storage"
	"github.com/san-kum/gyresim/internal/swimmer"
	"github.com/san-kum/gyresim/internal/viz"
)

var (
	dataDir     string
	family      string
	gamma       float64
	coreRadius  float64
	amplitude   float64
	spacing     float64
	mu          float64
	centerX     float64
	centerY     float64
	noiseX      float64
	noiseY      float64
	orientation string
	direction   string
	dt          float64
	duration    float64
	mobileX     float64
	mobileY     float64
	targetX     float64
	targetY     float64
	seed        int64
	iterations  int
	workers     int
	showPlot    bool
	saveRuns    bool
	// Config file
	configFile string
	// Preset name
	preset string
	// Live view speed
	stepsPerFrame int
	// Field sampling
	span     float64
	gridStep float64
	// Sweep radii
	radiiSpec string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gyresim",
		Short: "phase-locking agents in gyre and vortex flows",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gyresim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one simulation",
		RunE:  runSimulation,
	}
	addProblemFlags(runCmd)
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot error traces after the run")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "run many randomized simulations on a worker pool",
		RunE:  runBatch,
	}
	addProblemFlags(batchCmd)
	batchCmd.Flags().IntVar(&iterations, "iterations", 50, "number of runs")
	batchCmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (0 = one per cpu)")
	batchCmd.Flags().BoolVar(&saveRuns, "save", false, "store every completed run")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep orbit radii with circulation scaled to each radius",
		RunE:  runSweep,
	}
	addProblemFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&radiiSpec, "radii", "8,16,32", "comma-separated orbit radii")
	sweepCmd.Flags().IntVar(&iterations, "iterations", 50, "runs per radius")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (0 = one per cpu)")

	fieldCmd := &cobra.Command{
		Use:   "field",
		Short: "sample the flow field to CSV on stdout",
		RunE:  sampleField,
	}
	addProblemFlags(fieldCmd)
	fieldCmd.Flags().Float64Var(&span, "span", 2.0, "half-width of the sampled square")
	fieldCmd.Flags().Float64Var(&gridStep, "step", 0.1, "grid spacing")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run's error traces",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live terminal visualization",
		RunE:  runLive,
	}
	addProblemFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerFrame, "speed", 10, "simulation steps per frame")

	presetsCmd := &cobra.Command{
		Use:   "presets [family]",
		Short: "list available presets for a flow family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for family: %s\n", args[0])
				return nil
			}
			sort.Strings(presets)
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, batchCmd, sweepCmd, fieldCmd, listCmd, plotCmd, exportCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addProblemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&family, "family", "rankine_vortex", "flow family")
	cmd.Flags().Float64Var(&gamma, "gamma", config.DefaultGamma, "circulation")
	cmd.Flags().Float64Var(&coreRadius, "core-radius", config.DefaultCore, "vortex core radius")
	cmd.Flags().Float64Var(&amplitude, "amplitude", 0.1, "gyre stream function amplitude")
	cmd.Flags().Float64Var(&spacing, "spacing", 1.0, "gyre cell spacing")
	cmd.Flags().Float64Var(&mu, "mu", 0.0, "radial drift coefficient")
	cmd.Flags().Float64Var(&centerX, "center-x", 0.0, "flow center x")
	cmd.Flags().Float64Var(&centerY, "center-y", 0.0, "flow center y")
	cmd.Flags().Float64Var(&noiseX, "noise-x", 0.0, "constant velocity bias x")
	cmd.Flags().Float64Var(&noiseY, "noise-y", 0.0, "constant velocity bias y")
	cmd.Flags().StringVar(&orientation, "orientation", "ccw", "flow orientation (cw|ccw)")
	cmd.Flags().StringVar(&direction, "direction", "in", "approach direction (in|out)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&mobileX, "mobile-x", 1.0, "mobile start x")
	cmd.Flags().Float64Var(&mobileY, "mobile-y", 0.0, "mobile start y")
	cmd.Flags().Float64Var(&targetX, "target-x", -1.0, "target start x")
	cmd.Flags().Float64Var(&targetY, "target-y", 0.0, "target start y")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// buildConfig resolves preset, config file, and flags in that order; a
// flag set on the command line always wins.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(family, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(family))
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

	flagSets := []struct {
		name  string
		apply func()
	}{
		{"family", func() { cfg.Flow.Family = family }},
		{"gamma", func() { cfg.Flow.Gamma = gamma }},
		{"core-radius", func() { cfg.Flow.CoreRadius = coreRadius }},
		{"amplitude", func() { cfg.Flow.Amplitude = amplitude }},
		{"spacing", func() { cfg.Flow.Spacing = spacing }},
		{"mu", func() { cfg.Flow.Mu = mu }},
		{"center-x", func() { cfg.Flow.Center[0] = centerX }},
		{"center-y", func() { cfg.Flow.Center[1] = centerY }},
		{"noise-x", func() { cfg.Flow.Noise[0] = noiseX }},
		{"noise-y", func() { cfg.Flow.Noise[1] = noiseY }},
		{"orientation", func() { cfg.Orientation = orientation }},
		{"direction", func() { cfg.Direction = direction }},
		{"dt", func() { cfg.Dt = dt }},
		{"time", func() { cfg.Duration = duration }},
		{"mobile-x", func() { cfg.Mobile.X = mobileX }},
		{"mobile-y", func() { cfg.Mobile.Y = mobileY }},
		{"target-x", func() { cfg.Target.X = targetX }},
		{"target-y", func() { cfg.Target.Y = targetY }},
		{"seed", func() { cfg.Seed = seed }},
		{"iterations", func() { cfg.Iterations = iterations }},
		{"workers", func() { cfg.Workers = workers }},
	}
	for _, f := range flagSets {
		if cmd.Flags().Changed(f.name) {
			f.apply()
		}
	}

	// Presets and hand-written files may omit the batch section.
	def := config.DefaultConfig()
	if cfg.Iterations <= 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.Limits == (config.Limits{}) {
		cfg.Limits = def.Limits
	}
	return cfg, nil
}

func buildProblem(cfg *config.Config) (sim.Problem, error) {
	params, err := cfg.Params()
	if err != nil {
		return sim.Problem{}, err
	}
	return sim.Problem{
		Params:      params,
		MobileStart: cfg.MobilePose(),
		TargetStart: cfg.TargetPose(),
	}, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	prob, err := buildProblem(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", cfg.Flow.Family)
	start := time.Now()

	out, err := sim.Run(context.Background(), prob)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(prob.Params, out, 0, cfg.Seed)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", out.Steps)
	if out.Converged {
		fmt.Printf("converged at t=%.2fs\n", out.ConvergedAt)
	} else {
		fmt.Println("did not converge")
	}
	fmt.Println("\nmetrics:")
	for name, val := range out.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	if showPlot {
		radius, phase := viz.ErrorTraces(prob.Params.Flow.Center, out.Mobile.History(), out.Target.History())
		fmt.Println()
		fmt.Println(viz.RenderTraces(radius, phase, 80))
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	problems := make([]sim.Problem, 0, cfg.Iterations)
	for i := 0; i < cfg.Iterations; i++ {
		problems = append(problems, sim.Problem{
			Params:      params,
			MobileStart: randomPose(rng, cfg.Limits),
			TargetStart: randomPose(rng, cfg.Limits),
			ID:          uuid.New().String(),
		})
	}

	pool := batch.NewPool(cfg.Workers)
	fmt.Printf("running %d problems on %d workers...\n", len(problems), pool.Workers())
	start := time.Now()
	results := pool.Run(context.Background(), problems)
	fmt.Printf("completed in %v\n\n", time.Since(start))

	printOutcomes(problems, results)

	if saveRuns {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		saved := 0
		for _, prob := range problems {
			outcome := results[prob.ID]
			if outcome.Err != nil || outcome.Output == nil {
				continue
			}
			if _, err := st.Save(params, outcome.Output, prob.Radius, cfg.Seed); err != nil {
				return err
			}
			saved++
		}
		fmt.Printf("saved %d runs to %s\n", saved, dataDir)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Flow.Family != "rankine_vortex" && cfg.Flow.Family != "rankine" {
		return fmt.Errorf("sweep supports only the rankine_vortex family, got %s", cfg.Flow.Family)
	}

	radii, err := parseRadii(radiiSpec)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	pool := batch.NewPool(cfg.Workers)
	center := flow.Vec2{X: cfg.Flow.Center[0], Y: cfg.Flow.Center[1]}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RADIUS\tGAMMA\tRUNS\tCONVERGED\tMEAN T\tMEAN COST")

	for _, r := range radii {
		// Circulation scales with the orbit radius so the tangential
		// speed at the orbit stays comparable across the sweep.
		sweepCfg := *cfg
		sweepCfg.Flow.Gamma = 0.18 * 2 * math.Pi * r
		params, err := sweepCfg.Params()
		if err != nil {
			return err
		}

		problems := make([]sim.Problem, 0, cfg.Iterations)
		for i := 0; i < cfg.Iterations; i++ {
			problems = append(problems, sim.Problem{
				Params:      params,
				MobileStart: poseNearRadius(rng, center, r),
				TargetStart: poseNearRadius(rng, center, r),
				ID:          uuid.New().String(),
				Radius:      r,
			})
		}

		results := pool.Run(context.Background(), problems)

		converged, meanT, meanCost := summarize(results)
		fmt.Fprintf(w, "%.1f\t%.3f\t%d\t%d\t%.2fs\t%.4f\n",
			r, sweepCfg.Flow.Gamma, len(problems), converged, meanT, meanCost)
	}
	return w.Flush()
}

func sampleField(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	spec, err := cfg.FlowSpec()
	if err != nil {
		return err
	}
	field, err := flow.New(spec)
	if err != nil {
		return err
	}

	bounds := flow.Rect{
		XMin: spec.Center.X - span, XMax: spec.Center.X + span,
		YMin: spec.Center.Y - span, YMax: spec.Center.Y + span,
	}
	samples, err := field.SampleGrid(bounds, gridStep)
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	if err := w.Write([]string{"x", "y", "u", "v"}); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			strconv.FormatFloat(s.Pos.X, 'f', 6, 64),
			strconv.FormatFloat(s.Pos.Y, 'f', 6, 64),
			strconv.FormatFloat(s.Vel.X, 'f', 6, 64),
			strconv.FormatFloat(s.Vel.Y, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
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
	fmt.Fprintln(w, "ID\tFAMILY\tTIME\tDURATION\tDT\tCONV\tCONVERGED AT")
	for _, run := range runs {
		convergedAt := "-"
		if run.Converged {
			convergedAt = fmt.Sprintf("%.2fs", run.ConvergedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%t\t%s\n",
			run.ID,
			run.Family,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Converged,
			convergedAt,
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
	mobile, err := st.LoadTrajectory(runID, "mobile")
	if err != nil {
		return err
	}
	target, err := st.LoadTrajectory(runID, "target")
	if err != nil {
		return err
	}
	if len(mobile) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("family: %s\n", meta.Family)
	fmt.Printf("samples: %d\n\n", len(mobile))

	center := flow.Vec2{X: meta.Center[0], Y: meta.Center[1]}
	radius, phase := viz.ErrorTraces(center, mobile, target)
	fmt.Println(viz.RenderTraces(radius, phase, 80))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	prob, err := buildProblem(cfg)
	if err != nil {
		return err
	}
	return viz.RunLive(prob, stepsPerFrame)
}

func randomPose(rng *rand.Rand, limits config.Limits) swimmer.Pose {
	return swimmer.Pose{
		X: limits.XMin + rng.Float64()*(limits.XMax-limits.XMin),
		Y: limits.YMin + rng.Float64()*(limits.YMax-limits.YMin),
	}
}

// poseNearRadius spawns an agent at a random phase on an orbit jittered
// around the nominal radius.
func poseNearRadius(rng *rand.Rand, center flow.Vec2, radius float64) swimmer.Pose {
	r := radius + (rng.Float64()-0.5)*0.4
	a := rng.Float64() * 2 * math.Pi
	return swimmer.Pose{
		X: center.X + r*math.Cos(a),
		Y: center.Y + r*math.Sin(a),
	}
}

func parseRadii(spec string) ([]float64, error) {
	parts := strings.Split(spec, ",")
	radii := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad radius %q: %w", p, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("radius must be positive, got %g", v)
		}
		radii = append(radii, v)
	}
	return radii, nil
}

func printOutcomes(problems []sim.Problem, results batch.Results) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONV\tCONVERGED AT\tCOST\tSTEPS")
	for _, prob := range problems {
		outcome := results[prob.ID]
		if outcome.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\t\n", shortID(prob.ID), outcome.Err)
			continue
		}
		out := outcome.Output
		convergedAt := "-"
		if out.Converged {
			convergedAt = fmt.Sprintf("%.2fs", out.ConvergedAt)
		}
		fmt.Fprintf(w, "%s\t%t\t%s\t%.4f\t%d\n",
			shortID(out.ID), out.Converged, convergedAt, out.ControlCost, out.Steps)
	}
	w.Flush()

	converged, meanT, meanCost := summarize(results)
	fmt.Printf("\nconverged: %d/%d", converged, len(problems))
	if converged > 0 {
		fmt.Printf("  mean time: %.2fs  mean cost: %.4f", meanT, meanCost)
	}
	fmt.Println()
}

// summarize reduces outcomes to the converged count and the mean
// convergence time and control cost over converged runs.
func summarize(results batch.Results) (converged int, meanT, meanCost float64) {
	for _, outcome := range results {
		if outcome.Err != nil || outcome.Output == nil || !outcome.Output.Converged {
			continue
		}
		converged++
		meanT += outcome.Output.ConvergedAt
		meanCost += outcome.Output.ControlCost
	}
	if converged > 0 {
		meanT /= float64(converged)
		meanCost /= float64(converged)
	}
	return converged, meanT, meanCost
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
