package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/iontrim/internal/automation"
	"github.com/san-kum/iontrim/internal/config"
	"github.com/san-kum/iontrim/internal/damage"
	"github.com/san-kum/iontrim/internal/experiment"
	"github.com/san-kum/iontrim/internal/export"
	"github.com/san-kum/iontrim/internal/sim"
	"github.com/san-kum/iontrim/internal/stats"
	"github.com/san-kum/iontrim/internal/storage"
	"github.com/san-kum/iontrim/internal/viz"
)

var log = config.NamedLogger("cli")

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	ions       int
	energy     float64
	workers    int
	seed       uint64
	record     int
	live       bool
	save       string
	material   string
	stopping   string
	scattering string

	energyMin float64
	energyMax float64
	steps     int
	logSpaced bool
	replicas  int

	bins    int
	svgPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "iontrim",
		Short: "Monte Carlo ion implantation in amorphous targets",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.SetLogLevel(logLevel)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".iontrim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run an ion ensemble",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&record, "record", 0, "record the paths of the first n ions")
	runCmd.Flags().BoolVar(&live, "live", false, "show a live progress view")
	runCmd.Flags().StringVar(&save, "save", "", "archive the run under this label")
	runCmd.Flags().StringVar(&material, "damage", "", "track displacement damage for target material (e.g. Si)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "mean range and straggle over an energy range",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&energyMin, "min", 10000, "lowest energy (eV)")
	sweepCmd.Flags().Float64Var(&energyMax, "max", 200000, "highest energy (eV)")
	sweepCmd.Flags().IntVar(&steps, "steps", 8, "number of energies")
	sweepCmd.Flags().BoolVar(&logSpaced, "log", false, "space energies logarithmically")

	replicasCmd := &cobra.Command{
		Use:   "replicas",
		Short: "repeat a run with consecutive seeds",
		Args:  cobra.NoArgs,
		RunE:  runReplicas,
	}
	addConfigFlags(replicasCmd)
	replicasCmd.Flags().IntVar(&replicas, "n", 5, "number of replicas")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of ensembles",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addConfigFlags(scenarioCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the depth profile and trajectories of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&bins, "bins", storage.DefaultBins, "depth histogram bins")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write trajectories as SVG")

	exportCmd := &cobra.Command{
		Use:   "export [run_id] [file]",
		Short: "export a saved run as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.New(dataDir).ExportRun(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("exported %s to %s\n", args[0], args[1])
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list projectile/target presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tENERGY\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%.0f keV\t%s\n", name, p.Energy/1000, p.Description)
			}
			return w.Flush()
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list stopping and scattering models",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			fmt.Printf("stopping:   %v\n", reg.ListStopping())
			fmt.Printf("scattering: %v\n", reg.ListScattering())
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, sweepCmd, replicasCmd, scenarioCmd, listCmd, plotCmd, exportCmd, presetsCmd, modelsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&ions, "ions", config.DefaultIons, "number of ions")
	cmd.Flags().Float64Var(&energy, "energy", config.DefaultEnergy, "initial energy (eV)")
	cmd.Flags().IntVar(&workers, "workers", 1, "parallel workers")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&stopping, "stopping", "lindhard", "stopping model")
	cmd.Flags().StringVar(&scattering, "scattering", "magic", "scattering model")
}

// loadConfig layers defaults, preset, config file and explicitly set flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("ions") {
		cfg.IonCount = ions
	}
	if flags.Changed("energy") {
		cfg.InitialEnergy = energy
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("stopping") {
		cfg.StoppingModel = stopping
	}
	if flags.Changed("scattering") {
		cfg.ScatteringModel = scattering
	}
	if flags.Lookup("record") != nil && flags.Changed("record") {
		cfg.RecordTrajectories = record > 0
		cfg.MaxRecorded = record
	}
	if flags.Lookup("damage") != nil && material != "" {
		dc, err := damage.ConfigFor(material)
		if err != nil {
			return nil, err
		}
		cfg.Damage = &dc
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var res *sim.Results
	if live {
		m := viz.NewProgressModel(func(progress func(done, total int)) (*sim.Results, error) {
			return exp.Run(ctx, progress)
		}, exp.Stop)
		if _, err := tea.NewProgram(m).Run(); err != nil {
			return err
		}
		if res, err = m.Result(); err != nil {
			return err
		}
	} else {
		log.Infof("running %d ions at %.1f keV", cfg.IonCount, cfg.InitialEnergy/1000)
		if res, err = exp.Run(ctx, nil); err != nil {
			return err
		}
	}

	fmt.Println(viz.RenderSummary(cfg, res))
	if res.Stopped > 0 {
		fmt.Println(viz.DepthProfile(stats.DepthHistogram(res.Depths(), storage.DefaultBins), 70, 10))
	}
	if cfg.Damage != nil && material != "" {
		y := damage.EstimateSputteringYield(cfg.InitialEnergy, cfg.ProjectileM, cfg.TargetM, damage.SurfaceBinding(material))
		fmt.Printf("estimated sputtering yield: %.3f atoms/ion\n", y)
	}

	if save != "" {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(save, cfg, res)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	sweep := &automation.EnergySweep{
		Base:      cfg,
		EnergyMin: energyMin,
		EnergyMax: energyMax,
		NumSteps:  steps,
		Log:       logSpaced,
	}
	points, err := automation.RunSweep(ctx, sweep, experiment.NewRegistry(), func(done, total int) {
		fmt.Printf("\r%s %d/%d", viz.ProgressBar(float64(done)/float64(total), 30), done, total)
	})
	fmt.Println()
	if err != nil && len(points) == 0 {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENERGY\tRANGE\tSTRAGGLE\tLATERAL\tSTOP\tBACK\tTRANS")
	ranges := make([]float64, len(points))
	for i, p := range points {
		ranges[i] = p.MeanDepth
		fmt.Fprintf(w, "%.1f keV\t%.1f A\t%.1f A\t%.1f A\t%.2f\t%.2f\t%.2f\n",
			p.Energy/1000, p.MeanDepth, p.Straggle, p.LateralStd, p.Stopped, p.Backscattered, p.Transmitted)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(ranges) > 1 {
		fmt.Println(asciigraph.Plot(ranges,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("mean range (A) vs energy step"),
		))
	}
	return err
}

func runReplicas(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	sum, err := automation.RunReplicas(ctx, &automation.ReplicaStudy{Base: cfg, Replicas: replicas}, experiment.NewRegistry())
	if err != nil {
		return err
	}
	for i, d := range sum.MeanDepths {
		fmt.Printf("  seed %d: %.1f A\n", cfg.Seed+uint64(i), d)
	}
	fmt.Printf("mean range %.1f A, std %.1f A, stderr %.1f A\n", sum.Mean, sum.StdDev, sum.StdErr)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, sc, cfg, experiment.NewRegistry(), st)
	for _, r := range results {
		line := fmt.Sprintf("step %d: %.1f keV, range %.1f A, backscattered %.2f",
			r.Step, r.Config.InitialEnergy/1000, r.Results.Stats.Z.Mean, r.Results.Fraction(r.Results.Backscattered))
		if r.RunID != "" {
			line += " (saved " + r.RunID + ")"
		}
		fmt.Println(line)
	}
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tTIME\tIONS\tENERGY\tRANGE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1f keV\t%.1f A\n",
			run.ID,
			run.Label,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Summary.TotalIons,
			run.Config.InitialEnergy/1000,
			run.Summary.Stats.Z.Mean,
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
	positions, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}

	depths := make([]float64, len(positions))
	for i, p := range positions {
		depths[i] = p[2]
	}
	fmt.Printf("run %s (%s)\n", meta.ID, meta.Label)
	fmt.Println(viz.DepthProfile(stats.DepthHistogram(depths, bins), 70, 12))

	trajs, err := st.LoadTrajectories(runID)
	if err != nil {
		return err
	}
	if len(trajs) == 0 {
		return nil
	}
	fmt.Println(viz.TrajectoryPlot(trajs, 60, 20))

	if svgPath != "" {
		if err := os.MkdirAll(filepath.Dir(svgPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(svgPath, []byte(export.TrajectoriesToSVG(trajs, 800, 800)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}
