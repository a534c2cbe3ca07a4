package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/edisim/internal/config"
)

const scenarioName = "simple_tag"

var (
	dataDir    string
	debug      bool
	configFile string
	mode       string
	steps      int
	seed       int64
	checkpoint string
	scripted   bool
	controller string
	integrator string
	external   string
	mask       []int
	workers    int
	outPath    string
	svgSize    int

	logFile *os.File
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "edisim",
		Short: "multi-agent particle world and EDI dataset builder",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logFile = setupLogging(debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logFile != nil {
				logFile.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".edisim", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write diagnostic logs to .edisim/logs")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "simulate an episode and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEpisode,
	}
	addWorldFlags(runCmd)
	runCmd.Flags().StringVar(&external, "external", "", "json file of per-step [vx, vy, px, py] rows for webots mode")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run an episode with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addWorldFlags(liveCmd)

	datasetCmd := &cobra.Command{
		Use:   "dataset [run_id]",
		Short: "build the EDI dataset of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  buildDataset,
	}
	datasetCmd.Flags().StringVar(&checkpoint, "checkpoint", "", "ensemble checkpoint (defaults to the run's own)")
	datasetCmd.Flags().IntSliceVar(&mask, "mask", nil, "cooperating agent indices (defaults to the adversaries)")
	datasetCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = all CPUs)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a run's trajectories to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (defaults to <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 600, "image size in pixels")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	checkpointCmd := &cobra.Command{
		Use:   "checkpoint [path]",
		Short: "write a randomly initialised ensemble checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  writeCheckpoint,
	}
	checkpointCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	checkpointCmd.Flags().Int64Var(&seed, "seed", 0, "network seed")

	resultsCmd := &cobra.Command{
		Use:   "results [path]",
		Short: "print a stored alpha sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  showResults,
	}

	rootCmd.AddCommand(runCmd, liveCmd, datasetCmd, listCmd, plotCmd, exportSVGCmd, exportJSONCmd, presetsCmd, checkpointCmd, resultsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addWorldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&mode, "mode", "", "world mode: default, elisa, webots, mpc")
	cmd.Flags().IntVar(&steps, "steps", 0, "episode length")
	cmd.Flags().Int64Var(&seed, "seed", 0, "world seed")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "ensemble checkpoint (random weights when empty)")
	cmd.Flags().BoolVar(&scripted, "scripted-prey", false, "good agents flee by script")
	cmd.Flags().StringVar(&controller, "controller", "", "vehicle controller: none, simple, pid, mpc")
	cmd.Flags().StringVar(&integrator, "integrator", "", "vehicle integrator: euler, rk4")
}

// loadConfig resolves the preset named by args, then the config file, then
// any flags set on the command line.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg = config.GetPreset(scenarioName, args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets(scenarioName))
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
	if flags.Changed("mode") {
		cfg.World.Mode = mode
	}
	if flags.Changed("steps") {
		cfg.Episode.Steps = steps
	}
	if flags.Changed("seed") {
		cfg.World.Seed = seed
		cfg.Network.Seed = seed
	}
	if flags.Changed("checkpoint") {
		cfg.EDI.Checkpoint = checkpoint
	}
	if flags.Changed("scripted-prey") {
		cfg.Scenario.ScriptedPrey = scripted
	}
	if flags.Changed("controller") {
		cfg.Scenario.Controller = controller
	}
	if flags.Changed("integrator") {
		cfg.Scenario.Integrator = integrator
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
