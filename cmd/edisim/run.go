package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/edisim/internal/config"
	"github.com/san-kum/edisim/internal/dynamo"
	"github.com/san-kum/edisim/internal/maddpg"
	"github.com/san-kum/edisim/internal/metrics"
	"github.com/san-kum/edisim/internal/scenario"
	"github.com/san-kum/edisim/internal/storage"
	"github.com/san-kum/edisim/internal/viz"
	"github.com/san-kum/edisim/internal/world"
)

const checkpointFile = "ensemble.json"

func newWorld(cfg *config.Config) (*world.World, error) {
	params, err := cfg.WorldParams()
	if err != nil {
		return nil, err
	}
	return scenario.NewPredatorPrey(cfg.Scenario, params)
}

// newEnsemble loads the configured checkpoint or initialises one sized for
// the scenario.
func newEnsemble(cfg *config.Config) (*maddpg.Ensemble, error) {
	if cfg.EDI.Checkpoint != "" {
		return maddpg.Load(cfg.EDI.Checkpoint)
	}
	s := cfg.Scenario
	dims := scenario.ObsDims(s.Adversaries, s.Good, s.Landmarks)
	return maddpg.NewEnsemble(dims, scenario.NumActions, cfg.Network.FC1, cfg.Network.FC2, cfg.Network.Seed)
}

func masses(w *world.World) []float64 {
	out := make([]float64, 0, len(w.Entities()))
	for _, e := range w.Entities() {
		out = append(out, e.Mass())
	}
	return out
}

func entityInfo(w *world.World) []storage.EntityInfo {
	infos := make([]storage.EntityInfo, 0, len(w.Entities()))
	for _, e := range w.Entities() {
		info := storage.EntityInfo{Name: e.Name, Size: e.Size, Mass: e.Mass(), Agent: e.IsAgent()}
		if e.IsAgent() {
			info.Adversary = e.Agent.Adversary
		}
		infos = append(infos, info)
	}
	return infos
}

func runEpisode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	w, err := newWorld(cfg)
	if err != nil {
		return err
	}
	ens, err := newEnsemble(cfg)
	if err != nil {
		return err
	}

	opts := []scenario.RolloutOption{
		scenario.WithMetrics(
			metrics.NewControlEffort(),
			metrics.NewKineticEnergy(masses(w)),
			metrics.NewBoundaryContact(),
		),
	}
	var catches scenario.Catches
	opts = append(opts, scenario.WithObserver(catches.Observe))
	if external != "" {
		rows, err := loadExternal(external)
		if err != nil {
			return err
		}
		opts = append(opts, scenario.WithExternal(scenario.External(rows)))
	}

	fmt.Printf("running %s (%s mode, %d agents, %d steps)...\n", scenarioName, w.Mode(), len(w.Agents()), cfg.Episode.Steps)
	start := time.Now()

	ep, err := scenario.Rollout(context.Background(), w, ens, cfg.Episode.Steps, opts...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	ep.Result.Metrics["catch_steps"] = float64(catches.Steps)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	preset := ""
	if len(args) > 0 {
		preset = args[0]
	}
	meta := storage.RunMetadata{
		Scenario:   scenarioName,
		Preset:     preset,
		Mode:       w.Mode().String(),
		Seed:       cfg.World.Seed,
		Dt:         cfg.World.Dt,
		Steps:      cfg.Episode.Steps,
		Controller: cfg.Scenario.Controller,
		Entities:   entityInfo(w),
	}
	runID, err := st.Save(meta, ep.Result)
	if err != nil {
		return err
	}
	if err := st.SaveTrajectory(runID, ep.Trajectory); err != nil {
		return err
	}

	// The run keeps its own copy of the policy so the dataset can be rebuilt.
	ckpt := filepath.Join(st.RunDir(runID), checkpointFile)
	if err := ens.Save(ckpt); err != nil {
		return err
	}
	stored, err := st.Load(runID)
	if err != nil {
		return err
	}
	stored.Checkpoint = ckpt
	if err := st.UpdateMetadata(stored); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", len(ep.Result.States))
	printMetrics(ep.Result)
	return nil
}

func printMetrics(r *dynamo.Result) {
	names := make([]string, 0, len(r.Metrics))
	for name := range r.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, r.Metrics[name])
	}
}

func loadExternal(path string) ([][][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows [][][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if p, _ := cfg.WorldParams(); p.Mode == world.ModeWebots {
		return fmt.Errorf("live view cannot drive webots mode without an external simulator")
	}

	ens, err := newEnsemble(cfg)
	if err != nil {
		return err
	}

	build := func() (*world.World, error) { return newWorld(cfg) }
	drive := func(w *world.World, step int) error { return scenario.Act(w, ens) }

	m, err := viz.NewModel(build, drive, cfg.Episode.Steps, scenarioName)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}

func writeCheckpoint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	cfg.EDI.Checkpoint = ""
	ens, err := newEnsemble(cfg)
	if err != nil {
		return err
	}
	if err := ens.Save(args[0]); err != nil {
		return err
	}
	fmt.Printf("wrote %d-agent ensemble to %s\n", ens.Len(), args[0])
	return nil
}
