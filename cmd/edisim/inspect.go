package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/edisim/internal/config"
	"github.com/san-kum/edisim/internal/edi"
	"github.com/san-kum/edisim/internal/export"
	"github.com/san-kum/edisim/internal/maddpg"
	"github.com/san-kum/edisim/internal/metrics"
	"github.com/san-kum/edisim/internal/storage"
)

func buildDataset(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	path := checkpoint
	if path == "" {
		path = meta.Checkpoint
	}
	if path == "" {
		return fmt.Errorf("run %s has no checkpoint; pass --checkpoint", runID)
	}
	ens, err := maddpg.Load(path)
	if err != nil {
		return err
	}

	m := mask
	if len(m) == 0 {
		for i, e := range meta.Entities {
			if e.Agent && e.Adversary {
				m = append(m, i)
			}
		}
	}

	fmt.Printf("building dataset for %s (%d steps, mask %v)...\n", runID, len(traj), m)
	start := time.Now()

	samples, err := edi.NewBuilder(ens, edi.WithWorkers(workers)).CalculateIO(context.Background(), traj, m)
	if err != nil {
		return err
	}
	if err := st.SaveDataset(runID, samples); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("samples: %d\n", len(samples))
	if len(samples) > 0 {
		zetas := zetaSeries(samples)
		fmt.Printf("zeta: min %.6f  max %.6f  mean %.6f\n", floats.Min(zetas), floats.Max(zetas), floats.Sum(zetas)/float64(len(zetas)))
	}
	return nil
}

func zetaSeries(samples []edi.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Zeta()
	}
	return out
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
	fmt.Fprintln(w, "ID\tSCENARIO\tMODE\tTIME\tSTEPS\tDT\tENTITIES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4fs\t%d\n",
			run.ID,
			run.Scenario,
			run.Mode,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			len(run.Entities),
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

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("mode: %s\n", meta.Mode)
	fmt.Printf("samples: %d\n\n", len(states))

	masses := make([]float64, len(meta.Entities))
	for i, e := range meta.Entities {
		masses[i] = e.Mass
	}
	energy := make([]float64, len(states))
	for i, row := range states {
		energy[i] = metrics.Kinetic(row, masses)
	}
	plot(energy, "kinetic energy")

	for k, e := range meta.Entities {
		if !e.Agent || e.Adversary {
			continue
		}
		if d := nearestAdversary(states, meta.Entities, k); d != nil {
			plot(d, fmt.Sprintf("%s: distance to nearest adversary", e.Name))
		}
	}

	if samples, err := st.LoadDataset(runID); err == nil && len(samples) > 0 {
		plot(zetaSeries(samples), "zeta per sample")
	}
	return nil
}

func plot(data []float64, caption string) {
	if len(data) < 2 {
		return
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	fmt.Println()
}

func nearestAdversary(states [][]float64, entities []storage.EntityInfo, k int) []float64 {
	var out []float64
	for _, row := range states {
		if 4*k+1 >= len(row) {
			return nil
		}
		best := math.Inf(1)
		for j, e := range entities {
			if !e.Adversary || 4*j+1 >= len(row) {
				continue
			}
			best = math.Min(best, math.Hypot(row[4*k]-row[4*j], row[4*k+1]-row[4*j+1]))
		}
		if math.IsInf(best, 1) {
			return nil
		}
		out = append(out, best)
	}
	return out
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	svg := export.EpisodeToSVG(states, meta.Entities, svgSize)
	if svg == "" {
		return fmt.Errorf("run %s has nothing to draw", runID)
	}

	path := outPath
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	return export.JSON(os.Stdout, meta, states, times)
}

func listPresets(cmd *cobra.Command, args []string) error {
	scenarios := config.ListScenarios()
	if len(args) > 0 {
		scenarios = args
	}
	for _, s := range scenarios {
		presets := config.ListPresets(s)
		if len(presets) == 0 {
			fmt.Printf("no presets for scenario: %s\n", s)
			continue
		}
		fmt.Printf("presets for %s:\n", s)
		for _, p := range presets {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}

func showResults(cmd *cobra.Command, args []string) error {
	r, err := storage.LoadResults(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALPHA\tMEAN\tSTD")
	for i, a := range r.Alpha {
		fmt.Fprintf(w, "%g\t%v\t%v\n", a, r.Mean[i], r.Std[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(r.Alpha) > 1 && len(r.Mean[0]) > 0 {
		first := make([]float64, len(r.Mean))
		for i, m := range r.Mean {
			if len(m) > 0 {
				first[i] = m[0]
			}
		}
		fmt.Println()
		plot(first, "mean of the first quantity per alpha")
	}
	return nil
}
