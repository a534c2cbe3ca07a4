package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/edisim/internal/dynamo"
	"github.com/san-kum/edisim/internal/edi"
)

func (s *Store) SaveTrajectory(runID string, traj edi.Trajectory) error {
	return writeJSON(filepath.Join(s.RunDir(runID), trajectoryFile), traj)
}

func (s *Store) LoadTrajectory(runID string) (edi.Trajectory, error) {
	var traj edi.Trajectory
	if err := readJSON(filepath.Join(s.RunDir(runID), trajectoryFile), &traj); err != nil {
		return nil, err
	}
	if err := traj.Validate(); err != nil {
		return nil, err
	}
	return traj, nil
}

// SaveDataset writes samples as dataset.csv with columns i, j, agent, the
// features f0..fn (zeta last) and the label.
func (s *Store) SaveDataset(runID string, samples []edi.Sample) error {
	f, err := os.Create(filepath.Join(s.RunDir(runID), datasetFile))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(samples) > 0 {
		width := len(samples[0].Features)
		header := []string{"i", "j", "agent"}
		for k := 0; k < width; k++ {
			header = append(header, fmt.Sprintf("f%d", k))
		}
		header = append(header, "label")
		if err := w.Write(header); err != nil {
			return err
		}

		for n, smp := range samples {
			if len(smp.Features) != width {
				return fmt.Errorf("sample %d has %d features, want %d: %w", n, len(smp.Features), width, dynamo.ErrDimensionMismatch)
			}
			row := []string{strconv.Itoa(smp.I), strconv.Itoa(smp.J), strconv.Itoa(smp.Agent)}
			for _, v := range smp.Features {
				row = append(row, formatFloat(v))
			}
			row = append(row, formatFloat(smp.Label))
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func (s *Store) LoadDataset(runID string) ([]edi.Sample, error) {
	f, err := os.Open(filepath.Join(s.RunDir(runID), datasetFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	samples := make([]edi.Sample, 0, len(records)-1)
	for line, rec := range records[1:] {
		if len(rec) < 5 {
			return nil, fmt.Errorf("dataset row %d has %d columns: %w", line+1, len(rec), dynamo.ErrDimensionMismatch)
		}
		vals := make([]float64, len(rec))
		for k, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset row %d column %d: %w", line+1, k, err)
			}
			vals[k] = v
		}
		samples = append(samples, edi.Sample{
			I:        int(vals[0]),
			J:        int(vals[1]),
			Agent:    int(vals[2]),
			Features: vals[3 : len(vals)-1],
			Label:    vals[len(vals)-1],
		})
	}
	return samples, nil
}
