package storage

import (
	"fmt"

	"github.com/san-kum/edisim/internal/dynamo"
)

// Results is an evaluation sweep: for every Alpha, the mean and standard
// deviation of each tracked quantity.
type Results struct {
	Alpha []float64   `json:"alpha"`
	Mean  [][]float64 `json:"mean"`
	Std   [][]float64 `json:"std"`
}

func (r *Results) Validate() error {
	if len(r.Mean) != len(r.Alpha) || len(r.Std) != len(r.Alpha) {
		return fmt.Errorf("results: %d alphas, %d means, %d stds: %w", len(r.Alpha), len(r.Mean), len(r.Std), dynamo.ErrDimensionMismatch)
	}
	for i := range r.Mean {
		if len(r.Mean[i]) != len(r.Std[i]) {
			return fmt.Errorf("results: alpha %g has %d means and %d stds: %w", r.Alpha[i], len(r.Mean[i]), len(r.Std[i]), dynamo.ErrDimensionMismatch)
		}
	}
	return nil
}

func SaveResults(path string, r *Results) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return writeJSON(path, r)
}

func LoadResults(path string) (*Results, error) {
	var r Results
	if err := readJSON(path, &r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
