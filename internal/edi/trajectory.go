package edi

import (
	"fmt"

	"github.com/san-kum/edisim/internal/dynamo"
)

// Snapshot holds one observation vector per agent at a single timestep.
type Snapshot [][]float64

// Trajectory is an episode's ordered sequence of snapshots.
type Trajectory []Snapshot

// JointObservation concatenates all agents' observations in agent order.
func (s Snapshot) JointObservation() []float64 {
	n := 0
	for _, o := range s {
		n += len(o)
	}
	joint := make([]float64, 0, n)
	for _, o := range s {
		joint = append(joint, o...)
	}
	return joint
}

// Validate checks that every snapshot has the same number of agents and that
// each agent's observation width never changes.
func (t Trajectory) Validate() error {
	if len(t) == 0 {
		return nil
	}
	first := t[0]
	for step, s := range t {
		if len(s) != len(first) {
			return fmt.Errorf("step %d has %d agents, want %d: %w", step, len(s), len(first), dynamo.ErrDimensionMismatch)
		}
		for k := range s {
			if len(s[k]) != len(first[k]) {
				return fmt.Errorf("step %d agent %d has %d components, want %d: %w", step, k, len(s[k]), len(first[k]), dynamo.ErrDimensionMismatch)
			}
		}
	}
	return nil
}
