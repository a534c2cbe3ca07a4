package scenario

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/dynamo"
	"github.com/san-kum/edisim/internal/edi"
	"github.com/san-kum/edisim/internal/world"
)

// NumActions is the width of the discrete action vector [noop, +x, -x, +y, -y].
const NumActions = 5

// defaultSensitivity scales actions of agents without an Accel.
const defaultSensitivity = 5.0

// Observe returns each agent's observation: own velocity and position, the
// relative positions of landmarks and of the other agents, and the velocities
// of the other good agents.
func Observe(w *world.World) edi.Snapshot {
	agents := w.Agents()
	obs := make(edi.Snapshot, len(agents))
	for i, a := range agents {
		o := []float64{a.Vel.X, a.Vel.Y, a.Pos.X, a.Pos.Y}
		for _, l := range w.Landmarks() {
			d := r2.Sub(l.Pos, a.Pos)
			o = append(o, d.X, d.Y)
		}
		for _, other := range agents {
			if other == a {
				continue
			}
			d := r2.Sub(other.Pos, a.Pos)
			o = append(o, d.X, d.Y)
		}
		for _, other := range agents {
			if other == a || other.Agent.Adversary {
				continue
			}
			o = append(o, other.Vel.X, other.Vel.Y)
		}
		obs[i] = o
	}
	return obs
}

// ObsDims returns the observation widths Observe produces for a tag world with
// the given population.
func ObsDims(adversaries, good, landmarks int) []int {
	n := adversaries + good
	dims := make([]int, n)
	for i := range dims {
		others := good
		if i >= adversaries {
			others--
		}
		dims[i] = 4 + 2*landmarks + 2*(n-1) + 2*others
	}
	return dims
}

// DecodeAction turns a policy output over [noop, +x, -x, +y, -y] into an
// agent action. The default and mpc modes produce a force scaled by the
// agent's acceleration; elisa produces [right, left] wheel speeds scaled by
// the agent's control range.
func DecodeAction(agent *world.Entity, a []float64, mode world.Mode) (world.Action, error) {
	if len(a) != NumActions {
		return world.Action{}, fmt.Errorf("action has %d components, want %d: %w", len(a), NumActions, dynamo.ErrDimensionMismatch)
	}

	u := []float64{a[1] - a[2], a[3] - a[4]}
	if mode == world.ModeElisa {
		u[0] *= agent.Agent.URange
		u[1] *= agent.Agent.URange
	} else {
		s := sensitivity(agent)
		u[0] *= s
		u[1] *= s
	}
	return world.Action{U: u}, nil
}

func sensitivity(agent *world.Entity) float64 {
	if agent.Accel != nil {
		return *agent.Accel
	}
	return defaultSensitivity
}
