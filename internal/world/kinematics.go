package world

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/dynamo"
)

// UpdateAgentElisa drives every agent with its wheel command u = [right, left]
// (wheel angular speeds). No forces or collisions are computed.
func (w *World) UpdateAgentElisa() {
	dt := w.params.Dt
	for _, a := range w.agents {
		if len(a.Agent.Action.U) < 2 {
			continue
		}
		arcR := dt * WheelRadius * a.Agent.Action.U[0]
		arcL := dt * WheelRadius * a.Agent.Action.U[1]
		arc := (arcR + arcL) / 2
		beta := (arcR - arcL) / Wheelbase

		a.Pos, a.Rot = DiffDriveStep(a.Pos, a.Rot, arc, beta)
		a.Vel = r2.Scale(arc/dt, r2.Vec{X: math.Cos(a.Rot), Y: math.Sin(a.Rot)})
		a.Pos = bound(a.Pos)
	}
}

// DiffDriveStep moves a pose along an arc of length arc while turning by beta.
// Below the straight-line threshold the arc is treated as a segment.
//
// The lateral offset R(cos beta - 1) is taken along the left normal, so a
// positive beta displaces the pose to the right of its heading while the
// heading itself turns left.
func DiffDriveStep(pos r2.Vec, rot, arc, beta float64) (r2.Vec, float64) {
	heading := r2.Vec{X: math.Cos(rot), Y: math.Sin(rot)}
	if math.Abs(beta) < straightThreshold {
		return r2.Add(pos, r2.Scale(arc, heading)), rot
	}

	radius := arc / beta
	forward := radius * math.Sin(beta)
	lateral := radius * (math.Cos(beta) - 1)
	left := r2.Vec{X: -heading.Y, Y: heading.X}

	pos = r2.Add(pos, r2.Add(r2.Scale(forward, heading), r2.Scale(lateral, left)))
	return pos, rot + beta
}

// SetExternalObservation overwrites agent i's velocity and position from
// ext[i][0:2] and ext[i][2:4]. Positions are clamped to the arena.
func (w *World) SetExternalObservation(ext [][]float64) error {
	for i, a := range w.agents {
		if len(ext[i]) < 4 {
			return fmt.Errorf("observation %d has %d components, need 4: %w", i, len(ext[i]), dynamo.ErrDimensionMismatch)
		}
		a.Vel = r2.Vec{X: ext[i][0], Y: ext[i][1]}
		a.Pos = bound(r2.Vec{X: ext[i][2], Y: ext[i][3]})
	}
	return nil
}

// UpdateAgentMPC runs each agent's controller for its horizon against a
// waypoint list that repeats the agent's current position, then copies the
// vehicle's pose and velocity back onto the agent.
func (w *World) UpdateAgentMPC() {
	for _, a := range w.agents {
		car, ctrl := a.Agent.Vehicle, a.Agent.Controller
		if car == nil || ctrl == nil {
			continue
		}

		horizon := ctrl.Horizon()
		waypoints := make([]r2.Vec, horizon)
		for i := range waypoints {
			waypoints[i] = a.Pos
		}

		sub := w.params.Dt / float64(horizon)
		for i := 0; i < horizon; i++ {
			v, om := ctrl.Compute(car, waypoints[i], sub)
			car.SetVelocity(v, om)
			car.Update(sub)
		}

		pos, heading, vel := car.State()
		a.Pos = bound(pos)
		a.Vel = vel
		a.Rot = heading
	}
}
