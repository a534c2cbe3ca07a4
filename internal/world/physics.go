package world

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ApplyActionForce sets each movable agent's commanded control, plus optional
// Gaussian noise, as its force. Agents come first in the entity order, so
// forces[i] belongs to agent i.
func (w *World) ApplyActionForce(forces []Force) []Force {
	for i, a := range w.agents {
		if !a.Movable || len(a.Agent.Action.U) < 2 {
			continue
		}
		u := r2.Vec{X: a.Agent.Action.U[0], Y: a.Agent.Action.U[1]}
		if a.Agent.UNoise != nil && *a.Agent.UNoise != 0 {
			n := *a.Agent.UNoise
			u = r2.Add(u, r2.Vec{X: w.rng.NormFloat64() * n, Y: w.rng.NormFloat64() * n})
		}
		forces[i] = ForceOf(u)
	}
	return forces
}

// ApplyEnvironmentForce accumulates the pairwise collision response onto both
// members of every unordered entity pair.
func (w *World) ApplyEnvironmentForce(forces []Force) []Force {
	entities := w.Entities()
	for a := range entities {
		for b := a + 1; b < len(entities); b++ {
			fa, fb := w.CollisionForce(entities[a], entities[b])
			forces[a] = forces[a].Add(fa)
			forces[b] = forces[b].Add(fb)
		}
	}
	return forces
}

// CollisionForce returns the soft contact force on a and on b. A member that is
// not movable, a non-colliding pair and a self pair get no force.
func (w *World) CollisionForce(a, b *Entity) (Force, Force) {
	if !a.Collide || !b.Collide || a == b {
		return NoForce(), NoForce()
	}

	delta := r2.Sub(a.Pos, b.Pos)
	dist := r2.Norm(delta)
	distMin := a.Size + b.Size

	k := w.params.ContactMargin
	penetration := logAddExp(0, -(dist-distMin)/k) * k

	var force r2.Vec
	if dist != 0 && !math.IsNaN(delta.X) && !math.IsNaN(delta.Y) && !math.IsNaN(penetration) {
		force = r2.Scale(w.params.ContactForce*penetration/dist, delta)
	}

	fa, fb := NoForce(), NoForce()
	if a.Movable {
		fa = ForceOf(force)
	}
	if b.Movable {
		fb = ForceOf(r2.Scale(-1, force))
	}
	return fa, fb
}

// IntegrateState applies damping and forces to every movable entity, enforces
// its speed limit and moves it, clamping each coordinate to [-1, 1].
func (w *World) IntegrateState(forces []Force) {
	dt := w.params.Dt
	for i, e := range w.Entities() {
		if !e.Movable {
			continue
		}

		e.Vel = r2.Scale(1-w.params.Damping, e.Vel)
		if forces[i].Set {
			e.Vel = r2.Add(e.Vel, r2.Scale(dt/e.Mass(), forces[i].Vec))
		}

		if e.MaxSpeed != nil {
			if speed := r2.Norm(e.Vel); speed > *e.MaxSpeed {
				e.Vel = r2.Scale(*e.MaxSpeed/speed, e.Vel)
			}
		}

		e.Pos = bound(r2.Add(e.Pos, r2.Scale(dt, e.Vel)))
	}
}

// UpdateAgentState sets the communication state from the communication action.
func (w *World) UpdateAgentState(a *Entity) {
	ext := a.Agent
	dimC := w.params.DimC
	if len(ext.Comm) != dimC {
		ext.Comm = make([]float64, dimC)
	}

	if ext.Silent {
		for i := range ext.Comm {
			ext.Comm[i] = 0
		}
		return
	}

	for i := range ext.Comm {
		c := 0.0
		if i < len(ext.Action.C) {
			c = ext.Action.C[i]
		}
		if ext.CNoise != nil && *ext.CNoise != 0 {
			c += w.rng.NormFloat64() * *ext.CNoise
		}
		ext.Comm[i] = c
	}
}

func bound(p r2.Vec) r2.Vec {
	return r2.Vec{X: clamp(p.X), Y: clamp(p.Y)}
}

func clamp(x float64) float64 {
	if x >= 1.0 {
		return 1.0
	}
	if x <= -1.0 {
		return -1.0
	}
	return x
}

// logAddExp computes log(exp(a) + exp(b)) without overflow.
func logAddExp(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	if math.IsInf(hi, -1) {
		return hi
	}
	return hi + math.Log1p(math.Exp(lo-hi))
}
