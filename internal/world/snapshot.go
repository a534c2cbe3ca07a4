package world

import "github.com/san-kum/edisim/internal/dynamo"

// Snapshot flattens [px, py, vx, vy] for every entity in entity order.
func (w *World) Snapshot() dynamo.State {
	entities := w.Entities()
	s := make(dynamo.State, 0, 4*len(entities))
	for _, e := range entities {
		s = append(s, e.Pos.X, e.Pos.Y, e.Vel.X, e.Vel.Y)
	}
	return s
}

// JointControl flattens every agent's physical action in agent order;
// agents without an action contribute zeros.
func (w *World) JointControl() dynamo.Control {
	u := make(dynamo.Control, 0, 2*len(w.agents))
	for _, a := range w.agents {
		x, y := 0.0, 0.0
		if len(a.Agent.Action.U) >= 2 {
			x, y = a.Agent.Action.U[0], a.Agent.Action.U[1]
		}
		u = append(u, x, y)
	}
	return u
}
