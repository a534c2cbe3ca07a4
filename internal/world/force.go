package world

import "gonum.org/v1/gonum/spatial/r2"

// Force is an optional force: an unset Force means "no force" and is distinct
// from a zero vector until accumulation.
type Force struct {
	Vec r2.Vec
	Set bool
}

func NoForce() Force { return Force{} }

func ForceOf(v r2.Vec) Force { return Force{Vec: v, Set: true} }

// Add accumulates g onto f; unset operands contribute nothing.
func (f Force) Add(g Force) Force {
	if !g.Set {
		return f
	}
	if !f.Set {
		return g
	}
	return ForceOf(r2.Add(f.Vec, g.Vec))
}
