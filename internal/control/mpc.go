package control

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/vehicle"
)

// MPC picks the constant command that, held over the horizon, brings a copy
// of the car closest to the target. Candidates form a uniform grid.
type MPC struct {
	MaxLinear     float64
	MaxAngular    float64
	LinearSteps   int
	AngularSteps  int
	ControlWeight float64
	horizon       int
}

func NewMPC(horizon int) *MPC {
	return &MPC{
		MaxLinear:     1.0,
		MaxAngular:    math.Pi,
		LinearSteps:   11,
		AngularSteps:  21,
		ControlWeight: 1e-3,
		horizon:       horizon,
	}
}

func (m *MPC) Compute(car *vehicle.Car, target r2.Vec, dt float64) (float64, float64) {
	best := math.Inf(1)
	bestV, bestW := 0.0, 0.0

	for _, v := range grid(m.MaxLinear, m.LinearSteps) {
		for _, w := range grid(m.MaxAngular, m.AngularSteps) {
			cost := m.rollout(car, target, v, w, dt)
			if cost < best {
				best = cost
				bestV, bestW = v, w
			}
		}
	}

	return bestV, bestW
}

func (m *MPC) rollout(car *vehicle.Car, target r2.Vec, v, w, dt float64) float64 {
	sim := car.Clone()
	sim.SetVelocity(v, w)
	for i := 0; i < m.horizon; i++ {
		sim.Update(dt)
	}
	pos, _, _ := sim.State()
	d := r2.Norm(r2.Sub(target, pos))
	return d*d + m.ControlWeight*(v*v+w*w)
}

func (m *MPC) Horizon() int { return m.horizon }

func (m *MPC) GetParams() map[string]float64 {
	return map[string]float64{
		"MaxLinear":     m.MaxLinear,
		"MaxAngular":    m.MaxAngular,
		"ControlWeight": m.ControlWeight,
	}
}

func (m *MPC) SetParam(name string, value float64) {
	switch name {
	case "MaxLinear":
		m.MaxLinear = value
	case "MaxAngular":
		m.MaxAngular = value
	case "ControlWeight":
		m.ControlWeight = value
	}
}

// grid returns n evenly spaced values over [-limit, limit]; n < 2 yields {0}.
func grid(limit float64, n int) []float64 {
	if n < 2 {
		return []float64{0}
	}
	out := make([]float64, n)
	step := 2 * limit / float64(n-1)
	for i := range out {
		out[i] = -limit + float64(i)*step
	}
	return out
}
