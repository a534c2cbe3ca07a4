package metrics

import (
	"github.com/san-kum/edisim/internal/dynamo"
)

// stride is the width of one entity in a world snapshot: [px, py, vx, vy].
const stride = 4

// KineticEnergy averages the total kinetic energy of the snapshot entities.
// masses[k] belongs to entity k; entities past the end of masses are skipped.
type KineticEnergy struct {
	name    string
	masses  []float64
	total   float64
	last    float64
	samples int
}

func NewKineticEnergy(masses []float64) *KineticEnergy {
	return &KineticEnergy{
		name:   "kinetic_energy",
		masses: append([]float64(nil), masses...),
	}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	e.last = Kinetic(x, e.masses)
	e.total += e.last
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

// Last returns the energy of the most recent snapshot.
func (e *KineticEnergy) Last() float64 { return e.last }

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.last = 0
	e.samples = 0
}

// Kinetic returns sum(m |v|^2 / 2) over a world snapshot.
func Kinetic(x dynamo.State, masses []float64) float64 {
	ke := 0.0
	for k, m := range masses {
		base := k * stride
		if base+stride > len(x) {
			break
		}
		vx, vy := x[base+2], x[base+3]
		ke += 0.5 * m * (vx*vx + vy*vy)
	}
	return ke
}
