package control

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/vehicle"
)

type None struct {
	horizon int
}

func NewNone(horizon int) *None {
	return &None{horizon: horizon}
}

func (n *None) Compute(car *vehicle.Car, target r2.Vec, dt float64) (float64, float64) {
	return 0, 0
}

func (n *None) Horizon() int { return n.horizon }
