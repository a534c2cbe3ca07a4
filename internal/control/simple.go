package control

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/vehicle"
)

// Simple steers proportionally to the bearing error and slows down when the
// target is behind the car.
type Simple struct {
	Kv      float64
	Kw      float64
	horizon int
}

func NewSimple(horizon int) *Simple {
	return &Simple{Kv: 1.0, Kw: 2.0, horizon: horizon}
}

func (s *Simple) Compute(car *vehicle.Car, target r2.Vec, dt float64) (float64, float64) {
	errHeading, dist := headingError(car, target)
	v := s.Kv * dist * math.Max(0, math.Cos(errHeading))
	w := s.Kw * errHeading
	return v, w
}

func (s *Simple) Horizon() int { return s.horizon }

func (s *Simple) GetParams() map[string]float64 {
	return map[string]float64{"Kv": s.Kv, "Kw": s.Kw}
}

func (s *Simple) SetParam(name string, value float64) {
	switch name {
	case "Kv":
		s.Kv = value
	case "Kw":
		s.Kw = value
	}
}
