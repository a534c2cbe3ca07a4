package control

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/dynamo"
	"github.com/san-kum/edisim/internal/vehicle"
)

// DefaultHorizon is the number of controller sub-steps per world step.
const DefaultHorizon = 4

type Controller interface {
	Compute(car *vehicle.Car, target r2.Vec, dt float64) (linear, angular float64)
	Horizon() int
}

// Tunable controllers expose their gains by name.
type Tunable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64)
}

// Tune applies gains to c. Names the controller does not expose, or any gain
// on a controller without parameters, fail with dynamo.ErrUnknownName.
func Tune(c Controller, gains map[string]float64) error {
	if len(gains) == 0 {
		return nil
	}
	t, ok := c.(Tunable)
	if !ok {
		return fmt.Errorf("controller %T has no gains: %w", c, dynamo.ErrUnknownName)
	}

	names := make([]string, 0, len(gains))
	for name := range gains {
		names = append(names, name)
	}
	sort.Strings(names)

	params := t.GetParams()
	for _, name := range names {
		if _, ok := params[name]; !ok {
			return fmt.Errorf("gain %q: %w", name, dynamo.ErrUnknownName)
		}
		t.SetParam(name, gains[name])
	}
	return nil
}

var registry = map[string]func(horizon int) Controller{
	"none":   func(h int) Controller { return NewNone(h) },
	"simple": func(h int) Controller { return NewSimple(h) },
	"pid":    func(h int) Controller { return NewPID(h) },
	"mpc":    func(h int) Controller { return NewMPC(h) },
}

// New builds a controller by name. horizon <= 0 uses DefaultHorizon.
func New(name string, horizon int) (Controller, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("controller %q: %w", name, dynamo.ErrUnknownName)
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return fn(horizon), nil
}

// headingError returns the signed angle from the car heading to the target
// bearing, wrapped to (-pi, pi], and the distance to the target.
func headingError(car *vehicle.Car, target r2.Vec) (float64, float64) {
	pos, theta, _ := car.State()
	d := r2.Sub(target, pos)
	dist := r2.Norm(d)
	if dist == 0 {
		return 0, 0
	}
	return wrapAngle(math.Atan2(d.Y, d.X) - theta), dist
}

func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
