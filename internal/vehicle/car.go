// Package vehicle models a single wheeled robot as a unicycle: the pose
// [x, y, theta] evolves under a commanded linear and angular velocity.
package vehicle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/dynamo"
	"github.com/san-kum/edisim/internal/integrators"
)

// Car is the kinematic vehicle owned by an agent in the kinematic driving modes.
type Car struct {
	// MaxLinear and MaxAngular saturate commands when positive.
	MaxLinear  float64
	MaxAngular float64

	pose       dynamo.State
	linear     float64
	angular    float64
	integrator dynamo.Integrator
	factory    integrators.Factory
	t          float64
}

func NewCar(x, y, theta float64) *Car {
	return (&Car{pose: dynamo.State{x, y, theta}}).WithIntegrator(func() dynamo.Integrator {
		return integrators.NewRK4()
	})
}

// WithIntegrator swaps the stepper used by Update. Clones build their own
// stepper from the same factory.
func (c *Car) WithIntegrator(f integrators.Factory) *Car {
	c.factory = f
	c.integrator = f()
	return c
}

func (c *Car) StateDim() int   { return 3 }
func (c *Car) ControlDim() int { return 2 }

func (c *Car) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	v, w := u[0], u[1]
	theta := x[2]
	return dynamo.State{v * math.Cos(theta), v * math.Sin(theta), w}
}

// SetVelocity stores the command applied by the next Update.
func (c *Car) SetVelocity(linear, angular float64) {
	c.linear = saturate(linear, c.MaxLinear)
	c.angular = saturate(angular, c.MaxAngular)
}

// Update advances the pose by dt under the stored command.
func (c *Car) Update(dt float64) {
	c.pose = c.integrator.Step(c, c.pose, dynamo.Control{c.linear, c.angular}, c.t, dt)
	c.t += dt
}

// State returns the planar position, the heading and the planar velocity.
func (c *Car) State() (r2.Vec, float64, r2.Vec) {
	theta := c.pose[2]
	pos := r2.Vec{X: c.pose[0], Y: c.pose[1]}
	vel := r2.Vec{X: c.linear * math.Cos(theta), Y: c.linear * math.Sin(theta)}
	return pos, theta, vel
}

// Command returns the stored (linear, angular) command.
func (c *Car) Command() (float64, float64) {
	return c.linear, c.angular
}

func (c *Car) Reset(x, y, theta float64) {
	c.pose = dynamo.State{x, y, theta}
	c.linear, c.angular = 0, 0
	c.t = 0
}

// Clone returns an independent car with the same pose, limits, command and
// integrator kind.
func (c *Car) Clone() *Car {
	return &Car{
		MaxLinear:  c.MaxLinear,
		MaxAngular: c.MaxAngular,
		pose:       c.pose.Clone(),
		linear:     c.linear,
		angular:    c.angular,
		integrator: c.factory(),
		factory:    c.factory,
		t:          c.t,
	}
}

func saturate(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}
