package scenario

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/config"
	"github.com/san-kum/edisim/internal/control"
	"github.com/san-kum/edisim/internal/integrators"
	"github.com/san-kum/edisim/internal/vehicle"
	"github.com/san-kum/edisim/internal/world"
)

const (
	AdversarySize     = 0.075
	AdversaryMaxSpeed = 1.0
	AdversaryAccel    = 3.0

	GoodSize     = 0.05
	GoodMaxSpeed = 1.3
	GoodAccel    = 4.0

	LandmarkSize = 0.2

	// landmarkSpread keeps obstacles off the walls at reset.
	landmarkSpread = 0.9
)

// NewPredatorPrey builds a tag world: adversaries first, then good agents,
// then static landmarks, all placed from the world's seeded source.
func NewPredatorPrey(cfg config.Scenario, params world.Params) (*world.World, error) {
	w, err := world.New(params)
	if err != nil {
		return nil, err
	}
	rng := w.Rand()
	kinematic := params.Mode == world.ModeMPC || params.Mode == world.ModeElisa

	total := cfg.Adversaries + cfg.Good
	for i := 0; i < total; i++ {
		adversary := i < cfg.Adversaries
		var a *world.Entity
		if adversary {
			a = world.NewAgent(fmt.Sprintf("adversary %d", i), params.DimC)
			a.Size = AdversarySize
			a.MaxSpeed = world.Float(AdversaryMaxSpeed)
			a.Accel = world.Float(AdversaryAccel)
		} else {
			a = world.NewAgent(fmt.Sprintf("agent %d", i-cfg.Adversaries), params.DimC)
			a.Size = GoodSize
			a.MaxSpeed = world.Float(GoodMaxSpeed)
			a.Accel = world.Float(GoodAccel)
			if cfg.ScriptedPrey {
				a.Agent.Policy = world.Scripted(ScriptedPrey)
			}
		}
		a.Agent.Adversary = adversary
		a.Agent.Silent = true
		if cfg.UNoise > 0 {
			a.Agent.UNoise = world.Float(cfg.UNoise)
		}
		if cfg.CNoise > 0 {
			a.Agent.CNoise = world.Float(cfg.CNoise)
		}

		a.Pos = uniform(rng, 1)
		if kinematic {
			a.Rot = (2*rng.Float64() - 1) * math.Pi
			if err := attachVehicle(a, cfg); err != nil {
				return nil, err
			}
		}
		if err := w.AddAgent(a); err != nil {
			return nil, err
		}
	}

	for i := 0; i < cfg.Landmarks; i++ {
		l := world.NewLandmark(fmt.Sprintf("landmark %d", i))
		l.Size = LandmarkSize
		l.Pos = uniform(rng, landmarkSpread)
		if err := w.AddLandmark(l); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func attachVehicle(a *world.Entity, cfg config.Scenario) error {
	ctrl, err := control.New(cfg.Controller, cfg.Horizon)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Name, err)
	}
	if err := control.Tune(ctrl, cfg.Gains); err != nil {
		return fmt.Errorf("%s: %w", a.Name, err)
	}
	integ, err := integrators.Lookup(cfg.Integrator)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Name, err)
	}
	car := vehicle.NewCar(a.Pos.X, a.Pos.Y, a.Rot).WithIntegrator(integ)
	car.MaxLinear = *a.MaxSpeed
	car.MaxAngular = math.Pi
	a.Agent.Vehicle = car
	a.Agent.Controller = ctrl
	return nil
}

func uniform(rng *rand.Rand, spread float64) r2.Vec {
	return r2.Vec{
		X: (2*rng.Float64() - 1) * spread,
		Y: (2*rng.Float64() - 1) * spread,
	}
}

// Adversaries returns the predator agents in agent order.
func Adversaries(w *world.World) []*world.Entity {
	return filter(w, true)
}

// GoodAgents returns the prey agents in agent order.
func GoodAgents(w *world.World) []*world.Entity {
	return filter(w, false)
}

func filter(w *world.World, adversary bool) []*world.Entity {
	var out []*world.Entity
	for _, a := range w.Agents() {
		if a.Agent.Adversary == adversary {
			out = append(out, a)
		}
	}
	return out
}

// ScriptedPrey flees from the nearest adversary at full acceleration.
func ScriptedPrey(agent *world.Entity, w *world.World) world.Action {
	act := world.Action{U: []float64{0, 0}}
	var (
		nearest *world.Entity
		best    = math.Inf(1)
	)
	for _, adv := range Adversaries(w) {
		if d := r2.Norm(r2.Sub(agent.Pos, adv.Pos)); d < best {
			nearest, best = adv, d
		}
	}
	if nearest == nil || best == 0 {
		return act
	}
	u := r2.Scale(sensitivity(agent), r2.Unit(r2.Sub(agent.Pos, nearest.Pos)))
	act.U[0], act.U[1] = u.X, u.Y
	return act
}

// IsCaught reports whether any adversary touches the agent.
func IsCaught(agent *world.Entity, w *world.World) bool {
	for _, adv := range Adversaries(w) {
		if adv == agent {
			continue
		}
		if r2.Norm(r2.Sub(agent.Pos, adv.Pos)) < agent.Size+adv.Size {
			return true
		}
	}
	return false
}

// Catches counts the steps on which some good agent is caught. Pass
// Observe to WithObserver.
type Catches struct {
	Steps int
}

func (c *Catches) Observe(step int, w *world.World) {
	for _, g := range GoodAgents(w) {
		if IsCaught(g, w) {
			c.Steps++
			return
		}
	}
}
