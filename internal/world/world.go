package world

import (
	"errors"
	"fmt"
	"log"
	"math/rand"

	"github.com/san-kum/edisim/internal/dynamo"
)

var (
	// ErrMissingObservation indicates a webots step without an external observation.
	ErrMissingObservation = errors.New("world: missing external observation")

	// ErrStepInProgress indicates an entity mutation attempted during Step.
	ErrStepInProgress = errors.New("world: entities cannot change during a step")
)

const (
	DefaultDt            = 0.25
	DefaultDamping       = 0.25
	DefaultContactForce  = 2e2
	DefaultContactMargin = 2e-3
	DefaultDimP          = 2

	// Differential-drive geometry of the e-puck style robot.
	WheelRadius = 0.0042
	Wheelbase   = 0.04

	// straightThreshold is the |beta| below which a differential-drive
	// step is treated as straight-line motion.
	straightThreshold = 0.01
)

type Params struct {
	Dt            float64
	Damping       float64
	ContactForce  float64
	ContactMargin float64
	DimP          int
	DimC          int
	Mode          Mode
	Seed          int64
}

func DefaultParams() Params {
	return Params{
		Dt:            DefaultDt,
		Damping:       DefaultDamping,
		ContactForce:  DefaultContactForce,
		ContactMargin: DefaultContactMargin,
		DimP:          DefaultDimP,
		Mode:          ModeDefault,
	}
}

func (p Params) Validate() error {
	if p.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", p.Dt)
	}
	if p.Damping < 0 || p.Damping > 1 {
		return fmt.Errorf("damping must be in [0, 1], got %f", p.Damping)
	}
	if p.ContactMargin <= 0 {
		return fmt.Errorf("contact margin must be positive, got %f", p.ContactMargin)
	}
	if p.DimP != DefaultDimP {
		return fmt.Errorf("only %d-dimensional positions are supported, got %d: %w", DefaultDimP, p.DimP, dynamo.ErrDimensionMismatch)
	}
	if p.DimC < 0 {
		return fmt.Errorf("dim_c must be non-negative, got %d", p.DimC)
	}
	return nil
}

type World struct {
	params    Params
	agents    []*Entity
	landmarks []*Entity
	entities  []*Entity
	rng       *rand.Rand
	stepFn    func(ext [][]float64) error
	stepping  bool
	t         float64
	steps     int
}

func New(p Params) (*World, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	w := &World{
		params: p,
		rng:    rand.New(rand.NewSource(p.Seed)),
	}

	switch p.Mode {
	case ModeDefault:
		w.stepFn = w.stepDefault
	case ModeElisa:
		w.stepFn = w.stepElisa
	case ModeWebots:
		w.stepFn = w.stepWebots
	case ModeMPC:
		w.stepFn = w.stepMPC
	default:
		return nil, fmt.Errorf("mode %d: %w", p.Mode, dynamo.ErrUnknownName)
	}

	return w, nil
}

func (w *World) Params() Params { return w.params }
func (w *World) Mode() Mode     { return w.params.Mode }
func (w *World) Time() float64  { return w.t }
func (w *World) Steps() int     { return w.steps }

// Rand exposes the world's seeded source for scenario setup and scripts.
func (w *World) Rand() *rand.Rand { return w.rng }

func (w *World) AddAgent(e *Entity) error {
	if w.stepping {
		return ErrStepInProgress
	}
	if e.Agent == nil {
		return fmt.Errorf("entity %q has no agent extension", e.Name)
	}
	if len(e.Agent.Comm) != w.params.DimC {
		e.Agent.Comm = make([]float64, w.params.DimC)
	}
	w.agents = append(w.agents, e)
	w.entities = nil
	return nil
}

func (w *World) AddLandmark(e *Entity) error {
	if w.stepping {
		return ErrStepInProgress
	}
	w.landmarks = append(w.landmarks, e)
	w.entities = nil
	return nil
}

func (w *World) Agents() []*Entity    { return w.agents }
func (w *World) Landmarks() []*Entity { return w.landmarks }

// Entities returns agents followed by landmarks.
func (w *World) Entities() []*Entity {
	if w.entities == nil {
		w.entities = make([]*Entity, 0, len(w.agents)+len(w.landmarks))
		w.entities = append(w.entities, w.agents...)
		w.entities = append(w.entities, w.landmarks...)
	}
	return w.entities
}

// PolicyAgents returns agents whose actions are set by an external policy.
func (w *World) PolicyAgents() []*Entity {
	return w.filterAgents(PolicyDriven)
}

// ScriptedAgents returns agents whose actions come from a script.
func (w *World) ScriptedAgents() []*Entity {
	return w.filterAgents(PolicyScripted)
}

func (w *World) filterAgents(kind PolicyKind) []*Entity {
	out := make([]*Entity, 0, len(w.agents))
	for _, a := range w.agents {
		if a.Agent.Policy.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Step advances the world by one timestep. ext is read only in ModeWebots,
// where ext[i] holds agent i's [vx, vy, px, py].
func (w *World) Step(ext [][]float64) error {
	w.stepping = true
	defer func() { w.stepping = false }()

	if err := w.stepFn(ext); err != nil {
		return &dynamo.SimulationError{Step: w.steps, Time: w.t, Wrapped: err}
	}

	w.t += w.params.Dt
	w.steps++
	return nil
}

func (w *World) stepDefault(ext [][]float64) error {
	w.runScripts()
	forces := make([]Force, len(w.Entities()))
	forces = w.ApplyActionForce(forces)
	forces = w.ApplyEnvironmentForce(forces)
	w.IntegrateState(forces)
	for _, a := range w.agents {
		w.UpdateAgentState(a)
	}
	return nil
}

func (w *World) stepMPC(ext [][]float64) error {
	if err := w.stepDefault(ext); err != nil {
		return err
	}
	w.UpdateAgentMPC()
	return nil
}

func (w *World) stepElisa(ext [][]float64) error {
	w.UpdateAgentElisa()
	return nil
}

func (w *World) stepWebots(ext [][]float64) error {
	if len(ext) < len(w.agents) {
		log.Printf("world: webots step %d without observations for %d agents", w.steps, len(w.agents))
		return fmt.Errorf("got %d observations for %d agents: %w", len(ext), len(w.agents), ErrMissingObservation)
	}
	if err := w.SetExternalObservation(ext); err != nil {
		return err
	}
	w.runScripts()
	for _, a := range w.agents {
		w.UpdateAgentState(a)
	}
	return nil
}

func (w *World) runScripts() {
	for _, a := range w.ScriptedAgents() {
		a.Agent.Action = a.Agent.Policy.Script(a, w)
	}
}
