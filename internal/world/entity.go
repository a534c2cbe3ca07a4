package world

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/control"
	"github.com/san-kum/edisim/internal/vehicle"
)

const (
	DefaultSize        = 0.05
	DefaultDensity     = 25.0
	DefaultInitialMass = 1.0
	DefaultURange      = 100.0
)

type Kind int

const (
	KindLandmark Kind = iota
	KindAgent
)

func (k Kind) String() string {
	if k == KindAgent {
		return "agent"
	}
	return "landmark"
}

// Entity is a physical body. Agents carry an AgentExt; landmarks leave it nil.
type Entity struct {
	Name    string
	Kind    Kind
	Size    float64
	Movable bool
	Collide bool
	Density float64
	// MaxSpeed and Accel are unset when nil.
	MaxSpeed    *float64
	Accel       *float64
	InitialMass float64

	Pos r2.Vec
	Vel r2.Vec
	// Rot is the heading used by differential drive.
	Rot float64

	Agent *AgentExt
}

func (e *Entity) Mass() float64 { return e.InitialMass }

func (e *Entity) IsAgent() bool { return e.Agent != nil }

type Action struct {
	U []float64
	C []float64
}

// Script computes a scripted agent's action from the current world.
type Script func(agent *Entity, w *World) Action

type PolicyKind int

const (
	PolicyDriven PolicyKind = iota
	PolicyScripted
)

// Policy selects who sets an agent's action: an external policy or a script.
type Policy struct {
	Kind   PolicyKind
	Script Script
}

func Driven() Policy { return Policy{Kind: PolicyDriven} }

func Scripted(fn Script) Policy { return Policy{Kind: PolicyScripted, Script: fn} }

type AgentExt struct {
	Silent    bool
	Blind     bool
	Adversary bool
	// UNoise and CNoise scale Gaussian noise on the physical and
	// communication actions; nil means no noise.
	UNoise *float64
	CNoise *float64
	URange float64

	Comm   []float64
	Action Action
	Policy Policy

	Vehicle    *vehicle.Car
	Controller control.Controller
}

func NewLandmark(name string) *Entity {
	return &Entity{
		Name:        name,
		Kind:        KindLandmark,
		Size:        DefaultSize,
		Collide:     true,
		Density:     DefaultDensity,
		InitialMass: DefaultInitialMass,
	}
}

func NewAgent(name string, dimC int) *Entity {
	return &Entity{
		Name:        name,
		Kind:        KindAgent,
		Size:        DefaultSize,
		Movable:     true,
		Collide:     true,
		Density:     DefaultDensity,
		InitialMass: DefaultInitialMass,
		Agent: &AgentExt{
			URange: DefaultURange,
			Comm:   make([]float64, dimC),
			Policy: Driven(),
		},
	}
}

// Float returns a pointer to v, for the optional entity parameters.
func Float(v float64) *float64 { return &v }
