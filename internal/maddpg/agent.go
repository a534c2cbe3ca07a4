package maddpg

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/edisim/internal/dynamo"
	"github.com/san-kum/edisim/internal/edi"
)

// Actor maps one agent's observation to a distribution over its discrete actions.
type Actor struct {
	Net *Network
}

func NewActor(obsDim, nActions, fc1, fc2 int, rng *rand.Rand) *Actor {
	return &Actor{Net: &Network{Layers: []*Dense{
		NewDense(obsDim, fc1, ReLU, rng),
		NewDense(fc1, fc2, ReLU, rng),
		NewDense(fc2, nActions, Softmax, rng),
	}}}
}

func (a *Actor) Act(obs []float64) ([]float64, error) {
	return a.Net.Forward(obs)
}

// Critic scores a joint observation and joint action.
type Critic struct {
	Net *Network
}

func NewCritic(jointObsDim, jointActDim, fc1, fc2 int, rng *rand.Rand) *Critic {
	return &Critic{Net: &Network{Layers: []*Dense{
		NewDense(jointObsDim+jointActDim, fc1, ReLU, rng),
		NewDense(fc1, fc2, ReLU, rng),
		NewDense(fc2, 1, Linear, rng),
	}}}
}

func (c *Critic) Q(jointObs, jointAct []float64) (float64, error) {
	in := make([]float64, 0, len(jointObs)+len(jointAct))
	in = append(in, jointObs...)
	in = append(in, jointAct...)
	out, err := c.Net.Forward(in)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Ensemble holds one actor and one critic per agent.
type Ensemble struct {
	Actors  []*Actor
	Critics []*Critic
}

var _ edi.Ensemble = (*Ensemble)(nil)

// NewEnsemble builds a randomly initialised ensemble for agents with the given
// observation widths, each choosing among nActions actions.
func NewEnsemble(obsDims []int, nActions, fc1, fc2 int, seed int64) (*Ensemble, error) {
	if len(obsDims) == 0 {
		return nil, fmt.Errorf("ensemble needs at least one agent: %w", dynamo.ErrDimensionMismatch)
	}
	for _, d := range append([]int{nActions, fc1, fc2}, obsDims...) {
		if d <= 0 {
			return nil, fmt.Errorf("layer width %d: %w", d, dynamo.ErrDimensionMismatch)
		}
	}

	jointObs := 0
	for _, d := range obsDims {
		jointObs += d
	}
	jointAct := nActions * len(obsDims)

	rng := rand.New(rand.NewSource(seed))
	e := &Ensemble{}
	for _, d := range obsDims {
		e.Actors = append(e.Actors, NewActor(d, nActions, fc1, fc2, rng))
		e.Critics = append(e.Critics, NewCritic(jointObs, jointAct, fc1, fc2, rng))
	}
	return e, nil
}

func (e *Ensemble) Len() int { return len(e.Actors) }

func (e *Ensemble) Actor(i int) edi.Actor { return e.Actors[i] }

func (e *Ensemble) Critic(i int) edi.Critic { return e.Critics[i] }

// ObsDims returns each actor's expected observation width.
func (e *Ensemble) ObsDims() []int {
	dims := make([]int, len(e.Actors))
	for i, a := range e.Actors {
		dims[i] = a.Net.InputDim()
	}
	return dims
}
