package edi

// Actor is an agent's policy network.
type Actor interface {
	Act(obs []float64) ([]float64, error)
}

// Critic is an agent's centralised value network over the joint observation
// and the joint action.
type Critic interface {
	Q(jointObs, jointAct []float64) (float64, error)
}

// Ensemble exposes one actor and one critic per agent index. Actors and
// critics are called from several goroutines at once and must not mutate
// shared state during a forward pass.
type Ensemble interface {
	Len() int
	Actor(i int) Actor
	Critic(i int) Critic
}
