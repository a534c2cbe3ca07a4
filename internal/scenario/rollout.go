package scenario

import (
	"context"
	"fmt"
	"log"

	"github.com/san-kum/edisim/internal/dynamo"
	"github.com/san-kum/edisim/internal/edi"
	"github.com/san-kum/edisim/internal/world"
)

// Episode is a recorded rollout. Trajectory holds one entry more than Result:
// the observation after the final step.
type Episode struct {
	Trajectory edi.Trajectory
	Result     *dynamo.Result
}

type rolloutOptions struct {
	metrics  []dynamo.Metric
	external func(step int) [][]float64
	observer func(step int, w *world.World)
}

type RolloutOption func(*rolloutOptions)

func WithMetrics(m ...dynamo.Metric) RolloutOption {
	return func(o *rolloutOptions) { o.metrics = append(o.metrics, m...) }
}

// WithExternal supplies the per-step observations a webots world reads.
func WithExternal(fn func(step int) [][]float64) RolloutOption {
	return func(o *rolloutOptions) { o.external = fn }
}

// WithObserver is called after every step.
func WithObserver(fn func(step int, w *world.World)) RolloutOption {
	return func(o *rolloutOptions) { o.observer = fn }
}

// Rollout drives the policy agents of w with ens for steps world steps.
// Ensemble index i acts for agent i; scripted agents ignore their actor.
func Rollout(ctx context.Context, w *world.World, ens edi.Ensemble, steps int, opts ...RolloutOption) (*Episode, error) {
	var o rolloutOptions
	for _, opt := range opts {
		opt(&o)
	}

	agents := w.Agents()
	if ens.Len() != len(agents) {
		return nil, fmt.Errorf("ensemble has %d actors for %d agents: %w", ens.Len(), len(agents), dynamo.ErrDimensionMismatch)
	}
	for _, m := range o.metrics {
		m.Reset()
	}

	ep := &Episode{
		Trajectory: make(edi.Trajectory, 0, steps+1),
		Result: &dynamo.Result{
			States:   make([]dynamo.State, 0, steps),
			Controls: make([]dynamo.Control, 0, steps),
			Times:    make([]float64, 0, steps),
			Metrics:  make(map[string]float64),
		},
	}

	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		obs := Observe(w)
		ep.Trajectory = append(ep.Trajectory, obs)
		if err := act(w, ens, obs); err != nil {
			return nil, &dynamo.SimulationError{Step: step, Time: w.Time(), Wrapped: err}
		}

		var ext [][]float64
		if o.external != nil {
			ext = o.external(step)
		}
		if err := w.Step(ext); err != nil {
			return nil, err
		}

		x, u, t := w.Snapshot(), w.JointControl(), w.Time()
		if !x.IsValid() {
			return nil, &dynamo.SimulationError{Step: step, Time: t, Wrapped: dynamo.ErrInvalidState}
		}
		ep.Result.States = append(ep.Result.States, x)
		ep.Result.Controls = append(ep.Result.Controls, u)
		ep.Result.Times = append(ep.Result.Times, t)
		for _, m := range o.metrics {
			m.Observe(x, u, t)
		}
		if o.observer != nil {
			o.observer(step, w)
		}
	}
	ep.Trajectory = append(ep.Trajectory, Observe(w))

	for _, m := range o.metrics {
		ep.Result.Metrics[m.Name()] = m.Value()
	}
	log.Printf("scenario: rollout of %d steps in %s mode finished at t=%.3f", steps, w.Mode(), w.Time())
	return ep, nil
}

// Act sets every policy-driven agent's action from its actor's output on the
// current observation.
func Act(w *world.World, ens edi.Ensemble) error {
	if ens.Len() != len(w.Agents()) {
		return fmt.Errorf("ensemble has %d actors for %d agents: %w", ens.Len(), len(w.Agents()), dynamo.ErrDimensionMismatch)
	}
	return act(w, ens, Observe(w))
}

func act(w *world.World, ens edi.Ensemble, obs edi.Snapshot) error {
	for i, a := range w.Agents() {
		if a.Agent.Policy.Kind != world.PolicyDriven {
			continue
		}
		probs, err := ens.Actor(i).Act(obs[i])
		if err != nil {
			return fmt.Errorf("actor %d: %w", i, err)
		}
		action, err := DecodeAction(a, probs, w.Mode())
		if err != nil {
			return fmt.Errorf("agent %d: %w", i, err)
		}
		a.Agent.Action = action
	}
	return nil
}

// External converts a recorded trajectory of agent states, one [vx, vy, px, py]
// row per agent, into a webots observation source. Steps past the end repeat
// the last row.
func External(rows [][][]float64) func(step int) [][]float64 {
	return func(step int) [][]float64 {
		if len(rows) == 0 {
			return nil
		}
		if step >= len(rows) {
			step = len(rows) - 1
		}
		return rows[step]
	}
}
