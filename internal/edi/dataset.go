package edi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/edisim/internal/dynamo"
)

// ErrInvalidMask indicates a cooperating-agent index outside the ensemble.
var ErrInvalidMask = errors.New("edi: cooperating agent index out of range")

// Sample is one regression example: agent Agent's observations at I and J
// followed by zeta, labelled with the distance between the two observations.
type Sample struct {
	Features []float64
	Label    float64
	I, J     int
	Agent    int
}

// Zeta returns the Q-difference stored as the last feature.
func (s Sample) Zeta() float64 {
	return s.Features[len(s.Features)-1]
}

type Builder struct {
	ens     Ensemble
	workers int
}

type Option func(*Builder)

// WithWorkers bounds the goroutines used for (i, j) pairs; n <= 0 uses all CPUs.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

func NewBuilder(ens Ensemble, opts ...Option) *Builder {
	b := &Builder{ens: ens}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Mu evaluates every agent's actor on its own observation and concatenates the
// actions in agent order.
func (b *Builder) Mu(state Snapshot) ([]float64, error) {
	if len(state) != b.ens.Len() {
		return nil, fmt.Errorf("snapshot has %d agents, ensemble has %d: %w", len(state), b.ens.Len(), dynamo.ErrDimensionMismatch)
	}
	var mu []float64
	for i, obs := range state {
		act, err := b.ens.Actor(i).Act(obs)
		if err != nil {
			return nil, fmt.Errorf("actor %d: %w", i, err)
		}
		mu = append(mu, act...)
	}
	return mu, nil
}

// QValues evaluates the critic of each masked agent on the joint observation of
// state and the joint action mu.
func (b *Builder) QValues(state Snapshot, mu []float64, mask []int) ([]float64, error) {
	if err := b.checkMask(mask); err != nil {
		return nil, err
	}
	return b.qValues(state.JointObservation(), mu, mask)
}

func (b *Builder) qValues(jointObs, mu []float64, mask []int) ([]float64, error) {
	qs := make([]float64, len(mask))
	for n, k := range mask {
		q, err := b.ens.Critic(k).Q(jointObs, mu)
		if err != nil {
			return nil, fmt.Errorf("critic %d: %w", k, err)
		}
		qs[n] = q
	}
	return qs, nil
}

// CalculateIO builds the samples for one trajectory. Samples are ordered by
// i, then j, then mask order. Trajectories shorter than two steps yield none.
func (b *Builder) CalculateIO(ctx context.Context, seq Trajectory, mask []int) ([]Sample, error) {
	if err := b.checkMask(mask); err != nil {
		return nil, err
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	if len(seq) < 2 {
		return nil, nil
	}
	last := len(seq) - 1

	// Per-timestep caches: joint observation, optimal joint action and the
	// cooperating agents' summed on-policy Q.
	joint := make([][]float64, len(seq))
	mus := make([][]float64, len(seq))
	onPolicy := make([]float64, len(seq))
	for t, s := range seq {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mu, err := b.Mu(s)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}
		joint[t] = s.JointObservation()
		mus[t] = mu
		if t == 0 {
			continue
		}
		qs, err := b.qValues(joint[t], mu, mask)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}
		onPolicy[t] = floats.Sum(qs)
	}

	pairs := make([][2]int, 0, last*(last+1)/2)
	for i := 0; i < last; i++ {
		for j := i + 1; j <= last; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}

	samples := make([]Sample, len(pairs)*len(mask))
	var (
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	dynamo.ParallelFor(len(pairs), 1, b.workers, func(start, end int) {
		for p := start; p < end; p++ {
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			i, j := pairs[p][0], pairs[p][1]
			qs, err := b.qValues(joint[j], mus[i], mask)
			if err != nil {
				fail(fmt.Errorf("pair (%d, %d): %w", i, j, err))
				return
			}
			zeta := onPolicy[j] - floats.Sum(qs)
			for n, k := range mask {
				samples[p*len(mask)+n] = newSample(seq[i][k], seq[j][k], zeta, i, j, k)
			}
		}
	})

	if firstErr != nil {
		return nil, firstErr
	}
	return samples, nil
}

func newSample(oi, oj []float64, zeta float64, i, j, k int) Sample {
	features := make([]float64, 0, len(oi)+len(oj)+1)
	features = append(features, oi...)
	features = append(features, oj...)
	features = append(features, zeta)
	return Sample{
		Features: features,
		Label:    floats.Distance(oi, oj, 2),
		I:        i,
		J:        j,
		Agent:    k,
	}
}

func (b *Builder) checkMask(mask []int) error {
	for _, k := range mask {
		if k < 0 || k >= b.ens.Len() {
			return fmt.Errorf("index %d with %d agents: %w", k, b.ens.Len(), ErrInvalidMask)
		}
	}
	return nil
}

// Count returns the number of samples CalculateIO emits for a trajectory of
// length n and a mask of size m.
func Count(n, m int) int {
	if n < 2 {
		return 0
	}
	last := n - 1
	return m * last * (last + 1) / 2
}

// Matrix packs samples into a feature matrix and a label vector. All samples
// must share a feature width.
func Matrix(samples []Sample) (*mat.Dense, *mat.VecDense, error) {
	if len(samples) == 0 {
		return nil, nil, nil
	}
	width := len(samples[0].Features)
	data := make([]float64, 0, len(samples)*width)
	labels := make([]float64, len(samples))
	for n, s := range samples {
		if len(s.Features) != width {
			return nil, nil, fmt.Errorf("sample %d has %d features, want %d: %w", n, len(s.Features), width, dynamo.ErrDimensionMismatch)
		}
		data = append(data, s.Features...)
		labels[n] = s.Label
	}
	return mat.NewDense(len(samples), width, data), mat.NewVecDense(len(samples), labels), nil
}
