package maddpg

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/edisim/internal/dynamo"
	"github.com/san-kum/edisim/internal/edi"
)

func TestDense_Forward(t *testing.T) {
	d := &Dense{
		W:   mat.NewDense(2, 3, []float64{1, 0, -1, 0.5, 0.5, 0.5}),
		B:   mat.NewVecDense(2, []float64{0, -2}),
		Act: ReLU,
	}
	net := &Network{Layers: []*Dense{d}}

	out, err := net.Forward([]float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	// W x + B = [-2, 1]; relu clips the first component.
	if out[0] != 0 || math.Abs(out[1]-1) > 1e-12 {
		t.Errorf("Forward = %v, want [0 1]", out)
	}
}

func TestActivate_Softmax(t *testing.T) {
	v := []float64{1000, 1000, 1000, 1000}
	activate(Softmax, v)
	for _, x := range v {
		if math.Abs(x-0.25) > 1e-12 {
			t.Fatalf("softmax of equal logits = %v", v)
		}
	}

	v = []float64{0, math.Log(3)}
	activate(Softmax, v)
	if math.Abs(v[0]-0.25) > 1e-12 || math.Abs(v[1]-0.75) > 1e-12 {
		t.Errorf("softmax = %v, want [0.25 0.75]", v)
	}
}

func TestNetwork_InputMismatch(t *testing.T) {
	a := NewActor(4, 5, 8, 8, rand.New(rand.NewSource(1)))
	if _, err := a.Act([]float64{1, 2}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestNewEnsemble(t *testing.T) {
	e, err := NewEnsemble([]int{6, 6, 4}, 5, 16, 16, 7)
	if err != nil {
		t.Fatal(err)
	}
	if e.Len() != 3 {
		t.Fatalf("expected 3 agents, got %d", e.Len())
	}

	act, err := e.Actor(2).Act(make([]float64, 4))
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	for _, p := range act {
		if p < 0 {
			t.Errorf("negative probability %f", p)
		}
		sum += p
	}
	if len(act) != 5 || math.Abs(sum-1) > 1e-9 {
		t.Errorf("actor output %v is not a distribution over 5 actions", act)
	}

	if _, err := e.Critic(0).Q(make([]float64, 16), make([]float64, 15)); err != nil {
		t.Errorf("critic rejected joint input: %v", err)
	}

	again, _ := NewEnsemble([]int{6, 6, 4}, 5, 16, 16, 7)
	a1, _ := e.Actor(0).Act([]float64{1, 2, 3, 4, 5, 6})
	a2, _ := again.Actor(0).Act([]float64{1, 2, 3, 4, 5, 6})
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatal("same seed produced different networks")
		}
	}
}

func TestNewEnsemble_Invalid(t *testing.T) {
	tests := []struct {
		name string
		dims []int
		fc1  int
	}{
		{"no agents", nil, 8},
		{"zero width obs", []int{3, 0}, 8},
		{"zero hidden", []int{3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEnsemble(tt.dims, 5, tt.fc1, 8, 1); !errors.Is(err, dynamo.ErrDimensionMismatch) {
				t.Errorf("expected ErrDimensionMismatch, got %v", err)
			}
		})
	}
}

func TestCheckpoint_PreservesOutputs(t *testing.T) {
	e, err := NewEnsemble([]int{3, 2}, 5, 8, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "ckpt", "ensemble.json")
	if err := e.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	obs := []float64{0.1, -0.2, 0.3, 0.4, 0.5}
	act := make([]float64, 10)
	for i := range act {
		act[i] = 0.1 * float64(i)
	}
	for k := 0; k < 2; k++ {
		want, _ := e.Critic(k).Q(obs, act)
		got, err := loaded.Critic(k).Q(obs, act)
		if err != nil || math.Abs(got-want) > 1e-12 {
			t.Errorf("critic %d: got %f (%v), want %f", k, got, err, want)
		}
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"empty", `{"agents": []}`, dynamo.ErrDimensionMismatch},
		{"bad shape", `{"agents": [{"target_actor": [{"rows": 2, "cols": 2, "weights": [1], "bias": [0, 0]}], "target_critic": []}]}`, dynamo.ErrDimensionMismatch},
		{"bad activation", `{"agents": [{"target_actor": [{"rows": 1, "cols": 1, "weights": [1], "bias": [0], "activation": "tanh"}], "target_critic": []}]}`, dynamo.ErrUnknownName},
		{"critic width", `{"agents": [{"target_actor": [{"rows": 1, "cols": 1, "weights": [1], "bias": [0]}], "target_critic": [{"rows": 1, "cols": 3, "weights": [1, 1, 1], "bias": [0]}]}]}`, dynamo.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.json)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEncode_Fields(t *testing.T) {
	e, _ := NewEnsemble([]int{2}, 3, 4, 4, 1)
	var buf bytes.Buffer
	if err := e.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"target_actor"`, `"target_critic"`, `"softmax"`} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("checkpoint missing %s", key)
		}
	}
}

func TestEnsemble_DrivesBuilder(t *testing.T) {
	e, err := NewEnsemble([]int{2, 2}, 5, 8, 8, 11)
	if err != nil {
		t.Fatal(err)
	}

	seq := make(edi.Trajectory, 4)
	for i := range seq {
		x := float64(i) * 0.1
		seq[i] = edi.Snapshot{{x, -x}, {-x, x}}
	}

	samples, err := edi.NewBuilder(e, edi.WithWorkers(2)).CalculateIO(context.Background(), seq, []int{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != edi.Count(4, 2) {
		t.Errorf("expected %d samples, got %d", edi.Count(4, 2), len(samples))
	}
	for _, s := range samples {
		if math.IsNaN(s.Zeta()) {
			t.Fatal("zeta is NaN")
		}
	}
}
