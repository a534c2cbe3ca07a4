package maddpg

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/edisim/internal/dynamo"
)

type Activation int

const (
	Linear Activation = iota
	ReLU
	Softmax
)

func (a Activation) String() string {
	switch a {
	case ReLU:
		return "relu"
	case Softmax:
		return "softmax"
	default:
		return "linear"
	}
}

func ParseActivation(s string) (Activation, error) {
	switch strings.ToLower(s) {
	case "linear", "":
		return Linear, nil
	case "relu":
		return ReLU, nil
	case "softmax":
		return Softmax, nil
	}
	return Linear, fmt.Errorf("activation %q: %w", s, dynamo.ErrUnknownName)
}

// Dense is a fully connected layer computing Act(W x + B). W is out x in.
type Dense struct {
	W   *mat.Dense
	B   *mat.VecDense
	Act Activation
}

// NewDense initialises weights and biases uniformly in [-1/sqrt(in), 1/sqrt(in)].
func NewDense(in, out int, act Activation, rng *rand.Rand) *Dense {
	bound := 1 / math.Sqrt(float64(in))
	w := make([]float64, out*in)
	for i := range w {
		w[i] = (2*rng.Float64() - 1) * bound
	}
	b := make([]float64, out)
	for i := range b {
		b[i] = (2*rng.Float64() - 1) * bound
	}
	return &Dense{
		W:   mat.NewDense(out, in, w),
		B:   mat.NewVecDense(out, b),
		Act: act,
	}
}

func (d *Dense) In() int {
	_, c := d.W.Dims()
	return c
}

func (d *Dense) Out() int {
	r, _ := d.W.Dims()
	return r
}

func (d *Dense) forward(x *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(d.Out(), nil)
	out.MulVec(d.W, x)
	out.AddVec(out, d.B)
	activate(d.Act, out.RawVector().Data)
	return out
}

func activate(act Activation, v []float64) {
	switch act {
	case ReLU:
		for i, x := range v {
			if x < 0 {
				v[i] = 0
			}
		}
	case Softmax:
		m := floats.Max(v)
		for i, x := range v {
			v[i] = math.Exp(x - m)
		}
		floats.Scale(1/floats.Sum(v), v)
	}
}

// Network is a feed-forward stack of dense layers. Forward allocates its own
// buffers, so one network can serve concurrent callers.
type Network struct {
	Layers []*Dense
}

func (n *Network) InputDim() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return n.Layers[0].In()
}

func (n *Network) OutputDim() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return n.Layers[len(n.Layers)-1].Out()
}

func (n *Network) Forward(x []float64) ([]float64, error) {
	if len(x) != n.InputDim() {
		return nil, fmt.Errorf("input has %d components, network expects %d: %w", len(x), n.InputDim(), dynamo.ErrDimensionMismatch)
	}
	v := mat.NewVecDense(len(x), append([]float64(nil), x...))
	for _, l := range n.Layers {
		v = l.forward(v)
	}
	return v.RawVector().Data, nil
}

// validate checks that consecutive layers chain together.
func (n *Network) validate() error {
	if len(n.Layers) == 0 {
		return fmt.Errorf("network has no layers: %w", dynamo.ErrDimensionMismatch)
	}
	for i := 1; i < len(n.Layers); i++ {
		if n.Layers[i].In() != n.Layers[i-1].Out() {
			return fmt.Errorf("layer %d takes %d inputs, previous layer gives %d: %w",
				i, n.Layers[i].In(), n.Layers[i-1].Out(), dynamo.ErrDimensionMismatch)
		}
	}
	return nil
}
