package maddpg

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/edisim/internal/dynamo"
)

type layerJSON struct {
	Rows       int       `json:"rows"`
	Cols       int       `json:"cols"`
	Weights    []float64 `json:"weights"`
	Bias       []float64 `json:"bias"`
	Activation string    `json:"activation"`
}

type agentJSON struct {
	TargetActor  []layerJSON `json:"target_actor"`
	TargetCritic []layerJSON `json:"target_critic"`
}

type checkpointJSON struct {
	Agents []agentJSON `json:"agents"`
}

func encodeNetwork(n *Network) []layerJSON {
	layers := make([]layerJSON, len(n.Layers))
	for i, l := range n.Layers {
		r, c := l.W.Dims()
		w := make([]float64, 0, r*c)
		for row := 0; row < r; row++ {
			w = append(w, l.W.RawRowView(row)...)
		}
		layers[i] = layerJSON{
			Rows:       r,
			Cols:       c,
			Weights:    w,
			Bias:       append([]float64(nil), l.B.RawVector().Data...),
			Activation: l.Act.String(),
		}
	}
	return layers
}

func decodeNetwork(layers []layerJSON) (*Network, error) {
	n := &Network{}
	for i, l := range layers {
		if l.Rows <= 0 || l.Cols <= 0 || len(l.Weights) != l.Rows*l.Cols || len(l.Bias) != l.Rows {
			return nil, fmt.Errorf("layer %d: %dx%d with %d weights and %d biases: %w",
				i, l.Rows, l.Cols, len(l.Weights), len(l.Bias), dynamo.ErrDimensionMismatch)
		}
		act, err := ParseActivation(l.Activation)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		n.Layers = append(n.Layers, &Dense{
			W:   mat.NewDense(l.Rows, l.Cols, append([]float64(nil), l.Weights...)),
			B:   mat.NewVecDense(l.Rows, append([]float64(nil), l.Bias...)),
			Act: act,
		})
	}
	if err := n.validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Encode writes the ensemble's weights as JSON.
func (e *Ensemble) Encode(w io.Writer) error {
	cp := checkpointJSON{Agents: make([]agentJSON, e.Len())}
	for i := range cp.Agents {
		cp.Agents[i] = agentJSON{
			TargetActor:  encodeNetwork(e.Actors[i].Net),
			TargetCritic: encodeNetwork(e.Critics[i].Net),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cp)
}

// Decode reads a checkpoint written by Encode. Every critic must accept the
// joint observation and joint action of all actors.
func Decode(r io.Reader) (*Ensemble, error) {
	var cp checkpointJSON
	if err := json.NewDecoder(r).Decode(&cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if len(cp.Agents) == 0 {
		return nil, fmt.Errorf("checkpoint has no agents: %w", dynamo.ErrDimensionMismatch)
	}

	e := &Ensemble{}
	for i, a := range cp.Agents {
		actor, err := decodeNetwork(a.TargetActor)
		if err != nil {
			return nil, fmt.Errorf("agent %d actor: %w", i, err)
		}
		critic, err := decodeNetwork(a.TargetCritic)
		if err != nil {
			return nil, fmt.Errorf("agent %d critic: %w", i, err)
		}
		if critic.OutputDim() != 1 {
			return nil, fmt.Errorf("agent %d critic has %d outputs: %w", i, critic.OutputDim(), dynamo.ErrDimensionMismatch)
		}
		e.Actors = append(e.Actors, &Actor{Net: actor})
		e.Critics = append(e.Critics, &Critic{Net: critic})
	}

	joint := 0
	for _, a := range e.Actors {
		joint += a.Net.InputDim() + a.Net.OutputDim()
	}
	for i, c := range e.Critics {
		if c.Net.InputDim() != joint {
			return nil, fmt.Errorf("agent %d critic takes %d inputs, actors give %d: %w", i, c.Net.InputDim(), joint, dynamo.ErrDimensionMismatch)
		}
	}
	return e, nil
}

func (e *Ensemble) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func Load(path string) (*Ensemble, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
