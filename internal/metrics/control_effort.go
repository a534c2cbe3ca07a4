package metrics

import (
	"math"

	"github.com/san-kum/edisim/internal/dynamo"
)

// ControlEffort averages, over steps, the summed magnitude of every agent's
// planar action. u is read as consecutive (ux, uy) pairs.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for i := 0; i+1 < len(u); i += 2 {
		c.sum += math.Hypot(u[i], u[i+1])
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
