package metrics

import (
	"math"

	"github.com/san-kum/edisim/internal/dynamo"
)

// BoundaryContact is the fraction of steps in which some entity sits on the
// wall of the [-1, 1] arena.
type BoundaryContact struct {
	name     string
	contacts int
	samples  int
}

func NewBoundaryContact() *BoundaryContact {
	return &BoundaryContact{
		name: "boundary_contact",
	}
}

func (b *BoundaryContact) Name() string {
	return b.name
}

func (b *BoundaryContact) Observe(x dynamo.State, u dynamo.Control, t float64) {
	b.samples++
	for base := 0; base+1 < len(x); base += stride {
		if math.Abs(x[base]) >= 1 || math.Abs(x[base+1]) >= 1 {
			b.contacts++
			break
		}
	}
}

func (b *BoundaryContact) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.contacts) / float64(b.samples)
}

func (b *BoundaryContact) Reset() {
	b.contacts = 0
	b.samples = 0
}
