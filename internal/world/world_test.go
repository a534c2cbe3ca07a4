package world

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/dynamo"
)

func newTestWorld(t *testing.T, mode Mode) *World {
	t.Helper()
	p := DefaultParams()
	p.Mode = mode
	w, err := New(p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return w
}

func TestCollisionForce_ZeroDistance(t *testing.T) {
	w := newTestWorld(t, ModeDefault)
	a := NewAgent("a", 0)
	b := NewAgent("b", 0)
	a.Pos = r2.Vec{X: 0.3, Y: -0.2}
	b.Pos = a.Pos

	fa, fb := w.CollisionForce(a, b)
	for _, f := range []Force{fa, fb} {
		if !f.Set {
			t.Fatal("movable colliders should receive a force slot")
		}
		if f.Vec.X != 0 || f.Vec.Y != 0 {
			t.Errorf("coincident entities should get zero force, got %v", f.Vec)
		}
	}
}

func TestCollisionForce_Symmetric(t *testing.T) {
	w := newTestWorld(t, ModeDefault)
	a := NewAgent("a", 0)
	b := NewAgent("b", 0)
	a.Pos = r2.Vec{X: 0.0, Y: 0.0}
	b.Pos = r2.Vec{X: 0.06, Y: 0.0}

	fa, fb := w.CollisionForce(a, b)
	if fa.Vec.X >= 0 {
		t.Errorf("a should be pushed toward -x, got %v", fa.Vec)
	}
	if math.Abs(fa.Vec.X+fb.Vec.X) > 1e-12 || math.Abs(fa.Vec.Y+fb.Vec.Y) > 1e-12 {
		t.Errorf("forces should be opposite: %v vs %v", fa.Vec, fb.Vec)
	}

	// dist_min = 0.1, dist = 0.06: penetration is close to the hard 0.04.
	want := DefaultContactForce * 0.04
	if math.Abs(-fa.Vec.X-want) > 1e-3 {
		t.Errorf("expected magnitude ~%f, got %f", want, -fa.Vec.X)
	}
}

func TestCollisionForce_Absent(t *testing.T) {
	w := newTestWorld(t, ModeDefault)

	agent := NewAgent("a", 0)
	landmark := NewLandmark("l")
	landmark.Pos = r2.Vec{X: 0.01}

	fa, fl := w.CollisionForce(agent, landmark)
	if !fa.Set {
		t.Error("movable agent should receive a force")
	}
	if fl.Set {
		t.Error("static landmark should receive no force")
	}

	ghost := NewAgent("g", 0)
	ghost.Collide = false
	if f1, f2 := w.CollisionForce(agent, ghost); f1.Set || f2.Set {
		t.Error("non-colliding pair should produce no force")
	}

	if f1, f2 := w.CollisionForce(agent, agent); f1.Set || f2.Set {
		t.Error("self pair should produce no force")
	}
}

func TestCollisionForce_FarApartIsNegligible(t *testing.T) {
	w := newTestWorld(t, ModeDefault)
	a := NewAgent("a", 0)
	b := NewAgent("b", 0)
	b.Pos = r2.Vec{X: 0.9, Y: 0.9}

	fa, _ := w.CollisionForce(a, b)
	if n := r2.Norm(fa.Vec); n > 1e-100 || math.IsNaN(n) {
		t.Errorf("expected negligible force, got %g", n)
	}
}

func TestLogAddExp(t *testing.T) {
	tests := []struct{ a, b, want float64 }{
		{0, 0, math.Ln2},
		{0, -1000, 0},
		{0, 1000, 1000},
		{1, 2, math.Log(math.E + math.E*math.E)},
	}
	for _, tt := range tests {
		if got := logAddExp(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("logAddExp(%f, %f) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
	if !math.IsNaN(logAddExp(0, math.NaN())) {
		t.Error("NaN input should give NaN")
	}
}

func TestBound_PerAxis(t *testing.T) {
	tests := []struct {
		in, want r2.Vec
	}{
		{r2.Vec{X: 0.5, Y: -0.5}, r2.Vec{X: 0.5, Y: -0.5}},
		{r2.Vec{X: 1.5, Y: 0.2}, r2.Vec{X: 1.0, Y: 0.2}},
		{r2.Vec{X: -3, Y: 7}, r2.Vec{X: -1, Y: 1}},
		{r2.Vec{X: 0.9, Y: 0.9}, r2.Vec{X: 0.9, Y: 0.9}},
	}
	for _, tt := range tests {
		if got := bound(tt.in); got != tt.want {
			t.Errorf("bound(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIntegrateState_SpeedClamp(t *testing.T) {
	w := newTestWorld(t, ModeDefault)
	a := NewAgent("a", 0)
	a.MaxSpeed = Float(0.5)
	if err := w.AddAgent(a); err != nil {
		t.Fatal(err)
	}

	forces := []Force{ForceOf(r2.Vec{X: 30, Y: 40})}
	w.IntegrateState(forces)

	if speed := r2.Norm(a.Vel); math.Abs(speed-0.5) > 1e-12 {
		t.Errorf("expected speed 0.5, got %f", speed)
	}
	if math.Abs(a.Vel.X/a.Vel.Y-0.75) > 1e-12 {
		t.Errorf("direction changed: %v", a.Vel)
	}
}

func TestIntegrateState_Bounded(t *testing.T) {
	w := newTestWorld(t, ModeDefault)
	a := NewAgent("a", 0)
	a.Pos = r2.Vec{X: 0.95, Y: -0.95}
	if err := w.AddAgent(a); err != nil {
		t.Fatal(err)
	}

	w.IntegrateState([]Force{ForceOf(r2.Vec{X: 100, Y: -100})})
	if a.Pos.X != 1 || a.Pos.Y != -1 {
		t.Errorf("expected clamp to (1, -1), got %v", a.Pos)
	}
}

func TestIntegrateState_UnsetForceOnlyDamps(t *testing.T) {
	w := newTestWorld(t, ModeDefault)
	a := NewAgent("a", 0)
	a.Vel = r2.Vec{X: 0.4}
	if err := w.AddAgent(a); err != nil {
		t.Fatal(err)
	}

	w.IntegrateState([]Force{NoForce()})
	if math.Abs(a.Vel.X-0.3) > 1e-12 {
		t.Errorf("expected damped velocity 0.3, got %f", a.Vel.X)
	}
}

func TestDiffDriveStep_Continuity(t *testing.T) {
	arc := 0.01
	straight, _ := DiffDriveStep(r2.Vec{}, 0.3, arc, 0)
	for _, beta := range []float64{0.0100001, 0.02, -0.0100001} {
		curved, _ := DiffDriveStep(r2.Vec{}, 0.3, arc, beta)
		if d := r2.Norm(r2.Sub(curved, straight)); d > arc*math.Abs(beta) {
			t.Errorf("beta=%f: jump %g exceeds %g", beta, d, arc*math.Abs(beta))
		}
	}
}

func TestDiffDriveStep_QuarterTurn(t *testing.T) {
	// Radius 1, facing +x: one unit forward and one unit to the right.
	pos, rot := DiffDriveStep(r2.Vec{}, 0, math.Pi/2, math.Pi/2)
	if math.Abs(pos.X-1) > 1e-12 || math.Abs(pos.Y+1) > 1e-12 {
		t.Errorf("expected (1, -1), got %v", pos)
	}
	if math.Abs(rot-math.Pi/2) > 1e-12 {
		t.Errorf("expected heading pi/2, got %f", rot)
	}
}

func TestDiffDriveStep_ArcSide(t *testing.T) {
	tests := []struct {
		name      string
		rot, beta float64
		want      r2.Vec
	}{
		{"positive turn facing +x", 0, 0.5, r2.Vec{X: 0.02 * math.Sin(0.5), Y: 0.02 * (math.Cos(0.5) - 1)}},
		{"negative turn facing +x", 0, -0.5, r2.Vec{X: 0.02 * math.Sin(0.5), Y: 0.02 * (1 - math.Cos(0.5))}},
		{"positive turn facing +y", math.Pi / 2, 0.5, r2.Vec{X: -0.02 * (math.Cos(0.5) - 1), Y: 0.02 * math.Sin(0.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, rot := DiffDriveStep(r2.Vec{}, tt.rot, 0.01, tt.beta)
			if r2.Norm(r2.Sub(pos, tt.want)) > 1e-12 {
				t.Errorf("pos = %v, want %v", pos, tt.want)
			}
			if math.Abs(rot-(tt.rot+tt.beta)) > 1e-12 {
				t.Errorf("rot = %f, want %f", rot, tt.rot+tt.beta)
			}
		})
	}
}

func TestForceAdd(t *testing.T) {
	a := ForceOf(r2.Vec{X: 1})
	if got := NoForce().Add(NoForce()); got.Set {
		t.Error("absent + absent should stay absent")
	}
	if got := NoForce().Add(a); !got.Set || got.Vec != a.Vec {
		t.Errorf("absent + a should be a, got %v", got)
	}
	if got := a.Add(ForceOf(r2.Vec{Y: 2})); got.Vec != (r2.Vec{X: 1, Y: 2}) {
		t.Errorf("unexpected sum %v", got.Vec)
	}
	if got := ForceOf(r2.Vec{}).Add(NoForce()); !got.Set {
		t.Error("zero force must stay set")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeDefault},
		{"default", ModeDefault},
		{"simple_tag", ModeDefault},
		{"elisa", ModeElisa},
		{"simple_tag_elisa", ModeElisa},
		{"WEBOTS", ModeWebots},
		{"simple_tag_mpc", ModeMPC},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseMode("simple_spread"); !errors.Is(err, dynamo.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero dt", func(p *Params) { p.Dt = 0 }},
		{"damping above one", func(p *Params) { p.Damping = 1.5 }},
		{"zero margin", func(p *Params) { p.ContactMargin = 0 }},
		{"3d positions", func(p *Params) { p.DimP = 3 }},
		{"negative dim_c", func(p *Params) { p.DimC = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if _, err := New(p); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSnapshotLayout(t *testing.T) {
	w := newTestWorld(t, ModeDefault)
	a := NewAgent("a", 0)
	a.Pos = r2.Vec{X: 0.1, Y: 0.2}
	a.Vel = r2.Vec{X: 0.3, Y: 0.4}
	a.Agent.Action.U = []float64{1, 2}
	l := NewLandmark("l")
	l.Pos = r2.Vec{X: -0.5, Y: 0.5}
	_ = w.AddAgent(a)
	_ = w.AddLandmark(l)

	want := dynamo.State{0.1, 0.2, 0.3, 0.4, -0.5, 0.5, 0, 0}
	got := w.Snapshot()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot = %v, want %v", got, want)
		}
	}

	if u := w.JointControl(); len(u) != 2 || u[0] != 1 || u[1] != 2 {
		t.Errorf("unexpected joint control %v", u)
	}
}
