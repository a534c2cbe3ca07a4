package control

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/dynamo"
	"github.com/san-kum/edisim/internal/vehicle"
)

func TestNone(t *testing.T) {
	ctrl := NewNone(4)
	v, w := ctrl.Compute(vehicle.NewCar(0, 0, 0), r2.Vec{X: 1, Y: 1}, 0.1)
	if v != 0 || w != 0 {
		t.Errorf("expected zero command, got (%f, %f)", v, w)
	}
	if ctrl.Horizon() != 4 {
		t.Errorf("expected horizon 4, got %d", ctrl.Horizon())
	}
}

func TestSimple_TurnsTowardTarget(t *testing.T) {
	ctrl := NewSimple(4)
	car := vehicle.NewCar(0, 0, 0)

	v, w := ctrl.Compute(car, r2.Vec{X: 0, Y: 1}, 0.1)
	if w <= 0 {
		t.Errorf("target on the left should give positive angular velocity, got %f", w)
	}
	if math.Abs(v) > 1e-12 {
		t.Errorf("target at 90 degrees should give no forward speed, got %f", v)
	}

	v, w = ctrl.Compute(car, r2.Vec{X: 1, Y: 0}, 0.1)
	if v <= 0 || math.Abs(w) > 1e-12 {
		t.Errorf("target ahead should drive straight, got (%f, %f)", v, w)
	}
}

func TestSimple_AtTarget(t *testing.T) {
	v, w := NewSimple(4).Compute(vehicle.NewCar(0.3, 0.3, 1), r2.Vec{X: 0.3, Y: 0.3}, 0.1)
	if v != 0 || w != 0 {
		t.Errorf("expected zero command at target, got (%f, %f)", v, w)
	}
}

func TestLoop(t *testing.T) {
	l := NewLoop(10.0, 0.1, 5.0)
	if u := l.Update(-1.0, 0.1); u >= 0 {
		t.Error("loop should output negative control for negative error")
	}
	l.Reset()
	if u := l.Update(2.0, 0.1); u != 20.0 {
		t.Errorf("first update after reset should be proportional, got %f", u)
	}
}

func TestPID_ConvergesOnWaypoint(t *testing.T) {
	ctrl := NewPID(4)
	car := vehicle.NewCar(0, 0, 0)
	target := r2.Vec{X: 0.5, Y: 0.2}

	dt := 0.05
	for i := 0; i < 400; i++ {
		v, w := ctrl.Compute(car, target, dt)
		car.SetVelocity(v, w)
		car.Update(dt)
	}

	pos, _, _ := car.State()
	if d := r2.Norm(r2.Sub(target, pos)); d > 0.05 {
		t.Errorf("expected to reach waypoint, distance %f", d)
	}
}

func TestMPC_ReducesDistance(t *testing.T) {
	ctrl := NewMPC(4)
	car := vehicle.NewCar(0, 0, 0)
	target := r2.Vec{X: 0.4, Y: 0.1}
	start := r2.Norm(target)

	dt := 0.05
	for i := 0; i < 20; i++ {
		v, w := ctrl.Compute(car, target, dt)
		car.SetVelocity(v, w)
		car.Update(dt)
	}

	pos, _, _ := car.State()
	if d := r2.Norm(r2.Sub(target, pos)); d >= start/2 {
		t.Errorf("expected distance to halve, start %f end %f", start, d)
	}
}

func TestGrid(t *testing.T) {
	g := grid(1.0, 5)
	want := []float64{-1, -0.5, 0, 0.5, 1}
	for i := range want {
		if math.Abs(g[i]-want[i]) > 1e-12 {
			t.Errorf("grid[%d] = %f, want %f", i, g[i], want[i])
		}
	}
	if g := grid(1.0, 1); len(g) != 1 || g[0] != 0 {
		t.Errorf("degenerate grid should be {0}, got %v", g)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"none", "simple", "pid", "mpc"} {
		ctrl, err := New(name, 0)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if ctrl.Horizon() != DefaultHorizon {
			t.Errorf("%s: expected default horizon, got %d", name, ctrl.Horizon())
		}
	}

	if _, err := New("lqr", 4); !errors.Is(err, dynamo.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
}

func TestWrapAngle(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
	}
	for _, tt := range tests {
		if got := wrapAngle(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("wrapAngle(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestTune(t *testing.T) {
	tests := []struct {
		name    string
		ctrl    Controller
		gains   map[string]float64
		wantErr bool
		check   func(Controller) bool
	}{
		{"simple gains", NewSimple(4), map[string]float64{"Kv": 0.5, "Kw": 3},
			false, func(c Controller) bool { s := c.(*Simple); return s.Kv == 0.5 && s.Kw == 3 }},
		{"pid gains", NewPID(4), map[string]float64{"HeadingKd": 0.4},
			false, func(c Controller) bool { return c.(*PID).Heading.Kd == 0.4 }},
		{"mpc weight", NewMPC(4), map[string]float64{"ControlWeight": 0.1},
			false, func(c Controller) bool { return c.(*MPC).ControlWeight == 0.1 }},
		{"no gains on none", NewNone(4), nil, false, nil},
		{"unknown gain", NewSimple(4), map[string]float64{"Ki": 1}, true, nil},
		{"none has no gains", NewNone(4), map[string]float64{"Kv": 1}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Tune(tt.ctrl, tt.gains)
			if tt.wantErr {
				if !errors.Is(err, dynamo.ErrUnknownName) {
					t.Errorf("expected ErrUnknownName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Tune failed: %v", err)
			}
			if tt.check != nil && !tt.check(tt.ctrl) {
				t.Errorf("gains not applied: %+v", tt.ctrl)
			}
		})
	}
}
