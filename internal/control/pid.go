package control

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/vehicle"
)

// Loop is a scalar PID loop driven by an error signal and an explicit step size.
type Loop struct {
	Kp       float64
	Ki       float64
	Kd       float64
	integral float64
	prevErr  float64
	first    bool
}

func NewLoop(kp, ki, kd float64) *Loop {
	return &Loop{Kp: kp, Ki: ki, Kd: kd, first: true}
}

func (l *Loop) Update(err, dt float64) float64 {
	if l.first || dt <= 0 {
		l.prevErr = err
		l.first = false
		return l.Kp * err
	}

	l.integral += err * dt
	derivative := (err - l.prevErr) / dt
	l.prevErr = err

	return l.Kp*err + l.Ki*l.integral + l.Kd*derivative
}

// Reset clears integral and derivative state
func (l *Loop) Reset() {
	l.integral = 0
	l.prevErr = 0
	l.first = true
}

// PID tracks a waypoint with one loop on distance and one on bearing error.
type PID struct {
	Distance *Loop
	Heading  *Loop
	horizon  int
}

func NewPID(horizon int) *PID {
	return &PID{
		Distance: NewLoop(1.0, 0.0, 0.05),
		Heading:  NewLoop(2.0, 0.0, 0.1),
		horizon:  horizon,
	}
}

func (p *PID) Compute(car *vehicle.Car, target r2.Vec, dt float64) (float64, float64) {
	errHeading, dist := headingError(car, target)
	v := p.Distance.Update(dist*math.Max(0, math.Cos(errHeading)), dt)
	w := p.Heading.Update(errHeading, dt)
	return v, w
}

func (p *PID) Horizon() int { return p.horizon }

func (p *PID) Reset() {
	p.Distance.Reset()
	p.Heading.Reset()
}

func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"DistKp":    p.Distance.Kp,
		"DistKi":    p.Distance.Ki,
		"DistKd":    p.Distance.Kd,
		"HeadingKp": p.Heading.Kp,
		"HeadingKi": p.Heading.Ki,
		"HeadingKd": p.Heading.Kd,
	}
}

func (p *PID) SetParam(name string, value float64) {
	switch name {
	case "DistKp":
		p.Distance.Kp = value
	case "DistKi":
		p.Distance.Ki = value
	case "DistKd":
		p.Distance.Kd = value
	case "HeadingKp":
		p.Heading.Kp = value
	case "HeadingKi":
		p.Heading.Ki = value
	case "HeadingKd":
		p.Heading.Kd = value
	}
}
