package world_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/control"
	"github.com/san-kum/edisim/internal/vehicle"
	"github.com/san-kum/edisim/internal/world"
)

func newWorld(mode world.Mode, dimC int) *world.World {
	p := world.DefaultParams()
	p.Mode = mode
	p.DimC = dimC
	p.Seed = 7
	w, err := world.New(p)
	Expect(err).NotTo(HaveOccurred())
	return w
}

func addAgents(w *world.World, positions ...r2.Vec) []*world.Entity {
	agents := make([]*world.Entity, len(positions))
	for i, p := range positions {
		a := world.NewAgent("agent", w.Params().DimC)
		a.Pos = p
		Expect(w.AddAgent(a)).To(Succeed())
		agents[i] = a
	}
	return agents
}

var _ = Describe("World.Step", func() {
	Context("in default mode", func() {
		var (
			w       *world.World
			agents  []*world.Entity
			landmks []*world.Entity
		)

		BeforeEach(func() {
			w = newWorld(world.ModeDefault, 0)
			agents = addAgents(w, r2.Vec{X: 0, Y: 0}, r2.Vec{X: -0.8, Y: 0.8}, r2.Vec{X: -0.8, Y: -0.8})
			for _, p := range []r2.Vec{{X: 0.1, Y: 0}, {X: 0.8, Y: 0.8}} {
				l := world.NewLandmark("landmark")
				l.Size = 0.2
				l.Pos = p
				Expect(w.AddLandmark(l)).To(Succeed())
				landmks = append(landmks, l)
			}
		})

		It("repels an agent approaching an overlapping landmark", func() {
			agents[0].Vel = r2.Vec{X: 0.1}
			agents[0].Agent.Action.U = []float64{0, 0}

			Expect(w.Step(nil)).To(Succeed())

			Expect(agents[0].Vel.X).To(BeNumerically("<", 0))
			Expect(agents[0].Vel.Y).To(BeNumerically("~", 0, 1e-12))
		})

		It("never moves landmarks", func() {
			before := landmks[0].Pos
			for i := 0; i < 5; i++ {
				Expect(w.Step(nil)).To(Succeed())
			}
			Expect(landmks[0].Pos).To(Equal(before))
		})

		It("keeps every coordinate in [-1, 1]", func() {
			for _, a := range agents {
				a.Agent.Action.U = []float64{5, -5}
			}
			for i := 0; i < 20; i++ {
				Expect(w.Step(nil)).To(Succeed())
				for _, e := range w.Entities() {
					Expect(math.Abs(e.Pos.X)).To(BeNumerically("<=", 1))
					Expect(math.Abs(e.Pos.Y)).To(BeNumerically("<=", 1))
				}
			}
		})

		It("advances time by dt", func() {
			Expect(w.Step(nil)).To(Succeed())
			Expect(w.Steps()).To(Equal(1))
			Expect(w.Time()).To(BeNumerically("~", world.DefaultDt, 1e-12))
		})
	})

	Context("with scripted agents", func() {
		It("runs scripts before forces are applied", func() {
			w := newWorld(world.ModeDefault, 0)
			agents := addAgents(w, r2.Vec{})
			agents[0].Agent.Policy = world.Scripted(func(a *world.Entity, _ *world.World) world.Action {
				return world.Action{U: []float64{1, 0}}
			})

			Expect(w.ScriptedAgents()).To(HaveLen(1))
			Expect(w.PolicyAgents()).To(BeEmpty())
			Expect(w.Step(nil)).To(Succeed())
			Expect(agents[0].Vel.X).To(BeNumerically("~", world.DefaultDt, 1e-12))
		})

		It("rejects entity changes during a step", func() {
			w := newWorld(world.ModeDefault, 0)
			agents := addAgents(w, r2.Vec{})
			var addErr error
			agents[0].Agent.Policy = world.Scripted(func(a *world.Entity, w *world.World) world.Action {
				addErr = w.AddLandmark(world.NewLandmark("late"))
				return world.Action{}
			})

			Expect(w.Step(nil)).To(Succeed())
			Expect(addErr).To(MatchError(world.ErrStepInProgress))
			Expect(w.Landmarks()).To(BeEmpty())
		})
	})

	Context("communication", func() {
		It("copies the communication action and zeroes silent agents", func() {
			w := newWorld(world.ModeDefault, 3)
			agents := addAgents(w, r2.Vec{X: -0.5}, r2.Vec{X: 0.5})
			agents[0].Agent.Action.C = []float64{1, 2, 3}
			agents[1].Agent.Action.C = []float64{1, 2, 3}
			agents[1].Agent.Silent = true

			Expect(w.Step(nil)).To(Succeed())
			Expect(agents[0].Agent.Comm).To(Equal([]float64{1, 2, 3}))
			Expect(agents[1].Agent.Comm).To(Equal([]float64{0, 0, 0}))
		})

		It("adds noise only when a noise scale is set", func() {
			w := newWorld(world.ModeDefault, 2)
			agents := addAgents(w, r2.Vec{X: -0.5}, r2.Vec{X: 0.5})
			agents[0].Agent.Action.C = []float64{1, 1}
			agents[1].Agent.Action.C = []float64{1, 1}
			agents[1].Agent.CNoise = world.Float(0.5)

			Expect(w.Step(nil)).To(Succeed())
			Expect(agents[0].Agent.Comm).To(Equal([]float64{1, 1}))
			Expect(agents[1].Agent.Comm).NotTo(Equal([]float64{1, 1}))
		})
	})

	Context("in elisa mode", func() {
		It("drives straight along the heading for equal wheel speeds", func() {
			w := newWorld(world.ModeElisa, 0)
			agents := addAgents(w, r2.Vec{X: 0.1, Y: 0.1})
			agents[0].Rot = math.Pi / 4
			agents[0].Agent.Action.U = []float64{1, 1}

			Expect(w.Step(nil)).To(Succeed())

			arc := world.DefaultDt * world.WheelRadius
			Expect(agents[0].Rot).To(Equal(math.Pi / 4))
			Expect(agents[0].Pos.X).To(BeNumerically("~", 0.1+arc*math.Cos(math.Pi/4), 1e-12))
			Expect(agents[0].Pos.Y).To(BeNumerically("~", 0.1+arc*math.Sin(math.Pi/4), 1e-12))
			Expect(r2.Norm(agents[0].Vel)).To(BeNumerically("~", arc/world.DefaultDt, 1e-12))
		})

		It("turns toward the slower wheel", func() {
			w := newWorld(world.ModeElisa, 0)
			agents := addAgents(w, r2.Vec{})
			agents[0].Agent.Action.U = []float64{20, -20}

			Expect(w.Step(nil)).To(Succeed())
			Expect(agents[0].Rot).To(BeNumerically(">", 0))
		})
	})

	Context("in webots mode", func() {
		It("copies external velocity and position", func() {
			w := newWorld(world.ModeWebots, 0)
			agents := addAgents(w, r2.Vec{}, r2.Vec{})

			ext := [][]float64{{0.1, 0.2, 0.3, 0.4}, {-0.1, -0.2, -0.3, -0.4}}
			Expect(w.Step(ext)).To(Succeed())

			Expect(agents[0].Vel).To(Equal(r2.Vec{X: 0.1, Y: 0.2}))
			Expect(agents[0].Pos).To(Equal(r2.Vec{X: 0.3, Y: 0.4}))
			Expect(agents[1].Pos).To(Equal(r2.Vec{X: -0.3, Y: -0.4}))
		})

		It("clamps external positions to the arena", func() {
			w := newWorld(world.ModeWebots, 0)
			agents := addAgents(w, r2.Vec{})

			Expect(w.Step([][]float64{{0, 0, 1.5, -2}})).To(Succeed())
			Expect(agents[0].Pos).To(Equal(r2.Vec{X: 1, Y: -1}))
		})

		It("fails without observations", func() {
			w := newWorld(world.ModeWebots, 0)
			addAgents(w, r2.Vec{})

			Expect(w.Step(nil)).To(MatchError(world.ErrMissingObservation))
			Expect(w.Steps()).To(Equal(0))
		})
	})

	Context("in mpc mode", func() {
		It("copies the vehicle pose back onto the agent", func() {
			w := newWorld(world.ModeMPC, 0)
			agents := addAgents(w, r2.Vec{X: 0.2, Y: -0.1})
			ctrl, err := control.New("simple", 4)
			Expect(err).NotTo(HaveOccurred())
			agents[0].Agent.Vehicle = vehicle.NewCar(0.2, -0.1, 0)
			agents[0].Agent.Controller = ctrl
			agents[0].Agent.Action.U = []float64{0.5, 0}

			Expect(w.Step(nil)).To(Succeed())

			pos, _, vel := agents[0].Agent.Vehicle.State()
			Expect(agents[0].Pos).To(Equal(pos))
			Expect(agents[0].Vel).To(Equal(vel))
			Expect(agents[0].Pos.X).To(BeNumerically(">", 0.2))
		})

		It("leaves agents without a vehicle on the default path", func() {
			w := newWorld(world.ModeMPC, 0)
			agents := addAgents(w, r2.Vec{})
			agents[0].Agent.Action.U = []float64{1, 0}

			Expect(w.Step(nil)).To(Succeed())
			Expect(agents[0].Vel.X).To(BeNumerically("~", world.DefaultDt, 1e-12))
		})
	})
})
