package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/edisim/internal/dynamo"
	"github.com/san-kum/edisim/internal/metrics"
	"github.com/san-kum/edisim/internal/world"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
	trailLength     = 12
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Builder creates a fresh world for the viewer, and again on reset.
type Builder func() (*world.World, error)

// Driver sets the agents' actions before each world step.
type Driver func(w *world.World, step int) error

// Frame is a recorded world snapshot.
type Frame struct {
	State  dynamo.State
	Time   float64
	Energy float64
}

// Model steps a world on every tick and renders it.
type Model struct {
	build    Builder
	drive    Driver
	w        *world.World
	title    string
	steps    int
	step     int
	canvas   *Canvas
	theme    Theme
	running  bool
	history  []Frame
	playHead int
	showHelp bool
	err      error
}

// NewModel builds the first world. steps bounds the episode; the viewer pauses
// when it is reached.
func NewModel(build Builder, drive Driver, steps int, title string) (Model, error) {
	w, err := build()
	if err != nil {
		return Model{}, err
	}
	m := Model{
		build:    build,
		drive:    drive,
		w:        w,
		title:    title,
		steps:    steps,
		canvas:   NewCanvas(width, height),
		theme:    Themes[0],
		running:  true,
		history:  make([]Frame, 0, historyCapacity),
		playHead: -1,
	}
	m.record()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/20, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the world.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "t":
			m.theme = m.theme.next()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.advance()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// advance runs one world step, pausing at the end of the episode or on error.
func (m *Model) advance() {
	if m.err != nil || (m.steps > 0 && m.step >= m.steps) {
		m.running = false
		return
	}
	if m.drive != nil {
		if err := m.drive(m.w, m.step); err != nil {
			m.fail(err)
			return
		}
	}
	if err := m.w.Step(nil); err != nil {
		m.fail(err)
		return
	}
	m.step++
	m.record()
}

func (m *Model) fail(err error) {
	m.err = err
	m.running = false
}

func (m *Model) record() {
	x := m.w.Snapshot()
	m.history = append(m.history, Frame{
		State:  x,
		Time:   m.w.Time(),
		Energy: metrics.Kinetic(x, masses(m.w)),
	})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func masses(w *world.World) []float64 {
	entities := w.Entities()
	out := make([]float64, len(entities))
	for i, e := range entities {
		out[i] = e.Mass()
	}
	return out
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset rebuilds the world and clears the recording.
func (m *Model) reset() {
	w, err := m.build()
	if err != nil {
		m.fail(err)
		return
	}
	m.w = w
	m.step = 0
	m.err = nil
	m.history = m.history[:0]
	m.playHead = -1
	m.running = true
	m.record()
}

// frame returns the frame being shown: the replay position or the latest.
func (m Model) frame() Frame {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return m.history[len(m.history)-1]
}

// View renders the arena and the side panel.
func (m Model) View() string {
	f := m.frame()
	m.draw(f)

	arena := lipgloss.NewStyle().Foreground(m.theme.Arena)
	header := lipgloss.NewStyle().Foreground(m.theme.Accent).Bold(true).MarginBottom(1)
	value := lipgloss.NewStyle().Foreground(m.theme.Text)
	canvasView := canvasStyle.Render(arena.Render(m.canvas.String()))

	var s strings.Builder
	s.WriteString(header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	energies := make([]float64, len(m.history))
	for i, h := range m.history {
		energies[i] = h.Energy
	}
	if len(energies) > 1 {
		chart := asciigraph.Plot(energies, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(lipgloss.NewStyle().Foreground(m.theme.Accent).Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Mode") + value.Render(m.w.Mode().String()) + "\n")
	s.WriteString(labelStyle.Render("Time") + value.Render(fmt.Sprintf("%.2fs", f.Time)) + "\n")
	s.WriteString(labelStyle.Render("Step") + value.Render(fmt.Sprintf("%d/%d", m.step, m.steps)) + "\n")
	s.WriteString(labelStyle.Render("Energy") + value.Render(fmt.Sprintf("%.4f", f.Energy)) + "\n")

	s.WriteString("\nAGENTS\n")
	for i, a := range m.w.Agents() {
		base := 4 * i
		if base+3 >= len(f.State) {
			break
		}
		speed := r2.Norm(r2.Vec{X: f.State[base+2], Y: f.State[base+3]})
		line := fmt.Sprintf("%-12s (%+.2f, %+.2f) |v| %.2f", a.Name, f.State[base], f.State[base+1], speed)
		if a.Agent.Adversary {
			s.WriteString(lipgloss.NewStyle().Foreground(m.theme.Warn).Render(line) + "\n")
		} else {
			s.WriteString(value.Render(line) + "\n")
		}
	}

	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(m.theme.Warn).Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset Q:Quit\nT:Theme [ ]:Replay ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
  Space  pause/resume      R  rebuild world
  [ ]    replay frames     T  cycle theme
  ?      toggle help       Q  quit
` + "\n" + mainView
	}
	return mainView
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return "ERROR"
	case m.playHead != -1:
		return fmt.Sprintf("REPLAY (%.2fs)", m.history[m.playHead].Time-m.history[len(m.history)-1].Time)
	case m.steps > 0 && m.step >= m.steps:
		return "DONE"
	case !m.running:
		return "PAUSED"
	}
	return "RUNNING"
}

// draw renders entities from f: landmarks as outlines, adversaries filled,
// good agents as rings with a centre dot, plus short agent trails.
func (m Model) draw(f Frame) {
	c := m.canvas
	c.Clear()

	end := len(m.history)
	if m.playHead != -1 {
		end = m.playHead + 1
	}
	start := end - trailLength
	if start < 0 {
		start = 0
	}
	nAgents := len(m.w.Agents())
	for _, h := range m.history[start:end] {
		for i := 0; i < nAgents && 4*i+1 < len(h.State); i++ {
			x, y := c.Project(r2.Vec{X: h.State[4*i], Y: h.State[4*i+1]})
			c.Set(x, y)
		}
	}

	for k, e := range m.w.Entities() {
		if 4*k+1 >= len(f.State) {
			break
		}
		x, y := c.Project(r2.Vec{X: f.State[4*k], Y: f.State[4*k+1]})
		r := c.Scale(e.Size)
		switch {
		case !e.IsAgent():
			c.DrawCircle(x, y, r)
		case e.Agent.Adversary:
			c.FillCircle(x, y, r)
		default:
			c.DrawCircle(x, y, r)
			c.Set(x, y)
		}
	}
}

// Err returns the error that stopped the world, if any.
func (m Model) Err() error { return m.err }

// World returns the world being shown.
func (m Model) World() *world.World { return m.w }
