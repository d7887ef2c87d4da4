package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r3"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/modrob/internal/dynamics"
	"github.com/san-kum/modrob/internal/dynamo"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 600
)

// Snapshot stores state at a specific time for replay.
type Snapshot struct {
	State  dynamo.State
	Torque dynamo.Control
	Time   float64
	Energy float64
}

type TickMsg time.Time

type resetter interface{ Reset() }

// Model is the interactive arm view. It steps the simulator once per tick,
// draws the arm from its frame origins and lets the user tune the gains of
// a configurable controller while it runs.
type Model struct {
	name string
	sim  *dynamo.Simulator
	arm  *dynamics.Arm
	cfg  dynamo.Config

	state, initial dynamo.State
	u              dynamo.Control
	t              float64
	running        bool

	canvas *Canvas
	camera *Camera
	reach  float64

	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int

	energy   []float64
	history  []Snapshot
	playHead int
	showHelp bool
}

// NewModel prepares a live view of arm driven by sim from x0.
func NewModel(name string, sim *dynamo.Simulator, arm *dynamics.Arm, x0 dynamo.State, cfg dynamo.Config) Model {
	params := make(map[string]float64)
	if c, ok := sim.Controller().(dynamo.Configurable); ok {
		for k, v := range c.GetParams() {
			params[k] = v
		}
	}
	keys := make([]string, 0, len(params))
	initialParams := make(map[string]float64, len(params))
	for k, v := range params {
		keys = append(keys, k)
		initialParams[k] = v
	}
	sort.Strings(keys)

	m := Model{
		name:          name,
		sim:           sim,
		arm:           arm,
		cfg:           cfg,
		state:         x0.Clone(),
		initial:       x0.Clone(),
		u:             make(dynamo.Control, arm.ControlDim()),
		running:       true,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		params:        params,
		initialParams: initialParams,
		paramKeys:     keys,
		energy:        make([]float64, 0, historyCapacity),
		history:       make([]Snapshot, 0, historyCapacity),
		playHead:      -1,
	}
	m.reach = armReach(arm.Chain())
	w, h := m.canvas.Dots()
	m.camera = NewCamera(0.45 * float64(min(w, h)) / m.reach)
	return m
}

// armReach bounds the distance of any frame origin from the base.
func armReach(c *dynamics.Chain) float64 {
	points := c.FramePositions(make([]float64, c.Joints()))
	reach := 0.0
	for i := 1; i < len(points); i++ {
		reach += points[i].Sub(points[i-1]).Norm()
	}
	if reach == 0 {
		return 1
	}
	return reach
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
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
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		case "x", "left":
			m.camera.Rotate(-0.1, 0)
		case "X", "right":
			m.camera.Rotate(0.1, 0)
		case "y":
			m.camera.Rotate(0, 0.1)
		case "Y":
			m.camera.Rotate(0, -0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
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

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	v := m.params[key] * factor
	if v == 0 {
		v = 0.1 * factor
	}
	if c, ok := m.sim.Controller().(dynamo.Configurable); ok {
		if err := c.SetParam(key, v); err != nil {
			return
		}
	}
	m.params[key] = v
}

// step advances the arm by one control period.
func (m *Model) step() {
	if !m.state.IsValid() {
		m.running = false
		return
	}
	next, u := m.sim.Step(m.state, m.t, m.cfg)
	m.state, m.u = next, u
	m.t += m.cfg.Dt

	e := m.arm.Energy(m.state)
	m.energy = appendBounded(m.energy, e)
	m.history = append(m.history, Snapshot{State: m.state.Clone(), Torque: u, Time: m.t, Energy: e})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func appendBounded(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
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

// reset restores the initial state and gains.
func (m *Model) reset() {
	m.t = 0
	m.state = m.initial.Clone()
	m.u = make(dynamo.Control, m.arm.ControlDim())
	m.energy = m.energy[:0]
	m.history = m.history[:0]
	m.playHead = -1
	c := m.sim.Controller()
	if cfg, ok := c.(dynamo.Configurable); ok {
		for k, v := range m.initialParams {
			m.params[k] = v
			_ = cfg.SetParam(k, v)
		}
	}
	if r, ok := c.(resetter); ok {
		r.Reset()
	}
}

// current returns what is on screen: the live state or the replayed one.
func (m Model) current() Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	e := 0.0
	if len(m.energy) > 0 {
		e = m.energy[len(m.energy)-1]
	}
	return Snapshot{State: m.state, Torque: m.u, Time: m.t, Energy: e}
}

// draw renders the arm at x onto the canvas.
func (m Model) draw(x dynamo.State) {
	m.canvas.Clear()
	theta, _ := m.arm.Split(x)
	DrawGround(m.canvas, m.camera, 0.25*m.reach)
	DrawArm(m.canvas, m.camera, m.arm.Chain().FramePositions(theta))
}

// TipPosition returns the end-effector origin for the state on screen.
func (m Model) TipPosition() r3.Vector {
	theta, _ := m.arm.Split(m.current().State)
	points := m.arm.Chain().FramePositions(theta)
	return points[len(points)-1]
}

func (m Model) status() string {
	switch {
	case m.playHead != -1:
		back := m.history[m.playHead].Time - m.history[len(m.history)-1].Time
		return statusPaused.Render(fmt.Sprintf("REPLAY (%.2fs)", back))
	case !m.state.IsValid():
		return statusPaused.Render("DIVERGED")
	case !m.running:
		return statusPaused.Render("PAUSED")
	}
	return statusRunning.Render("RUNNING")
}

// View renders the TUI interface.
func (m Model) View() string {
	snap := m.current()
	m.draw(snap.State)
	theta, dtheta := m.arm.Split(snap.State)

	var s strings.Builder
	s.WriteString(titleStyle.Render(strings.ToUpper(m.name)) + "  " + m.status() + "\n\n")
	s.WriteString(labelStyle.Render("time") + valueStyle.Render(fmt.Sprintf("%.2fs", snap.Time)) + "\n")
	s.WriteString(labelStyle.Render("energy") + valueStyle.Render(fmt.Sprintf("%.4f J", snap.Energy)) + "\n")
	tip := m.TipPosition()
	s.WriteString(labelStyle.Render("tip") + valueStyle.Render(fmt.Sprintf("(%.3f, %.3f, %.3f)", tip.X, tip.Y, tip.Z)) + "\n\n")

	s.WriteString(subtle.Render("joint      θ         θ̇        τ") + "\n")
	limit := 0.0
	for _, tau := range snap.Torque {
		limit = math.Max(limit, math.Abs(tau))
	}
	for i := range theta {
		tau := 0.0
		if i < len(snap.Torque) {
			tau = snap.Torque[i]
		}
		fmt.Fprintf(&s, "%-6d %8.3f %8.3f %8.2f %s\n", i+1, theta[i], dtheta[i], tau, LoadBar(tau, limit, 8))
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("energy"))
		s.WriteString("\n" + graphStyle.Render(chart) + "\n")
	}

	s.WriteString("\ngains\n")
	if len(m.paramKeys) == 0 {
		s.WriteString(subtle.Render("  (none)") + "\n")
	}
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-4s %.3f", k, m.params[k])
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + valueStyle.Render(line) + "\n")
		}
	}
	s.WriteString(subtle.Render("\nspace pause  r reset  q quit  ? help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, panelStyle.Render(m.canvas.String()), panelStyle.Render(s.String()))
	if m.showHelp {
		return panelStyle.Render(helpText) + "\n" + view
	}
	return view
}

const helpText = `space      pause or resume
r          reset state and gains
tab        select gain
up/down    scale gain by ±5%
x/X y/Y    rotate camera
+/-        zoom
[ ]        step through history
?          toggle help
q          quit`

// Run starts the interactive view and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
