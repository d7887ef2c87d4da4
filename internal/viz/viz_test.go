package viz

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/geo/r3"
	"github.com/san-kum/modrob/internal/config"
	"github.com/san-kum/modrob/internal/experiment"
	"gonum.org/v1/gonum/mat"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(4, 2)
	if w, h := c.Dots(); w != 8 || h != 8 {
		t.Fatalf("dots = %dx%d, want 8x8", w, h)
	}
	c.Set(0, 0)
	c.Set(7, 7)
	c.Set(-1, 3)
	c.Set(8, 0)
	if !c.IsSet(0, 0) || !c.IsSet(7, 7) {
		t.Error("expected corner dots to be set")
	}
	if c.IsSet(1, 0) {
		t.Error("unexpected dot at (1,0)")
	}
	rows := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if []rune(rows[0])[0] != 0x2801 || []rune(rows[1])[3] != 0x2880 {
		t.Errorf("unexpected cells %q", rows)
	}
	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("clear left a dot")
	}
}

func TestCanvasDrawLine(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
	}{
		{"horizontal", 0, 3, 7, 3},
		{"vertical", 2, 0, 2, 7},
		{"diagonal", 7, 7, 0, 0},
		{"steep", 1, 0, 3, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(4, 2)
			c.DrawLine(tt.x0, tt.y0, tt.x1, tt.y1)
			if !c.IsSet(tt.x0, tt.y0) || !c.IsSet(tt.x1, tt.y1) {
				t.Error("line endpoints not drawn")
			}
		})
	}
}

func TestCameraProject(t *testing.T) {
	cam := &Camera{Scale: 10, Zoom: 1}
	tests := []struct {
		p    r3.Vector
		x, y int
	}{
		{r3.Vector{}, 50, 40},
		{r3.Vector{Z: 1}, 50, 30},
		{r3.Vector{X: 1}, 60, 40},
		{r3.Vector{Y: 1}, 50, 40},
	}
	for _, tt := range tests {
		x, y := cam.Project(tt.p, 100, 80)
		if x != tt.x || y != tt.y {
			t.Errorf("Project(%v) = (%d,%d), want (%d,%d)", tt.p, x, y, tt.x, tt.y)
		}
	}

	cam.Rotate(math.Pi/2, 0)
	if x, y := cam.Project(r3.Vector{Y: 1}, 100, 80); x != 40 || y != 40 {
		t.Errorf("after yaw, Project(y) = (%d,%d), want (40,40)", x, y)
	}
	cam.Rotate(0, 10)
	if cam.Pitch != math.Pi/2 {
		t.Errorf("pitch not clamped: %v", cam.Pitch)
	}
}

func TestDrawArm(t *testing.T) {
	c := NewCanvas(20, 10)
	cam := &Camera{Scale: 10, Zoom: 1}
	DrawArm(c, cam, []r3.Vector{{}, {Z: 1}, {X: 1, Z: 1}})
	for _, p := range [][2]int{{20, 20}, {20, 10}, {30, 10}, {25, 10}, {20, 15}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("expected dot at %v", p)
		}
	}
}

func TestFormatMatrix(t *testing.T) {
	got := FormatMatrix("T", mat.NewDense(2, 2, []float64{1, 0, 0, 0.5}))
	if !strings.HasPrefix(got, "T =\n") || !strings.Contains(got, "0.5") {
		t.Errorf("unexpected output %q", got)
	}
	if v := FormatVector([]float64{1, -0.25}); v != "[1 -0.25]" {
		t.Errorf("FormatVector = %q", v)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1, 2, 3}, 4); got != "▁▃▅█" {
		t.Errorf("Sparkline = %q", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("empty Sparkline = %q", got)
	}
}

func TestPlotJoints(t *testing.T) {
	M := mat.NewDense(20, 2, nil)
	for i := 0; i < 20; i++ {
		M.Set(i, 0, float64(i))
		M.Set(i, 1, float64(20-i))
	}
	out := PlotJoints(M, PlotOptions{Width: 30, Height: 5, Caption: "joints"})
	if !strings.Contains(out, "joints") {
		t.Errorf("missing caption in %q", out)
	}
	if PlotJoints(&mat.Dense{}, PlotOptions{}) != "" {
		t.Error("expected empty plot for empty matrix")
	}
	if len(Columns(M)) != 2 {
		t.Error("expected two columns")
	}
}

func TestFigure(t *testing.T) {
	bad := Figure{Times: []float64{0, 1}, Series: [][]float64{{1}}}
	if _, err := bad.Plot(); err == nil {
		t.Error("expected error for short series")
	}

	path := filepath.Join(t.TempDir(), "joints.png")
	f := Figure{
		Title:  "joints",
		YLabel: "rad",
		Times:  []float64{0, 0.5, 1},
		Series: [][]float64{{0, 0.5, 1}, {1, 0.5, 0}},
		Names:  []string{"shoulder"},
	}
	if err := f.SavePNG(path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty image")
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	exp, err := experiment.New(cfg, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(cfg.Name, exp.Simulator(), exp.Arm(), cfg.InitialState(), cfg.SimConfig())
}

func TestModelStepAndReset(t *testing.T) {
	m := newTestModel(t)
	start := m.state.Clone()

	next, _ := m.Update(TickMsg{})
	m = next.(Model)
	if len(m.history) != 1 || math.Abs(m.t-m.cfg.Dt) > 1e-12 {
		t.Fatalf("expected one step, got %d at t=%v", len(m.history), m.t)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	m = next.(Model)
	if m.running {
		t.Fatal("space should pause")
	}
	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	if len(m.history) != 1 {
		t.Error("paused model stepped")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(Model)
	if m.t != 0 || len(m.history) != 0 {
		t.Error("reset did not clear history")
	}
	for i := range start {
		if m.state[i] != start[i] {
			t.Errorf("state[%d] = %v after reset, want %v", i, m.state[i], start[i])
		}
	}
}

func TestModelTuneGains(t *testing.T) {
	m := newTestModel(t)
	if len(m.paramKeys) != 3 || m.paramKeys[0] != "Kd" {
		t.Fatalf("unexpected gain keys %v", m.paramKeys)
	}
	kd := m.params["Kd"]
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if math.Abs(m.params["Kd"]-1.05*kd) > 1e-12 {
		t.Errorf("Kd = %v, want %v", m.params["Kd"], 1.05*kd)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.paramKeys[m.selected] != "Ki" {
		t.Errorf("tab selected %s", m.paramKeys[m.selected])
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(Model)
	if m.params["Kd"] != kd {
		t.Error("reset did not restore gains")
	}
}

func TestModelScrubAndView(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 3; i++ {
		next, _ := m.Update(TickMsg{})
		m = next.(Model)
	}
	m.scrub(-1)
	if m.playHead != 1 || m.running {
		t.Fatalf("playHead = %d running=%v", m.playHead, m.running)
	}
	if got := m.current().Time; math.Abs(got-2*m.cfg.Dt) > 1e-12 {
		t.Errorf("replayed time %v", got)
	}
	view := m.View()
	if !strings.Contains(view, "REPLAY") || !strings.Contains(view, "Kp") {
		t.Error("view is missing replay status or gains")
	}
	m.scrub(1)
	m.scrub(1)
	if m.playHead != -1 {
		t.Errorf("scrubbing past the end should return to live, got %d", m.playHead)
	}
}
