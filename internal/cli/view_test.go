package cli

import (
	"context"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout"
)

func newTestViewModel(t *testing.T) viewModel {
	t.Helper()
	e, err := layout.Configure(context.Background(), graph.Sample(), layout.DefaultViewport, layout.DefaultConfig())
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	m := newViewModel(e)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(viewModel)
}

func press(m viewModel, msg tea.Msg) (viewModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(viewModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewRendersLabels(t *testing.T) {
	m := newTestViewModel(t)
	out := m.View()
	if !strings.Contains(out, "Node ") {
		t.Errorf("View() has no node labels:\n%s", out)
	}
	for i, n := range graph.Sample().Nodes {
		m.selected = i
		if !strings.Contains(m.status(), n.Name) {
			t.Errorf("status with node %d selected = %q, want %q in it", i, m.status(), n.Name)
		}
	}
	if !strings.Contains(out, "5 nodes") {
		t.Errorf("status line missing node count:\n%s", out)
	}
}

func TestViewQuit(t *testing.T) {
	m := newTestViewModel(t)
	_, cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q command = %T, want tea.QuitMsg", cmd())
	}
}

func TestViewZoomAndReset(t *testing.T) {
	m := newTestViewModel(t)

	m, _ = press(m, runes("+"))
	if got := m.scene.Root.K; math.Abs(got-zoomStep) > 1e-9 {
		t.Errorf("after + zoom = %v, want %v", got, zoomStep)
	}

	for range 50 {
		m, _ = press(m, runes("+"))
	}
	if got, want := m.scene.Root.K, m.engine.Config().MaxZoom; got != want {
		t.Errorf("zoom after many + = %v, want clamped to %v", got, want)
	}

	m, _ = press(m, runes("r"))
	if m.scene.Root.K != 1 || m.scene.Root.X != 0 || m.scene.Root.Y != 0 {
		t.Errorf("after r root = %+v, want identity", m.scene.Root)
	}
}

func TestViewPanLeavesEngineUntouched(t *testing.T) {
	m := newTestViewModel(t)
	before := m.engine.Snapshot()

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.scene.Root.X != panStep {
		t.Errorf("root X = %v, want %v", m.scene.Root.X, panStep)
	}

	after := m.engine.Snapshot()
	for i := range before.Bodies {
		b, a := before.Bodies[i], after.Bodies[i]
		if b.X != a.X || b.Y != a.Y {
			t.Errorf("body %d moved by pan: (%v, %v) -> (%v, %v)", i, b.X, b.Y, a.X, a.Y)
		}
	}
}

func TestViewSelectAndNudge(t *testing.T) {
	m := newTestViewModel(t)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.selected != 0 {
		t.Fatalf("selected = %d, want 0", m.selected)
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if want := len(m.scene.Groups) - 1; m.selected != want {
		t.Fatalf("selected after shift+tab = %d, want %d", m.selected, want)
	}

	g := m.scene.Groups[m.selected]
	x0 := g.X
	m, _ = press(m, runes("l"))

	g = m.scene.Groups[m.selected]
	if !g.Pinned {
		t.Error("nudged node not pinned")
	}
	if math.Abs(g.X-(x0+nudgeStep)) > 1e-6 {
		t.Errorf("nudged X = %v, want %v", g.X, x0+nudgeStep)
	}
	if !m.engine.Running() {
		t.Error("nudge did not reheat the simulation")
	}
	if !strings.Contains(m.status(), "pinned") {
		t.Errorf("status %q does not report the pin", m.status())
	}
}

func TestViewMouseDrag(t *testing.T) {
	m := newTestViewModel(t)

	g := m.scene.Groups[2]
	cx, cy := m.toCell(g.X, g.Y)
	x, y := int(math.Floor(cx)), int(math.Floor(cy))

	m, _ = press(m, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	id, ok := m.drag.Active()
	if !ok {
		t.Fatal("press on a node did not start a drag")
	}

	m, _ = press(m, tea.MouseMsg{X: x + 5, Y: y + 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	sx, sy := m.toScreen(x+5, y+2)
	dragged, _ := m.scene.Find(id)
	if math.Abs(dragged.X-sx) > 1e-6 || math.Abs(dragged.Y-sy) > 1e-6 {
		t.Errorf("dragged to (%v, %v), want (%v, %v)", dragged.X, dragged.Y, sx, sy)
	}

	m, _ = press(m, tea.MouseMsg{X: x + 5, Y: y + 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if _, ok := m.drag.Active(); ok {
		t.Error("drag still active after release")
	}
	if dragged, _ := m.scene.Find(id); !dragged.Pinned {
		t.Error("node unpinned on drag end")
	}
}

func TestViewMouseMissIsIgnored(t *testing.T) {
	m := newTestViewModel(t)
	m, _ = press(m, tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if _, ok := m.drag.Active(); ok {
		t.Error("press on empty canvas started a drag")
	}
}

func TestViewFrameTicksWhileRunning(t *testing.T) {
	m := newTestViewModel(t)
	m.engine.Restart()
	ticks := m.engine.Ticks()

	m, cmd := press(m, frameMsg{})
	if cmd == nil {
		t.Error("frame did not schedule the next frame")
	}
	if m.engine.Ticks() != ticks+1 {
		t.Errorf("ticks = %d, want %d", m.engine.Ticks(), ticks+1)
	}
}

func TestViewHelpToggle(t *testing.T) {
	m := newTestViewModel(t)
	_, rowsShort := m.canvasSize()

	m, _ = press(m, runes("?"))
	if !m.help.ShowAll {
		t.Fatal("? did not expand help")
	}
	_, rowsFull := m.canvasSize()
	if rowsFull >= rowsShort {
		t.Errorf("canvas rows with full help = %d, want fewer than %d", rowsFull, rowsShort)
	}
	if !strings.Contains(m.View(), "reset view") {
		t.Error("full help missing reset binding")
	}
}
