package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/interact"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/scene"
)

const (
	viewFPS      = 30
	panStep      = 40.0 // screen px per arrow press
	nudgeStep    = 15.0 // screen px per hjkl press
	zoomStep     = 1.25
	chromeHeight = 2 // status line + short help
)

// viewCommand creates the view command.
func (c *CLI) viewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [nodes.json|nodes.toml]",
		Short: "Explore the diagram in the terminal",
		Long: `Explore the diagram in the terminal.

Drag nodes with the mouse, or select one with tab and nudge it with h/j/k/l.
Arrow keys pan, + and - zoom. Press ? for all key bindings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd.Flags())
			if err != nil {
				return err
			}
			return c.runView(cmd.Context(), args, s)
		},
	}
	addLayoutFlags(cmd.Flags())
	return cmd
}

func (c *CLI) runView(ctx context.Context, args []string, s *settings) error {
	g, input, err := loadNodes(args)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, s)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	e, err := runner.Layout(ctx, g, pipeline.Options{Viewport: s.Viewport(), Config: s.Layout})
	if stderrors.Is(err, layout.ErrNoNodes) {
		printWarning("No nodes in %s, nothing to show", input)
		return nil
	}
	if err != nil {
		return err
	}

	p := tea.NewProgram(newViewModel(e),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// =============================================================================
// Key bindings
// =============================================================================

type viewKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Next    key.Binding
	Prev    key.Binding
	NudgeL  key.Binding
	NudgeD  key.Binding
	NudgeU  key.Binding
	NudgeR  key.Binding
	Restart key.Binding
	Reset   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var viewKeys = viewKeyMap{
	Up:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "pan up")),
	Down:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "pan down")),
	Left:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "pan left")),
	Right:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "pan right")),
	ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
	Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next node")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev node")),
	NudgeL:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "move left")),
	NudgeD:  key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "move down")),
	NudgeU:  key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "move up")),
	NudgeR:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "move right")),
	Restart: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "reheat")),
	Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset view")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

func (k viewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.NudgeR, k.ZoomIn, k.Restart, k.Help, k.Quit}
}

func (k viewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.ZoomIn, k.ZoomOut, k.Reset},
		{k.Next, k.Prev, k.NudgeL, k.NudgeD, k.NudgeU, k.NudgeR},
		{k.Restart, k.Help, k.Quit},
	}
}

// =============================================================================
// Model
// =============================================================================

var (
	viewStatusStyle   = lipgloss.NewStyle().Foreground(colorGray)
	viewLabelStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	viewSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	viewPalette       = []lipgloss.Color{colorCyan, colorGreen, colorBlue, colorRed, lipgloss.Color("176"), lipgloss.Color("179")}
)

type frameMsg time.Time

func frameCmd() tea.Cmd {
	return tea.Tick(time.Second/viewFPS, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// viewModel is the bubbletea model of the terminal viewer. It owns the
// engine; every gesture reaches it through Engine.Update.
type viewModel struct {
	engine *layout.Engine
	scene  *scene.Scene
	zoom   *interact.Zoom
	drag   *interact.Dragger
	help   help.Model
	keys   viewKeyMap

	styles   []lipgloss.Style // per category, in scene.Categories order
	category []int            // style index per group

	width, height int
	selected      int // group index, -1 for none
}

func newViewModel(e *layout.Engine) viewModel {
	cfg := e.Config()
	z := interact.NewZoom(cfg.MinZoom, cfg.MaxZoom)
	sc := scene.Build(e)

	m := viewModel{
		engine:   e,
		scene:    sc,
		zoom:     z,
		drag:     interact.NewDragger(z),
		help:     help.New(),
		keys:     viewKeys,
		width:    80,
		height:   24,
		selected: -1,
	}

	index := make(map[string]int)
	for i, cat := range sc.Categories() {
		index[cat] = i
		m.styles = append(m.styles, lipgloss.NewStyle().Foreground(viewPalette[i%len(viewPalette)]))
	}
	m.category = make([]int, len(sc.Groups))
	for i, g := range sc.Groups {
		m.category[i] = index[strings.TrimPrefix(g.Circle.Class, "node-")]
	}
	return m
}

func (m viewModel) Init() tea.Cmd {
	return frameCmd()
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if m.engine.Running() {
			m.send(layout.Tick{})
		}
		return m, frameCmd()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width

	case tea.MouseMsg:
		m.mouse(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			m.pan(0, panStep)
		case key.Matches(msg, m.keys.Down):
			m.pan(0, -panStep)
		case key.Matches(msg, m.keys.Left):
			m.pan(panStep, 0)
		case key.Matches(msg, m.keys.Right):
			m.pan(-panStep, 0)
		case key.Matches(msg, m.keys.ZoomIn):
			m.scaleBy(zoomStep)
		case key.Matches(msg, m.keys.ZoomOut):
			m.scaleBy(1 / zoomStep)
		case key.Matches(msg, m.keys.Reset):
			m.scene.SetRoot(m.zoom.Reset())
		case key.Matches(msg, m.keys.Next):
			m.selected = (m.selected + 1) % len(m.scene.Groups)
		case key.Matches(msg, m.keys.Prev):
			m.selected = (m.selected - 1 + len(m.scene.Groups)) % len(m.scene.Groups)
		case key.Matches(msg, m.keys.NudgeL):
			m.nudge(-nudgeStep, 0)
		case key.Matches(msg, m.keys.NudgeR):
			m.nudge(nudgeStep, 0)
		case key.Matches(msg, m.keys.NudgeU):
			m.nudge(0, -nudgeStep)
		case key.Matches(msg, m.keys.NudgeD):
			m.nudge(0, nudgeStep)
		case key.Matches(msg, m.keys.Restart):
			m.engine.Restart()
		}
	}
	return m, nil
}

// send feeds msg to the engine and projects the resulting frame.
func (m *viewModel) send(msg layout.Message) {
	if msg == nil {
		return
	}
	// Frame length always matches the scene built from the same engine.
	_ = m.scene.Apply(m.engine.Update(msg))
}

func (m *viewModel) pan(dx, dy float64) {
	m.scene.SetRoot(m.zoom.TranslateBy(dx, dy))
}

func (m *viewModel) scaleBy(f float64) {
	view := m.engine.Viewport()
	m.scene.SetRoot(m.zoom.ScaleBy(f, view.Width/2, view.Height/2))
}

// nudge drags the selected node by (dx, dy) screen px in one gesture.
func (m *viewModel) nudge(dx, dy float64) {
	if m.selected < 0 {
		return
	}
	g := &m.scene.Groups[m.selected]
	sx, sy := m.zoom.Transform().Apply(g.X, g.Y)
	m.send(m.drag.Start(g.ID, sx, sy))
	m.send(m.drag.Move(sx+dx, sy+dy))
	m.send(m.drag.End())
}

func (m *viewModel) mouse(msg tea.MouseMsg) {
	sx, sy := m.toScreen(msg.X, msg.Y)
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scene.SetRoot(m.zoom.ScaleBy(zoomStep, sx, sy))
	case msg.Button == tea.MouseButtonWheelDown:
		m.scene.SetRoot(m.zoom.ScaleBy(1/zoomStep, sx, sy))
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		wx, wy := m.zoom.Transform().Invert(sx, sy)
		g, ok := m.scene.Hit(wx, wy)
		if !ok {
			return
		}
		for i := range m.scene.Groups {
			if m.scene.Groups[i].ID == g.ID {
				m.selected = i
			}
		}
		m.send(m.drag.Start(g.ID, sx, sy))
	case msg.Action == tea.MouseActionMotion:
		m.send(m.drag.Move(sx, sy))
	case msg.Action == tea.MouseActionRelease:
		m.send(m.drag.End())
	}
}

// =============================================================================
// Canvas
// =============================================================================

func (m viewModel) canvasSize() (cols, rows int) {
	rows = m.height - chromeHeight
	if m.help.ShowAll {
		rows = m.height - 1 - lipgloss.Height(m.help.View(m.keys))
	}
	return max(m.width, 1), max(rows, 1)
}

// toScreen maps the centre of terminal cell (cx, cy) to viewport px.
func (m viewModel) toScreen(cx, cy int) (float64, float64) {
	cols, rows := m.canvasSize()
	view := m.engine.Viewport()
	return (float64(cx) + 0.5) * view.Width / float64(cols), (float64(cy) + 0.5) * view.Height / float64(rows)
}

// toCell maps viewport px to fractional cell coordinates.
func (m viewModel) toCell(sx, sy float64) (float64, float64) {
	cols, rows := m.canvasSize()
	view := m.engine.Viewport()
	return sx * float64(cols) / view.Width, sy * float64(rows) / view.Height
}

type cell struct {
	r     rune
	style int // 0 plain, 1 label, 2 selected, 3+ category
}

const (
	stylePlain = iota
	styleLabel
	styleSelected
	styleCategory
)

func (m viewModel) View() string {
	cols, rows := m.canvasSize()
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			grid[y][x] = cell{r: ' '}
		}
	}
	set := func(x, y int, r rune, style int) {
		if y >= 0 && y < rows && x >= 0 && x < cols {
			grid[y][x] = cell{r: r, style: style}
		}
	}

	t := m.scene.Root
	for i, g := range m.scene.Groups {
		style := styleCategory + m.category[i]
		if i == m.selected {
			style = styleSelected
		}
		sx, sy := t.Apply(g.X, g.Y)
		cx, cy := m.toCell(sx, sy)
		rx, ry := m.toCell(g.Circle.R*t.K, g.Circle.R*t.K)

		if rx < 1 || ry < 1 {
			set(int(math.Floor(cx)), int(math.Floor(cy)), '●', style)
		} else {
			for y := int(math.Floor(cy - ry)); y <= int(math.Ceil(cy+ry)); y++ {
				for x := int(math.Floor(cx - rx)); x <= int(math.Ceil(cx+rx)); x++ {
					dx, dy := (float64(x)+0.5-cx)/rx, (float64(y)+0.5-cy)/ry
					if dx*dx+dy*dy <= 1 {
						set(x, y, '█', style)
					}
				}
			}
		}
		if g.Pinned {
			set(int(math.Floor(cx)), int(math.Floor(cy)), '◆', styleSelected)
		}
	}

	// Labels go on top of every circle.
	for i, g := range m.scene.Groups {
		style := styleLabel
		if i == m.selected {
			style = styleSelected
		}
		sx, sy := t.Apply(g.X+g.Label.DX, g.Y)
		lx, ly := m.toCell(sx, sy)
		x, y := int(math.Floor(lx)), int(math.Floor(ly))
		for _, r := range g.Label.Text {
			set(x, y, r, style)
			x++
		}
	}

	var b strings.Builder
	for y, line := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		m.writeLine(&b, line)
	}
	b.WriteByte('\n')
	b.WriteString(viewStatusStyle.Render(m.status()))
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// writeLine renders runs of equally styled cells.
func (m viewModel) writeLine(b *strings.Builder, line []cell) {
	var run []rune
	style := stylePlain
	flush := func() {
		if len(run) == 0 {
			return
		}
		s := string(run)
		switch {
		case style == styleLabel:
			s = viewLabelStyle.Render(s)
		case style == styleSelected:
			s = viewSelectedStyle.Render(s)
		case style >= styleCategory:
			s = m.styles[style-styleCategory].Render(s)
		}
		b.WriteString(s)
		run = run[:0]
	}
	for _, c := range line {
		if c.style != style {
			flush()
			style = c.style
		}
		run = append(run, c.r)
	}
	flush()
}

func (m viewModel) status() string {
	state := "cooled"
	if m.engine.Running() {
		state = "running"
	}
	parts := []string{
		fmt.Sprintf("%d nodes", len(m.scene.Groups)),
		fmt.Sprintf("alpha %.3f", m.engine.Alpha()),
		fmt.Sprintf("ticks %d", m.engine.Ticks()),
		fmt.Sprintf("zoom %.2f×", m.scene.Root.K),
		state,
	}
	if m.selected >= 0 {
		g := m.scene.Groups[m.selected]
		sel := fmt.Sprintf("%s (%.0f, %.0f)", g.Label.Text, g.X, g.Y)
		if g.Pinned {
			sel += " pinned"
		}
		parts = append(parts, sel)
	}
	return strings.Join(parts, " · ")
}
