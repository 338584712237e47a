// Package ui is the terminal control surface: one slider and one readout
// per joint, and the close action that shuts the simulation down.
package ui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/jointctl/internal/command"
	"github.com/san-kum/jointctl/internal/driver"
	"github.com/san-kum/jointctl/internal/joint"
)

const (
	indent      = 4
	cursorWidth = 2
	labelWidth  = 10
	readoutPad  = 8
	// headerLines is the number of lines above the first slider row.
	headerLines = 4

	statusRefresh = 200 * time.Millisecond
)

// barColumn is the screen column of a bar's first cell.
const barColumn = indent + cursorWidth + labelWidth + 1

// Applier sends one joint command. *command.Channel implements it.
type Applier interface {
	Apply(ctx context.Context, j joint.Spec, deg float64, out command.Readout)
}

// Closer shuts the simulation down. *shutdown.Coordinator implements it.
type Closer interface {
	Shutdown(ctx context.Context)
}

// Status reports the simulation driver's progress. *driver.Driver implements it.
type Status interface {
	State() driver.State
	Steps() uint64
}

type Pose struct {
	Name   string
	Angles []float64
}

type statusTickMsg time.Time

func statusTick() tea.Cmd {
	return tea.Tick(statusRefresh, func(t time.Time) tea.Msg { return statusTickMsg(t) })
}

type Model struct {
	ctx     context.Context
	rows    []*Slider
	cursor  int
	ch      Applier
	closer  Closer
	status  Status
	dropped func() uint64

	rng        Range
	step       float64
	coarseStep float64

	poses   []Pose
	poseIdx int
	pose    string

	title  string
	help   help.Model
	width  int
	closed bool
}

type Option func(*Model)

func WithRange(r Range) Option {
	return func(m *Model) { m.rng = r }
}

func WithSteps(fine, coarse float64) Option {
	return func(m *Model) { m.step, m.coarseStep = fine, coarse }
}

func WithStatus(s Status) Option {
	return func(m *Model) { m.status = s }
}

// WithDropped shows the count of commands the simulator did not accept.
func WithDropped(fn func() uint64) Option {
	return func(m *Model) { m.dropped = fn }
}

func WithPoses(poses []Pose) Option {
	return func(m *Model) { m.poses = poses }
}

func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// New builds one row per joint in the order given. Each row keeps its own
// joint; commands from a row always address that joint.
func New(ctx context.Context, specs []joint.Spec, ch Applier, closer Closer, opts ...Option) Model {
	m := Model{
		ctx:        ctx,
		rows:       make([]*Slider, 0, len(specs)),
		ch:         ch,
		closer:     closer,
		rng:        Range{Min: -180, Max: 180, Width: 41},
		step:       1,
		coarseStep: 10,
		poseIdx:    -1,
		title:      "JOINT CONTROL",
		help:       help.New(),
		width:      80,
	}
	for _, opt := range opts {
		opt(&m)
	}
	for _, s := range specs {
		m.rows = append(m.rows, newSlider(s))
	}
	return m
}

func (m Model) Init() tea.Cmd { return statusTick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case statusTickMsg:
		if m.closed {
			return m, nil
		}
		return m, statusTick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m.close()
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Left):
		m.nudge(-m.step)
	case key.Matches(msg, keys.Right):
		m.nudge(m.step)
	case key.Matches(msg, keys.CoarseLeft):
		m.nudge(-m.coarseStep)
	case key.Matches(msg, keys.CoarseRight):
		m.nudge(m.coarseStep)
	case key.Matches(msg, keys.Zero):
		if len(m.rows) > 0 {
			m.setAngle(m.cursor, 0)
		}
	case key.Matches(msg, keys.ZeroAll):
		for i := range m.rows {
			m.setAngle(i, 0)
		}
		m.pose = ""
	case key.Matches(msg, keys.Pose):
		m.nextPose()
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	if msg.Button != tea.MouseButtonLeft {
		return m
	}
	if msg.Action != tea.MouseActionPress && msg.Action != tea.MouseActionMotion {
		return m
	}
	row := msg.Y - headerLines
	if row < 0 || row >= len(m.rows) {
		return m
	}
	cell := msg.X - barColumn
	if cell < 0 || cell >= m.rng.Width {
		return m
	}
	m.cursor = row
	m.setAngle(row, m.snap(m.rng.Angle(cell)))
	return m
}

// close runs the shutdown coordinator and ends the event loop.
func (m Model) close() (Model, tea.Cmd) {
	m.closed = true
	if m.closer != nil {
		m.closer.Shutdown(context.WithoutCancel(m.ctx))
	}
	return m, tea.Quit
}

func (m *Model) nudge(delta float64) {
	if len(m.rows) == 0 {
		return
	}
	m.setAngle(m.cursor, m.rows[m.cursor].angle+delta)
}

func (m *Model) snap(deg float64) float64 {
	if m.step <= 0 {
		return deg
	}
	return math.Round(deg/m.step) * m.step
}

// setAngle moves row i and commands its joint.
func (m *Model) setAngle(i int, deg float64) {
	s := m.rows[i]
	s.angle = m.rng.Clamp(deg)
	m.ch.Apply(m.ctx, s.joint, s.angle, s)
}

func (m *Model) nextPose() {
	if len(m.poses) == 0 {
		return
	}
	m.poseIdx = (m.poseIdx + 1) % len(m.poses)
	p := m.poses[m.poseIdx]
	for i := range m.rows {
		if i < len(p.Angles) {
			m.setAngle(i, p.Angles[i])
		}
	}
	m.pose = p.Name
}

// Rows exposes the slider rows in joint order.
func (m Model) Rows() []*Slider { return m.rows }

func (m Model) Closed() bool { return m.closed }

func (m Model) View() string {
	var b strings.Builder
	pad := strings.Repeat(" ", indent)

	b.WriteString("\n")
	b.WriteString(pad + titleStyle.Render(m.title) + "\n")
	b.WriteString(pad + subtle.Render(fmt.Sprintf("%d joints  [%.0f°, %.0f°]", len(m.rows), m.rng.Min, m.rng.Max)) + "\n")
	b.WriteString("\n")

	for i, s := range m.rows {
		b.WriteString(pad)
		label := fmt.Sprintf("%-*s", labelWidth, s.joint.Label())
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("▸") + " " + selectedLabel.Render(label))
		} else {
			b.WriteString("  " + labelStyle.Render(label))
		}
		b.WriteString(" " + m.rng.render(s.angle) + " ")
		b.WriteString(readoutText.Render(fmt.Sprintf("%*s", readoutPad, s.readout)))
		b.WriteString("\n")
	}

	b.WriteString("\n" + pad + separator(m.rng.Width+labelWidth+readoutPad) + "\n")
	b.WriteString(pad + m.statusLine() + "\n\n")
	b.WriteString(pad + m.help.View(keys) + "\n")
	return b.String()
}

func (m Model) statusLine() string {
	parts := make([]string, 0, 4)
	if m.status != nil {
		state := m.status.State()
		style := statusStopped
		if state == driver.Running {
			style = statusRunning
		}
		parts = append(parts, style.Render("● "+state.String()), subtle.Render(fmt.Sprintf("steps %d", m.status.Steps())))
	}
	if m.dropped != nil {
		if n := m.dropped(); n > 0 {
			parts = append(parts, statusDropped.Render(fmt.Sprintf("dropped %d", n)))
		}
	}
	if m.pose != "" {
		parts = append(parts, subtle.Render("pose "+m.pose))
	}
	return strings.Join(parts, subtle.Render("  ·  "))
}

// Run drives the model until the close action or until ctx is done.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case <-finished:
		}
	}()

	_, err := p.Run()
	return err
}
