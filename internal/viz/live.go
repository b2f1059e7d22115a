// Package viz renders live phase-locking runs in the terminal and plots
// stored error traces.
package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gyresim/internal/flow"
	"github.com/san-kum/gyresim/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 22
	trailCapacity   = 400
	historyCapacity = 600
)

var (
	canvasStyle    = lipgloss.NewStyle().Padding(1, 2)
	statsStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	convergedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	graphStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Model steps a session a few control cycles per frame and draws both
// swimmers over the flow field.
type Model struct {
	prob          sim.Problem
	session       *sim.Session
	stepsPerFrame int

	canvas      *Canvas
	mobileTrail []flow.Vec2
	targetTrail []flow.Vec2
	radiusHist  []float64
	phaseHist   []float64

	running bool
	err     error
}

// NewModel assembles the live view for a problem. The viewport is sized
// from the starting radii so both orbits stay on screen.
func NewModel(prob sim.Problem, stepsPerFrame int) (Model, error) {
	session, err := sim.NewSession(prob)
	if err != nil {
		return Model{}, err
	}
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}

	center := prob.Params.Flow.Center
	span := 1.0
	for _, p := range []flow.Vec2{
		{X: prob.MobileStart.X, Y: prob.MobileStart.Y},
		{X: prob.TargetStart.X, Y: prob.TargetStart.Y},
	} {
		if r := p.Sub(center).Norm(); r > span {
			span = r
		}
	}
	span *= 1.3
	bounds := flow.Rect{
		XMin: center.X - span, XMax: center.X + span,
		YMin: center.Y - span, YMax: center.Y + span,
	}

	return Model{
		prob:          prob,
		session:       session,
		stepsPerFrame: stepsPerFrame,
		canvas:        NewCanvas(canvasWidth, canvasHeight, bounds),
		mobileTrail: make([]flow.Vec2, 0, trailCapacity),
		targetTrail: make([]flow.Vec2, 0, trailCapacity),
		radiusHist:  make([]float64, 0, historyCapacity),
		phaseHist:   make([]float64, 0, historyCapacity),
		running:     true,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

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
		case "+", "=":
			m.stepsPerFrame *= 2
		case "-", "_":
			if m.stepsPerFrame > 1 {
				m.stepsPerFrame /= 2
			}
		}
	case TickMsg:
		if m.running && m.err == nil && !m.session.Done() {
			for i := 0; i < m.stepsPerFrame; i++ {
				done, err := m.session.Step()
				if err != nil {
					m.err = err
					break
				}
				if done {
					break
				}
			}
			m.record()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) record() {
	mob := m.session.Mobile().Pose()
	targ := m.session.Target().Pose()
	m.mobileTrail = appendTrail(m.mobileTrail, flow.Vec2{X: mob.X, Y: mob.Y})
	m.targetTrail = appendTrail(m.targetTrail, flow.Vec2{X: targ.X, Y: targ.Y})

	rErr, phaseErr := m.session.Errors()
	if !math.IsInf(rErr, 1) {
		m.radiusHist = appendHist(m.radiusHist, math.Abs(rErr))
		m.phaseHist = appendHist(m.phaseHist, math.Abs(phaseErr))
	}
}

func (m *Model) reset() {
	session, err := sim.NewSession(m.prob)
	if err != nil {
		m.err = err
		return
	}
	m.session = session
	m.err = nil
	m.mobileTrail = m.mobileTrail[:0]
	m.targetTrail = m.targetTrail[:0]
	m.radiusHist = m.radiusHist[:0]
	m.phaseHist = m.phaseHist[:0]
	m.running = true
}

func appendTrail(trail []flow.Vec2, p flow.Vec2) []flow.Vec2 {
	trail = append(trail, p)
	if len(trail) > trailCapacity {
		trail = trail[1:]
	}
	return trail
}

func appendHist(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[1:]
	}
	return hist
}

func (m *Model) draw() {
	m.canvas.Clear()

	center := m.prob.Params.Flow.Center
	field := m.session.Field()

	targ := m.session.Target().Pose()
	targState := field.PhaseStateOf(flow.Vec2{X: targ.X, Y: targ.Y})
	m.canvas.Circle(center, targState.Radius)

	for _, p := range m.targetTrail {
		m.canvas.Plot(p)
	}
	for _, p := range m.mobileTrail {
		m.canvas.Plot(p)
	}

	mob := m.session.Mobile().Pose()
	m.canvas.Mark(center, '+')
	m.canvas.Mark(flow.Vec2{X: targ.X, Y: targ.Y}, 'T')
	m.canvas.Mark(flow.Vec2{X: mob.X, Y: mob.Y}, 'M')
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.prob.Params.Flow.Family.String())) + "\n")

	status := "RUNNING"
	switch {
	case m.err != nil:
		status = "ERROR"
	case m.session.Converged():
		status = convergedStyle.Render("CONVERGED")
	case m.session.Done():
		status = "BUDGET SPENT"
	case !m.running:
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if len(m.radiusHist) > 1 {
		chart := asciigraph.Plot(m.radiusHist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("|radius err| (m)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if len(m.phaseHist) > 1 {
		chart := asciigraph.Plot(m.phaseHist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("|phase err| (rad)"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	rErr, phaseErr := m.session.Errors()
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.session.Time())) + "\n")
	s.WriteString(labelStyle.Render("Radius err") + valueStyle.Render(fmt.Sprintf("%.4f m", rErr)) + "\n")
	s.WriteString(labelStyle.Render("Phase err") + valueStyle.Render(fmt.Sprintf("%.4f rad", phaseErr)) + "\n")
	s.WriteString(labelStyle.Render("Dwell") + valueStyle.Render(fmt.Sprintf("%d steps", m.session.Dwell())) + "\n")
	s.WriteString(labelStyle.Render("Speed") + valueStyle.Render(fmt.Sprintf("%d steps/frame", m.stepsPerFrame)) + "\n")
	if m.err != nil {
		s.WriteString("\n" + valueStyle.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\n+/-:Speed"))

	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

// RunLive drives the TUI to completion or until the user quits.
func RunLive(prob sim.Problem, stepsPerFrame int) error {
	m, err := NewModel(prob, stepsPerFrame)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
