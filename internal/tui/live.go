// Package tui is the terminal presentation layer: a live trend view driving
// the loop from a frame timer and reading its public state for display. The
// loop core never depends on it.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/avolkov/looplab/internal/control"
	"github.com/avolkov/looplab/internal/loop"
)

const (
	graphWidth      = 90
	graphHeight     = 10
	historyCapacity = 600
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	manualStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	autoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("84")).Bold(true)
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model drives one loop from a frame timer and renders its trend.
type Model struct {
	lp        *loop.Loop
	frameRate int
	stepsPer  int // loop ticks per frame

	running bool
	sps     []float64
	pvs     []float64
	mvs     []float64
}

// NewModel wraps an initialized loop for live viewing. stepsPerFrame loop
// ticks are executed per rendered frame.
func NewModel(lp *loop.Loop, frameRate, stepsPerFrame int) Model {
	if frameRate <= 0 {
		frameRate = 30
	}
	if stepsPerFrame <= 0 {
		stepsPerFrame = 1
	}
	return Model{
		lp:        lp,
		frameRate: frameRate,
		stepsPer:  stepsPerFrame,
		running:   true,
		sps:       make([]float64, 0, historyCapacity),
		pvs:       make([]float64, 0, historyCapacity),
		mvs:       make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update handles input events and steps the loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.lp.Reset()
		case "a":
			m.lp.SetMode(!m.lp.Automatic())
		case "tab":
			m.cycleAlgorithm()
		case "up", "k":
			m.nudge(1)
		case "down", "j":
			m.nudge(-1)
		case "shift+up", "K":
			m.nudge(5)
		case "shift+down", "J":
			m.nudge(-5)
		}
		return m, nil

	case TickMsg:
		if m.running {
			for i := 0; i < m.stepsPer; i++ {
				if err := m.lp.Step(); err != nil {
					return m, tea.Quit
				}
			}
			m.record()
		}
		return m, m.tick()
	}

	return m, nil
}

// nudge moves the setpoint in automatic mode and the manual output in
// manual mode.
func (m *Model) nudge(delta float64) {
	st := m.lp.Status()
	if st.Automatic {
		m.lp.SetSetpoint(st.Setpoint + delta)
	} else {
		m.lp.SetManualOutput(st.MV + delta)
	}
}

func (m *Model) cycleAlgorithm() {
	algos := control.Algorithms()
	current := m.lp.Algorithm()
	for i, a := range algos {
		if a == current {
			m.lp.SetAlgorithm(algos[(i+1)%len(algos)])
			return
		}
	}
}

func (m *Model) record() {
	st := m.lp.Status()
	m.sps = append(m.sps, st.Setpoint)
	m.pvs = append(m.pvs, st.PV)
	m.mvs = append(m.mvs, st.MV)

	if len(m.pvs) > historyCapacity {
		m.sps = m.sps[1:]
		m.pvs = m.pvs[1:]
		m.mvs = m.mvs[1:]
	}
}

// View renders the trend graphs and the status panel.
func (m Model) View() string {
	st := m.lp.Status()

	var b strings.Builder
	b.WriteString(headerStyle.Render("looplab — closed-loop simulator"))
	b.WriteString("\n")

	if len(m.pvs) > 1 {
		pvGraph := asciigraph.PlotMany(
			[][]float64{m.sps, m.pvs},
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("SP / PV"),
		)
		b.WriteString(graphStyle.Render(pvGraph))
		b.WriteString("\n")

		mvGraph := asciigraph.Plot(m.mvs,
			asciigraph.Height(graphHeight/2),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("MV"),
		)
		b.WriteString(graphStyle.Render(mvGraph))
		b.WriteString("\n")
	}

	mode := autoStyle.Render("AUTO")
	if !st.Automatic {
		mode = manualStyle.Render("MANUAL")
	}
	state := ""
	if !m.running {
		state = "  " + pausedStyle.Render("PAUSED")
	}

	kp, ki, kd := m.lp.Tuning()
	rows := []string{
		labelStyle.Render("mode") + mode + state,
		labelStyle.Render("algorithm") + valueStyle.Render(m.lp.Algorithm().String()),
		labelStyle.Render("time") + valueStyle.Render(fmt.Sprintf("%.1fs (%d ticks)", st.Time, st.Ticks)),
		labelStyle.Render("setpoint") + valueStyle.Render(fmt.Sprintf("%.2f", st.Setpoint)),
		labelStyle.Render("pv") + valueStyle.Render(fmt.Sprintf("%.2f", st.PV)),
		labelStyle.Render("mv") + valueStyle.Render(fmt.Sprintf("%.2f", st.MV)),
		labelStyle.Render("error") + valueStyle.Render(fmt.Sprintf("%.2f", st.Error)),
		labelStyle.Render("integral") + valueStyle.Render(fmt.Sprintf("%.2f", st.IntegralSum)),
		labelStyle.Render("tuning") + valueStyle.Render(fmt.Sprintf("Kp=%.2f Ki=%.3f Kd=%.3f", kp, ki, kd)),
	}
	b.WriteString(strings.Join(rows, "\n"))

	b.WriteString(helpStyle.Render(
		"\n↑/↓ nudge SP (MV in manual) · a mode · tab algorithm · r reset · space pause · q quit"))
	b.WriteString("\n")

	return b.String()
}
