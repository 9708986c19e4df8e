package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fewx/gfsproc/internal/models"
)

type consolePhase int

const (
	phaseForm consolePhase = iota
	phaseRunning
	phaseDone
)

// Messages sent into the program while a run is in flight.
type (
	progressMsg struct {
		percent int
		stage   string
	}
	runFinishedMsg struct {
		report *models.RunReport
		err    error
	}
)

// startFunc launches a run in the background and reports back through
// progressMsg and runFinishedMsg.
type startFunc func(cycle, date string) tea.Cmd

type consoleModel struct {
	cycleIdx int
	date     textinput.Model
	bar      progress.Model
	start    startFunc

	phase   consolePhase
	percent int
	stage   string
	report  *models.RunReport
	err     error
	quit    bool
}

func initialConsoleModel(today string, start startFunc) consoleModel {
	date := textinput.New()
	date.Placeholder = today
	date.SetValue(today)
	date.CharLimit = 10
	date.Width = 12
	date.Focus()

	return consoleModel{
		date:  date,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		start: start,
	}
}

func (m consoleModel) cycle() int {
	return models.ValidCycles[m.cycleIdx]
}

func (m consoleModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// A started run keeps going until teardown; only the form can be left early.
			if m.phase != phaseRunning {
				m.quit = true
				return m, tea.Quit
			}
			return m, nil
		}
		switch m.phase {
		case phaseForm:
			return m.updateForm(msg)
		case phaseDone:
			switch msg.String() {
			case "enter", "esc", "q":
				return m, tea.Quit
			}
		}
		return m, nil

	case progressMsg:
		m.percent = msg.percent
		m.stage = msg.stage
		return m, nil

	case runFinishedMsg:
		m.phase = phaseDone
		m.report = msg.report
		m.err = msg.err
		if msg.err != nil {
			// Rejected before anything ran; let the operator fix the form.
			m.phase = phaseForm
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.phase == phaseForm {
		m.date, cmd = m.date.Update(msg)
	}
	return m, cmd
}

func (m consoleModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.quit = true
		return m, tea.Quit
	case "tab", "down":
		m.cycleIdx = (m.cycleIdx + 1) % len(models.ValidCycles)
		return m, nil
	case "shift+tab", "up":
		m.cycleIdx = (m.cycleIdx + len(models.ValidCycles) - 1) % len(models.ValidCycles)
		return m, nil
	case "enter":
		m.phase = phaseRunning
		m.err = nil
		m.percent = 0
		m.stage = ""
		return m, m.start(strconv.Itoa(m.cycle()), strings.TrimSpace(m.date.Value()))
	}

	var cmd tea.Cmd
	m.date, cmd = m.date.Update(msg)
	return m, cmd
}

func (m consoleModel) View() string {
	var b strings.Builder
	b.WriteString("\nGFS Gust Window\n\n")

	cycles := make([]string, len(models.ValidCycles))
	for i, c := range models.ValidCycles {
		label := fmt.Sprintf("%02d", c)
		if i == m.cycleIdx {
			label = "[" + label + "]"
		} else {
			label = " " + label + " "
		}
		cycles[i] = label
	}
	b.WriteString("Cycle: " + strings.Join(cycles, " ") + "\n")
	b.WriteString("Date:  " + m.date.View() + "\n\n")

	switch m.phase {
	case phaseForm:
		if m.err != nil {
			b.WriteString("✖ " + m.err.Error() + "\n\n")
		}
		b.WriteString("[Enter] Generate Gust Window • [↑/↓] cycle • [Esc] quit\n")
	case phaseRunning:
		b.WriteString(m.bar.ViewAs(float64(m.percent)/100) + "\n")
		if m.stage != "" {
			b.WriteString(fmt.Sprintf("%3d%%  %s\n", m.percent, m.stage))
		}
	case phaseDone:
		b.WriteString(m.bar.ViewAs(1) + "\n\n")
		b.WriteString("Done - Process completed!\n")
		if m.report != nil {
			b.WriteString("\n" + formatReport(m.report))
		}
		b.WriteString("\n[Enter] to exit\n")
	}
	return b.String()
}
