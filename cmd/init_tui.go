package cmd

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fewx/gfsproc/internal/templates"
)

type initField struct {
	label    string
	fallback string
}

var initFields = []initField{
	{"Resource group", "fewx-rg"},
	{"Jumpbox VM name", "fewx-jumpbox"},
	{"Scale set name", "fewx-vmss"},
	{"SSH private key", "~/.ssh/id_rsa"},
	{"IP file", "vm_ip.txt"},
	{"Storage credentials file", "azure_storage_info.json"},
}

type initModel struct {
	inputs   []textinput.Model
	focusIdx int
	canceled bool
	done     bool
}

func initialInitModel() initModel {
	inputs := make([]textinput.Model, len(initFields))
	for i, f := range initFields {
		in := textinput.New()
		in.Placeholder = f.fallback
		in.CharLimit = 256
		in.Width = 40
		if i == 0 {
			in.Focus()
		}
		inputs[i] = in
	}
	return initModel{inputs: inputs}
}

func (m initModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m initModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			m.done = true
			return m, tea.Quit
		case "enter":
			m.done = true
			return m, tea.Quit
		case "tab", "shift+tab", "down", "up":
			if msg.String() == "up" || msg.String() == "shift+tab" {
				m.focusIdx--
			} else {
				m.focusIdx++
			}
			if m.focusIdx >= len(m.inputs) {
				m.focusIdx = 0
			} else if m.focusIdx < 0 {
				m.focusIdx = len(m.inputs) - 1
			}
			for i := range m.inputs {
				if i == m.focusIdx {
					m.inputs[i].Focus()
				} else {
					m.inputs[i].Blur()
				}
			}
			return m, nil
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m initModel) View() string {
	s := "\n"
	for i, input := range m.inputs {
		s += initFields[i].label + ": " + input.View() + "\n"
	}

	s += "\n[Enter] to continue • [Esc] to cancel\n"
	return s
}

// value returns field i, or its placeholder default when left empty.
func (m initModel) value(i int) string {
	if v := m.inputs[i].Value(); v != "" {
		return v
	}
	return initFields[i].fallback
}

func (m initModel) configData() templates.ConfigData {
	return templates.ConfigData{
		ResourceGroup:   m.value(0),
		VMName:          m.value(1),
		VMSSName:        m.value(2),
		KeyPath:         m.value(3),
		IPFile:          m.value(4),
		CredentialsFile: m.value(5),
	}
}

func RunInitTUI() (templates.ConfigData, bool) {
	p := tea.NewProgram(initialInitModel())
	m, err := p.Run()
	if err != nil {
		return templates.ConfigData{}, true
	}

	final := m.(initModel)
	if final.canceled {
		return templates.ConfigData{}, true
	}
	return final.configData(), false
}
