package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// WizardResult holds answers collected by the setup wizard.
type WizardResult struct {
	Network        string
	KeyringBackend string
	WalletName     string
	WalletAddress  string
	Cancelled      bool
}

type wizardStep int

const (
	stepNetwork wizardStep = iota
	stepKeyring
	stepWallet
	stepDone
)

type wizardModel struct {
	step      wizardStep
	result    WizardResult
	cursor    int
	choices   []string
	input     string
	inputMode bool
	networks  []string
}

var keyringBackends = []string{"auto", "file"}

func initialWizard(networks []string) wizardModel {
	return wizardModel{
		step:     stepNetwork,
		choices:  networks,
		networks: networks,
	}
}

func (m wizardModel) Init() tea.Cmd { return nil }

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.result.Cancelled = true
		return m, tea.Quit

	case "q":
		if !m.inputMode {
			m.result.Cancelled = true
			return m, tea.Quit
		}
		m.input += "q"

	case "up", "k":
		if !m.inputMode && m.cursor > 0 {
			m.cursor--
		} else if m.inputMode && key.String() == "k" {
			m.input += "k"
		}

	case "down", "j":
		if !m.inputMode && m.cursor < len(m.choices)-1 {
			m.cursor++
		} else if m.inputMode && key.String() == "j" {
			m.input += "j"
		}

	case "enter":
		if m.inputMode {
			m.applyInput()
		} else {
			m.applyChoice()
		}
		m.cursor = 0
		m.advance()

	case "backspace":
		if m.inputMode && len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}

	default:
		if m.inputMode && key.Type == tea.KeyRunes {
			m.input += string(key.Runes)
		}
	}

	if m.step == stepDone {
		return m, tea.Quit
	}
	return m, nil
}

func (m *wizardModel) advance() {
	m.step++
	switch m.step {
	case stepKeyring:
		m.choices = keyringBackends
	case stepWallet:
		m.choices = nil
		m.inputMode = true
		m.input = ""
	case stepDone:
		m.inputMode = false
	}
}

func (m *wizardModel) applyChoice() {
	if m.cursor >= len(m.choices) {
		return
	}
	switch m.step {
	case stepNetwork:
		m.result.Network = m.choices[m.cursor]
	case stepKeyring:
		m.result.KeyringBackend = m.choices[m.cursor]
	}
}

func (m *wizardModel) applyInput() {
	if m.step != stepWallet {
		return
	}
	// Strip whitespace and accidental brackets from paste.
	addr := strings.Trim(strings.TrimSpace(m.input), "[]")
	if addr != "" {
		m.result.WalletAddress = addr
		m.result.WalletName = "default"
	}
}

func (m wizardModel) View() string {
	var s string

	switch m.step {
	case stepNetwork:
		s = renderMenu("Select Hedera network:", m.choices, m.cursor)
	case stepKeyring:
		s = renderMenu("Where should signing keys be stored?", m.choices, m.cursor)
	case stepWallet:
		s = StyleTitle.Render("Add a watch-only wallet (optional)") + "\n\n"
		s += StyleMeta.Render("Enter an EVM address (or press Enter to skip):") + "\n"
		s += "> " + StyleAddress.Render(m.input) + "█\n"
	case stepDone:
		s = Success("Setup complete!") + "\n"
	}

	return StyleBorder.Render(s) + "\n"
}

func renderMenu(title string, items []string, cursor int) string {
	s := StyleTitle.Render(title) + "\n\n"
	for i, item := range items {
		icon := "  "
		style := lipgloss.NewStyle().Foreground(ColorValue)
		if i == cursor {
			icon = "▸ "
			style = StyleSelected
		}
		s += icon + style.Render(item) + "\n"
	}
	s += "\n" + StyleMeta.Render("↑/↓ navigate · Enter select · q quit")
	return s
}

// RunWizard launches the interactive setup wizard offering the given
// networks and returns the answers.
func RunWizard(networks []string) (*WizardResult, error) {
	p := tea.NewProgram(initialWizard(networks))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard error: %w", err)
	}
	result := final.(wizardModel).result
	return &result, nil
}
