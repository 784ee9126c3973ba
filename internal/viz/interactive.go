package viz

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/circsim/internal/config"
	"github.com/san-kum/circsim/internal/element"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	pickedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	pickedDetail = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	idleDetail   = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// field is one editable element parameter of the picked preset.
type field struct {
	elem  int
	param string
}

type app struct {
	state, cursor int
	presets       []string
	reg           *element.Registry
	opts          Options

	circuit     *config.Circuit
	fields      []field
	fieldCursor int
	editing     bool
	editBuf     string
	err         error

	live Model
}

// NewInteractiveApp returns the preset picker. Picking a preset opens its
// parameters for editing; starting it switches to the live view.
func NewInteractiveApp(reg *element.Registry, opts Options) tea.Model {
	return app{
		state:   stateMenu,
		presets: config.ListPresets(),
		reg:     reg,
		opts:    opts,
	}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case stateMenu:
			return m.menuKey(key)
		case stateConfig:
			return m.configKey(key)
		}
	}
	if m.state == stateSim {
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}
	return m, nil
}

func (m app) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		c, err := config.GetPreset(m.presets[m.cursor])
		if err != nil {
			m.err = err
			return m, nil
		}
		m.circuit, m.err = c, nil
		m.fields = m.fields[:0]
		for i, spec := range c.Elements {
			names := make([]string, 0, len(spec.Params))
			for k := range spec.Params {
				names = append(names, k)
			}
			sort.Strings(names)
			for _, k := range names {
				m.fields = append(m.fields, field{elem: i, param: k})
			}
		}
		m.state, m.fieldCursor = stateConfig, 0
	}
	return m, nil
}

func (m app) configKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.set(v)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				m.editBuf += s
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(m.fields)-1 {
			m.fieldCursor++
		}
	case "enter", " ":
		if len(m.fields) > 0 {
			m.editing, m.editBuf = true, strconv.FormatFloat(m.value(), 'g', -1, 64)
		}
	case "left", "h":
		if len(m.fields) > 0 {
			m.set(m.value() * 0.95)
		}
	case "right", "l":
		if len(m.fields) > 0 {
			m.set(m.value() * 1.05)
		}
	case "s":
		live, err := NewModel(m.circuit, m.reg, m.opts)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.live, m.state, m.err = live, stateSim, nil
		return m, m.live.Init()
	}
	return m, nil
}

func (m app) value() float64 {
	f := m.fields[m.fieldCursor]
	return m.circuit.Elements[f.elem].Params[f.param]
}

func (m *app) set(v float64) {
	f := m.fields[m.fieldCursor]
	m.circuit.Elements[f.elem].Params[f.param] = v
}

func (m app) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

func (m app) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render("CIRCSIM") + "\n    " + subStyle.Render("circuit simulator") + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := ""
		if c, err := config.GetPreset(name); err == nil {
			desc = fmt.Sprintf("%d elements", len(c.Elements))
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), pickedStyle.Render(fmt.Sprintf("%-16s", name)), pickedDetail.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", idleStyle.Render(fmt.Sprintf("  %-16s", name)), idleDetail.Render(desc)))
		}
	}
	b.WriteString(m.viewError())
	b.WriteString("\n    " + hint("j/k", "navigate") + hint("enter", "select") + hint("q", "quit") + "\n")
	return b.String()
}

func (m app) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render(strings.ToUpper(m.circuit.Name)) + "\n    " + subStyle.Render("element parameters") + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, f := range m.fields {
		name := fmt.Sprintf("#%d %s", f.elem, f.param)
		val := fmt.Sprintf("%10.4g", m.circuit.Elements[f.elem].Params[f.param])
		if m.editing && i == m.fieldCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.fieldCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cursorStyle.Render("▸"), pickedStyle.Render(fmt.Sprintf("%-16s", name)), pickedDetail.Bold(true).Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", idleStyle.Render(fmt.Sprintf("  %-16s", name)), idleDetail.Render(val)))
		}
	}
	b.WriteString(m.viewError())
	b.WriteString("\n    " + hint("j/k", "select") + hint("h/l", "adjust") + hint("s", "start") + hint("esc", "back") + "\n")
	return b.String()
}

func (m app) viewError() string {
	if m.err == nil {
		return ""
	}
	return "\n    " + lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Render(m.err.Error()) + "\n"
}

func hint(key, action string) string {
	return keyStyle.Render(key) + idleStyle.Render(" "+action+"  ")
}

// RunInteractive starts the preset picker.
func RunInteractive(reg *element.Registry, opts Options) error {
	_, err := tea.NewProgram(NewInteractiveApp(reg, opts), tea.WithAltScreen()).Run()
	return err
}

// RunLive runs one circuit in the live view. When reload is non-nil, every
// message it delivers is forwarded to the program until it is closed.
func RunLive(c *config.Circuit, reg *element.Registry, opts Options, reload <-chan ReloadMsg) error {
	m, err := NewModel(c, reg, opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if reload != nil {
		go func() {
			for msg := range reload {
				p.Send(msg)
			}
		}()
	}
	_, err = p.Run()
	return err
}
