package viz

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/circsim/internal/config"
	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/sim"
)

const (
	canvasWidth     = 48
	canvasHeight    = 20
	historyCapacity = 600
	DefaultTick     = 50 * time.Millisecond
)

type TickMsg time.Time

// ReloadMsg replaces the running circuit, typically after its file changed
// on disk. A non-nil Err is shown and the current circuit keeps running.
type ReloadMsg struct {
	Circuit *config.Circuit
	Err     error
}

// Options configures a live Model. Zero values pick the defaults.
type Options struct {
	Tick   time.Duration
	Theme  string
	Logger *slog.Logger
}

// knob is one tunable parameter of one element.
type knob struct {
	elem  int
	param string
}

// Model runs a circuit one step per tick and shows its probes.
type Model struct {
	reg     *element.Registry
	circuit *config.Circuit
	sim     *sim.Simulator
	probes  []sim.Probe
	history [][]float64
	canvas  *Canvas

	knobs    []knob
	initial  []float64
	selected int
	graph    int

	tick     time.Duration
	logger   *slog.Logger
	theme    Theme
	running  bool
	showHelp bool
	err      error
}

// NewModel builds the circuit and analyzes it. Only errors that prevent the
// circuit from being built are returned; a singular matrix is shown in the
// view instead.
func NewModel(c *config.Circuit, reg *element.Registry, opts Options) (Model, error) {
	m := Model{
		reg:     reg,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		tick:    opts.Tick,
		logger:  opts.Logger,
		theme:   GetTheme(opts.Theme),
		running: true,
	}
	if m.tick <= 0 {
		m.tick = DefaultTick
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := m.load(c); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) load(c *config.Circuit) error {
	elms, err := c.Build(m.reg)
	if err != nil {
		return err
	}

	s := sim.New(sim.WithTimeStep(c.TimeStep), sim.WithLogger(m.logger))
	m.err = s.SetElements(elms)
	m.sim = s
	m.circuit = c

	m.probes = c.Probes
	if len(m.probes) == 0 {
		m.probes = defaultProbes(elms)
	}
	m.history = make([][]float64, len(m.probes))
	if m.graph >= len(m.probes) {
		m.graph = 0
	}

	m.knobs = m.knobs[:0]
	m.initial = m.initial[:0]
	for i, e := range elms {
		params := e.Params()
		names := make([]string, 0, len(params))
		for k := range params {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			m.knobs = append(m.knobs, knob{elem: i, param: k})
			m.initial = append(m.initial, params[k])
		}
	}
	if m.selected >= len(m.knobs) {
		m.selected = 0
	}

	DrawCircuit(m.canvas, elms)
	return nil
}

// defaultProbes watches the current of every voltage source.
func defaultProbes(elms []element.Element) []sim.Probe {
	var probes []sim.Probe
	for i, e := range elms {
		if e.Type() == element.TypeVoltage {
			probes = append(probes, sim.Probe{Name: fmt.Sprintf("i%d", i), Kind: sim.ProbeCurrent, Element: i})
		}
	}
	return probes
}

func (m Model) Simulator() *sim.Simulator { return m.sim }
func (m Model) Err() error                { return m.err }
func (m Model) Running() bool             { return m.running }

// History returns the recorded values of probe i, oldest first.
func (m Model) History(i int) []float64 { return m.history[i] }

func (m Model) Init() tea.Cmd {
	return m.nextTick()
}

func (m Model) nextTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
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
		case "tab":
			if len(m.knobs) > 0 {
				m.selected = (m.selected + 1) % len(m.knobs)
			}
		case "up", "k":
			m.adjust(1.05)
		case "down", "j":
			m.adjust(0.95)
		case "p":
			if len(m.probes) > 0 {
				m.graph = (m.graph + 1) % len(m.probes)
			}
		case "s":
			if !m.running {
				m.step()
			}
		case "t":
			m.theme = NextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.nextTick()
	case ReloadMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		if err := m.load(msg.Circuit); err != nil {
			m.err = err
		}
	}
	return m, nil
}

func (m *Model) step() {
	if err := m.sim.Step(); err != nil {
		m.err = err
		return
	}
	m.err = nil

	f := m.sim.Frame()
	for i, p := range m.probes {
		h := append(m.history[i], p.Read(f))
		if len(h) > historyCapacity {
			h = h[1:]
		}
		m.history[i] = h
	}
}

func (m *Model) adjust(factor float64) {
	if len(m.knobs) == 0 {
		return
	}
	k := m.knobs[m.selected]
	v := m.sim.Elements()[k.elem].Params()[k.param]
	switch {
	case v != 0:
		v *= factor
	case factor > 1:
		v = 0.1
	default:
		v = -0.1
	}
	m.err = m.sim.SetParam(k.elem, k.param, v)
}

// reset restores the initial parameters and clears time and history.
func (m *Model) reset() {
	var err error
	for i, k := range m.knobs {
		if e := m.sim.SetParam(k.elem, k.param, m.initial[i]); e != nil {
			err = e
		}
	}
	m.err = err
	m.sim.Reset()
	for i := range m.history {
		m.history[i] = m.history[i][:0]
	}
}

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(46)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// View renders the TUI interface.
func (m Model) View() string {
	th := m.theme
	header := lipgloss.NewStyle().Foreground(th.Primary).Bold(true).MarginBottom(1)
	value := lipgloss.NewStyle().Foreground(th.Text)
	active := lipgloss.NewStyle().Foreground(th.Accent).Bold(true)

	var s strings.Builder
	s.WriteString(header.Render(strings.ToUpper(m.circuit.Name)) + "\n")

	status := lipgloss.NewStyle().Foreground(th.Positive).Render("RUNNING")
	if !m.running {
		status = lipgloss.NewStyle().Foreground(th.Muted).Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	s.WriteString(labelStyle.Render("Time") + value.Render(formatSI(m.sim.Time(), "s")) + "\n")
	s.WriteString(labelStyle.Render("Steps") + value.Render(fmt.Sprint(m.sim.Steps())) + "\n")
	if topo := m.sim.Topology(); topo != nil {
		s.WriteString(labelStyle.Render("Nodes") + value.Render(fmt.Sprint(topo.NodeCount())) + "\n")
	}

	if len(m.probes) > 0 {
		s.WriteString("\nPROBES\n")
		for i, p := range m.probes {
			line := fmt.Sprintf("%-10s %-12s ", p.Name, formatProbe(p, last(m.history[i])))
			if i == m.graph {
				s.WriteString(active.Render("> "+line) + Sparkline(m.history[i], 12, th) + "\n")
			} else {
				s.WriteString("  " + value.Render(line) + Sparkline(m.history[i], 12, th) + "\n")
			}
		}
		if h := m.history[m.graph]; len(h) > 1 {
			chart := asciigraph.Plot(h, asciigraph.Height(5), asciigraph.Width(24), asciigraph.Caption(m.probes[m.graph].Name))
			s.WriteString(lipgloss.NewStyle().Foreground(th.Primary).Padding(1, 0).Render(chart) + "\n")
		}
	}

	s.WriteString("\nPARAMETERS\n")
	if len(m.knobs) == 0 {
		s.WriteString(labelStyle.Render("  (none)") + "\n")
	}
	elms := m.sim.Elements()
	for i, k := range m.knobs {
		v := elms[k.elem].Params()[k.param]
		line := fmt.Sprintf("#%d %-10s %s", k.elem, k.param, formatParam(k.param, v))
		if i == m.selected {
			s.WriteString(active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.UnsetWidth().Render(line) + "\n")
		}
	}

	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(th.Error).Bold(true).Width(42).Render(errorText(m.err)) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause S:Step R:Reset Q:Quit\nTab:Param ↑↓:Tune P:Probe T:Theme ?:Help"))

	canvasView := canvasStyle.Foreground(th.Primary).Render(m.canvas.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  Space    pause / resume
  S        single step while paused
  R        reset time and parameters
  Tab      select next parameter
  Up/K     increase parameter (+5%)
  Down/J   decrease parameter (-5%)
  P        graph next probe
  T        cycle themes
  Q        quit
`

func errorText(err error) string {
	if errors.Is(err, sim.ErrSingularMatrix) {
		return "singular matrix: check for floating nodes or source loops"
	}
	return err.Error()
}

func last(h []float64) float64 {
	if len(h) == 0 {
		return math.NaN()
	}
	return h[len(h)-1]
}

func formatProbe(p sim.Probe, v float64) string {
	if p.Kind == sim.ProbeCurrent {
		return formatSI(v, "A")
	}
	return formatSI(v, "V")
}

func formatParam(name string, v float64) string {
	switch name {
	case element.ParamResistance:
		return formatSI(v, "Ω")
	case element.ParamVoltage:
		return formatSI(v, "V")
	}
	return fmt.Sprintf("%.4g", v)
}

var siPrefixes = []struct {
	scale  float64
	prefix string
}{
	{1e9, "G"}, {1e6, "M"}, {1e3, "k"}, {1, ""}, {1e-3, "m"}, {1e-6, "µ"}, {1e-9, "n"}, {1e-12, "p"},
}

// formatSI renders v with an engineering prefix, e.g. 0.005 A as "5 mA".
func formatSI(v float64, unit string) string {
	if math.IsNaN(v) {
		return "--"
	}
	a := math.Abs(v)
	if a == 0 || math.IsInf(v, 0) {
		return fmt.Sprintf("%g %s", v, unit)
	}
	for _, p := range siPrefixes {
		if a >= p.scale {
			return fmt.Sprintf("%.4g %s%s", v/p.scale, p.prefix, unit)
		}
	}
	p := siPrefixes[len(siPrefixes)-1]
	return fmt.Sprintf("%.4g %s%s", v/p.scale, p.prefix, unit)
}
