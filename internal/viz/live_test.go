package viz

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/circsim/internal/config"
	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/sim"
)

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func tick() tea.Msg { return TickMsg(time.Now()) }

func newDivider(t *testing.T) Model {
	t.Helper()
	c, err := config.GetPreset("divider")
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewModel(c, element.NewRegistry(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestModelStepsOnTick(t *testing.T) {
	m := newDivider(t)
	if m.Err() != nil {
		t.Fatalf("unexpected error: %v", m.Err())
	}

	m = send(t, m, tick(), tick(), tick())
	if got := m.Simulator().Steps(); got != 3 {
		t.Fatalf("steps = %d, want 3", got)
	}
	h := m.History(0)
	if len(h) != 3 {
		t.Fatalf("history length = %d, want 3", len(h))
	}
	if math.Abs(h[2]-5) > 1e-6 {
		t.Errorf("v_c = %v, want 5", h[2])
	}
}

func TestModelPause(t *testing.T) {
	m := newDivider(t)
	m = send(t, m, key(" "), tick(), tick())
	if m.Running() {
		t.Fatal("expected paused")
	}
	if got := m.Simulator().Steps(); got != 0 {
		t.Errorf("steps while paused = %d, want 0", got)
	}

	m = send(t, m, key("s"))
	if got := m.Simulator().Steps(); got != 1 {
		t.Errorf("single step: steps = %d, want 1", got)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view should show PAUSED")
	}
}

func TestModelTuneAndReset(t *testing.T) {
	m := newDivider(t)
	// knobs: #1 voltage, #3 resistance
	m = send(t, m, key("tab"), key("up"), tick())

	r := m.Simulator().Elements()[3].Params()[element.ParamResistance]
	if math.Abs(r-1050) > 1e-9 {
		t.Fatalf("resistance = %v, want 1050", r)
	}
	i := m.History(1)[0]
	if math.Abs(i-5.0/1050) > 1e-9 {
		t.Errorf("i_r = %v, want %v", i, 5.0/1050)
	}

	m = send(t, m, key("r"))
	r = m.Simulator().Elements()[3].Params()[element.ParamResistance]
	if r != 1000 {
		t.Errorf("resistance after reset = %v, want 1000", r)
	}
	if m.Simulator().Steps() != 0 || len(m.History(0)) != 0 {
		t.Error("reset should clear steps and history")
	}
}

func TestModelTuneDown(t *testing.T) {
	m := newDivider(t)
	m = send(t, m, key("down"))
	v := m.Simulator().Elements()[1].Params()[element.ParamVoltage]
	if math.Abs(v-4.75) > 1e-12 {
		t.Errorf("voltage = %v, want 4.75", v)
	}
}

func TestModelReload(t *testing.T) {
	m := newDivider(t)
	m = send(t, m, tick())

	half, err := config.GetPreset("half")
	if err != nil {
		t.Fatal(err)
	}
	m = send(t, m, ReloadMsg{Circuit: half}, tick())
	if got := m.Simulator().Steps(); got != 1 {
		t.Errorf("steps after reload = %d, want 1", got)
	}
	if math.Abs(m.History(0)[0]-5) > 1e-6 {
		t.Errorf("v_mid = %v, want 5", m.History(0)[0])
	}
	if !strings.Contains(m.View(), "HALF") {
		t.Error("view should show the reloaded circuit name")
	}

	bad := errors.New("parse circuit.yaml: boom")
	m = send(t, m, ReloadMsg{Err: bad})
	if !errors.Is(m.Err(), bad) {
		t.Errorf("err = %v, want %v", m.Err(), bad)
	}
	m = send(t, m, tick())
	if m.Err() != nil {
		t.Errorf("a good step should clear the error, got %v", m.Err())
	}
}

func TestModelSingular(t *testing.T) {
	c := &config.Circuit{
		Name: "floating",
		Elements: []config.ElementSpec{
			{Type: "r", From: element.Point{X: 0, Y: 0}, To: element.Point{X: 0, Y: 4}, Params: map[string]float64{element.ParamResistance: 100}},
		},
		Probes: []sim.Probe{{Name: "i", Kind: sim.ProbeCurrent}},
	}
	m, err := NewModel(c, element.NewRegistry(), Options{})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	if !errors.Is(m.Err(), sim.ErrSingularMatrix) {
		t.Fatalf("err = %v, want ErrSingularMatrix", m.Err())
	}

	m = send(t, m, tick())
	if len(m.History(0)) != 0 {
		t.Error("failed steps should not record history")
	}
	if !strings.Contains(m.View(), "singular matrix") {
		t.Error("view should report the singular matrix")
	}
}

func TestModelBuildError(t *testing.T) {
	c := &config.Circuit{
		Name:     "bad",
		Elements: []config.ElementSpec{{Type: "transistor"}},
	}
	if _, err := NewModel(c, element.NewRegistry(), Options{}); !errors.Is(err, element.ErrUnknownType) {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}
}

func TestDefaultProbes(t *testing.T) {
	c, err := config.GetPreset("divider")
	if err != nil {
		t.Fatal(err)
	}
	c.Probes = nil
	m, err := NewModel(c, element.NewRegistry(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	m = send(t, m, tick())
	if len(m.History(0)) != 1 {
		t.Fatal("expected one default probe on the source")
	}
	if math.Abs(math.Abs(m.History(0)[0])-0.005) > 1e-6 {
		t.Errorf("source current = %v, want magnitude 0.005", m.History(0)[0])
	}
}

func TestModelView(t *testing.T) {
	m := send(t, newDivider(t), tick(), tick())
	view := m.View()
	for _, want := range []string{"DIVIDER", "RUNNING", "v_c", "i_r", "resistance", "1 kΩ"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = send(t, m, key("?"))
	if !strings.Contains(m.View(), "single step while paused") {
		t.Error("help overlay missing")
	}
}

func TestThemeCycle(t *testing.T) {
	m := newDivider(t)
	first := m.theme.Name
	for range Themes {
		m = send(t, m, key("t"))
	}
	if m.theme.Name != first {
		t.Errorf("theme = %q after full cycle, want %q", m.theme.Name, first)
	}
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
}

func TestFormatSI(t *testing.T) {
	tests := []struct {
		v    float64
		unit string
		want string
	}{
		{0.005, "A", "5 mA"},
		{1500, "Ω", "1.5 kΩ"},
		{-2.5e-6, "A", "-2.5 µA"},
		{5, "V", "5 V"},
		{0, "V", "0 V"},
		{math.NaN(), "V", "--"},
	}
	for _, tt := range tests {
		if got := formatSI(tt.v, tt.unit); got != tt.want {
			t.Errorf("formatSI(%v, %q) = %q, want %q", tt.v, tt.unit, got, tt.want)
		}
	}
}

func TestInteractiveApp(t *testing.T) {
	var m tea.Model = NewInteractiveApp(element.NewRegistry(), Options{})
	if !strings.Contains(m.View(), "CIRCSIM") {
		t.Fatal("menu missing title")
	}

	presets := config.ListPresets()
	m, _ = m.Update(key("enter"))
	if !strings.Contains(m.View(), strings.ToUpper(presets[0])) {
		t.Fatalf("config view should show %q", presets[0])
	}

	m, _ = m.Update(key("s"))
	m, _ = m.Update(tick())
	a := m.(app)
	if a.state != stateSim {
		t.Fatalf("state = %d, want stateSim", a.state)
	}
	if a.live.Simulator().Steps() != 1 {
		t.Errorf("live steps = %d, want 1", a.live.Simulator().Steps())
	}
}

func TestInteractiveEditParam(t *testing.T) {
	var m tea.Model = NewInteractiveApp(element.NewRegistry(), Options{})
	m, _ = m.Update(key("enter"))
	a := m.(app)
	before := a.value()

	m, _ = m.Update(key("enter"))
	for i := 0; i < 20; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	for _, r := range "42" {
		m, _ = m.Update(key(string(r)))
	}
	m, _ = m.Update(key("enter"))

	a = m.(app)
	if got := a.value(); got != 42 {
		t.Errorf("edited value = %v, want 42 (was %v)", got, before)
	}
	fresh, err := config.GetPreset(a.circuit.Name)
	if err != nil {
		t.Fatal(err)
	}
	f := a.fields[0]
	if fresh.Elements[f.elem].Params[f.param] == 42 {
		t.Error("editing must not change the preset table")
	}
}
