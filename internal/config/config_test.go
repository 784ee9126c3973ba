package config

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt != sim.DefaultTimeStep {
		t.Errorf("expected dt %g, got %g", sim.DefaultTimeStep, cfg.Dt)
	}
	if cfg.Steps <= 0 {
		t.Error("steps should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative steps", func(c *Config) { c.Steps = -1 }},
		{"zero tick", func(c *Config) { c.TickMS = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file string
		body string
	}{
		{"run.yaml", "steps: 42\ncircuit: preset:bridge\n"},
		{"run.toml", "steps = 42\ncircuit = 'preset:bridge'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Steps != 42 || cfg.Circuit != "preset:bridge" {
				t.Errorf("got steps=%d circuit=%q", cfg.Steps, cfg.Circuit)
			}
			if cfg.Dt != sim.DefaultTimeStep || cfg.TickMS != DefaultTickMS {
				t.Errorf("defaults lost: dt=%g tick=%d", cfg.Dt, cfg.TickMS)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cfg.yaml", "cfg.toml"} {
		path := filepath.Join(dir, name)
		cfg := DefaultConfig()
		cfg.Steps = 7
		cfg.Metrics = []string{"stability"}
		if err := Save(path, cfg); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if got.Steps != 7 || len(got.Metrics) != 1 || got.Metrics[0] != "stability" {
			t.Errorf("%s: got %+v", name, got)
		}
	}
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("steps: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: %v", err)
	}
}

func TestPresetsSolve(t *testing.T) {
	reg := element.NewRegistry()
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			c, err := LoadCircuit(PresetPrefix + name)
			if err != nil {
				t.Fatal(err)
			}
			elms, err := c.Build(reg)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			s := sim.New()
			if err := s.SetElements(elms); err != nil {
				t.Fatalf("SetElements: %v", err)
			}
			if err := s.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
		})
	}
}

func TestBridgePreset(t *testing.T) {
	c, err := GetPreset("bridge")
	if err != nil {
		t.Fatal(err)
	}
	elms, err := c.Build(element.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	s := sim.New()
	trace := sim.NewTrace(c.Probes...)
	s.AddObserver(trace)
	if err := s.SetElements(elms); err != nil {
		t.Fatal(err)
	}
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}

	want := []float64{6.567164179104477, 5.074626865671642, 0.00014925373134328348}
	for i, w := range want {
		if got := trace.Values[0][i]; math.Abs(got-w) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.Probes[i].Name, got, w)
		}
	}
}

func TestGetPresetCopies(t *testing.T) {
	a, err := GetPreset("divider")
	if err != nil {
		t.Fatal(err)
	}
	a.Elements[3].Params[element.ParamResistance] = 1
	b, _ := GetPreset("divider")
	if b.Elements[3].Params[element.ParamResistance] != 1000 {
		t.Error("GetPreset returned shared parameters")
	}

	if _, err := GetPreset("nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("GetPreset(nope) = %v, want ErrUnknownPreset", err)
	}
	if _, err := LoadCircuit("preset:nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("LoadCircuit(preset:nope) = %v", err)
	}
}

func TestCircuitFiles(t *testing.T) {
	dir := t.TempDir()
	orig, _ := GetPreset("divider")

	for _, name := range []string{"c.yaml", "c.toml", "c.txt"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := SaveCircuit(path, orig); err != nil {
				t.Fatalf("SaveCircuit: %v", err)
			}
			got, err := LoadCircuit(path)
			if err != nil {
				t.Fatalf("LoadCircuit: %v", err)
			}
			if len(got.Elements) != len(orig.Elements) {
				t.Fatalf("got %d elements, want %d", len(got.Elements), len(orig.Elements))
			}
			for i := range orig.Elements {
				g, w := got.Elements[i], orig.Elements[i]
				if g.Type != w.Type || g.From != w.From {
					t.Errorf("element %d = %+v, want %+v", i, g, w)
				}
				if w.Type != "g" && g.To != w.To {
					t.Errorf("element %d ends at %v, want %v", i, g.To, w.To)
				}
				for k, v := range w.Params {
					if g.Params[k] != v {
						t.Errorf("element %d %s = %v, want %v", i, k, g.Params[k], v)
					}
				}
			}
		})
	}
}

func TestParseDump(t *testing.T) {
	input := `# two resistors
$ 1e-5
g 0 0
v 0 0 0 4 voltage=9
r 0 4 4 4 resistance=470

r 4 4 0 0
`
	c, err := ParseDump(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if c.TimeStep != 1e-5 {
		t.Errorf("TimeStep = %v", c.TimeStep)
	}
	if len(c.Elements) != 4 {
		t.Fatalf("got %d elements", len(c.Elements))
	}
	if c.Elements[1].Params[element.ParamVoltage] != 9 {
		t.Errorf("voltage = %v", c.Elements[1].Params)
	}
	if c.Elements[3].Params != nil {
		t.Errorf("resistor without params got %v", c.Elements[3].Params)
	}

	bad := []string{
		"r 0 0 1",
		"r 0 0 1 x",
		"r 0 0 1 1 resistance",
		"r 0 0 1 1 resistance=abc",
		"$",
	}
	for _, line := range bad {
		if _, err := ParseDump(strings.NewReader(line)); err == nil {
			t.Errorf("ParseDump(%q) succeeded", line)
		}
	}
}

func TestWriteDump(t *testing.T) {
	c := &Circuit{
		Name:     "tiny",
		TimeStep: 2e-6,
		Elements: []ElementSpec{
			ground(pt(0, 0)),
			res(pt(0, 0), pt(1, 2), 330),
		},
	}
	var buf bytes.Buffer
	if err := WriteDump(&buf, c); err != nil {
		t.Fatal(err)
	}
	want := "# tiny\n$ 2e-06\ng 0 0\nr 0 0 1 2 resistance=330\n"
	if buf.String() != want {
		t.Errorf("WriteDump =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestBuildErrors(t *testing.T) {
	reg := element.NewRegistry()
	tests := []struct {
		name string
		c    Circuit
		want error
	}{
		{"unknown type", Circuit{Elements: []ElementSpec{{Type: "q"}}}, element.ErrUnknownType},
		{"unknown param", Circuit{Elements: []ElementSpec{{Type: "r", Params: map[string]float64{"ohms": 1}}}}, element.ErrInvalidParam},
		{"bad value", Circuit{Elements: []ElementSpec{res(pt(0, 0), pt(1, 0), -5)}}, element.ErrInvalidParam},
		{"bad probe", Circuit{
			Elements: []ElementSpec{ground(pt(0, 0))},
			Probes:   []sim.Probe{{Name: "x", Kind: sim.ProbeCurrent, Element: 4}},
		}, sim.ErrElementIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.c.Build(reg); !errors.Is(err, tt.want) {
				t.Errorf("Build() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFromElements(t *testing.T) {
	orig, _ := GetPreset("divider")
	elms, err := orig.Build(element.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	c := FromElements("copy", elms)
	if len(c.Elements) != len(elms) {
		t.Fatalf("got %d specs", len(c.Elements))
	}
	if c.Elements[0].Type != "g" || c.Elements[0].Params != nil {
		t.Errorf("ground spec = %+v", c.Elements[0])
	}
	if c.Elements[3].Params[element.ParamResistance] != 1000 {
		t.Errorf("resistor spec = %+v", c.Elements[3])
	}
	if c.Elements[2].Params != nil {
		t.Errorf("wire spec has params %v", c.Elements[2].Params)
	}
}
