package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/sim"
)

func runDivider(t *testing.T, ms ...sim.Metric) *sim.Result {
	t.Helper()
	a, b, c, d := element.Point{X: 0, Y: 0}, element.Point{X: 0, Y: 4}, element.Point{X: 4, Y: 4}, element.Point{X: 4, Y: 0}
	src, err := element.NewVoltageSource(a, b, 5)
	if err != nil {
		t.Fatal(err)
	}
	res, err := element.NewResistor(c, d, 1000)
	if err != nil {
		t.Fatal(err)
	}

	s := sim.New()
	for _, m := range ms {
		s.AddMetric(m)
	}
	if err := s.SetElements([]element.Element{element.NewGround(a), src, element.NewWire(b, c), res, element.NewWire(d, a)}); err != nil {
		t.Fatal(err)
	}
	result, err := s.Run(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestPowerBalance(t *testing.T) {
	result := runDivider(t, NewDissipation(), NewSourcePower())

	absorbed := result.Metrics["dissipated_power"]
	delivered := result.Metrics["source_power"]
	if math.Abs(delivered-0.025) > 1e-6 {
		t.Errorf("source power = %v, want 0.025", delivered)
	}
	if math.Abs(absorbed-delivered) > 1e-6 {
		t.Errorf("absorbed %v != delivered %v", absorbed, delivered)
	}
}

func TestKCLResidual(t *testing.T) {
	result := runDivider(t, NewKCLResidual())
	if r := result.Metrics["kcl_residual"]; r > 1e-6 {
		t.Errorf("kcl residual = %v", r)
	}
}

func TestStability(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{"within", 10, 1},
		{"exceeded", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runDivider(t, NewStability(tt.threshold))
			if got := result.Metrics["stability"]; got != tt.want {
				t.Errorf("stability = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReset(t *testing.T) {
	ms := []sim.Metric{NewDissipation(), NewSourcePower(), NewKCLResidual()}
	runDivider(t, ms...)
	for _, m := range ms {
		m.Reset()
		if m.Value() != 0 {
			t.Errorf("%s = %v after reset", m.Name(), m.Value())
		}
	}
	if v := NewStability(1).Value(); v != 1 {
		t.Errorf("empty stability = %v, want 1", v)
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		m, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if m.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, m.Name())
		}
	}
	if _, err := New("bogus"); err == nil {
		t.Error("expected error for unknown metric")
	}
}
