package element

import "fmt"

const (
	ParamResistance   = "resistance"
	DefaultResistance = 1000.0
)

type Resistor struct {
	Base
	resistance float64
}

func NewResistor(p0, p1 Point, resistance float64) (*Resistor, error) {
	r := &Resistor{Base: newBase(p0, p1)}
	if err := r.SetParam(ParamResistance, resistance); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resistor) Type() Type { return TypeResistor }

func (r *Resistor) Resistance() float64 { return r.resistance }

func (r *Resistor) Stamp(s Stamper) {
	s.StampResistor(r.nodes[0], r.nodes[1], r.resistance)
}

// CalculateCurrent applies Ohm's law; positive current flows from post 0 to post 1.
func (r *Resistor) CalculateCurrent() {
	r.current = (r.volts[0] - r.volts[1]) / r.resistance
}

func (r *Resistor) Params() map[string]float64 {
	return map[string]float64{ParamResistance: r.resistance}
}

func (r *Resistor) SetParam(name string, value float64) error {
	if name != ParamResistance {
		return fmt.Errorf("%w: resistor has no parameter %q", ErrInvalidParam, name)
	}
	if err := checkFinite(name, value); err != nil {
		return err
	}
	if value <= 0 {
		return fmt.Errorf("%w: resistance must be positive, got %v", ErrInvalidParam, value)
	}
	r.resistance = value
	return nil
}
