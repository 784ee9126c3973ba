package element

import "fmt"

const (
	ParamVoltage   = "voltage"
	DefaultVoltage = 5.0
)

// VoltageSource is an ideal DC source raising post 1 above post 0 by its voltage.
type VoltageSource struct {
	Base
	voltage    float64
	voltSource int
}

func NewVoltageSource(p0, p1 Point, voltage float64) (*VoltageSource, error) {
	v := &VoltageSource{Base: newBase(p0, p1)}
	if err := v.SetParam(ParamVoltage, voltage); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *VoltageSource) Type() Type { return TypeVoltage }

func (v *VoltageSource) VoltageSourceCount() int { return 1 }

func (v *VoltageSource) SetVoltageSource(local, global int) { v.voltSource = global }

// VoltageSourceIndex is the global constraint index from the latest analysis.
func (v *VoltageSource) VoltageSourceIndex() int { return v.voltSource }

func (v *VoltageSource) Stamp(s Stamper) {
	s.StampVoltageSource(v.nodes[0], v.nodes[1], v.voltSource, v.voltage)
}

func (v *VoltageSource) Params() map[string]float64 {
	return map[string]float64{ParamVoltage: v.voltage}
}

func (v *VoltageSource) SetParam(name string, value float64) error {
	if name != ParamVoltage {
		return fmt.Errorf("%w: voltage source has no parameter %q", ErrInvalidParam, name)
	}
	if err := checkFinite(name, value); err != nil {
		return err
	}
	v.voltage = value
	return nil
}
