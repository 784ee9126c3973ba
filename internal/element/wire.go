package element

// WireResistance is the resistance a wire is stamped with. Wires are not
// collapsed into a single node; many wires in series can hurt conditioning.
const WireResistance = 1e-6

type Wire struct {
	Base
}

func NewWire(p0, p1 Point) *Wire {
	return &Wire{Base: newBase(p0, p1)}
}

func (w *Wire) Type() Type { return TypeWire }

func (w *Wire) Stamp(s Stamper) {
	s.StampResistor(w.nodes[0], w.nodes[1], WireResistance)
}

func (w *Wire) CalculateCurrent() {
	w.current = (w.volts[0] - w.volts[1]) / WireResistance
}
