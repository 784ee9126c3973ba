package element

// Ground ties its single post to the reference node.
type Ground struct {
	Base
	voltSource int
}

func NewGround(p Point) *Ground {
	return &Ground{Base: newBase(p)}
}

func (g *Ground) Type() Type { return TypeGround }

func (g *Ground) VoltageSourceCount() int { return 1 }

func (g *Ground) SetVoltageSource(local, global int) { g.voltSource = global }

func (g *Ground) Stamp(s Stamper) {
	s.StampVoltageSource(0, g.nodes[0], g.voltSource, 0)
	if g.nodes[0] == 0 {
		// The post already sits on node 0, so the constraint row is empty.
		// Pin the branch current to zero to keep the system regular.
		row := s.VoltageSourceRow(g.voltSource)
		s.StampMatrix(row, row, 1)
	}
}
