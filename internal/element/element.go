package element

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidParam = errors.New("element: invalid parameter")
	ErrUnknownType  = errors.New("element: unknown element type")
)

// Type is the one-letter code an element is stored under in circuit files.
type Type string

const (
	TypeGround   Type = "g"
	TypeWire     Type = "w"
	TypeResistor Type = "r"
	TypeVoltage  Type = "v"
)

// Unassigned marks a post that has not been bound to a node yet.
const Unassigned = -1

// Point is a grid coordinate. Two posts are on the same node iff their points are equal.
type Point struct {
	X int `yaml:"x" toml:"x" json:"x"`
	Y int `yaml:"y" toml:"y" json:"y"`
}

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Stamper receives element contributions to the MNA system. Node index 0 is
// ground; voltage-source rows are addressed through VoltageSourceRow.
type Stamper interface {
	StampMatrix(i, j int, v float64)
	StampRightSide(i int, v float64)
	StampResistor(n1, n2 int, r float64)
	StampConductance(n1, n2 int, g float64)
	StampVoltageSource(n1, n2, vs int, v float64)
	UpdateVoltageSource(vs int, v float64)
	StampCurrentSource(n1, n2 int, i float64)
	VoltageSourceRow(vs int) int
}

// Element is the capability contract every circuit component implements.
type Element interface {
	Type() Type
	PostCount() int
	Post(i int) Point
	SetPost(i int, p Point)

	SetNode(i, node int)
	Node(i int) int
	SetVoltage(i int, v float64)
	Voltage(i int) float64
	VoltageDiff() float64
	Current() float64
	SetCurrent(vs int, c float64)

	NonLinear() bool
	VoltageSourceCount() int
	SetVoltageSource(local, global int)

	// Stamp writes the steady contribution once per analysis.
	Stamp(s Stamper)
	// DoStep runs before every solve. Matrix stamps are only allowed when
	// NonLinear reports true; right-side stamps are always allowed.
	DoStep(s Stamper)
	CalculateCurrent()
	Reset()

	Params() map[string]float64
	SetParam(name string, value float64) error
}

// Base carries the state shared by all variants. Variants embed it and
// override the methods whose behavior differs.
type Base struct {
	posts   []Point
	nodes   []int
	volts   []float64
	current float64
}

func newBase(posts ...Point) Base {
	b := Base{
		posts: append([]Point(nil), posts...),
		nodes: make([]int, len(posts)),
		volts: make([]float64, len(posts)),
	}
	for i := range b.nodes {
		b.nodes[i] = Unassigned
	}
	return b
}

func (b *Base) PostCount() int { return len(b.posts) }

func (b *Base) Post(i int) Point { return b.posts[i] }

func (b *Base) SetPost(i int, p Point) { b.posts[i] = p }

func (b *Base) SetNode(i, node int) { b.nodes[i] = node }

func (b *Base) Node(i int) int { return b.nodes[i] }

func (b *Base) SetVoltage(i int, v float64) { b.volts[i] = v }

func (b *Base) Voltage(i int) float64 { return b.volts[i] }

func (b *Base) VoltageDiff() float64 {
	if len(b.volts) < 2 {
		return b.volts[0]
	}
	return b.volts[0] - b.volts[1]
}

func (b *Base) Current() float64 { return b.current }

func (b *Base) SetCurrent(vs int, c float64) { b.current = c }

func (b *Base) NonLinear() bool { return false }

func (b *Base) VoltageSourceCount() int { return 0 }

func (b *Base) SetVoltageSource(local, global int) {}

func (b *Base) Stamp(s Stamper) {}

func (b *Base) DoStep(s Stamper) {}

func (b *Base) CalculateCurrent() {}

func (b *Base) Reset() {
	for i := range b.volts {
		b.volts[i] = 0
	}
	b.current = 0
}

func (b *Base) Params() map[string]float64 { return map[string]float64{} }

func (b *Base) SetParam(name string, value float64) error {
	return fmt.Errorf("%w: %q", ErrInvalidParam, name)
}

func checkFinite(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParam, name, value)
	}
	return nil
}
