package viz

import (
	"github.com/san-kum/circsim/internal/element"
)

// DrawCircuit renders the elements onto c, scaled to fit with a one-dot
// margin. Wires are plain lines, resistors zig-zag, sources carry a box at
// their positive post and ground is a short bar.
func DrawCircuit(c *Canvas, elms []element.Element) {
	c.Clear()
	if len(elms) == 0 {
		return
	}

	minX, minY := elms[0].Post(0).X, elms[0].Post(0).Y
	maxX, maxY := minX, minY
	for _, e := range elms {
		for i := 0; i < e.PostCount(); i++ {
			p := e.Post(i)
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
	}

	spanX, spanY := max(maxX-minX, 1), max(maxY-minY, 1)
	w, h := c.DotsWide()-4, c.DotsHigh()-4
	scale := min(float64(w)/float64(spanX), float64(h)/float64(spanY))

	// Screen y grows downward; circuit y grows upward.
	project := func(p element.Point) (int, int) {
		x := 2 + int(float64(p.X-minX)*scale+0.5)
		y := 2 + h - int(float64(p.Y-minY)*scale+0.5)
		return x, y
	}

	for _, e := range elms {
		x0, y0 := project(e.Post(0))
		switch e.Type() {
		case element.TypeGround:
			c.DrawLine(x0-2, y0+1, x0+2, y0+1)
			c.DrawLine(x0-1, y0+2, x0+1, y0+2)
		case element.TypeResistor:
			x1, y1 := project(e.Post(1))
			drawZigZag(c, x0, y0, x1, y1)
		case element.TypeVoltage:
			x1, y1 := project(e.Post(1))
			c.DrawLine(x0, y0, x1, y1)
			c.Box(x1, y1, 1)
		default:
			if e.PostCount() > 1 {
				x1, y1 := project(e.Post(1))
				c.DrawLine(x0, y0, x1, y1)
			}
		}
	}
}

func drawZigZag(c *Canvas, x0, y0, x1, y1 int) {
	const teeth = 6
	dx, dy := float64(x1-x0), float64(y1-y0)
	// unit normal, scaled to one dot
	nx, ny := -dy, dx
	if l := absF(nx) + absF(ny); l > 0 {
		nx, ny = nx/l, ny/l
	}

	px, py := x0, y0
	for i := 1; i <= teeth; i++ {
		t := float64(i) / teeth
		off := 0.0
		if i < teeth {
			off = 1.5
			if i%2 == 0 {
				off = -1.5
			}
		}
		qx := x0 + int(dx*t+nx*off+0.5)
		qy := y0 + int(dy*t+ny*off+0.5)
		c.DrawLine(px, py, qx, qy)
		px, py = qx, qy
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
