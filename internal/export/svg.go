package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/circsim/internal/element"
)

// SchematicOptions controls SchematicSVG. Zero values pick the defaults.
type SchematicOptions struct {
	// Scale is pixels per grid unit.
	Scale float64
	// Voltages labels every post with its last solved voltage.
	Voltages   bool
	Stroke     string
	Background string
}

const (
	defaultScale = 20
	margin       = 40
)

// SchematicSVG draws the elements as a vector schematic. Circuit y grows
// upward, so the drawing is flipped to SVG's downward axis.
func SchematicSVG(w io.Writer, elms []element.Element, opts SchematicOptions) error {
	if len(elms) == 0 {
		return fmt.Errorf("export: empty circuit")
	}
	if opts.Scale <= 0 {
		opts.Scale = defaultScale
	}
	if opts.Stroke == "" {
		opts.Stroke = "#00ff00"
	}
	if opts.Background == "" {
		opts.Background = "#0a0a0a"
	}

	// Find bounds
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, e := range elms {
		for i := 0; i < e.PostCount(); i++ {
			p := e.Post(i)
			minX, maxX = math.Min(minX, float64(p.X)), math.Max(maxX, float64(p.X))
			minY, maxY = math.Min(minY, float64(p.Y)), math.Max(maxY, float64(p.Y))
		}
	}
	width := (maxX-minX)*opts.Scale + 2*margin
	height := (maxY-minY)*opts.Scale + 2*margin

	project := func(p element.Point) (float64, float64) {
		x := (float64(p.X)-minX)*opts.Scale + margin
		y := height - ((float64(p.Y)-minY)*opts.Scale + margin)
		return x, y
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="none" stroke="%s" stroke-width="1.5">
`, width, height, width, height, opts.Background, opts.Stroke))

	for _, e := range elms {
		x0, y0 := project(e.Post(0))
		switch e.Type() {
		case element.TypeGround:
			sb.WriteString(fmt.Sprintf(`<path d="M%.1f,%.1f v8 m-8,0 h16 m-12,4 h8 m-4,4 h0"/>
`, x0, y0))
		case element.TypeResistor:
			x1, y1 := project(e.Post(1))
			sb.WriteString(zigzag(x0, y0, x1, y1))
		case element.TypeVoltage:
			x1, y1 := project(e.Post(1))
			mx, my := (x0+x1)/2, (y0+y1)/2
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<circle cx="%.1f" cy="%.1f" r="12" fill="%s"/>
`, x0, y0, x1, y1, mx, my, opts.Background))
			// the second post is the positive terminal
			px, py := mx+(x1-mx)*0.4, my+(y1-my)*0.4
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="%s" stroke="none" font-size="12" text-anchor="middle" dominant-baseline="middle">+</text>
`, px, py, opts.Stroke))
		default:
			if e.PostCount() > 1 {
				x1, y1 := project(e.Post(1))
				sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x0, y0, x1, y1))
			}
		}
	}
	sb.WriteString("</g>\n")

	if opts.Voltages {
		sb.WriteString(fmt.Sprintf(`<g fill="%s" font-family="monospace" font-size="10">
`, opts.Stroke))
		seen := make(map[element.Point]bool)
		for _, e := range elms {
			for i := 0; i < e.PostCount(); i++ {
				p := e.Post(i)
				if seen[p] {
					continue
				}
				seen[p] = true
				x, y := project(p)
				sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2"/>
<text x="%.1f" y="%.1f">%.3f V</text>
`, x, y, x+4, y-4, e.Voltage(i)))
			}
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// zigzag draws a resistor body over the middle half of the segment.
func zigzag(x0, y0, x1, y1 float64) string {
	const teeth = 6
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 {
		return ""
	}
	nx, ny := -dy/l*5, dx/l*5

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<polyline points="%.1f,%.1f`, x0, y0))
	sb.WriteString(fmt.Sprintf(" %.1f,%.1f", x0+dx*0.25, y0+dy*0.25))
	for i := 1; i < teeth; i++ {
		t := 0.25 + 0.5*float64(i)/teeth
		side := 1.0
		if i%2 == 0 {
			side = -1
		}
		sb.WriteString(fmt.Sprintf(" %.1f,%.1f", x0+dx*t+nx*side, y0+dy*t+ny*side))
	}
	sb.WriteString(fmt.Sprintf(" %.1f,%.1f %.1f,%.1f\"/>\n", x0+dx*0.75, y0+dy*0.75, x1, y1))
	return sb.String()
}
