package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/san-kum/circsim/internal/sim"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var ErrEmptyTrace = errors.New("export: trace has no samples")

const (
	DefaultPlotWidth  = 8 * vg.Inch
	DefaultPlotHeight = 4 * vg.Inch
)

// PlotTrace builds a line plot of the selected probes against time. With no
// selection every probe is plotted. Non-finite samples are left out.
func PlotTrace(trace *sim.Trace, title string, probes ...int) (*plot.Plot, error) {
	if trace == nil || len(trace.Times) == 0 {
		return nil, ErrEmptyTrace
	}
	if len(probes) == 0 {
		probes = make([]int, len(trace.Probes))
		for i := range probes {
			probes[i] = i
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = axisLabel(trace, probes)
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	lines := make([]any, 0, 2*len(probes))
	for _, i := range probes {
		if i < 0 || i >= len(trace.Probes) {
			return nil, fmt.Errorf("export: probe index %d out of range", i)
		}
		pts := make(plotter.XYs, 0, len(trace.Times))
		for k, v := range trace.Series(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: trace.Times[k], Y: v})
		}
		if len(pts) == 0 {
			continue
		}
		lines = append(lines, trace.Probes[i].Name, pts)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyTrace
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return p, nil
}

func axisLabel(trace *sim.Trace, probes []int) string {
	volts, amps := false, false
	for _, i := range probes {
		if i < 0 || i >= len(trace.Probes) {
			continue
		}
		if trace.Probes[i].Kind == sim.ProbeCurrent {
			amps = true
		} else {
			volts = true
		}
	}
	switch {
	case volts && amps:
		return "V / A"
	case amps:
		return "I (A)"
	}
	return "V (V)"
}

// SavePlot writes the plot to path; the format follows the extension
// (.png, .svg, .pdf, .jpg, ...).
func SavePlot(path string, trace *sim.Trace, title string, probes ...int) error {
	p, err := PlotTrace(trace, title, probes...)
	if err != nil {
		return err
	}
	return p.Save(DefaultPlotWidth, DefaultPlotHeight, path)
}

// WritePlot renders the plot in format ("png", "svg", ...) to w.
func WritePlot(w io.Writer, format string, trace *sim.Trace, title string, probes ...int) error {
	p, err := PlotTrace(trace, title, probes...)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(DefaultPlotWidth, DefaultPlotHeight, strings.TrimPrefix(format, "."))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// FormatOf returns the image format implied by a file name.
func FormatOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
