package config

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// The line dump stores one element per line:
//
//	$ <timestep>
//	g <x> <y>
//	<type> <x1> <y1> <x2> <y2> [name=value ...]
//
// Blank lines and lines starting with '#' are skipped.

// ParseDump reads a circuit in line dump form.
func ParseDump(r io.Reader) (*Circuit, error) {
	c := &Circuit{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		if fields[0] == "$" {
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: missing timestep", line)
			}
			dt, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: timestep: %w", line, err)
			}
			c.TimeStep = dt
			continue
		}

		spec, err := parseDumpLine(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c.Elements = append(c.Elements, spec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseDumpLine(fields []string) (ElementSpec, error) {
	spec := ElementSpec{Type: fields[0]}

	coords := 4
	if spec.Type == "g" || spec.Type == "ground" {
		coords = 2
	}
	if len(fields) < 1+coords {
		return spec, fmt.Errorf("%s: want %d coordinates, got %d", spec.Type, coords, len(fields)-1)
	}

	xy := make([]int, coords)
	for i := range xy {
		v, err := strconv.Atoi(fields[1+i])
		if err != nil {
			return spec, fmt.Errorf("%s: coordinate %d: %w", spec.Type, i, err)
		}
		xy[i] = v
	}
	spec.From.X, spec.From.Y = xy[0], xy[1]
	if coords == 4 {
		spec.To.X, spec.To.Y = xy[2], xy[3]
	}

	for _, kv := range fields[1+coords:] {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return spec, fmt.Errorf("%s: parameter %q is not name=value", spec.Type, kv)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return spec, fmt.Errorf("%s: parameter %s: %w", spec.Type, name, err)
		}
		if spec.Params == nil {
			spec.Params = make(map[string]float64)
		}
		spec.Params[name] = v
	}
	return spec, nil
}

// WriteDump writes c in line dump form. Probes are not part of the dump.
func WriteDump(w io.Writer, c *Circuit) error {
	bw := bufio.NewWriter(w)
	if c.Name != "" {
		fmt.Fprintf(bw, "# %s\n", c.Name)
	}
	if c.TimeStep > 0 {
		fmt.Fprintf(bw, "$ %s\n", strconv.FormatFloat(c.TimeStep, 'g', -1, 64))
	}
	for _, spec := range c.Elements {
		if spec.Type == "g" || spec.Type == "ground" {
			fmt.Fprintf(bw, "%s %d %d", spec.Type, spec.From.X, spec.From.Y)
		} else {
			fmt.Fprintf(bw, "%s %d %d %d %d", spec.Type, spec.From.X, spec.From.Y, spec.To.X, spec.To.Y)
		}

		names := make([]string, 0, len(spec.Params))
		for k := range spec.Params {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(bw, " %s=%s", k, strconv.FormatFloat(spec.Params[k], 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
