package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/circsim/internal/sim"
)

type ExportData struct {
	Circuit  string               `json:"circuit"`
	Dt       float64              `json:"dt"`
	Duration float64              `json:"duration"`
	Steps    int                  `json:"steps"`
	Probes   []string             `json:"probes"`
	Times    []float64            `json:"times"`
	Values   map[string][]float64 `json:"values"`
	Metrics  map[string]float64   `json:"metrics"`
}

// ExportJSON writes a run with one series per probe.
func ExportJSON(w io.Writer, meta *RunMetadata, trace *sim.Trace) error {
	data := ExportData{
		Circuit:  meta.Circuit,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		Steps:    len(trace.Times),
		Probes:   trace.Names(),
		Times:    trace.Times,
		Values:   make(map[string][]float64, len(trace.Probes)),
		Metrics:  meta.Metrics,
	}
	for i, p := range trace.Probes {
		data.Values[p.Name] = trace.Series(i)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
