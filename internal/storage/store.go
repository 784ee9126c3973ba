// Package storage keeps recorded runs on disk, one directory per run with a
// metadata.json and a traces.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/circsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	tracesFile   = "traces.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Circuit   string             `json:"circuit"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	Duration  float64            `json:"duration"`
	Probes    []string           `json:"probes"`
	Metrics   map[string]float64 `json:"metrics"`
}

// RunDir is the directory holding the files of a run.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// Save writes a finished run and returns its ID.
func (s *Store) Save(circuit string, dt float64, result *sim.Result, trace *sim.Trace) (string, error) {
	runID := fmt.Sprintf("%s_%s", slug(circuit), uuid.NewString()[:8])
	runDir := s.RunDir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Circuit:   circuit,
		Timestamp: time.Now(),
		Dt:        dt,
		Steps:     result.StepsTaken,
		Duration:  result.Time,
		Probes:    trace.Names(),
		Metrics:   result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeTrace(filepath.Join(runDir, tracesFile), trace); err != nil {
		return "", err
	}
	return runID, nil
}

func writeTrace(path string, trace *sim.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"time"}, trace.Names()...)); err != nil {
		return err
	}
	for i, t := range trace.Times {
		row := []string{strconv.FormatFloat(t, 'g', -1, 64)}
		for _, v := range trace.Values[i] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func slug(circuit string) string {
	name := strings.TrimPrefix(circuit, "preset:")
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, name)
	if name == "" || name == "." || name == "_" {
		return "circuit"
	}
	return name
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrace reads the recorded probe values of a run. The returned probes
// carry names only.
func (s *Store) LoadTrace(runID string) (*sim.Trace, error) {
	file, err := os.Open(filepath.Join(s.RunDir(runID), tracesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	trace := &sim.Trace{}
	if len(records) == 0 {
		return trace, nil
	}
	for _, name := range records[0][1:] {
		trace.Probes = append(trace.Probes, sim.Probe{Name: name})
	}

	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
		}
		row := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
			}
			row[j] = v
		}
		trace.Times = append(trace.Times, t)
		trace.Values = append(trace.Values, row)
	}
	return trace, nil
}
