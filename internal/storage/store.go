package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
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

// RunInfo describes how a run was produced.
type RunInfo struct {
	Name         string    `json:"name"`
	Integrator   string    `json:"integrator"`
	Gravity      float64   `json:"gravity"`
	GravityModel string    `json:"gravity_model"`
	Damping      float64   `json:"damping"`
	Dt           float64   `json:"dt"`
	Duration     float64   `json:"duration"`
	Lengths      []float64 `json:"lengths"`
}

type RunMetadata struct {
	RunInfo
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Steps       int                `json:"steps"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes metadata.json and states.csv into a fresh run directory.
// The CSV holds one row per sample: time, then theta and omega in radians
// for every pendulum.
func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	if result == nil {
		return "", errors.New("nil result")
	}
	name := info.Name
	if name == "" {
		name = "run"
	}

	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.Unix())
	runDir := filepath.Join(s.baseDir, runID)
	for n := 1; ; n++ {
		if _, err := os.Stat(runDir); os.IsNotExist(err) {
			break
		}
		runID = fmt.Sprintf("%s_%d_%d", name, now.Unix(), n)
		runDir = filepath.Join(s.baseDir, runID)
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}

	meta := RunMetadata{
		RunInfo:     info,
		ID:          runID,
		Timestamp:   now,
		Steps:       result.StepsTaken,
		EnergyDrift: result.EnergyDrift,
		Metrics:     result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStates(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(result.Views) > 0 {
		header := []string{"time"}
		for i := range result.Views[0] {
			header = append(header, fmt.Sprintf("theta%d", i), fmt.Sprintf("omega%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}

	for i, views := range result.Views {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		for _, v := range views {
			row = append(row,
				strconv.FormatFloat(v.Theta, 'g', -1, 64),
				strconv.FormatFloat(v.Omega, 'g', -1, 64),
			)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadStates returns the rows of states.csv: per sample the flattened
// (theta, omega) pairs, and the sample times.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		state := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}
		states = append(states, state)
	}

	return states, times, nil
}

// Series extracts theta or omega of one pendulum from LoadStates rows.
func Series(states [][]float64, pendulum int, omega bool) []float64 {
	col := 2 * pendulum
	if omega {
		col++
	}
	out := make([]float64, 0, len(states))
	for _, row := range states {
		if col < len(row) {
			out = append(out, row[col])
		}
	}
	return out
}

// CopyCSV streams the raw states.csv of a run to w.
func (s *Store) CopyCSV(runID string, w io.Writer) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

type ExportData struct {
	RunMetadata
	Times  []float64        `json:"times"`
	Frames [][]physics.View `json:"frames"`
}

// ExportJSON writes a stored run, metadata and samples, as one indented
// JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Times:       times,
		Frames:      make([][]physics.View, len(states)),
	}
	for i, row := range states {
		frame := make([]physics.View, 0, len(row)/2)
		for j := 0; j+1 < len(row); j += 2 {
			v := physics.View{ID: j / 2, Theta: row[j], Omega: row[j+1], Angle: row[j], AngularVelocity: row[j+1]}
			if j/2 < len(meta.Lengths) {
				v.Length = meta.Lengths[j/2]
			}
			frame = append(frame, v)
		}
		data.Frames[i] = frame
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
