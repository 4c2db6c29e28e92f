// Package replay records driver ticks to a compressed bundle and re-runs
// them deterministically.
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/pendsim/internal/physics"
)

const (
	ManifestFile = "manifest.json"
	TicksFile    = "ticks.jsonl.zst"
	FaultsFile   = "faults.jsonl.sz"

	manifestVersion = 1
)

var nameCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Initial is one pendulum's starting condition in radians.
type Initial struct {
	Theta  float64 `json:"theta"`
	Omega  float64 `json:"omega"`
	Length float64 `json:"length"`
}

// Manifest describes a bundle and everything needed to rebuild the run.
type Manifest struct {
	Version      int       `json:"version"`
	Name         string    `json:"name"`
	CreatedAt    string    `json:"created_at"`
	Integrator   string    `json:"integrator"`
	Gravity      float64   `json:"gravity"`
	GravityModel string    `json:"gravity_model"`
	Damping      float64   `json:"damping"`
	TimeSource   string    `json:"time_source"`
	Pendulums    []Initial `json:"pendulums"`
	TicksPath    string    `json:"ticks_path"`
	FaultsPath   string    `json:"faults_path"`
}

// TickRecord is one committed tick.
type TickRecord struct {
	Tick   uint64    `json:"tick"`
	Dt     float64   `json:"dt"`
	T      float64   `json:"t"`
	Thetas []float64 `json:"thetas"`
}

// FaultRecord is one rejected tick.
type FaultRecord struct {
	Tick    uint64  `json:"tick"`
	FrameDt float64 `json:"frame_dt"`
	Error   string  `json:"error"`
}

// Recorder is a tick observer that streams ticks through zstd and faults
// through snappy. The first write error is kept and returned by Close.
type Recorder struct {
	mu           sync.Mutex
	dir          string
	ticksFile    *os.File
	ticksStream  *zstd.Encoder
	ticksBuf     *bufio.Writer
	faultsFile   *os.File
	faultsStream *snappy.Writer
	ticks        int
	faults       int
	err          error
}

// NewRecorder creates <root>/<name>-<timestamp>/ and writes the manifest.
func NewRecorder(root string, manifest Manifest, clock func() time.Time) (*Recorder, error) {
	if root == "" {
		return nil, errors.New("replay root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}

	cleaned := nameCleaner.ReplaceAllString(manifest.Name, "")
	if cleaned == "" {
		cleaned = "run"
	}
	created := clock().UTC()
	dir := filepath.Join(root, fmt.Sprintf("%s-%s", cleaned, created.Format("20060102T150405.000Z")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create replay dir: %w", err)
	}

	manifest.Version = manifestVersion
	manifest.Name = cleaned
	manifest.CreatedAt = created.Format(time.RFC3339Nano)
	manifest.TicksPath = TicksFile
	manifest.FaultsPath = FaultsFile

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return nil, err
	}

	ticksFile, err := os.Create(filepath.Join(dir, TicksFile))
	if err != nil {
		return nil, err
	}
	ticksStream, err := zstd.NewWriter(ticksFile)
	if err != nil {
		ticksFile.Close()
		return nil, err
	}
	faultsFile, err := os.Create(filepath.Join(dir, FaultsFile))
	if err != nil {
		ticksStream.Close()
		ticksFile.Close()
		return nil, err
	}

	return &Recorder{
		dir:          dir,
		ticksFile:    ticksFile,
		ticksStream:  ticksStream,
		ticksBuf:     bufio.NewWriter(ticksStream),
		faultsFile:   faultsFile,
		faultsStream: snappy.NewBufferedWriter(faultsFile),
	}, nil
}

func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// Counts returns how many ticks and faults have been written.
func (r *Recorder) Counts() (ticks, faults int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks, r.faults
}

func (r *Recorder) OnTick(tick uint64, dt, t float64, views []physics.View) {
	rec := TickRecord{Tick: tick, Dt: dt, T: t, Thetas: make([]float64, len(views))}
	for i, v := range views {
		rec.Thetas[i] = v.Theta
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if err := writeLine(r.ticksBuf, rec); err != nil {
		r.err = fmt.Errorf("write tick %d: %w", tick, err)
		return
	}
	r.ticks++
}

func (r *Recorder) OnFault(tick uint64, frameDt float64, err error) {
	rec := FaultRecord{Tick: tick, FrameDt: frameDt, Error: err.Error()}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if werr := writeLine(r.faultsStream, rec); werr != nil {
		r.err = fmt.Errorf("write fault %d: %w", tick, werr)
		return
	}
	r.faults++
}

func writeLine(w io.Writer, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = w.Write(line)
	return err
}

// Close flushes both streams and releases the files. Every step is
// attempted; the first failure is returned.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	firstErr := r.err
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(r.ticksBuf.Flush())
	keep(r.ticksStream.Close())
	keep(r.ticksFile.Close())
	keep(r.faultsStream.Close())
	keep(r.faultsFile.Close())
	return firstErr
}
