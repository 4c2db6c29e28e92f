package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Bundle is a fully decoded replay directory.
type Bundle struct {
	Dir      string
	Manifest Manifest
	Ticks    []TickRecord
	Faults   []FaultRecord
}

// Deltas returns the dt of every committed tick in order.
func (b *Bundle) Deltas() []float64 {
	out := make([]float64, len(b.Ticks))
	for i, t := range b.Ticks {
		out[i] = t.Dt
	}
	return out
}

func Load(dir string) (*Bundle, error) {
	if dir == "" {
		return nil, fmt.Errorf("replay dir must be provided")
	}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	b := &Bundle{Dir: dir}
	if err := json.Unmarshal(data, &b.Manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if b.Manifest.Version != manifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", b.Manifest.Version)
	}

	ticksPath := b.Manifest.TicksPath
	if ticksPath == "" {
		ticksPath = TicksFile
	}
	tf, err := os.Open(filepath.Join(dir, ticksPath))
	if err != nil {
		return nil, err
	}
	defer tf.Close()
	zr, err := zstd.NewReader(tf)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	if err := readLines(zr, func(line []byte) error {
		var rec TickRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		b.Ticks = append(b.Ticks, rec)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("read ticks: %w", err)
	}

	faultsPath := b.Manifest.FaultsPath
	if faultsPath == "" {
		faultsPath = FaultsFile
	}
	ff, err := os.Open(filepath.Join(dir, faultsPath))
	if err != nil {
		return nil, err
	}
	defer ff.Close()
	if err := readLines(snappy.NewReader(ff), func(line []byte) error {
		var rec FaultRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		b.Faults = append(b.Faults, rec)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("read faults: %w", err)
	}

	return b, nil
}

func readLines(r io.Reader, fn func([]byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}
