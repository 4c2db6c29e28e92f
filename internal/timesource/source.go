package timesource

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/san-kum/pendsim/internal/dynamo"
)

// Source yields the dt, in seconds, for one tick. frameDt is the delta the
// driving loop computed for the frame; a source may ignore it.
type Source interface {
	Delta(frameDt float64) (float64, error)
}

// Kind names a Source strategy in configuration.
type Kind string

const (
	KindWallClock Kind = "wallclock"
	KindExternal  Kind = "external"
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wallclock", "wall", "clock":
		return KindWallClock, nil
	case "", "external", "frame":
		return KindExternal, nil
	default:
		return "", fmt.Errorf("unknown time source %q", s)
	}
}

// New builds the source for kind using the system clock.
func New(kind Kind) (Source, error) {
	switch kind {
	case KindWallClock:
		return NewWallClock(SystemClock{}), nil
	case KindExternal:
		return NewExternal(), nil
	default:
		return nil, fmt.Errorf("unknown time source %q", kind)
	}
}

// Clock reads the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now, which carries a monotonic reading.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// WallClock measures the real time elapsed between calls. The first Delta
// is measured from the instant the WallClock was built.
type WallClock struct {
	clock Clock
	last  time.Time
}

func NewWallClock(clock Clock) *WallClock {
	if clock == nil {
		clock = SystemClock{}
	}
	return &WallClock{clock: clock, last: clock.Now()}
}

// Delta returns the seconds since the previous reading and advances the
// mark. A reading earlier than the mark fails with dynamo.ErrClockRewound
// and leaves the mark where it was.
func (w *WallClock) Delta(float64) (float64, error) {
	now := w.clock.Now()
	if now.Before(w.last) {
		return 0, fmt.Errorf("now %s precedes last reading %s by %s: %w",
			now.Format(time.RFC3339Nano), w.last.Format(time.RFC3339Nano), w.last.Sub(now), dynamo.ErrClockRewound)
	}
	dt := now.Sub(w.last).Seconds()
	w.last = now
	return dt, nil
}

// Reset moves the mark to the current instant, discarding the time spent
// since the last reading.
func (w *WallClock) Reset() {
	w.last = w.clock.Now()
}

// Resume drops the real time that passed while the caller was not asking
// for deltas, so a pause is not folded into the next step.
func (w *WallClock) Resume() {
	w.Reset()
}

// External hands the loop's frame delta through unchanged. It keeps no
// state.
type External struct{}

func NewExternal() External { return External{} }

func (External) Delta(frameDt float64) (float64, error) {
	if math.IsNaN(frameDt) || math.IsInf(frameDt, 0) || frameDt < 0 {
		return 0, fmt.Errorf("frame delta %g: %w", frameDt, dynamo.ErrInvalidTimeDelta)
	}
	return frameDt, nil
}

// Replay serves a prerecorded sequence of deltas, one per call, ignoring
// the frame delta. It is the external strategy fed from a recording.
type Replay struct {
	deltas []float64
	next   int
}

func NewReplay(deltas []float64) *Replay {
	return &Replay{deltas: append([]float64(nil), deltas...)}
}

// Delta returns the next recorded delta. Once the recording is exhausted
// it returns 0, a no-op step.
func (r *Replay) Delta(float64) (float64, error) {
	if r.next >= len(r.deltas) {
		return 0, nil
	}
	dt := r.deltas[r.next]
	r.next++
	return External{}.Delta(dt)
}

func (r *Replay) Remaining() int { return len(r.deltas) - r.next }

func (r *Replay) Reset() { r.next = 0 }
