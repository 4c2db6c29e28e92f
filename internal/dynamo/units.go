package dynamo

import (
	"fmt"
	"math"
	"strings"
)

// AngleUnit is the unit a pendulum reports its angle in. It is fixed for
// the lifetime of an instance.
type AngleUnit int

const (
	Radians AngleUnit = iota
	Degrees
)

func (u AngleUnit) String() string {
	switch u {
	case Degrees:
		return "degrees"
	default:
		return "radians"
	}
}

// ToRadians converts v, expressed in u, to radians.
func (u AngleUnit) ToRadians(v float64) float64 {
	if u == Degrees {
		return v * math.Pi / 180
	}
	return v
}

// FromRadians converts v radians to u.
func (u AngleUnit) FromRadians(v float64) float64 {
	if u == Degrees {
		return v * 180 / math.Pi
	}
	return v
}

// ParseAngleUnit accepts "radians"/"rad" and "degrees"/"deg". The empty
// string means radians.
func ParseAngleUnit(s string) (AngleUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rad", "radians":
		return Radians, nil
	case "deg", "degrees":
		return Degrees, nil
	default:
		return Radians, fmt.Errorf("unknown angle unit %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u AngleUnit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *AngleUnit) UnmarshalText(text []byte) error {
	parsed, err := ParseAngleUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
