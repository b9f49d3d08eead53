// Package osi holds the traffic command message tree exchanged between a
// scenario engine and traffic participant models, together with the
// validator that turns a candidate tree into a ValidatedCommand.
package osi

import (
	"fmt"
	"math"
	"time"
)

// Identifier is an opaque unique id.
type Identifier uint64

// ID returns a pointer to id, for populating optional fields.
func ID(id uint64) *Identifier {
	v := Identifier(id)
	return &v
}

// Timestamp is simulation-relative time.
type Timestamp struct {
	Seconds int64
	Nanos   uint32
}

const nanosPerSecond = 1_000_000_000

// Duration converts t to a time.Duration.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t.Seconds)*time.Second + time.Duration(t.Nanos)
}

// wellFormed reports why t is malformed, or "" when it is fine.
func (t Timestamp) wellFormed() string {
	if t.Seconds < 0 {
		return "seconds must not be negative"
	}
	if t.Nanos >= nanosPerSecond {
		return fmt.Sprintf("nanos %d out of range [0, 999999999]", t.Nanos)
	}
	return ""
}

// Vector3d is a position in a right-handed cartesian frame.
type Vector3d struct {
	X float64
	Y float64
	Z float64
}

func (v Vector3d) wellFormed() string {
	if !finite(v.X, v.Y, v.Z) {
		return "coordinates must be finite"
	}
	return ""
}

// Orientation3d is an attitude given as roll, pitch and yaw in radians.
type Orientation3d struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

func (o Orientation3d) wellFormed() string {
	if !finite(o.Roll, o.Pitch, o.Yaw) {
		return "angles must be finite"
	}
	return ""
}

// InterfaceVersion is the semantic version of the interface the sender
// built the message against.
type InterfaceVersion struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// String returns "major.minor.patch".
func (v InterfaceVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or +1 when v is older than, equal to or newer than o.
func (v InterfaceVersion) Compare(o InterfaceVersion) int {
	switch {
	case v.Major != o.Major:
		return cmpUint32(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpUint32(v.Minor, o.Minor)
	default:
		return cmpUint32(v.Patch, o.Patch)
	}
}

func cmpUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// StatePoint is a single time/position/orientation sample of a trajectory
// or path. Which fields are required depends on the containing action.
type StatePoint struct {
	Timestamp   *Timestamp
	Position    *Vector3d
	Orientation *Orientation3d
}

func (p StatePoint) clone() StatePoint {
	return StatePoint{
		Timestamp:   clonePtr(p.Timestamp),
		Position:    clonePtr(p.Position),
		Orientation: clonePtr(p.Orientation),
	}
}

func cloneStatePoints(points []StatePoint) []StatePoint {
	if points == nil {
		return nil
	}
	out := make([]StatePoint, len(points))
	for i, p := range points {
		out[i] = p.clone()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
