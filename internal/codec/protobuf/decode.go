package protobuf

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// fieldFunc decodes the value of one field starting at b and returns the
// number of bytes consumed. Returning 0 with a nil error marks the field as
// unknown; it is skipped.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func consumeMessage(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return protowire.ParseError(m)
			}
		}
		b = b[m:]
	}
	return nil
}

func wireTypeError(want, got protowire.Type) error {
	return fmt.Errorf("wire type %d, want %d", got, want)
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, wireTypeError(protowire.VarintType, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeDouble(typ protowire.Type, b []byte) (float64, int, error) {
	if typ != protowire.Fixed64Type {
		return 0, 0, wireTypeError(protowire.Fixed64Type, typ)
	}
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return math.Float64frombits(v), n, nil
}

// consumeSub decodes a nested message with decode.
func consumeSub(typ protowire.Type, b []byte, decode func([]byte) error) (int, error) {
	if typ != protowire.BytesType {
		return 0, wireTypeError(protowire.BytesType, typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, decode(v)
}

func unmarshalCommand(b []byte) (*osi.RawTrafficCommand, error) {
	c := &osi.RawTrafficCommand{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldCommandVersion:
			return consumeSub(typ, b, func(m []byte) (err error) {
				c.Version, err = unmarshalVersion(m)
				return err
			})
		case fieldCommandTimestamp:
			return consumeSub(typ, b, func(m []byte) (err error) {
				c.Timestamp, err = unmarshalTimestamp(m)
				return err
			})
		case fieldCommandParticipant:
			return consumeSub(typ, b, func(m []byte) (err error) {
				c.TrafficParticipantID, err = unmarshalIdentifier(m)
				return err
			})
		case fieldCommandAction:
			return consumeSub(typ, b, func(m []byte) error {
				a, err := unmarshalTrafficAction(m)
				if err != nil {
					return fmt.Errorf("action[%d]: %w", len(c.Actions), err)
				}
				c.Actions = append(c.Actions, a)
				return nil
			})
		}
		return 0, nil
	})
	return c, err
}

func unmarshalVersion(b []byte) (*osi.InterfaceVersion, error) {
	v := &osi.InterfaceVersion{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var dst *uint32
		switch num {
		case fieldVersionMajor:
			dst = &v.Major
		case fieldVersionMinor:
			dst = &v.Minor
		case fieldVersionPatch:
			dst = &v.Patch
		default:
			return 0, nil
		}
		x, n, err := consumeVarint(typ, b)
		*dst = uint32(x)
		return n, err
	})
	return v, err
}

func unmarshalTimestamp(b []byte) (*osi.Timestamp, error) {
	t := &osi.Timestamp{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldTimestampSeconds:
			x, n, err := consumeVarint(typ, b)
			t.Seconds = int64(x)
			return n, err
		case fieldTimestampNanos:
			x, n, err := consumeVarint(typ, b)
			t.Nanos = uint32(x)
			return n, err
		}
		return 0, nil
	})
	return t, err
}

func unmarshalIdentifier(b []byte) (*osi.Identifier, error) {
	var id osi.Identifier
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldIdentifierValue {
			return 0, nil
		}
		x, n, err := consumeVarint(typ, b)
		id = osi.Identifier(x)
		return n, err
	})
	return &id, err
}

// unmarshalAxes decodes Vector3d and Orientation3d, which share a layout.
func unmarshalAxes(b []byte) ([3]float64, error) {
	var axes [3]float64
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num < fieldAxis1 || num > fieldAxis3 {
			return 0, nil
		}
		f, n, err := consumeDouble(typ, b)
		axes[num-fieldAxis1] = f
		return n, err
	})
	return axes, err
}

func unmarshalVector(b []byte) (*osi.Vector3d, error) {
	a, err := unmarshalAxes(b)
	return &osi.Vector3d{X: a[0], Y: a[1], Z: a[2]}, err
}

func unmarshalOrientation(b []byte) (*osi.Orientation3d, error) {
	a, err := unmarshalAxes(b)
	return &osi.Orientation3d{Roll: a[0], Pitch: a[1], Yaw: a[2]}, err
}

func unmarshalHeader(b []byte) (osi.ActionHeader, error) {
	var h osi.ActionHeader
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldHeaderActionID {
			return 0, nil
		}
		return consumeSub(typ, b, func(m []byte) (err error) {
			h.ActionID, err = unmarshalIdentifier(m)
			return err
		})
	})
	return h, err
}

func unmarshalStatePoint(b []byte) (osi.StatePoint, error) {
	var p osi.StatePoint
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldStateTimestamp:
			return consumeSub(typ, b, func(m []byte) (err error) {
				p.Timestamp, err = unmarshalTimestamp(m)
				return err
			})
		case fieldStatePosition:
			return consumeSub(typ, b, func(m []byte) (err error) {
				p.Position, err = unmarshalVector(m)
				return err
			})
		case fieldStateOrientation:
			return consumeSub(typ, b, func(m []byte) (err error) {
				p.Orientation, err = unmarshalOrientation(m)
				return err
			})
		}
		return 0, nil
	})
	return p, err
}

// followFields holds the layout shared by trajectory and path actions.
type followFields struct {
	header    osi.ActionHeader
	points    []osi.StatePoint
	constrain bool
	mode      osi.FollowingMode
}

func unmarshalFollow(b []byte) (followFields, error) {
	var f followFields
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldFollowHeader:
			return consumeSub(typ, b, func(m []byte) (err error) {
				f.header, err = unmarshalHeader(m)
				return err
			})
		case fieldFollowPoint:
			return consumeSub(typ, b, func(m []byte) error {
				p, err := unmarshalStatePoint(m)
				if err != nil {
					return fmt.Errorf("point[%d]: %w", len(f.points), err)
				}
				f.points = append(f.points, p)
				return nil
			})
		case fieldFollowConstrainOrientation:
			x, n, err := consumeVarint(typ, b)
			f.constrain = protowire.DecodeBool(x)
			return n, err
		case fieldFollowFollowingMode:
			x, n, err := consumeVarint(typ, b)
			f.mode = osi.FollowingMode(int32(x))
			return n, err
		}
		return 0, nil
	})
	return f, err
}

func unmarshalAcquire(b []byte) (*osi.AcquireGlobalPositionAction, error) {
	a := &osi.AcquireGlobalPositionAction{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldAcquireHeader:
			return consumeSub(typ, b, func(m []byte) (err error) {
				a.Header, err = unmarshalHeader(m)
				return err
			})
		case fieldAcquirePosition:
			return consumeSub(typ, b, func(m []byte) (err error) {
				a.Position, err = unmarshalVector(m)
				return err
			})
		case fieldAcquireOrientation:
			return consumeSub(typ, b, func(m []byte) (err error) {
				a.Orientation, err = unmarshalOrientation(m)
				return err
			})
		}
		return 0, nil
	})
	return a, err
}

func unmarshalLaneChange(b []byte) (*osi.LaneChangeAction, error) {
	l := &osi.LaneChangeAction{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldLaneChangeHeader:
			return consumeSub(typ, b, func(m []byte) (err error) {
				l.Header, err = unmarshalHeader(m)
				return err
			})
		case fieldLaneChangeRelativeLane:
			x, n, err := consumeVarint(typ, b)
			l.RelativeTargetLane = int32(x)
			return n, err
		case fieldLaneChangeDynamicsShape:
			x, n, err := consumeVarint(typ, b)
			l.DynamicsShape = osi.DynamicsShape(int32(x))
			return n, err
		case fieldLaneChangeDuration:
			f, n, err := consumeDouble(typ, b)
			l.Duration = &f
			return n, err
		case fieldLaneChangeDistance:
			f, n, err := consumeDouble(typ, b)
			l.Distance = &f
			return n, err
		}
		return 0, nil
	})
	return l, err
}

func unmarshalTrafficAction(b []byte) (osi.RawTrafficAction, error) {
	var a osi.RawTrafficAction
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldFollowTrajectoryAction:
			return consumeSub(typ, b, func(m []byte) error {
				f, err := unmarshalFollow(m)
				a.FollowTrajectoryAction = &osi.FollowTrajectoryAction{
					Header:               f.header,
					TrajectoryPoints:     f.points,
					ConstrainOrientation: f.constrain,
					FollowingMode:        f.mode,
				}
				return err
			})
		case fieldFollowPathAction:
			return consumeSub(typ, b, func(m []byte) error {
				f, err := unmarshalFollow(m)
				a.FollowPathAction = &osi.FollowPathAction{
					Header:               f.header,
					PathPoints:           f.points,
					ConstrainOrientation: f.constrain,
					FollowingMode:        f.mode,
				}
				return err
			})
		case fieldAcquireGlobalPositionAction:
			return consumeSub(typ, b, func(m []byte) (err error) {
				a.AcquireGlobalPositionAction, err = unmarshalAcquire(m)
				return err
			})
		case fieldLaneChangeAction:
			return consumeSub(typ, b, func(m []byte) (err error) {
				a.LaneChangeAction, err = unmarshalLaneChange(m)
				return err
			})
		}
		return 0, nil
	})
	return a, err
}
