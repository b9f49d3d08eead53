package protobuf

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// MarshalRaw encodes a wire-shaped command without validating it. Encode
// is the entry point for outgoing traffic; MarshalRaw exists for tools and
// tests that need to produce arbitrary (even invalid) payloads.
func MarshalRaw(c *osi.RawTrafficCommand) []byte {
	var b []byte
	if c.Version != nil {
		b = appendMessage(b, fieldCommandVersion, appendVersion(nil, *c.Version))
	}
	if c.Timestamp != nil {
		b = appendMessage(b, fieldCommandTimestamp, appendTimestamp(nil, *c.Timestamp))
	}
	if c.TrafficParticipantID != nil {
		b = appendMessage(b, fieldCommandParticipant, appendIdentifier(nil, *c.TrafficParticipantID))
	}
	for _, a := range c.Actions {
		b = appendMessage(b, fieldCommandAction, appendTrafficAction(nil, a))
	}
	return b
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDouble(b []byte, num protowire.Number, f float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(f))
}

func appendVersion(b []byte, v osi.InterfaceVersion) []byte {
	b = appendVarint(b, fieldVersionMajor, uint64(v.Major))
	b = appendVarint(b, fieldVersionMinor, uint64(v.Minor))
	return appendVarint(b, fieldVersionPatch, uint64(v.Patch))
}

func appendTimestamp(b []byte, t osi.Timestamp) []byte {
	b = appendVarint(b, fieldTimestampSeconds, uint64(t.Seconds))
	return appendVarint(b, fieldTimestampNanos, uint64(t.Nanos))
}

func appendIdentifier(b []byte, id osi.Identifier) []byte {
	return appendVarint(b, fieldIdentifierValue, uint64(id))
}

func appendVector(b []byte, v osi.Vector3d) []byte {
	b = appendDouble(b, fieldAxis1, v.X)
	b = appendDouble(b, fieldAxis2, v.Y)
	return appendDouble(b, fieldAxis3, v.Z)
}

func appendOrientation(b []byte, o osi.Orientation3d) []byte {
	b = appendDouble(b, fieldAxis1, o.Roll)
	b = appendDouble(b, fieldAxis2, o.Pitch)
	return appendDouble(b, fieldAxis3, o.Yaw)
}

func appendHeader(b []byte, num protowire.Number, h osi.ActionHeader) []byte {
	var msg []byte
	if h.ActionID != nil {
		msg = appendMessage(msg, fieldHeaderActionID, appendIdentifier(nil, *h.ActionID))
	}
	return appendMessage(b, num, msg)
}

func appendStatePoint(b []byte, p osi.StatePoint) []byte {
	if p.Timestamp != nil {
		b = appendMessage(b, fieldStateTimestamp, appendTimestamp(nil, *p.Timestamp))
	}
	if p.Position != nil {
		b = appendMessage(b, fieldStatePosition, appendVector(nil, *p.Position))
	}
	if p.Orientation != nil {
		b = appendMessage(b, fieldStateOrientation, appendOrientation(nil, *p.Orientation))
	}
	return b
}

func appendFollow(b []byte, h osi.ActionHeader, points []osi.StatePoint, constrain bool, mode osi.FollowingMode) []byte {
	b = appendHeader(b, fieldFollowHeader, h)
	for _, p := range points {
		b = appendMessage(b, fieldFollowPoint, appendStatePoint(nil, p))
	}
	b = appendVarint(b, fieldFollowConstrainOrientation, protowire.EncodeBool(constrain))
	return appendVarint(b, fieldFollowFollowingMode, uint64(int64(mode)))
}

func appendTrafficAction(b []byte, a osi.RawTrafficAction) []byte {
	if t := a.FollowTrajectoryAction; t != nil {
		b = appendMessage(b, fieldFollowTrajectoryAction,
			appendFollow(nil, t.Header, t.TrajectoryPoints, t.ConstrainOrientation, t.FollowingMode))
	}
	if p := a.FollowPathAction; p != nil {
		b = appendMessage(b, fieldFollowPathAction,
			appendFollow(nil, p.Header, p.PathPoints, p.ConstrainOrientation, p.FollowingMode))
	}
	if g := a.AcquireGlobalPositionAction; g != nil {
		msg := appendHeader(nil, fieldAcquireHeader, g.Header)
		if g.Position != nil {
			msg = appendMessage(msg, fieldAcquirePosition, appendVector(nil, *g.Position))
		}
		if g.Orientation != nil {
			msg = appendMessage(msg, fieldAcquireOrientation, appendOrientation(nil, *g.Orientation))
		}
		b = appendMessage(b, fieldAcquireGlobalPositionAction, msg)
	}
	if l := a.LaneChangeAction; l != nil {
		msg := appendHeader(nil, fieldLaneChangeHeader, l.Header)
		// int32 fields are sign-extended to 64 bits on the wire.
		msg = appendVarint(msg, fieldLaneChangeRelativeLane, uint64(int64(l.RelativeTargetLane)))
		msg = appendVarint(msg, fieldLaneChangeDynamicsShape, uint64(int64(l.DynamicsShape)))
		if l.Duration != nil {
			msg = appendDouble(msg, fieldLaneChangeDuration, *l.Duration)
		}
		if l.Distance != nil {
			msg = appendDouble(msg, fieldLaneChangeDistance, *l.Distance)
		}
		b = appendMessage(b, fieldLaneChangeAction, msg)
	}
	return b
}
