package jsoncodec

import "github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"

func toCommandJSON(c *osi.RawTrafficCommand) commandJSON {
	out := commandJSON{
		TrafficParticipantID: toIdentifierJSON(c.TrafficParticipantID),
		Timestamp:            toTimestampJSON(c.Timestamp),
	}
	if c.Version != nil {
		out.Version = &versionJSON{Major: c.Version.Major, Minor: c.Version.Minor, Patch: c.Version.Patch}
	}
	for _, a := range c.Actions {
		out.Action = append(out.Action, toActionJSON(a))
	}
	return out
}

func toIdentifierJSON(id *osi.Identifier) *identifierJSON {
	if id == nil {
		return nil
	}
	return &identifierJSON{Value: uint64JSON(*id)}
}

func toTimestampJSON(t *osi.Timestamp) *timestampJSON {
	if t == nil {
		return nil
	}
	return &timestampJSON{Seconds: int64JSON(t.Seconds), Nanos: t.Nanos}
}

func toVectorJSON(v *osi.Vector3d) *vectorJSON {
	if v == nil {
		return nil
	}
	return &vectorJSON{X: v.X, Y: v.Y, Z: v.Z}
}

func toOrientationJSON(o *osi.Orientation3d) *orientationJSON {
	if o == nil {
		return nil
	}
	return &orientationJSON{Roll: o.Roll, Pitch: o.Pitch, Yaw: o.Yaw}
}

func toPointsJSON(points []osi.StatePoint) []statePointJSON {
	var out []statePointJSON
	for _, p := range points {
		out = append(out, statePointJSON{
			Timestamp:   toTimestampJSON(p.Timestamp),
			Position:    toVectorJSON(p.Position),
			Orientation: toOrientationJSON(p.Orientation),
		})
	}
	return out
}

func toHeaderJSON(h osi.ActionHeader) headerJSON {
	return headerJSON{ActionID: toIdentifierJSON(h.ActionID)}
}

func toActionJSON(a osi.RawTrafficAction) actionJSON {
	var out actionJSON
	if t := a.FollowTrajectoryAction; t != nil {
		out.FollowTrajectoryAction = &trajectoryJSON{
			ActionHeader:         toHeaderJSON(t.Header),
			TrajectoryPoint:      toPointsJSON(t.TrajectoryPoints),
			ConstrainOrientation: t.ConstrainOrientation,
			FollowingMode:        t.FollowingMode,
		}
	}
	if p := a.FollowPathAction; p != nil {
		out.FollowPathAction = &pathJSON{
			ActionHeader:         toHeaderJSON(p.Header),
			PathPoint:            toPointsJSON(p.PathPoints),
			ConstrainOrientation: p.ConstrainOrientation,
			FollowingMode:        p.FollowingMode,
		}
	}
	if g := a.AcquireGlobalPositionAction; g != nil {
		out.AcquireGlobalPositionAction = &acquireJSON{
			ActionHeader: toHeaderJSON(g.Header),
			Position:     toVectorJSON(g.Position),
			Orientation:  toOrientationJSON(g.Orientation),
		}
	}
	if l := a.LaneChangeAction; l != nil {
		out.LaneChangeAction = &laneChangeJSON{
			ActionHeader:       toHeaderJSON(l.Header),
			RelativeTargetLane: l.RelativeTargetLane,
			DynamicsShape:      l.DynamicsShape,
			Duration:           l.Duration,
			Distance:           l.Distance,
		}
	}
	return out
}

func fromCommandJSON(c commandJSON) *osi.RawTrafficCommand {
	out := &osi.RawTrafficCommand{
		TrafficParticipantID: fromIdentifierJSON(c.TrafficParticipantID),
		Timestamp:            fromTimestampJSON(c.Timestamp),
	}
	if c.Version != nil {
		out.Version = &osi.InterfaceVersion{Major: c.Version.Major, Minor: c.Version.Minor, Patch: c.Version.Patch}
	}
	for _, a := range c.Action {
		out.Actions = append(out.Actions, fromActionJSON(a))
	}
	return out
}

func fromIdentifierJSON(id *identifierJSON) *osi.Identifier {
	if id == nil {
		return nil
	}
	return osi.ID(uint64(id.Value))
}

func fromTimestampJSON(t *timestampJSON) *osi.Timestamp {
	if t == nil {
		return nil
	}
	return &osi.Timestamp{Seconds: int64(t.Seconds), Nanos: t.Nanos}
}

func fromVectorJSON(v *vectorJSON) *osi.Vector3d {
	if v == nil {
		return nil
	}
	return &osi.Vector3d{X: v.X, Y: v.Y, Z: v.Z}
}

func fromOrientationJSON(o *orientationJSON) *osi.Orientation3d {
	if o == nil {
		return nil
	}
	return &osi.Orientation3d{Roll: o.Roll, Pitch: o.Pitch, Yaw: o.Yaw}
}

func fromPointsJSON(points []statePointJSON) []osi.StatePoint {
	var out []osi.StatePoint
	for _, p := range points {
		out = append(out, osi.StatePoint{
			Timestamp:   fromTimestampJSON(p.Timestamp),
			Position:    fromVectorJSON(p.Position),
			Orientation: fromOrientationJSON(p.Orientation),
		})
	}
	return out
}

func fromHeaderJSON(h headerJSON) osi.ActionHeader {
	return osi.ActionHeader{ActionID: fromIdentifierJSON(h.ActionID)}
}

func fromActionJSON(a actionJSON) osi.RawTrafficAction {
	var out osi.RawTrafficAction
	if t := a.FollowTrajectoryAction; t != nil {
		out.FollowTrajectoryAction = &osi.FollowTrajectoryAction{
			Header:               fromHeaderJSON(t.ActionHeader),
			TrajectoryPoints:     fromPointsJSON(t.TrajectoryPoint),
			ConstrainOrientation: t.ConstrainOrientation,
			FollowingMode:        t.FollowingMode,
		}
	}
	if p := a.FollowPathAction; p != nil {
		out.FollowPathAction = &osi.FollowPathAction{
			Header:               fromHeaderJSON(p.ActionHeader),
			PathPoints:           fromPointsJSON(p.PathPoint),
			ConstrainOrientation: p.ConstrainOrientation,
			FollowingMode:        p.FollowingMode,
		}
	}
	if g := a.AcquireGlobalPositionAction; g != nil {
		out.AcquireGlobalPositionAction = &osi.AcquireGlobalPositionAction{
			Header:      fromHeaderJSON(g.ActionHeader),
			Position:    fromVectorJSON(g.Position),
			Orientation: fromOrientationJSON(g.Orientation),
		}
	}
	if l := a.LaneChangeAction; l != nil {
		out.LaneChangeAction = &osi.LaneChangeAction{
			Header:             fromHeaderJSON(l.ActionHeader),
			RelativeTargetLane: l.RelativeTargetLane,
			DynamicsShape:      l.DynamicsShape,
			Duration:           l.Duration,
			Distance:           l.Distance,
		}
	}
	return out
}
