package osi

import "fmt"

// ActionHeader carries the identity of an action.
type ActionHeader struct {
	// ActionID must be set and unique across all actions issued to one
	// traffic participant.
	ActionID *Identifier
}

// FollowingMode selects how closely a trajectory or path is followed.
// The integer values are part of the wire format.
type FollowingMode int32

const (
	FollowingModePosition FollowingMode = 0
	FollowingModeFollow   FollowingMode = 1
)

var followingModeNames = map[FollowingMode]string{
	FollowingModePosition: "FOLLOWING_MODE_POSITION",
	FollowingModeFollow:   "FOLLOWING_MODE_FOLLOW",
}

func (m FollowingMode) String() string {
	if s, ok := followingModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("FOLLOWING_MODE(%d)", int32(m))
}

// Known reports whether m is one of the defined literals.
func (m FollowingMode) Known() bool {
	_, ok := followingModeNames[m]
	return ok
}

func (m FollowingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *FollowingMode) UnmarshalText(b []byte) error {
	for k, v := range followingModeNames {
		if v == string(b) {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown following mode %q", string(b))
}

// DynamicsShape is the shape of the lateral movement during a lane change.
// The integer values are part of the wire format.
type DynamicsShape int32

const (
	DynamicsShapeUnspecified DynamicsShape = 0
	DynamicsShapeLinear      DynamicsShape = 1
	DynamicsShapeCubic       DynamicsShape = 2
	DynamicsShapeSinusoidal  DynamicsShape = 3
	DynamicsShapeStep        DynamicsShape = 4
)

var dynamicsShapeNames = map[DynamicsShape]string{
	DynamicsShapeUnspecified: "DYNAMICS_SHAPE_UNSPECIFIED",
	DynamicsShapeLinear:      "DYNAMICS_SHAPE_LINEAR",
	DynamicsShapeCubic:       "DYNAMICS_SHAPE_CUBIC",
	DynamicsShapeSinusoidal:  "DYNAMICS_SHAPE_SINUSOIDAL",
	DynamicsShapeStep:        "DYNAMICS_SHAPE_STEP",
}

func (s DynamicsShape) String() string {
	if n, ok := dynamicsShapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("DYNAMICS_SHAPE(%d)", int32(s))
}

// Known reports whether s is one of the defined literals.
func (s DynamicsShape) Known() bool {
	_, ok := dynamicsShapeNames[s]
	return ok
}

func (s DynamicsShape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *DynamicsShape) UnmarshalText(b []byte) error {
	for k, v := range dynamicsShapeNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown dynamics shape %q", string(b))
}

// ActionKind tags the populated variant of a TrafficAction.
type ActionKind int

const (
	KindNone ActionKind = iota
	KindFollowTrajectory
	KindFollowPath
	KindAcquireGlobalPosition
	KindLaneChange
)

func (k ActionKind) String() string {
	switch k {
	case KindFollowTrajectory:
		return "follow_trajectory_action"
	case KindFollowPath:
		return "follow_path_action"
	case KindAcquireGlobalPosition:
		return "acquire_global_position_action"
	case KindLaneChange:
		return "lane_change_action"
	default:
		return "none"
	}
}

// Action is implemented by the four action variants only.
type Action interface {
	Kind() ActionKind
	ActionHeader() ActionHeader
	cloneAction() Action
}

// FollowTrajectoryAction makes the participant follow a time-parameterized
// sequence of states.
type FollowTrajectoryAction struct {
	Header               ActionHeader
	TrajectoryPoints     []StatePoint
	ConstrainOrientation bool
	FollowingMode        FollowingMode
}

func (a *FollowTrajectoryAction) Kind() ActionKind           { return KindFollowTrajectory }
func (a *FollowTrajectoryAction) ActionHeader() ActionHeader { return a.Header }

func (a *FollowTrajectoryAction) cloneAction() Action {
	return &FollowTrajectoryAction{
		Header:               cloneHeader(a.Header),
		TrajectoryPoints:     cloneStatePoints(a.TrajectoryPoints),
		ConstrainOrientation: a.ConstrainOrientation,
		FollowingMode:        a.FollowingMode,
	}
}

// FollowPathAction makes the participant follow a time-independent path.
// Timestamps on path points are ignored.
type FollowPathAction struct {
	Header               ActionHeader
	PathPoints           []StatePoint
	ConstrainOrientation bool
	FollowingMode        FollowingMode
}

func (a *FollowPathAction) Kind() ActionKind           { return KindFollowPath }
func (a *FollowPathAction) ActionHeader() ActionHeader { return a.Header }

func (a *FollowPathAction) cloneAction() Action {
	return &FollowPathAction{
		Header:               cloneHeader(a.Header),
		PathPoints:           cloneStatePoints(a.PathPoints),
		ConstrainOrientation: a.ConstrainOrientation,
		FollowingMode:        a.FollowingMode,
	}
}

// AcquireGlobalPositionAction routes the participant to a global position.
type AcquireGlobalPositionAction struct {
	Header      ActionHeader
	Position    *Vector3d
	Orientation *Orientation3d
}

func (a *AcquireGlobalPositionAction) Kind() ActionKind           { return KindAcquireGlobalPosition }
func (a *AcquireGlobalPositionAction) ActionHeader() ActionHeader { return a.Header }

func (a *AcquireGlobalPositionAction) cloneAction() Action {
	return &AcquireGlobalPositionAction{
		Header:      cloneHeader(a.Header),
		Position:    clonePtr(a.Position),
		Orientation: clonePtr(a.Orientation),
	}
}

// LaneChangeAction requests a change relative to the current lane.
// Positive RelativeTargetLane values go right, negative values go left.
type LaneChangeAction struct {
	Header             ActionHeader
	RelativeTargetLane int32
	DynamicsShape      DynamicsShape
	Duration           *float64 // seconds
	Distance           *float64 // meters
}

func (a *LaneChangeAction) Kind() ActionKind           { return KindLaneChange }
func (a *LaneChangeAction) ActionHeader() ActionHeader { return a.Header }

func (a *LaneChangeAction) cloneAction() Action {
	return &LaneChangeAction{
		Header:             cloneHeader(a.Header),
		RelativeTargetLane: a.RelativeTargetLane,
		DynamicsShape:      a.DynamicsShape,
		Duration:           clonePtr(a.Duration),
		Distance:           clonePtr(a.Distance),
	}
}

func cloneHeader(h ActionHeader) ActionHeader {
	return ActionHeader{ActionID: clonePtr(h.ActionID)}
}

// Float returns a pointer to f, for populating optional fields.
func Float(f float64) *float64 {
	return &f
}
