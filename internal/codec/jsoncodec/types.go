package jsoncodec

import "github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"

// JSON documents use the schema field names. 64-bit integers are written
// quoted and accepted either way, enums are written as their literal names.

type commandJSON struct {
	Version              *versionJSON    `json:"version,omitempty"`
	Timestamp            *timestampJSON  `json:"timestamp,omitempty"`
	TrafficParticipantID *identifierJSON `json:"traffic_participant_id,omitempty"`
	Action               []actionJSON    `json:"action,omitempty"`
}

type versionJSON struct {
	Major uint32 `json:"version_major"`
	Minor uint32 `json:"version_minor"`
	Patch uint32 `json:"version_patch"`
}

type timestampJSON struct {
	Seconds int64JSON `json:"seconds"`
	Nanos   uint32    `json:"nanos"`
}

type identifierJSON struct {
	Value uint64JSON `json:"value"`
}

type vectorJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type orientationJSON struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

type statePointJSON struct {
	Timestamp   *timestampJSON   `json:"timestamp,omitempty"`
	Position    *vectorJSON      `json:"position,omitempty"`
	Orientation *orientationJSON `json:"orientation,omitempty"`
}

type headerJSON struct {
	ActionID *identifierJSON `json:"action_id,omitempty"`
}

type actionJSON struct {
	FollowTrajectoryAction      *trajectoryJSON `json:"follow_trajectory_action,omitempty"`
	FollowPathAction            *pathJSON       `json:"follow_path_action,omitempty"`
	AcquireGlobalPositionAction *acquireJSON    `json:"acquire_global_position_action,omitempty"`
	LaneChangeAction            *laneChangeJSON `json:"lane_change_action,omitempty"`
}

type trajectoryJSON struct {
	ActionHeader         headerJSON        `json:"action_header"`
	TrajectoryPoint      []statePointJSON  `json:"trajectory_point,omitempty"`
	ConstrainOrientation bool              `json:"constrain_orientation"`
	FollowingMode        osi.FollowingMode `json:"following_mode"`
}

type pathJSON struct {
	ActionHeader         headerJSON        `json:"action_header"`
	PathPoint            []statePointJSON  `json:"path_point,omitempty"`
	ConstrainOrientation bool              `json:"constrain_orientation"`
	FollowingMode        osi.FollowingMode `json:"following_mode"`
}

type acquireJSON struct {
	ActionHeader headerJSON       `json:"action_header"`
	Position     *vectorJSON      `json:"position,omitempty"`
	Orientation  *orientationJSON `json:"orientation,omitempty"`
}

type laneChangeJSON struct {
	ActionHeader       headerJSON        `json:"action_header"`
	RelativeTargetLane int32             `json:"relative_target_lane"`
	DynamicsShape      osi.DynamicsShape `json:"dynamics_shape"`
	Duration           *float64          `json:"duration,omitempty"`
	Distance           *float64          `json:"distance,omitempty"`
}
