package protobuf

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers of the deployed schema. They must never change.
const (
	// TrafficCommand
	fieldCommandVersion     protowire.Number = 1
	fieldCommandTimestamp   protowire.Number = 2
	fieldCommandParticipant protowire.Number = 3
	fieldCommandAction      protowire.Number = 4

	// TrafficAction
	fieldFollowTrajectoryAction      protowire.Number = 1
	fieldFollowPathAction            protowire.Number = 2
	fieldAcquireGlobalPositionAction protowire.Number = 3
	fieldLaneChangeAction            protowire.Number = 4

	// ActionHeader
	fieldHeaderActionID protowire.Number = 1

	// FollowTrajectoryAction and FollowPathAction
	fieldFollowHeader               protowire.Number = 1
	fieldFollowPoint                protowire.Number = 2
	fieldFollowConstrainOrientation protowire.Number = 3
	fieldFollowFollowingMode        protowire.Number = 4

	// AcquireGlobalPositionAction
	fieldAcquireHeader      protowire.Number = 1
	fieldAcquirePosition    protowire.Number = 2
	fieldAcquireOrientation protowire.Number = 3

	// LaneChangeAction
	fieldLaneChangeHeader        protowire.Number = 1
	fieldLaneChangeRelativeLane  protowire.Number = 2
	fieldLaneChangeDynamicsShape protowire.Number = 3
	fieldLaneChangeDuration      protowire.Number = 4
	fieldLaneChangeDistance      protowire.Number = 5

	// StatePoint
	fieldStateTimestamp   protowire.Number = 1
	fieldStatePosition    protowire.Number = 2
	fieldStateOrientation protowire.Number = 3

	// Timestamp
	fieldTimestampSeconds protowire.Number = 1
	fieldTimestampNanos   protowire.Number = 2

	// Vector3d (x, y, z) and Orientation3d (roll, pitch, yaw)
	fieldAxis1 protowire.Number = 1
	fieldAxis2 protowire.Number = 2
	fieldAxis3 protowire.Number = 3

	// Identifier
	fieldIdentifierValue protowire.Number = 1

	// InterfaceVersion
	fieldVersionMajor protowire.Number = 1
	fieldVersionMinor protowire.Number = 2
	fieldVersionPatch protowire.Number = 3
)
