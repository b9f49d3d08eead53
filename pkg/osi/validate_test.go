package osi

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(sec int64) *Timestamp { return &Timestamp{Seconds: sec} }

func pos(x, y, z float64) *Vector3d { return &Vector3d{X: x, Y: y, Z: z} }

func ori(yaw float64) *Orientation3d { return &Orientation3d{Yaw: yaw} }

func newCommand(actions ...Action) *TrafficCommand {
	cmd := &TrafficCommand{
		Version:              &InterfaceVersion{Major: 3, Minor: 5},
		Timestamp:            ts(10),
		TrafficParticipantID: ID(7),
	}
	for _, a := range actions {
		cmd.Actions = append(cmd.Actions, NewTrafficAction(a))
	}
	return cmd
}

func trajectory(id uint64, points ...StatePoint) *FollowTrajectoryAction {
	return &FollowTrajectoryAction{
		Header:           ActionHeader{ActionID: ID(id)},
		TrajectoryPoints: points,
	}
}

func requireViolations(t *testing.T, err error) Violations {
	t.Helper()
	require.Error(t, err)
	v, ok := AsViolations(err)
	require.True(t, ok, "expected Violations, got %T", err)
	return v
}

func TestValidate_TrajectoryTwoPoints(t *testing.T) {
	cmd := newCommand(trajectory(1,
		StatePoint{Timestamp: ts(1), Position: pos(0, 0, 0)},
		StatePoint{Timestamp: ts(2), Position: pos(10, 0, 0)},
	))

	vc, err := NewValidator().Validate(cmd)
	require.NoError(t, err)
	require.NotNil(t, vc)
	assert.Equal(t, Identifier(7), vc.TrafficParticipantID())
	assert.Equal(t, 1, vc.NumActions())
	assert.Equal(t, []Identifier{1}, vc.ActionIDs())
}

func TestValidate_TrajectoryPointMissingPosition(t *testing.T) {
	cmd := newCommand(trajectory(1,
		StatePoint{Timestamp: ts(1), Position: pos(0, 0, 0)},
		StatePoint{Timestamp: ts(2)},
	))

	vc, err := NewValidator().Validate(cmd)
	assert.Nil(t, vc)
	v := requireViolations(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, MissingRequiredField, v[0].Kind)
	assert.Equal(t, "action[0].follow_trajectory_action.trajectory_point[1].position", v[0].Path)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestValidate_TrajectoryRequiresTimestamp(t *testing.T) {
	cmd := newCommand(trajectory(1, StatePoint{Position: pos(1, 2, 3)}))

	_, err := NewValidator().Validate(cmd)
	v := requireViolations(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, "action[0].follow_trajectory_action.trajectory_point[0].timestamp", v[0].Path)
}

func TestValidate_TrajectoryEmpty(t *testing.T) {
	cmd := newCommand(trajectory(1))

	_, err := NewValidator().Validate(cmd)
	v := requireViolations(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, MissingRequiredField, v[0].Kind)
	assert.Equal(t, "action[0].follow_trajectory_action.trajectory_point", v[0].Path)
}

func TestValidate_ConstrainOrientation(t *testing.T) {
	tests := []struct {
		name       string
		constrain  bool
		orient     []bool
		wantMissed []int
	}{
		{name: "unconstrained without orientation", constrain: false, orient: []bool{false, false}},
		{name: "constrained all oriented", constrain: true, orient: []bool{true, true, true}},
		{name: "constrained one missing", constrain: true, orient: []bool{true, false, true}, wantMissed: []int{1}},
		{name: "constrained none oriented", constrain: true, orient: []bool{false, false}, wantMissed: []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			build := func() []StatePoint {
				var pts []StatePoint
				for i, o := range tt.orient {
					p := StatePoint{Timestamp: ts(int64(i)), Position: pos(float64(i), 0, 0)}
					if o {
						p.Orientation = ori(0.5)
					}
					pts = append(pts, p)
				}
				return pts
			}
			traj := trajectory(1, build()...)
			traj.ConstrainOrientation = tt.constrain
			path := &FollowPathAction{
				Header:               ActionHeader{ActionID: ID(2)},
				PathPoints:           build(),
				ConstrainOrientation: tt.constrain,
			}

			_, err := NewValidator().Validate(newCommand(traj, path))
			if len(tt.wantMissed) == 0 {
				require.NoError(t, err)
				return
			}
			v := requireViolations(t, err)
			require.Len(t, v, 2*len(tt.wantMissed))
			for _, e := range v {
				assert.Equal(t, MissingRequiredField, e.Kind)
				assert.Contains(t, e.Path, ".orientation")
			}
		})
	}
}

func TestValidate_PathIgnoresTimestamp(t *testing.T) {
	path := &FollowPathAction{
		Header: ActionHeader{ActionID: ID(1)},
		PathPoints: []StatePoint{
			{Position: pos(0, 0, 0)},
			{Timestamp: &Timestamp{Seconds: -5, Nanos: 2_000_000_000}, Position: pos(1, 0, 0)},
		},
		FollowingMode: FollowingModeFollow,
	}

	_, err := NewValidator().Validate(newCommand(path))
	require.NoError(t, err)
}

func TestValidate_PathTimestampWithoutPosition(t *testing.T) {
	path := &FollowPathAction{
		Header:     ActionHeader{ActionID: ID(1)},
		PathPoints: []StatePoint{{Timestamp: ts(3)}},
	}

	_, err := NewValidator().Validate(newCommand(path))
	v := requireViolations(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, "action[0].follow_path_action.path_point[0].position", v[0].Path)
}

func TestValidate_AcquireGlobalPosition(t *testing.T) {
	ok := &AcquireGlobalPositionAction{Header: ActionHeader{ActionID: ID(1)}, Position: pos(100, 200, 0)}
	_, err := NewValidator().Validate(newCommand(ok))
	require.NoError(t, err)

	withOrientation := &AcquireGlobalPositionAction{Header: ActionHeader{ActionID: ID(1)}, Position: pos(1, 1, 1), Orientation: ori(1)}
	_, err = NewValidator().Validate(newCommand(withOrientation))
	require.NoError(t, err)

	missing := &AcquireGlobalPositionAction{Header: ActionHeader{ActionID: ID(1)}, Orientation: ori(1)}
	_, err = NewValidator().Validate(newCommand(missing))
	v := requireViolations(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, "action[0].acquire_global_position_action.position", v[0].Path)
}

func TestValidate_LaneChangeNegativeDuration(t *testing.T) {
	lc := &LaneChangeAction{
		Header:             ActionHeader{ActionID: ID(1)},
		RelativeTargetLane: -1,
		Duration:           Float(-2.0),
	}

	_, err := NewValidator().Validate(newCommand(lc))
	v := requireViolations(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, InvalidValue, v[0].Kind)
	assert.Equal(t, "action[0].lane_change_action.duration", v[0].Path)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestValidate_LaneChange(t *testing.T) {
	tests := []struct {
		name     string
		action   LaneChangeAction
		wantPath []string
	}{
		{name: "zero lane accepted", action: LaneChangeAction{RelativeTargetLane: 0}},
		{name: "right with distance", action: LaneChangeAction{RelativeTargetLane: 2, Distance: Float(50), DynamicsShape: DynamicsShapeCubic}},
		{name: "zero duration", action: LaneChangeAction{Duration: Float(0)}},
		{name: "negative distance", action: LaneChangeAction{Distance: Float(-0.1)}, wantPath: []string{"action[0].lane_change_action.distance"}},
		{name: "nan duration", action: LaneChangeAction{Duration: Float(math.NaN())}, wantPath: []string{"action[0].lane_change_action.duration"}},
		{name: "both negative", action: LaneChangeAction{Duration: Float(-1), Distance: Float(-1)}, wantPath: []string{
			"action[0].lane_change_action.duration",
			"action[0].lane_change_action.distance",
		}},
		{name: "unknown shape", action: LaneChangeAction{DynamicsShape: DynamicsShape(9)}, wantPath: []string{"action[0].lane_change_action.dynamics_shape"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := tt.action
			lc.Header = ActionHeader{ActionID: ID(1)}
			_, err := NewValidator().Validate(newCommand(&lc))
			if len(tt.wantPath) == 0 {
				require.NoError(t, err)
				return
			}
			v := requireViolations(t, err)
			var paths []string
			for _, e := range v {
				assert.Equal(t, InvalidValue, e.Kind)
				paths = append(paths, e.Path)
			}
			assert.Equal(t, tt.wantPath, paths)
		})
	}
}

func TestValidate_HeaderAndEnvelope(t *testing.T) {
	cmd := &TrafficCommand{
		Actions: []TrafficAction{
			NewTrafficAction(&LaneChangeAction{}),
			{},
		},
	}

	_, err := NewValidator().Validate(cmd)
	v := requireViolations(t, err)
	require.Len(t, v, 4)
	assert.Equal(t, "traffic_participant_id", v[0].Path)
	assert.Equal(t, "timestamp", v[1].Path)
	assert.Equal(t, "action[0].lane_change_action.action_header.action_id", v[2].Path)
	assert.Equal(t, AmbiguousActionChoice, v[3].Kind)
	assert.Equal(t, "action[1]", v[3].Path)
}

func TestValidate_DuplicateActionID(t *testing.T) {
	cmd := newCommand(
		&LaneChangeAction{Header: ActionHeader{ActionID: ID(5)}, RelativeTargetLane: 1},
		&AcquireGlobalPositionAction{Header: ActionHeader{ActionID: ID(6)}, Position: pos(1, 2, 3)},
		&AcquireGlobalPositionAction{Header: ActionHeader{ActionID: ID(5)}, Position: pos(1, 2, 3)},
	)

	_, err := NewValidator().Validate(cmd)
	v := requireViolations(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, DuplicateActionID, v[0].Kind)
	require.NotNil(t, v[0].ActionID)
	assert.Equal(t, Identifier(5), *v[0].ActionID)
	assert.Equal(t, "action[2].acquire_global_position_action.action_header.action_id", v[0].Path)
	assert.True(t, errors.Is(err, ErrDuplicateActionID))
}

func TestValidate_MalformedPrimitives(t *testing.T) {
	cmd := newCommand(trajectory(1,
		StatePoint{Timestamp: &Timestamp{Nanos: 1_000_000_000}, Position: pos(math.Inf(1), 0, 0)},
	))
	cmd.Timestamp = &Timestamp{Seconds: -1}

	_, err := NewValidator().Validate(cmd)
	v := requireViolations(t, err)
	require.Len(t, v, 3)
	for _, e := range v {
		assert.Equal(t, InvalidValue, e.Kind)
	}
	assert.Equal(t, "timestamp", v[0].Path)
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	cmd := newCommand(
		trajectory(1, StatePoint{}, StatePoint{}),
		&LaneChangeAction{Header: ActionHeader{ActionID: ID(1)}, Duration: Float(-1)},
	)
	cmd.TrafficParticipantID = nil

	_, err := NewValidator().Validate(cmd)
	v := requireViolations(t, err)
	assert.Len(t, v.OfKind(MissingRequiredField), 5)
	assert.Len(t, v.OfKind(DuplicateActionID), 1)
	assert.Len(t, v.OfKind(InvalidValue), 1)
}

func TestValidate_NilCommand(t *testing.T) {
	vc, err := NewValidator().Validate(nil)
	assert.Nil(t, vc)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestValidate_VersionShortCircuits(t *testing.T) {
	cmd := newCommand(trajectory(1))
	cmd.Version = &InterfaceVersion{Major: 2, Minor: 9}

	_, err := NewValidator(WithVersionCheck(DefaultVersionRange)).Validate(cmd)
	require.Error(t, err)
	var verr *VersionError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrVersionIncompatible)
	_, isViolations := AsViolations(err)
	assert.False(t, isViolations)
}

func TestValidate_ResultIsDetachedFromInput(t *testing.T) {
	cmd := newCommand(trajectory(1, StatePoint{Timestamp: ts(1), Position: pos(1, 1, 1)}))
	vc, err := NewValidator().Validate(cmd)
	require.NoError(t, err)

	traj, _ := cmd.Actions[0].FollowTrajectory()
	traj.TrajectoryPoints[0].Position.X = 99
	*cmd.TrafficParticipantID = 99

	assert.Equal(t, Identifier(7), vc.TrafficParticipantID())
	got, ok := vc.Actions()[0].FollowTrajectory()
	require.True(t, ok)
	assert.Equal(t, 1.0, got.TrajectoryPoints[0].Position.X)

	// Copies handed out do not alias the validated tree either.
	got.TrajectoryPoints[0].Position.X = 42
	again, _ := vc.Command().Actions[0].FollowTrajectory()
	assert.Equal(t, 1.0, again.TrajectoryPoints[0].Position.X)
}

// mapRegistry is a minimal IDRegistry for exercising session scope.
type mapRegistry struct {
	mu   sync.Mutex
	seen map[Identifier]map[Identifier]bool
}

func (r *mapRegistry) Reserve(participant Identifier, ids []Identifier) []Identifier {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = make(map[Identifier]map[Identifier]bool)
	}
	set := r.seen[participant]
	var dups []Identifier
	for _, id := range ids {
		if set[id] {
			dups = append(dups, id)
		}
	}
	if len(dups) > 0 {
		return dups
	}
	if set == nil {
		set = make(map[Identifier]bool)
		r.seen[participant] = set
	}
	for _, id := range ids {
		set[id] = true
	}
	return nil
}

func TestValidate_SessionScope(t *testing.T) {
	reg := &mapRegistry{}
	v := NewValidator(WithSessionRegistry(reg))
	assert.Equal(t, ScopeSession, v.Scope())
	assert.Equal(t, ScopeMessage, NewValidator().Scope())

	first := newCommand(&LaneChangeAction{Header: ActionHeader{ActionID: ID(1)}})
	_, err := v.Validate(first)
	require.NoError(t, err)

	// A failing command must not reserve its ids.
	bad := newCommand(
		&LaneChangeAction{Header: ActionHeader{ActionID: ID(2)}},
		&LaneChangeAction{Header: ActionHeader{ActionID: ID(3)}, Duration: Float(-1)},
	)
	_, err = v.Validate(bad)
	requireViolations(t, err)

	again := newCommand(
		&LaneChangeAction{Header: ActionHeader{ActionID: ID(2)}},
		&LaneChangeAction{Header: ActionHeader{ActionID: ID(1)}},
	)
	_, err = v.Validate(again)
	viol := requireViolations(t, err)
	require.Len(t, viol, 1)
	assert.Equal(t, DuplicateActionID, viol[0].Kind)
	assert.Equal(t, Identifier(1), *viol[0].ActionID)
	assert.Equal(t, "action[1].lane_change_action.action_header.action_id", viol[0].Path)

	// Same ids for another participant are fine.
	other := newCommand(&LaneChangeAction{Header: ActionHeader{ActionID: ID(1)}})
	other.TrafficParticipantID = ID(8)
	_, err = v.Validate(other)
	require.NoError(t, err)

	// Message scope ignores session history.
	_, err = NewValidator().Validate(again)
	require.NoError(t, err)
}

func TestValidateSession_CallerRegistry(t *testing.T) {
	reg := &mapRegistry{}
	v := NewValidator()
	cmd := newCommand(&LaneChangeAction{Header: ActionHeader{ActionID: ID(1)}})

	_, err := v.ValidateSession(cmd, reg)
	require.NoError(t, err)
	_, err = v.ValidateSession(cmd, reg)
	assert.ErrorIs(t, err, ErrDuplicateActionID)
}

func TestValidate_ConcurrentSessionReservations(t *testing.T) {
	reg := &mapRegistry{}
	v := NewValidator(WithSessionRegistry(reg))

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd := newCommand(&LaneChangeAction{Header: ActionHeader{ActionID: ID(42)}})
			if _, err := v.Validate(cmd); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
}

func TestParseUniquenessScope(t *testing.T) {
	s, err := ParseUniquenessScope("Session")
	require.NoError(t, err)
	assert.Equal(t, ScopeSession, s)

	s, err = ParseUniquenessScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeMessage, s)

	_, err = ParseUniquenessScope("global")
	assert.Error(t, err)
}

func TestTimestampDuration(t *testing.T) {
	assert.Equal(t, 2*time.Second+500*time.Millisecond, Timestamp{Seconds: 2, Nanos: 500_000_000}.Duration())
	assert.Equal(t, time.Duration(0), Timestamp{}.Duration())
}
