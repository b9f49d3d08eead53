package osi

import "strings"

// TrafficAction holds exactly one action variant. The zero value holds none
// and is rejected by the Validator.
type TrafficAction struct {
	action Action
}

// NewTrafficAction wraps a single action variant. A nil action (or a typed
// nil pointer) yields an empty TrafficAction.
func NewTrafficAction(a Action) TrafficAction {
	if isNilAction(a) {
		return TrafficAction{}
	}
	return TrafficAction{action: a}
}

func isNilAction(a Action) bool {
	switch v := a.(type) {
	case nil:
		return true
	case *FollowTrajectoryAction:
		return v == nil
	case *FollowPathAction:
		return v == nil
	case *AcquireGlobalPositionAction:
		return v == nil
	case *LaneChangeAction:
		return v == nil
	}
	return false
}

// Kind returns the tag of the populated variant, KindNone when empty.
func (t TrafficAction) Kind() ActionKind {
	if t.action == nil {
		return KindNone
	}
	return t.action.Kind()
}

// Action returns the populated variant, or nil.
func (t TrafficAction) Action() Action {
	return t.action
}

// IsEmpty reports whether no variant is populated.
func (t TrafficAction) IsEmpty() bool {
	return t.action == nil
}

func (t TrafficAction) FollowTrajectory() (*FollowTrajectoryAction, bool) {
	a, ok := t.action.(*FollowTrajectoryAction)
	return a, ok
}

func (t TrafficAction) FollowPath() (*FollowPathAction, bool) {
	a, ok := t.action.(*FollowPathAction)
	return a, ok
}

func (t TrafficAction) AcquireGlobalPosition() (*AcquireGlobalPositionAction, bool) {
	a, ok := t.action.(*AcquireGlobalPositionAction)
	return a, ok
}

func (t TrafficAction) LaneChange() (*LaneChangeAction, bool) {
	a, ok := t.action.(*LaneChangeAction)
	return a, ok
}

// Raw returns the legacy four-slot shape of t.
func (t TrafficAction) Raw() RawTrafficAction {
	var r RawTrafficAction
	switch a := t.action.(type) {
	case *FollowTrajectoryAction:
		r.FollowTrajectoryAction = a
	case *FollowPathAction:
		r.FollowPathAction = a
	case *AcquireGlobalPositionAction:
		r.AcquireGlobalPositionAction = a
	case *LaneChangeAction:
		r.LaneChangeAction = a
	}
	return r
}

func (t TrafficAction) clone() TrafficAction {
	if t.action == nil {
		return TrafficAction{}
	}
	return TrafficAction{action: t.action.cloneAction()}
}

// RawTrafficAction is the wire shape of a traffic action: four optional
// slots of which exactly one is meant to be populated. Nothing on the wire
// enforces that, so decoders produce this shape and Resolve bridges it into
// a TrafficAction.
type RawTrafficAction struct {
	FollowTrajectoryAction      *FollowTrajectoryAction
	FollowPathAction            *FollowPathAction
	AcquireGlobalPositionAction *AcquireGlobalPositionAction
	LaneChangeAction            *LaneChangeAction
}

// populated lists the set slots in field-number order.
func (r RawTrafficAction) populated() []Action {
	var out []Action
	if r.FollowTrajectoryAction != nil {
		out = append(out, r.FollowTrajectoryAction)
	}
	if r.FollowPathAction != nil {
		out = append(out, r.FollowPathAction)
	}
	if r.AcquireGlobalPositionAction != nil {
		out = append(out, r.AcquireGlobalPositionAction)
	}
	if r.LaneChangeAction != nil {
		out = append(out, r.LaneChangeAction)
	}
	return out
}

// Resolve converts r into a TrafficAction. It fails with
// AmbiguousActionChoice when no slot is set and MultipleActionsSet when
// more than one is. path locates r in the enclosing message.
func (r RawTrafficAction) Resolve(path string) (TrafficAction, *ValidationError) {
	set := r.populated()
	switch len(set) {
	case 0:
		return TrafficAction{}, &ValidationError{
			Kind:   AmbiguousActionChoice,
			Path:   path,
			Reason: "no action variant is set",
		}
	case 1:
		return TrafficAction{action: set[0]}, nil
	}
	names := make([]string, len(set))
	for i, a := range set {
		names[i] = a.Kind().String()
	}
	return TrafficAction{}, &ValidationError{
		Kind:   MultipleActionsSet,
		Path:   path,
		Reason: "variants set: " + strings.Join(names, ", "),
	}
}
