package osi

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UniquenessScope sets how far action id uniqueness is enforced.
type UniquenessScope int

const (
	// ScopeMessage checks uniqueness within one TrafficCommand.
	ScopeMessage UniquenessScope = iota
	// ScopeSession additionally checks against every id previously
	// accepted for the same participant, tracked by an IDRegistry.
	ScopeSession
)

func (s UniquenessScope) String() string {
	if s == ScopeSession {
		return "session"
	}
	return "message"
}

// ParseUniquenessScope parses "message" or "session".
func ParseUniquenessScope(s string) (UniquenessScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "message":
		return ScopeMessage, nil
	case "session":
		return ScopeSession, nil
	}
	return ScopeMessage, fmt.Errorf("unknown uniqueness scope %q", s)
}

// IDRegistry tracks action ids already issued to a participant. Reserve
// must atomically check ids against the registry and, only when none of
// them was seen before, record all of them. It returns the ids that were
// already present. Implementations must be safe for concurrent use.
type IDRegistry interface {
	Reserve(participant Identifier, ids []Identifier) []Identifier
}

// Validator checks TrafficCommand trees. It holds no mutable state of its
// own and is safe for concurrent use; session uniqueness lives in the
// injected IDRegistry.
type Validator struct {
	registry IDRegistry
	versions *VersionRange
}

// Option configures a Validator.
type Option func(*Validator)

// WithSessionRegistry enables ScopeSession uniqueness backed by r.
func WithSessionRegistry(r IDRegistry) Option {
	return func(v *Validator) {
		v.registry = r
	}
}

// WithVersionCheck makes Validate reject commands whose version is outside
// r before any field is inspected.
func WithVersionCheck(r VersionRange) Option {
	return func(v *Validator) {
		v.versions = &r
	}
}

// NewValidator creates a Validator. Without options it checks message-scope
// uniqueness and no version.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Scope reports the uniqueness scope the validator enforces.
func (v *Validator) Scope() UniquenessScope {
	if v.registry != nil {
		return ScopeSession
	}
	return ScopeMessage
}

// Validate walks cmd depth-first and returns either a ValidatedCommand or
// an error. Field problems are returned together as Violations; a version
// mismatch is returned alone as *VersionError.
func (v *Validator) Validate(cmd *TrafficCommand) (*ValidatedCommand, error) {
	return v.run(cmd, nil, v.registry)
}

// ValidateSession is Validate with a caller-scoped registry overriding the
// configured one.
func (v *Validator) ValidateSession(cmd *TrafficCommand, reg IDRegistry) (*ValidatedCommand, error) {
	return v.run(cmd, nil, reg)
}

// ValidateRaw resolves the action choice of a decoded message and
// validates the result in the same pass.
func (v *Validator) ValidateRaw(raw *RawTrafficCommand) (*ValidatedCommand, error) {
	if raw == nil {
		return v.run(nil, nil, v.registry)
	}
	cmd, bridged := raw.Resolve()
	failed := make(map[string]*ValidationError, len(bridged))
	for _, e := range bridged {
		failed[e.Path] = e
	}
	return v.run(cmd, failed, v.registry)
}

func (v *Validator) run(cmd *TrafficCommand, bridged map[string]*ValidationError, reg IDRegistry) (*ValidatedCommand, error) {
	if cmd == nil {
		return nil, Violations{{Kind: MissingRequiredField, Reason: "command is nil"}}
	}
	if v.versions != nil {
		if err := RequireVersion(cmd.Version, *v.versions); err != nil {
			return nil, err
		}
	}

	w := &walker{bridged: bridged, seen: make(map[Identifier]int)}
	w.command(cmd)
	if len(w.out) > 0 {
		return nil, w.out
	}

	if reg != nil {
		ids := make([]Identifier, len(cmd.Actions))
		for i, a := range cmd.Actions {
			ids[i] = *a.Action().ActionHeader().ActionID
		}
		if dups := reg.Reserve(*cmd.TrafficParticipantID, ids); len(dups) > 0 {
			var out Violations
			for _, id := range dups {
				out = append(out, &ValidationError{
					Kind:     DuplicateActionID,
					Path:     actionPath(w.seen[id]) + ".action_header.action_id",
					ActionID: clonePtr(&id),
					Reason:   fmt.Sprintf("already issued to participant %d in this session", uint64(*cmd.TrafficParticipantID)),
				})
			}
			return nil, out
		}
	}

	return &ValidatedCommand{cmd: cmd.Clone()}, nil
}

type walker struct {
	out     Violations
	bridged map[string]*ValidationError
	seen    map[Identifier]int // action id -> index of first action using it
}

func (w *walker) add(kind ErrorKind, path, reason string) {
	w.out = append(w.out, &ValidationError{Kind: kind, Path: path, Reason: reason})
}

func (w *walker) missing(path string) {
	w.add(MissingRequiredField, path, "")
}

func (w *walker) command(c *TrafficCommand) {
	if c.TrafficParticipantID == nil {
		w.missing("traffic_participant_id")
	}
	if c.Timestamp == nil {
		w.missing("timestamp")
	} else {
		w.timestamp("timestamp", *c.Timestamp)
	}
	for i, a := range c.Actions {
		path := actionPath(i)
		if e, ok := w.bridged[path]; ok {
			w.out = append(w.out, e)
			continue
		}
		w.action(i, path, a)
	}
}

func (w *walker) action(index int, path string, a TrafficAction) {
	act := a.Action()
	if act == nil {
		w.add(AmbiguousActionChoice, path, "no action variant is set")
		return
	}
	path += "." + act.Kind().String()
	w.header(index, path+".action_header", act.ActionHeader())

	switch act := act.(type) {
	case *FollowTrajectoryAction:
		w.points(path+".trajectory_point", act.TrajectoryPoints, true, act.ConstrainOrientation)
		w.followingMode(path+".following_mode", act.FollowingMode)
	case *FollowPathAction:
		w.points(path+".path_point", act.PathPoints, false, act.ConstrainOrientation)
		w.followingMode(path+".following_mode", act.FollowingMode)
	case *AcquireGlobalPositionAction:
		if act.Position == nil {
			w.missing(path + ".position")
		} else {
			w.position(path+".position", *act.Position)
		}
		if act.Orientation != nil {
			w.orientation(path+".orientation", *act.Orientation)
		}
	case *LaneChangeAction:
		w.nonNegative(path+".duration", act.Duration)
		w.nonNegative(path+".distance", act.Distance)
		if !act.DynamicsShape.Known() {
			w.add(InvalidValue, path+".dynamics_shape", "unknown value "+strconv.Itoa(int(act.DynamicsShape)))
		}
	}
}

func (w *walker) header(index int, path string, h ActionHeader) {
	if h.ActionID == nil {
		w.missing(path + ".action_id")
		return
	}
	id := *h.ActionID
	if first, ok := w.seen[id]; ok {
		w.out = append(w.out, &ValidationError{
			Kind:     DuplicateActionID,
			Path:     path + ".action_id",
			ActionID: clonePtr(&id),
			Reason:   "also used by " + actionPath(first),
		})
		return
	}
	w.seen[id] = index
}

// points checks a trajectory (timed) or path (untimed) point sequence.
func (w *walker) points(path string, points []StatePoint, timed, constrainOrientation bool) {
	if len(points) == 0 {
		w.add(MissingRequiredField, path, "at least one point is required")
		return
	}
	for i, p := range points {
		pp := fmt.Sprintf("%s[%d]", path, i)
		if timed {
			if p.Timestamp == nil {
				w.missing(pp + ".timestamp")
			} else {
				w.timestamp(pp+".timestamp", *p.Timestamp)
			}
		}
		if p.Position == nil {
			w.missing(pp + ".position")
		} else {
			w.position(pp+".position", *p.Position)
		}
		switch {
		case p.Orientation != nil:
			w.orientation(pp+".orientation", *p.Orientation)
		case constrainOrientation:
			w.add(MissingRequiredField, pp+".orientation", "required when constrain_orientation is set")
		}
	}
}

func (w *walker) timestamp(path string, t Timestamp) {
	if reason := t.wellFormed(); reason != "" {
		w.add(InvalidValue, path, reason)
	}
}

func (w *walker) position(path string, v Vector3d) {
	if reason := v.wellFormed(); reason != "" {
		w.add(InvalidValue, path, reason)
	}
}

func (w *walker) orientation(path string, o Orientation3d) {
	if reason := o.wellFormed(); reason != "" {
		w.add(InvalidValue, path, reason)
	}
}

func (w *walker) followingMode(path string, m FollowingMode) {
	if !m.Known() {
		w.add(InvalidValue, path, "unknown value "+strconv.Itoa(int(m)))
	}
}

func (w *walker) nonNegative(path string, f *float64) {
	switch {
	case f == nil:
	case math.IsNaN(*f) || math.IsInf(*f, 0):
		w.add(InvalidValue, path, "must be finite")
	case *f < 0:
		w.add(InvalidValue, path, fmt.Sprintf("must not be negative, got %g", *f))
	}
}
