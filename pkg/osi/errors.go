package osi

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is matching against ValidationError and VersionError.
var (
	ErrMissingRequiredField  = errors.New("missing required field")
	ErrAmbiguousActionChoice = errors.New("no action variant set")
	ErrMultipleActionsSet    = errors.New("multiple action variants set")
	ErrDuplicateActionID     = errors.New("duplicate action id")
	ErrInvalidValue          = errors.New("invalid value")
	ErrVersionIncompatible   = errors.New("incompatible interface version")
)

// ErrorKind classifies a validation violation.
type ErrorKind int

const (
	MissingRequiredField ErrorKind = iota + 1
	AmbiguousActionChoice
	MultipleActionsSet
	DuplicateActionID
	InvalidValue
)

func (k ErrorKind) String() string {
	switch k {
	case MissingRequiredField:
		return "MissingRequiredField"
	case AmbiguousActionChoice:
		return "AmbiguousActionChoice"
	case MultipleActionsSet:
		return "MultipleActionsSet"
	case DuplicateActionID:
		return "DuplicateActionId"
	case InvalidValue:
		return "InvalidValue"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case MissingRequiredField:
		return ErrMissingRequiredField
	case AmbiguousActionChoice:
		return ErrAmbiguousActionChoice
	case MultipleActionsSet:
		return ErrMultipleActionsSet
	case DuplicateActionID:
		return ErrDuplicateActionID
	case InvalidValue:
		return ErrInvalidValue
	}
	return nil
}

// ValidationError is a single violation found in a message tree.
type ValidationError struct {
	Kind ErrorKind
	// Path locates the offending field, e.g. "action[1].follow_trajectory_action.trajectory_point[0].position".
	Path string
	// ActionID is set for DuplicateActionID violations.
	ActionID *Identifier
	Reason   string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.ActionID != nil {
		fmt.Fprintf(&b, "(%d)", uint64(*e.ActionID))
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Is matches the sentinel of the violation kind.
func (e *ValidationError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Violations is the complete list of problems found in one validation pass.
type Violations []*ValidationError

func (v Violations) Error() string {
	switch len(v) {
	case 0:
		return "no violations"
	case 1:
		return v[0].Error()
	}
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d violations: %s", len(v), strings.Join(msgs, "; "))
}

// Unwrap exposes every violation to errors.Is and errors.As.
func (v Violations) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

// OfKind returns the violations of the given kind.
func (v Violations) OfKind(k ErrorKind) Violations {
	var out Violations
	for _, e := range v {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// AsViolations extracts the violation list from err.
func AsViolations(err error) (Violations, bool) {
	var v Violations
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
