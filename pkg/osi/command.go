package osi

import "fmt"

// TrafficCommand is the top-level envelope sent to one traffic participant.
// All contained actions are executed in parallel.
type TrafficCommand struct {
	Version              *InterfaceVersion
	Timestamp            *Timestamp
	TrafficParticipantID *Identifier
	Actions              []TrafficAction
}

// Clone returns a deep copy of c.
func (c *TrafficCommand) Clone() *TrafficCommand {
	if c == nil {
		return nil
	}
	out := &TrafficCommand{
		Version:              clonePtr(c.Version),
		Timestamp:            clonePtr(c.Timestamp),
		TrafficParticipantID: clonePtr(c.TrafficParticipantID),
	}
	if c.Actions != nil {
		out.Actions = make([]TrafficAction, len(c.Actions))
		for i, a := range c.Actions {
			out.Actions[i] = a.clone()
		}
	}
	return out
}

// Raw returns the wire shape of c.
func (c *TrafficCommand) Raw() *RawTrafficCommand {
	out := &RawTrafficCommand{
		Version:              c.Version,
		Timestamp:            c.Timestamp,
		TrafficParticipantID: c.TrafficParticipantID,
	}
	if c.Actions != nil {
		out.Actions = make([]RawTrafficAction, len(c.Actions))
		for i, a := range c.Actions {
			out.Actions[i] = a.Raw()
		}
	}
	return out
}

// RawTrafficCommand is TrafficCommand as read off the wire, before the
// action choice has been resolved.
type RawTrafficCommand struct {
	Version              *InterfaceVersion
	Timestamp            *Timestamp
	TrafficParticipantID *Identifier
	Actions              []RawTrafficAction
}

// Resolve converts every raw action into its tagged variant. Actions that
// cannot be resolved are left empty in the returned command and reported
// in the violation list.
func (r *RawTrafficCommand) Resolve() (*TrafficCommand, Violations) {
	cmd := &TrafficCommand{
		Version:              r.Version,
		Timestamp:            r.Timestamp,
		TrafficParticipantID: r.TrafficParticipantID,
	}
	var violations Violations
	if r.Actions != nil {
		cmd.Actions = make([]TrafficAction, len(r.Actions))
		for i, ra := range r.Actions {
			ta, verr := ra.Resolve(actionPath(i))
			if verr != nil {
				violations = append(violations, verr)
				continue
			}
			cmd.Actions[i] = ta
		}
	}
	return cmd, violations
}

func actionPath(i int) string {
	return fmt.Sprintf("action[%d]", i)
}

// ValidatedCommand is a TrafficCommand that passed validation. It can only
// be produced by a Validator and is never mutated afterwards; accessors
// hand out copies.
type ValidatedCommand struct {
	cmd *TrafficCommand
}

// Command returns a deep copy of the validated tree.
func (v *ValidatedCommand) Command() *TrafficCommand {
	return v.cmd.Clone()
}

func (v *ValidatedCommand) Version() InterfaceVersion {
	if v.cmd.Version == nil {
		return InterfaceVersion{}
	}
	return *v.cmd.Version
}

func (v *ValidatedCommand) Timestamp() Timestamp {
	return *v.cmd.Timestamp
}

func (v *ValidatedCommand) TrafficParticipantID() Identifier {
	return *v.cmd.TrafficParticipantID
}

// NumActions returns the number of contained actions.
func (v *ValidatedCommand) NumActions() int {
	return len(v.cmd.Actions)
}

// Actions returns copies of the contained actions.
func (v *ValidatedCommand) Actions() []TrafficAction {
	return v.Command().Actions
}

// ActionIDs returns the action ids in message order.
func (v *ValidatedCommand) ActionIDs() []Identifier {
	ids := make([]Identifier, len(v.cmd.Actions))
	for i, a := range v.cmd.Actions {
		ids[i] = *a.Action().ActionHeader().ActionID
	}
	return ids
}
