package osi

import "fmt"

// VersionRange is the inclusive range of interface versions a receiver
// understands.
type VersionRange struct {
	Min InterfaceVersion
	Max InterfaceVersion
}

func (r VersionRange) String() string {
	return fmt.Sprintf("[%s, %s]", r.Min, r.Max)
}

// DefaultVersionRange covers the 3.x releases that carry the traffic
// command message.
var DefaultVersionRange = VersionRange{
	Min: InterfaceVersion{Major: 3, Minor: 1, Patch: 0},
	Max: InterfaceVersion{Major: 3, Minor: 7, Patch: 0},
}

// Compatibility is the outcome of CheckVersion.
type Compatibility struct {
	Compatible bool
	Reason     string
}

// CheckVersion classifies the sender's version against the supported range.
// It must run before field validation: fields of an incompatible version
// cannot be interpreted.
func CheckVersion(sent *InterfaceVersion, supported VersionRange) Compatibility {
	if sent == nil {
		return Compatibility{Reason: "version not set"}
	}
	if sent.Compare(supported.Min) < 0 {
		return Compatibility{Reason: fmt.Sprintf("version %s older than minimum %s", sent, supported.Min)}
	}
	if sent.Compare(supported.Max) > 0 {
		return Compatibility{Reason: fmt.Sprintf("version %s newer than maximum %s", sent, supported.Max)}
	}
	return Compatibility{Compatible: true}
}

// VersionError reports an incompatible interface version.
type VersionError struct {
	Sent      *InterfaceVersion
	Supported VersionRange
	Reason    string
}

func (e *VersionError) Error() string {
	sent := "unset"
	if e.Sent != nil {
		sent = e.Sent.String()
	}
	return fmt.Sprintf("VersionIncompatible: sent %s, supported %s: %s", sent, e.Supported, e.Reason)
}

func (e *VersionError) Is(target error) bool {
	return target == ErrVersionIncompatible
}

// RequireVersion is CheckVersion returning a *VersionError on mismatch.
func RequireVersion(sent *InterfaceVersion, supported VersionRange) error {
	c := CheckVersion(sent, supported)
	if c.Compatible {
		return nil
	}
	return &VersionError{Sent: clonePtr(sent), Supported: supported, Reason: c.Reason}
}
