package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

func settings(scope osi.UniquenessScope) Settings {
	return Settings{Codec: "protobuf", Uniqueness: scope, Versions: osi.DefaultVersionRange}
}

func TestBeginEnd(t *testing.T) {
	c := NewContext(settings(osi.ScopeSession))
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	assert.Nil(t, c.Current())
	assert.Equal(t, "", c.ID())

	s, err := c.Begin()
	require.NoError(t, err)
	_, err = uuid.Parse(s.ID)
	require.NoError(t, err)
	assert.Equal(t, fixed, s.StartedAt)
	assert.Equal(t, "protobuf", s.Codec)
	assert.Equal(t, "session", s.Uniqueness)
	assert.Equal(t, "3.1.0", s.VersionMin)
	assert.Equal(t, "3.7.0", s.VersionMax)
	assert.Equal(t, s.ID, c.ID())

	_, err = c.Begin()
	assert.ErrorIs(t, err, ErrActive)

	later := fixed.Add(90 * time.Second)
	c.now = func() time.Time { return later }
	ended, err := c.End()
	require.NoError(t, err)
	assert.Equal(t, s.ID, ended.ID)
	assert.Equal(t, fixed, ended.StartedAt)
	assert.Equal(t, later, ended.EndedAt)
	assert.True(t, s.EndedAt.IsZero(), "Begin hands out a copy")
	assert.Nil(t, c.Current())

	_, err = c.End()
	assert.ErrorIs(t, err, ErrInactive)
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	c := NewContext(settings(osi.ScopeMessage))
	_, err := c.Begin()
	require.NoError(t, err)

	s := c.Current()
	s.ID = "changed"
	assert.NotEqual(t, "changed", c.ID())
}

func TestBegin_ForgetsActionIDs(t *testing.T) {
	c := NewContext(settings(osi.ScopeSession))
	_, err := c.Begin()
	require.NoError(t, err)
	c.Registry().Reserve(1, []osi.Identifier{7})
	assert.True(t, c.Registry().Seen(1, 7))

	_, err = c.End()
	require.NoError(t, err)
	_, err = c.Begin()
	require.NoError(t, err)
	assert.False(t, c.Registry().Seen(1, 7))
}

func TestValidator_Scope(t *testing.T) {
	assert.Equal(t, osi.ScopeMessage, NewContext(settings(osi.ScopeMessage)).Validator().Scope())
	assert.Equal(t, osi.ScopeSession, NewContext(settings(osi.ScopeSession)).Validator().Scope())
}

func TestValidator_ChecksVersion(t *testing.T) {
	v := NewContext(settings(osi.ScopeMessage)).Validator()
	_, err := v.Validate(&osi.TrafficCommand{
		Version:              &osi.InterfaceVersion{Major: 2},
		Timestamp:            &osi.Timestamp{},
		TrafficParticipantID: osi.ID(1),
	})
	assert.ErrorIs(t, err, osi.ErrVersionIncompatible)
}
