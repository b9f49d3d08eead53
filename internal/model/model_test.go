package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"Session", &Session{}, "sessions"},
		{"Command", &Command{}, "commands"},
		{"Action", &Action{}, "actions"},
		{"Rejection", &Rejection{}, "rejections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModels_ParentsFirst(t *testing.T) {
	assert.IsType(t, &Session{}, DatabaseModels[0])
	assert.Len(t, DatabaseModels, 4)
}

func TestDBID_RoundTrip(t *testing.T) {
	for _, id := range []osi.Identifier{0, 1, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64} {
		assert.Equal(t, id, FromDBID(ToDBID(id)))
	}
	assert.Equal(t, int64(-1), ToDBID(math.MaxUint64))
}
