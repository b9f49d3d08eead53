package influx

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/config"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

var received = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func commandRecord(t *testing.T) *core.CommandRecord {
	t.Helper()
	vc, err := osi.NewValidator().Validate(&osi.TrafficCommand{
		Timestamp:            &osi.Timestamp{Seconds: 4, Nanos: 250_000_000},
		TrafficParticipantID: osi.ID(12),
		Actions: []osi.TrafficAction{
			osi.NewTrafficAction(&osi.LaneChangeAction{Header: osi.ActionHeader{ActionID: osi.ID(1)}}),
			osi.NewTrafficAction(&osi.LaneChangeAction{Header: osi.ActionHeader{ActionID: osi.ID(2)}}),
			osi.NewTrafficAction(&osi.AcquireGlobalPositionAction{Header: osi.ActionHeader{ActionID: osi.ID(3)}, Position: &osi.Vector3d{}}),
		},
	})
	require.NoError(t, err)
	return &core.CommandRecord{SessionID: "s1", Codec: "protobuf", ReceivedAt: received, Command: vc}
}

func influxLine(p *influxdb2_write.Point) string {
	return influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
}

func TestCommandPoint(t *testing.T) {
	p := CommandPoint(commandRecord(t))

	assert.Equal(t, MeasurementCommand, p.Name())
	assert.Equal(t, received, p.Time())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"session": "s1", "codec": "protobuf", "participant": "12"}, tags)

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.EqualValues(t, 3, fields["actions"])
	assert.EqualValues(t, 2, fields["lane_change_action"])
	assert.EqualValues(t, 1, fields["acquire_global_position_action"])
	assert.InDelta(t, 4.25, fields["sim_time"], 1e-9)
}

func TestRejectionPoint(t *testing.T) {
	p := RejectionPoint(&core.Rejection{
		SessionID:            "s1",
		Stage:                core.StageVersion,
		TrafficParticipantID: osi.ID(5),
		Reasons:              []core.Reason{{Kind: "IncompatibleVersion"}},
		ReceivedAt:           received,
	})

	line := strings.TrimSpace(influxLine(p))
	assert.True(t, strings.HasPrefix(line, MeasurementRejection+","), line)
	assert.Contains(t, line, "stage=version")
	assert.Contains(t, line, "participant=5")
	assert.Contains(t, line, "first_kind=IncompatibleVersion")
	assert.Contains(t, line, "reasons=1i")
}

func TestRejectionPoint_NoParticipant(t *testing.T) {
	p := RejectionPoint(&core.Rejection{Stage: core.StageDecode})
	assert.NotContains(t, influxLine(p), "participant=")
	assert.False(t, p.Time().IsZero())
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop())
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.False(t, m.Valid())
}

func TestWritePoint_NotConnected(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop())
	assert.Error(t, m.RecordCommand(commandRecord(t)))
}

func TestConnect_FallsBackToBackup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	backup := filepath.Join(t.TempDir(), "backup.lp.gz")
	m := NewManager(config.InfluxConfig{Enabled: true, URL: srv.URL, Org: "o", Bucket: "b", BackupPath: backup}, zerolog.Nop())

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.Valid())

	require.NoError(t, m.RecordCommand(commandRecord(t)))
	require.NoError(t, m.RecordRejection(&core.Rejection{Stage: core.StageDecode, ReceivedAt: received}))
	require.NoError(t, m.Close())

	f, err := os.Open(backup)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], MeasurementCommand+","))
	assert.True(t, strings.HasPrefix(lines[1], MeasurementRejection+","))
}
